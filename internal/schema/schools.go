package schema

// Schools is the school collection. The field name "adress" is the
// canonical backend spelling, so the synonym table folds the common
// variants onto it rather than the other way around.
var Schools = &Entity{
	Name:       "schools",
	Collection: "schools",
	Fields: []FieldSpec{
		{Name: "name", Type: FieldText, Searchable: true},
		{Name: "adress", Type: FieldText, Searchable: true},
		{Name: "email", Type: FieldText, Searchable: true},
		{Name: "phone", Type: FieldText, Searchable: true},
		{Name: "city", Type: FieldText, Searchable: true},
		{Name: "correspondant", Type: FieldText, Searchable: true},
		{Name: "ambassadors", Type: FieldStringList},
		{Name: "last_contacted", Type: FieldDate},
		{Name: "priority_score", Type: FieldNumber, ZeroOnCreate: true},
		{Name: "active", Type: FieldBool},
	},
	Synonyms: map[string]string{
		"id":                "id",
		"name":              "name",
		"email":             "email",
		"phone":             "phone",
		"city":              "city",
		"address":           "adress",
		"adresse":           "adress",
		"adress":            "adress",
		"correspondant":     "correspondant",
		"correspondent":     "correspondant",
		"contact":           "correspondant",
		"contactperson":     "correspondant",
		"ambassador":        "ambassadors",
		"ambassadors":       "ambassadors",
		"botschafter":       "ambassadors",
		"lastcontacted":     "last_contacted",
		"lastcontacteddate": "last_contacted",
		"lastcontact":       "last_contacted",
		"priority":          "priority_score",
		"priorityscore":     "priority_score",
		"active":            "active",
		"isactive":          "active",
	},
	ExportFields: []string{
		"id", "name", "adress", "email", "phone", "city", "correspondant",
		"ambassadors", "last_contacted", "priority_score", "active",
		"created", "updated",
	},
	SortFields: []string{
		"name", "adress", "email", "phone", "city", "correspondant",
		"last_contacted", "priority_score", "active", "created", "updated",
	},
	ImportModes: []string{ModeCreate, ModeUpsertEmail},
}

func init() {
	Register(Schools)
}
