package schema

// Reconciliation modes an entity may opt into.
const (
	ModeCreate               = "create"
	ModeUpsertEmail          = "upsert_email"
	ModeUpsertIdentification = "upsert_identification"
)

// Members is the ambassador collection. Each member carries a strictly
// increasing integer identification assigned by the store at creation;
// it is immutable afterwards.
var Members = &Entity{
	Name:       "members",
	Collection: "members",
	Fields: []FieldSpec{
		{Name: "identification", Type: FieldNumber},
		{Name: "name", Type: FieldText, Searchable: true},
		{Name: "email", Type: FieldText, Searchable: true},
		{Name: "phone", Type: FieldText, Searchable: true},
		{Name: "city", Type: FieldText, Searchable: true},
		{Name: "active", Type: FieldBool},
	},
	Synonyms: map[string]string{
		"id":             "id",
		"identification": "identification",
		"memberid":       "identification",
		"name":           "name",
		"email":          "email",
		"phone":          "phone",
		"city":           "city",
		"active":         "active",
		"isactive":       "active",
	},
	ExportFields: []string{
		"id", "identification", "name", "email", "phone", "city",
		"active", "created", "updated",
	},
	SortFields: []string{
		"identification", "name", "email", "phone", "city",
		"active", "created", "updated",
	},
	ImportModes: []string{ModeCreate, ModeUpsertEmail, ModeUpsertIdentification},
	UniqueKey:   "identification",
}

func init() {
	Register(Members)
}
