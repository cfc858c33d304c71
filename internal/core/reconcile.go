package core

// reconcile.go holds the per-row state machine of the import run. Upsert
// keys are extracted from the raw record, not the coerced payload, so a
// row can still be matched on its key even when the rest of the row fails
// coercion.

import (
	"context"
	"errors"
	"fmt"

	"github.com/avollmer/stammdaten/internal/schema"
	"github.com/avollmer/stammdaten/internal/store"
)

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeUpdated
)

// reconcile maps one record to a create or update call.
func (im *Importer) reconcile(ctx context.Context, ent *schema.Entity, mode string, record map[string]any) (outcome, error) {
	payload := Coerce(ent, record)

	switch mode {
	case schema.ModeCreate:
		return im.create(ctx, ent, payload)

	case schema.ModeUpsertEmail:
		email := normalizeText(record["email"])
		if email == "" {
			return 0, errors.New("missing email key")
		}
		return im.upsert(ctx, ent, "email", email, payload)

	case schema.ModeUpsertIdentification:
		id, ok := toNumber(record["identification"])
		if !ok {
			return 0, errors.New("missing or non-numeric identification key")
		}
		return im.upsert(ctx, ent, "identification", id, payload)
	}

	return 0, fmt.Errorf("unknown import mode %q", mode)
}

// create issues a create call with active defaulted to true when the row
// did not carry it.
func (im *Importer) create(ctx context.Context, ent *schema.Entity, payload map[string]any) (outcome, error) {
	if _, ok := payload["active"]; !ok {
		payload["active"] = true
	}
	if _, err := im.store.Create(ctx, ent.Collection, payload); err != nil {
		return 0, fmt.Errorf("create: %w", err)
	}
	return outcomeCreated, nil
}

// upsert looks up the record by its key field and applies the payload as
// a partial update on a hit, or creates with the key merged in on a miss.
// A lookup error that is not the store's not-found signal fails the row
// without attempting a create, to avoid duplicate-key races.
func (im *Importer) upsert(ctx context.Context, ent *schema.Entity, keyField string, key any, payload map[string]any) (outcome, error) {
	existing, err := im.store.GetOne(ctx, ent.Collection, keyField, key)
	switch {
	case err == nil:
		if _, err := im.store.Update(ctx, ent.Collection, existing.ID(), payload); err != nil {
			return 0, fmt.Errorf("update %s=%v: %w", keyField, key, err)
		}
		return outcomeUpdated, nil

	case errors.Is(err, store.ErrNotFound):
		payload[keyField] = key
		return im.create(ctx, ent, payload)

	default:
		return 0, fmt.Errorf("lookup %s=%v: %w", keyField, key, err)
	}
}
