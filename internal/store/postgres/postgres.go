// Package postgres implements the record store on PostgreSQL via pgx.
// This is the query-builder dialect: the compiled predicate set renders
// as parameterized SQL (see sql.go). The id column is a uuid with a
// server-side default; created/updated are timestamptz columns maintained
// by the database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avollmer/stammdaten/internal/store"
)

// timeLayout is the textual form timestamps take in records, matching the
// engine's date-boundary rendering.
const timeLayout = "2006-01-02 15:04:05"

// DBTX is the database interface. Satisfied by both *pgxpool.Pool and
// pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Option configures a Store.
type Option func(*Store)

// WithAutoIncrement makes Create assign max+1 of the given column when
// the payload does not carry it. The expression runs inside the insert
// statement, so concurrent creates cannot observe a stale maximum within
// one statement's snapshot.
func WithAutoIncrement(collection, column string) Option {
	return func(s *Store) {
		s.autoIncrement[collection] = column
	}
}

// Store is the PostgreSQL record store.
type Store struct {
	db            DBTX
	autoIncrement map[string]string
}

// New creates a store on the given connection or pool.
func New(db DBTX, opts ...Option) *Store {
	s := &Store{
		db:            db,
		autoIncrement: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) List(ctx context.Context, q store.Query) ([]store.Record, error) {
	where, args := buildWhere(q.Filter)
	sql := fmt.Sprintf("SELECT * FROM %s%s%s LIMIT %d",
		quoteIdentifier(q.Collection), where, buildOrder(q.Sort), q.EffectivePageSize())
	return s.queryRecords(ctx, sql, args)
}

func (s *Store) ListAll(ctx context.Context, q store.Query) ([]store.Record, error) {
	where, args := buildWhere(q.Filter)
	sql := fmt.Sprintf("SELECT * FROM %s%s%s",
		quoteIdentifier(q.Collection), where, buildOrder(q.Sort))
	return s.queryRecords(ctx, sql, args)
}

func (s *Store) GetOne(ctx context.Context, collection, field string, value any) (store.Record, error) {
	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1 LIMIT 1",
		quoteIdentifier(collection), quoteIdentifier(field))
	records, err := s.queryRecords(ctx, sql, []any{value})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, store.ErrNotFound
	}
	return records[0], nil
}

func (s *Store) Create(ctx context.Context, collection string, payload map[string]any) (store.Record, error) {
	cols := sortedKeys(payload)

	var (
		colParts []string
		valParts []string
		args     []any
	)
	for _, col := range cols {
		colParts = append(colParts, quoteIdentifier(col))
		valParts = append(valParts, fmt.Sprintf("$%d", len(args)+1))
		args = append(args, payload[col])
	}

	if column, ok := s.autoIncrement[collection]; ok {
		if _, set := payload[column]; !set {
			colParts = append(colParts, quoteIdentifier(column))
			valParts = append(valParts, fmt.Sprintf(
				"(SELECT COALESCE(MAX(%s), 0) + 1 FROM %s)",
				quoteIdentifier(column), quoteIdentifier(collection)))
		}
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		quoteIdentifier(collection),
		strings.Join(colParts, ", "),
		strings.Join(valParts, ", "))
	return s.queryOne(ctx, sql, args)
}

func (s *Store) Update(ctx context.Context, collection, id string, payload map[string]any) (store.Record, error) {
	var (
		setParts []string
		args     []any
	)
	for _, col := range sortedKeys(payload) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", quoteIdentifier(col), len(args)+1))
		args = append(args, payload[col])
	}
	setParts = append(setParts, "updated = now()")

	args = append(args, id)
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING *",
		quoteIdentifier(collection), strings.Join(setParts, ", "), len(args))

	rec, err := s.queryOne(ctx, sql, args)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return rec, err
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE id = $1", quoteIdentifier(collection))
	tag, err := s.db.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// BulkUpdate patches all ids in one statement; the batch either applies
// or fails as a whole.
func (s *Store) BulkUpdate(ctx context.Context, collection string, ids []string, payload map[string]any) error {
	if len(ids) == 0 {
		return nil
	}

	var (
		setParts []string
		args     []any
	)
	for _, col := range sortedKeys(payload) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", quoteIdentifier(col), len(args)+1))
		args = append(args, payload[col])
	}
	setParts = append(setParts, "updated = now()")

	args = append(args, ids)
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = ANY($%d)",
		quoteIdentifier(collection), strings.Join(setParts, ", "), len(args))

	if _, err := s.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("bulk update: %w", err)
	}
	return nil
}

func (s *Store) BulkDelete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", quoteIdentifier(collection))
	if _, err := s.db.Exec(ctx, sql, ids); err != nil {
		return fmt.Errorf("bulk delete: %w", err)
	}
	return nil
}

func (s *Store) queryRecords(ctx context.Context, sql string, args []any) ([]store.Record, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collect rows: %w", err)
	}

	records := make([]store.Record, len(maps))
	for i, m := range maps {
		records[i] = normalizeRecord(m)
	}
	return records, nil
}

func (s *Store) queryOne(ctx context.Context, sql string, args []any) (store.Record, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("collect row: %w", err)
	}
	return normalizeRecord(m), nil
}

// normalizeRecord converts driver types to the record value set the
// engine works with: uuid bytes to strings, timestamps to the sortable
// textual layout, integer widths to int64, and text arrays to []string.
func normalizeRecord(m map[string]any) store.Record {
	rec := make(store.Record, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case time.Time:
			rec[k] = t.UTC().Format(timeLayout)
		case [16]byte:
			rec[k] = uuid.UUID(t).String()
		case int32:
			rec[k] = int64(t)
		case []any:
			items := make([]string, len(t))
			for i, item := range t {
				items[i] = fmt.Sprint(item)
			}
			rec[k] = items
		default:
			rec[k] = v
		}
	}
	return rec
}

// sortedKeys returns payload keys in deterministic order so generated SQL
// is stable for logging and tests.
func sortedKeys(payload map[string]any) []string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
