// Package pbrest implements the record store against a PocketBase-style
// REST API. This is the string-predicate dialect: the compiled predicate
// set renders as a filter expression string (see filter.go) passed in the
// query string. The server responds with HTTP 404 for missing records,
// which this package maps onto store.ErrNotFound.
package pbrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avollmer/stammdaten/internal/store"
)

// listPageSize is the page size used when walking all pages for export.
const listPageSize = 200

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.client = c }
}

// WithAuthToken sends the token in the Authorization header of every
// request.
func WithAuthToken(token string) Option {
	return func(s *Store) { s.token = token }
}

// WithAutoIncrement makes Create assign max+1 of the given field when the
// payload does not carry it. The REST API has no server-side counter, so
// the next value comes from a highest-value lookup before the insert;
// concurrent imports against the same collection can race, which matches
// the reference behavior.
func WithAutoIncrement(collection, field string) Option {
	return func(s *Store) { s.autoIncrement[collection] = field }
}

// Store is the REST record store.
type Store struct {
	baseURL       string
	client        *http.Client
	token         string
	autoIncrement map[string]string
}

// New creates a store for the API at baseURL.
func New(baseURL string, opts ...Option) *Store {
	s := &Store{
		baseURL:       baseURL,
		client:        &http.Client{Timeout: 30 * time.Second},
		autoIncrement: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// listResponse is the envelope of a records list call.
type listResponse struct {
	Page       int              `json:"page"`
	PerPage    int              `json:"perPage"`
	TotalItems int              `json:"totalItems"`
	Items      []map[string]any `json:"items"`
}

// apiError is the envelope of an error response.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Store) List(ctx context.Context, q store.Query) ([]store.Record, error) {
	items, err := s.listPage(ctx, q.Collection, renderFilter(q.Filter), renderSort(q.Sort), 1, q.EffectivePageSize())
	if err != nil {
		return nil, err
	}
	return toRecords(items), nil
}

func (s *Store) ListAll(ctx context.Context, q store.Query) ([]store.Record, error) {
	filter := renderFilter(q.Filter)
	sortBy := renderSort(q.Sort)

	var records []store.Record
	for page := 1; ; page++ {
		items, err := s.listPage(ctx, q.Collection, filter, sortBy, page, listPageSize)
		if err != nil {
			return nil, err
		}
		records = append(records, toRecords(items)...)
		if len(items) < listPageSize {
			return records, nil
		}
	}
}

func (s *Store) GetOne(ctx context.Context, collection, field string, value any) (store.Record, error) {
	filter := renderCond(store.Cond{Field: field, Op: store.OpEquals, Value: value})
	items, err := s.listPage(ctx, collection, filter, "", 1, 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, store.ErrNotFound
	}
	return store.Record(items[0]), nil
}

func (s *Store) Create(ctx context.Context, collection string, payload map[string]any) (store.Record, error) {
	if field, ok := s.autoIncrement[collection]; ok {
		if _, set := payload[field]; !set {
			next, err := s.nextValue(ctx, collection, field)
			if err != nil {
				return nil, err
			}
			payload[field] = next
		}
	}

	var rec map[string]any
	path := fmt.Sprintf("/api/collections/%s/records", url.PathEscape(collection))
	if err := s.do(ctx, http.MethodPost, path, nil, payload, &rec); err != nil {
		return nil, err
	}
	return store.Record(rec), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, payload map[string]any) (store.Record, error) {
	var rec map[string]any
	path := fmt.Sprintf("/api/collections/%s/records/%s", url.PathEscape(collection), url.PathEscape(id))
	if err := s.do(ctx, http.MethodPatch, path, nil, payload, &rec); err != nil {
		return nil, err
	}
	return store.Record(rec), nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	path := fmt.Sprintf("/api/collections/%s/records/%s", url.PathEscape(collection), url.PathEscape(id))
	return s.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// BulkUpdate patches ids one at a time in order and aborts on the first
// failure; records before the failure stay updated.
func (s *Store) BulkUpdate(ctx context.Context, collection string, ids []string, payload map[string]any) error {
	for _, id := range ids {
		if _, err := s.Update(ctx, collection, id, payload); err != nil {
			return fmt.Errorf("update %s: %w", id, err)
		}
	}
	return nil
}

// BulkDelete deletes ids one at a time, best effort. Already-missing
// records are not an error; everything else is collected and returned
// after the loop finishes.
func (s *Store) BulkDelete(ctx context.Context, collection string, ids []string) error {
	var errs []error
	for _, id := range ids {
		err := s.Delete(ctx, collection, id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// nextValue returns one past the highest stored value of the field.
func (s *Store) nextValue(ctx context.Context, collection, field string) (float64, error) {
	items, err := s.listPage(ctx, collection, "", "-"+field, 1, 1)
	if err != nil {
		return 0, fmt.Errorf("lookup next %s: %w", field, err)
	}
	if len(items) == 0 {
		return 1, nil
	}
	current, _ := items[0][field].(float64)
	return current + 1, nil
}

func (s *Store) listPage(ctx context.Context, collection, filter, sortBy string, page, perPage int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("perPage", strconv.Itoa(perPage))
	params.Set("skipTotal", "1")
	if filter != "" {
		params.Set("filter", filter)
	}
	if sortBy != "" {
		params.Set("sort", sortBy)
	}

	var resp listResponse
	path := fmt.Sprintf("/api/collections/%s/records", url.PathEscape(collection))
	if err := s.do(ctx, http.MethodGet, path, params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// do performs one API round trip, decoding the response into out when
// non-nil. HTTP 404 maps to store.ErrNotFound; other non-2xx statuses
// surface the server's error message.
func (s *Store) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	u := s.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return store.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Message, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func toRecords(items []map[string]any) []store.Record {
	records := make([]store.Record, len(items))
	for i, item := range items {
		records[i] = store.Record(item)
	}
	return records
}
