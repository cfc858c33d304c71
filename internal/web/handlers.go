package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avollmer/stammdaten/internal/core"
	"github.com/avollmer/stammdaten/internal/logging"
	"github.com/avollmer/stammdaten/internal/schema"
	"github.com/avollmer/stammdaten/internal/store"
)

// entityFromRequest resolves the {entity} route parameter.
func entityFromRequest(r *http.Request) (*schema.Entity, bool) {
	ent, ok := schema.Get(chi.URLParam(r, "entity"))
	return ent, ok
}

// handleList runs a filtered, sorted, page-capped list query. The query
// runs under the request context, so a client abandoning the request
// (e.g. a superseded keystroke search) cancels the in-flight store call.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ent, ok := entityFromRequest(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity")
		return
	}

	query := core.CompileQuery(ent, parseFilterState(r, ent), r.URL.Query().Get("q"), parseSort(r))
	records, err := s.store.List(r.Context(), query)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"items": records})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ent, ok := entityFromRequest(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity")
		return
	}

	body, err := decodeObject(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload := core.CreateDefaults(ent, core.Coerce(ent, core.NormalizeKeys(ent, body)))
	rec, err := s.store.Create(r.Context(), ent.Collection, payload)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ent, ok := entityFromRequest(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity")
		return
	}

	body, err := decodeObject(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload := core.Coerce(ent, core.NormalizeKeys(ent, body))
	rec, err := s.store.Update(r.Context(), ent.Collection, chi.URLParam(r, "id"), payload)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ent, ok := entityFromRequest(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity")
		return
	}

	if err := s.store.Delete(r.Context(), ent.Collection, chi.URLParam(r, "id")); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// bulkRequest is the body of the bulk endpoints. Value is only read by
// bulk update.
type bulkRequest struct {
	IDs   []string `json:"ids"`
	Field string   `json:"field"`
	Value any      `json:"value"`
}

// handleBulkUpdate applies one field=value to an explicit id set. The
// store decides whether that is one batched call or a per-id loop; either
// way partial failure is not rolled back.
func (s *Server) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	ent, ok := entityFromRequest(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity")
		return
	}

	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids must not be empty")
		return
	}
	if _, ok := ent.Field(req.Field); !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown field %q", req.Field))
		return
	}

	payload := core.Coerce(ent, map[string]any{req.Field: req.Value})
	if len(payload) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("value not usable for field %q", req.Field))
		return
	}

	if err := s.store.BulkUpdate(r.Context(), ent.Collection, req.IDs, payload); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"updated": len(req.IDs)})
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	ent, ok := entityFromRequest(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity")
		return
	}

	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids must not be empty")
		return
	}

	if err := s.store.BulkDelete(r.Context(), ent.Collection, req.IDs); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"deleted": len(req.IDs)})
}

// handleImport accepts a multipart upload (file + mode), runs the
// reconciliation engine synchronously, and returns the summary. Malformed
// files fail the whole run; row failures only show up in the counters.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ent, ok := entityFromRequest(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxImportSize)
	if err := r.ParseMultipartForm(s.opts.MaxImportSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large or malformed form")
		return
	}

	mode := r.FormValue("mode")
	if mode == "" {
		mode = schema.ModeCreate
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable file")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.ImportTimeout)
	defer cancel()

	summary, err := s.importer.Run(ctx, ent, header.Filename, data, mode)
	if err != nil {
		logging.FromContext(r.Context()).Warn("import aborted",
			"entity", ent.Name,
			"file", header.Filename,
			"error", err,
		)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logging.FromContext(r.Context()).Info("import finished",
		"entity", ent.Name,
		"file", header.Filename,
		"created", summary.Created,
		"updated", summary.Updated,
		"failed", summary.Failed,
	)
	respondJSON(w, http.StatusOK, summary)
}

// handleExport streams a projected document for download. Any store
// failure aborts the export before a byte is written; no partial file is
// produced.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ent, ok := entityFromRequest(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity")
		return
	}

	scope := core.ExportScope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = core.ScopeFiltered
	}
	format := core.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = core.FormatCSV
	}

	records, err := s.exportRecords(r, ent, scope)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	doc, err := core.Project(ent, records, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contentType := "text/csv"
	if format == core.FormatJSON {
		contentType = "application/json"
	}
	name := core.FileName(ent, scope, format, time.Now())

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(doc)
}

// exportRecords resolves the record set for an export scope.
func (s *Server) exportRecords(r *http.Request, ent *schema.Entity, scope core.ExportScope) ([]store.Record, error) {
	switch scope {
	case core.ScopeSelected:
		ids := splitIDs(r.URL.Query().Get("ids"))
		if len(ids) == 0 {
			return nil, nil
		}
		records := make([]store.Record, 0, len(ids))
		for _, id := range ids {
			rec, err := s.store.GetOne(r.Context(), ent.Collection, "id", id)
			if err != nil {
				return nil, fmt.Errorf("fetch %s: %w", id, err)
			}
			records = append(records, rec)
		}
		return records, nil

	case core.ScopeAll:
		query := core.CompileQuery(ent, core.FilterState{}, "", parseSort(r))
		return s.store.ListAll(r.Context(), query)

	case core.ScopeFiltered:
		query := core.CompileQuery(ent, parseFilterState(r, ent), r.URL.Query().Get("q"), parseSort(r))
		return s.store.ListAll(r.Context(), query)
	}

	return nil, fmt.Errorf("unknown export scope %q", scope)
}

// decodeObject reads a single JSON object body.
func decodeObject(r *http.Request) (map[string]any, error) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, errors.New("request body must be a JSON object")
	}
	return body, nil
}
