package handler

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
	"github.com/marcella-castro/check-pesquisa-mj/internal/service"
	"github.com/marcella-castro/check-pesquisa-mj/internal/snapshot"
	"github.com/marcella-castro/check-pesquisa-mj/internal/table"
)

const schemaName = "validation_request.json"

//go:embed schema/validation_request.json
var requestSchema []byte

type ValidationHandler struct {
	svc    *service.SearchService
	schema *jsonschema.Schema
}

func NewValidationHandler(svc *service.SearchService) (*ValidationHandler, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaName, bytes.NewReader(requestSchema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaName)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &ValidationHandler{svc: svc, schema: schema}, nil
}

// Search validates the responses of the process in the URL. With
// ?format=text the report is rendered as plain text.
func (h *ValidationHandler) Search(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Search(r.Context(), chi.URLParam(r, "numero"))
	switch {
	case errors.Is(err, service.ErrInvalidNumber):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, snapshot.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, "dados ainda não carregados, tente novamente em instantes")
		return
	case err != nil:
		zap.S().Errorw("Search failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, service.RenderText(res.Errors))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type tableInput struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Validate audits tables posted by the caller.
func (h *ValidationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.schema.Validate(payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "request does not match schema",
			"details": err.Error(),
		})
		return
	}

	var req map[string]tableInput
	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.ValidateTables(buildTables(req)))
}

// buildTables turns posted tables into cleaned category tables, the same
// cleaning the search path applies.
func buildTables(req map[string]tableInput) map[models.Category]*table.Table {
	out := make(map[models.Category]*table.Table, len(req))
	for name, in := range req {
		c := models.Category(name)
		rows := make([]table.Row, 0, len(in.Rows))
		for _, cells := range in.Rows {
			row := make(table.Row, len(cells))
			for col, v := range cells {
				if s, ok := cellString(v); ok {
					row[col] = s
				}
			}
			rows = append(rows, row)
		}
		out[c] = table.New(c, in.Columns, rows).Clean()
	}
	return out
}

func cellString(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return fmt.Sprint(v), true
}
