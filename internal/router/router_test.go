package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcella-castro/check-pesquisa-mj/internal/handler"
	"github.com/marcella-castro/check-pesquisa-mj/internal/limesurvey"
	"github.com/marcella-castro/check-pesquisa-mj/internal/metrics"
	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
	"github.com/marcella-castro/check-pesquisa-mj/internal/service"
	"github.com/marcella-castro/check-pesquisa-mj/internal/snapshot"
	"github.com/marcella-castro/check-pesquisa-mj/internal/table"
)

const cnj = "1234567-89.2023.1.01.0001"

type staticFetcher struct{}

func (staticFetcher) FetchAll(context.Context) (map[models.Category]*table.Table, error) {
	return map[models.Category]*table.Table{
		models.Processo: table.New(models.Processo,
			[]string{models.ColumnProcess, models.ColumnControl, models.ColumnResearcher},
			[]table.Row{{models.ColumnProcess: cnj, models.ColumnControl: "5R01", models.ColumnResearcher: "Ana"}}),
		models.Reu: table.New(models.Reu,
			[]string{models.ColumnProcessCNJ, models.ColumnControl, models.ColumnResearcher},
			[]table.Row{{models.ColumnProcessCNJ: cnj, models.ColumnControl: "5X01", models.ColumnResearcher: "Ana"}}),
	}, nil
}

type staticSurveys struct{}

func (staticSurveys) Surveys(context.Context) (map[models.Category][]limesurvey.SurveyInfo, error) {
	return map[models.Category][]limesurvey.SurveyInfo{
		models.Provas: {{ID: "389137", Title: "Provas", Active: "Y"}},
	}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *snapshot.Service) {
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	snaps := snapshot.New(staticFetcher{}, snapshot.Options{TTL: time.Hour, Observer: rec})
	t.Cleanup(snaps.Close)

	validationH, err := handler.NewValidationHandler(service.NewSearchService(snaps, rec))
	require.NoError(t, err)
	r := New(
		validationH,
		handler.NewCacheHandler(snaps),
		handler.NewSurveyHandler(staticSurveys{}),
		NewHealth(snaps, nil),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)
	return r, snaps
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReadiness(t *testing.T) {
	r, snaps := newTestRouter(t)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/live", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, r, http.MethodGet, "/ready", "").Code)

	require.NoError(t, snaps.Refresh(context.Background()))
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/ready", "").Code)
}

func TestSearchRoute(t *testing.T) {
	r, snaps := newTestRouter(t)
	path := "/api/v1/processos/" + cnj + "/validacao"

	rec := do(t, r, http.MethodGet, path, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, snaps.Refresh(context.Background()))
	rec = do(t, r, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body struct {
		ReportID      string                      `json:"reportId"`
		ProcessNumber string                      `json:"processNumber"`
		Errors        map[string][]map[string]any `json:"errors"`
		Validation    struct {
			Total    int    `json:"total"`
			Status   string `json:"status"`
			Severity string `json:"severity"`
		} `json:"validation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.ReportID)
	assert.Equal(t, cnj, body.ProcessNumber)
	require.Len(t, body.Errors["reu"], 1)
	assert.Equal(t, "5X01", body.Errors["reu"][0]["Valor Encontrado"])
	assert.Contains(t, body.Errors, "gerais")
	assert.Equal(t, "ERROR", body.Validation.Status)
	assert.Positive(t, body.Validation.Total)

	text := do(t, r, http.MethodGet, path+"?format=text", "")
	require.Equal(t, http.StatusOK, text.Code)
	assert.Contains(t, text.Body.String(), "Réu (1 erro)")

	missing := do(t, r, http.MethodGet, "/api/v1/processos/0000000-00.0000.0.00.0000/validacao", "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Contains(t, missing.Body.String(), `"error"`)
}

func TestValidateRoute(t *testing.T) {
	r, _ := newTestRouter(t)

	body := `{
		"processo": {
			"columns": ["` + models.ColumnControl + `"],
			"rows": [{"` + models.ColumnControl + `": "1R01"}, {"` + models.ColumnControl + `": 42}]
		}
	}`
	rec := do(t, r, http.MethodPost, "/api/v1/validacao", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Errors map[string][]map[string]any `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Errors["processo"], 1)
	assert.Equal(t, "42", res.Errors["processo"][0]["Valor Encontrado"])

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"unknown category", `{"gerais": {"rows": []}}`},
		{"missing rows", `{"reu": {"columns": []}}`},
		{"nested cell", `{"reu": {"rows": [{"a": {"b": 1}}]}}`},
		{"empty", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/v1/validacao", tt.body).Code)
		})
	}
}

func TestCacheRoutes(t *testing.T) {
	r, snaps := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/v1/cache/reload", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	snaps.Wait()

	rec = do(t, r, http.MethodGet, "/api/v1/cache/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st snapshot.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.Valid)
	assert.Equal(t, 2, st.TotalResponses)

	metricsBody := do(t, r, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, metricsBody, `checkpesquisa_snapshot_refreshes_total{outcome="success"} 1`)
	assert.Contains(t, metricsBody, `checkpesquisa_snapshot_responses{category="processo"} 1`)
}

func TestSurveysRoute(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/api/v1/surveys", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"provas":[{"id":"389137","title":"Provas","active":"Y"}]}`, rec.Body.String())
}
