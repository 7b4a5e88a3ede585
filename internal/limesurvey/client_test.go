package limesurvey

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
)

type fakeLime struct {
	loginFailures int
	loginStatus   string
	exports       map[string][]any
	exportErr     map[string]string
	questions     map[string][]map[string]any

	mu       sync.Mutex
	calls    map[string]int
	released []string
}

func (f *fakeLime) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeLime) releasedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.released...)
}

func (f *fakeLime) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string `json:"method"`
		Params []any  `json:"params"`
		ID     int64  `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[req.Method]++
	n := f.calls[req.Method]
	f.mu.Unlock()

	reply := func(result, rpcErr any) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": req.ID, "result": result, "error": rpcErr})
	}
	status := func(msg string) { reply(map[string]string{"status": msg}, nil) }

	switch req.Method {
	case "get_session_key":
		if n <= f.loginFailures {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		if f.loginStatus != "" {
			status(f.loginStatus)
			return
		}
		reply("session-1", nil)
	case "release_session_key":
		f.mu.Lock()
		f.released = append(f.released, req.Params[0].(string))
		f.mu.Unlock()
		reply("OK", nil)
	case "export_responses":
		sid := req.Params[1].(string)
		if msg, ok := f.exportErr[sid]; ok {
			reply(nil, msg)
			return
		}
		responses, ok := f.exports[sid]
		if !ok {
			status("No Data, survey table does not exist.")
			return
		}
		payload, _ := json.Marshal(map[string]any{"responses": responses})
		reply(base64.StdEncoding.EncodeToString(payload), nil)
	case "list_groups":
		reply([]map[string]any{{"gid": 10, "group_name": "Identificação"}}, nil)
	case "list_questions":
		qs, ok := f.questions[req.Params[1].(string)]
		if !ok {
			status("No questions found")
			return
		}
		reply(qs, nil)
	case "get_survey_properties":
		sid := req.Params[1].(string)
		if sid == "404" {
			status("Error: Invalid survey ID")
			return
		}
		reply(map[string]string{"surveyls_title": "Pesquisa " + sid, "active": "Y"}, nil)
	default:
		reply(nil, "unknown method")
	}
}

var processQuestions = []map[string]any{
	{"title": "P0Q1", "question": "<b>Número de controle</b>\n (dado  pela equipe)", "parent_qid": 0},
	{"title": "P0Q2", "question": "<p>Número do Processo:</p>", "parent_qid": "0"},
	{"title": "SQ009", "question": "Depoimento", "parent_qid": "12"},
}

func newTestClient(t *testing.T, f *fakeLime, surveys map[models.Category][]string) *Client {
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return New(Options{
		URL:           srv.URL,
		Username:      "user",
		Password:      "secret",
		Surveys:       surveys,
		Concurrency:   2,
		Retries:       3,
		RetryInterval: time.Millisecond,
	})
}

func TestFetchAll(t *testing.T) {
	f := &fakeLime{
		exports: map[string][]any{
			"1": {map[string]any{
				"id": "1", "submitdate": "2023-01-01 10:00:00", "lastpage": "5",
				"P0Q1": "1R01", "P0Q2": "1234567-89.2023.1.01.0001",
				"P6Q6[SQ009]": "Sim", "P9": nil, "P10": 3,
			}},
			"2": {map[string]any{"7": map[string]any{"id": "7", "P0Q1": "2R01"}}},
			"4": {map[string]any{"id": "9", "P0Q1": "1R01"}},
		},
		questions: map[string][]map[string]any{"1": processQuestions, "2": processQuestions},
	}
	c := newTestClient(t, f, map[models.Category][]string{
		models.Processo: {"1", "2"},
		models.Vitima:   {"3"},
		models.Reu:      {"4"},
	})

	tables, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 4)

	proc := tables[models.Processo]
	require.Equal(t, 2, proc.Len())
	assert.Equal(t, models.ColumnResponseID, proc.Columns[0])
	assert.True(t, proc.Has(models.ColumnControl))
	assert.True(t, proc.Has(models.ColumnProcess))
	assert.True(t, proc.Has("P6Q6[SQ009]"))
	assert.False(t, proc.Has("SQ009. Depoimento"))

	first, second := proc.Rows[0], proc.Rows[1]
	assert.Equal(t, "1", first[models.ColumnFormOrigin])
	assert.Equal(t, "2", second[models.ColumnFormOrigin])
	assert.Equal(t, "1R01", first[models.ColumnControl])
	assert.Equal(t, "2R01", second[models.ColumnControl])
	assert.Equal(t, "7", second[models.ColumnResponseID])
	assert.Equal(t, "3", first["P10"])
	_, ok := first.Value("P9")
	assert.False(t, ok)

	assert.True(t, tables[models.Vitima].Empty())
	assert.True(t, tables[models.Provas].Empty())
	assert.True(t, tables[models.Reu].Has("P0Q1"), "codes kept without question texts")

	assert.Equal(t, []string{"session-1"}, f.releasedKeys())
	assert.Equal(t, 1, f.count("get_session_key"))
}

func TestFetchAllFailsOnExportError(t *testing.T) {
	f := &fakeLime{
		exports:   map[string][]any{"1": {map[string]any{"id": "1"}}},
		exportErr: map[string]string{"2": "Permission denied"},
	}
	c := newTestClient(t, f, map[models.Category][]string{models.Processo: {"1", "2"}})

	_, err := c.FetchAll(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "export_responses", apiErr.Method)
	assert.Contains(t, err.Error(), "survey 2")
	assert.Equal(t, []string{"session-1"}, f.releasedKeys())
}

func TestSessionKeyRetries(t *testing.T) {
	f := &fakeLime{loginFailures: 2}
	c := newTestClient(t, f, nil)

	key, err := c.SessionKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session-1", key)
	assert.Equal(t, 3, f.count("get_session_key"))
}

func TestSessionKeyGivesUp(t *testing.T) {
	f := &fakeLime{loginFailures: 100}
	c := newTestClient(t, f, nil)

	_, err := c.SessionKey(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, 4, f.count("get_session_key"))
}

func TestSessionKeyRejectedIsNotRetried(t *testing.T) {
	f := &fakeLime{loginStatus: "Invalid user name or password"}
	c := newTestClient(t, f, nil)

	_, err := c.SessionKey(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.False(t, apiErr.NoData())
	assert.Equal(t, "limesurvey: get_session_key: Invalid user name or password", err.Error())
	assert.Equal(t, 1, f.count("get_session_key"))
}

func TestSurveys(t *testing.T) {
	f := &fakeLime{}
	c := newTestClient(t, f, map[models.Category][]string{
		models.Processo: {"917441", "404"},
		models.Provas:   {"389137"},
	})

	info, err := c.Surveys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []SurveyInfo{
		{ID: "917441", Title: "Pesquisa 917441", Active: "Y"},
		{ID: "404", Title: "Survey 404", Active: "N"},
	}, info[models.Processo])
	assert.Len(t, info[models.Provas], 1)
	assert.Empty(t, info[models.Reu])
}

func TestCleanLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"P0Q0. Pesquisador responsável pelo preenchimento:", models.ColumnResearcher},
		{"P0Q1. <b>Número de controle</b>  (dado pela\tequipe)", models.ColumnControl},
		{"  P1Q2.\u00a0Data da\u00a0prisão em flagrante:\u00a0", "P1Q2. Data da prisão em flagrante:"},
		{"P6Q6[SQ009]", "P6Q6[SQ009]"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanLabel(tt.in))
		})
	}
}

func TestDecodeExportRejectsGarbage(t *testing.T) {
	_, err := decodeExport("%%%")
	require.Error(t, err)

	_, err = decodeExport(base64.StdEncoding.EncodeToString([]byte("not json")))
	require.Error(t, err)
}
