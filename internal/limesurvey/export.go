package limesurvey

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
	"github.com/marcella-castro/check-pesquisa-mj/internal/table"
)

var htmlTag = regexp.MustCompile(`<[^>]+>`)

// leadingColumns are the response metadata columns, kept in front.
var leadingColumns = map[string]int{
	models.ColumnResponseID: 0,
	models.ColumnSubmitDate: 1,
	models.ColumnLastPage:   2,
	"startlanguage":         3,
	"seed":                  4,
	"startdate":             5,
	"datestamp":             6,
}

type exportPayload struct {
	Responses []json.RawMessage `json:"responses"`
}

type group struct {
	ID flexString `json:"gid"`
}

type question struct {
	Title    string     `json:"title"`
	Question string     `json:"question"`
	ParentID flexString `json:"parent_qid"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(b)
	return nil
}

// FetchAll downloads every configured survey with one session, at most
// Concurrency exports at a time, and concatenates the surveys of each
// category in configuration order. Every configured category is present in
// the result, possibly empty.
func (c *Client) FetchAll(ctx context.Context) (map[models.Category]*table.Table, error) {
	key, err := c.SessionKey(ctx)
	if err != nil {
		return nil, err
	}
	defer c.ReleaseSessionKey(context.WithoutCancel(ctx), key)

	results := make(map[models.Category][]*table.Table, len(c.surveys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, cat := range models.Categories() {
		ids := c.surveys[cat]
		slots := make([]*table.Table, len(ids))
		results[cat] = slots
		for i, id := range ids {
			cat, i, id := cat, i, id
			g.Go(func() error {
				t, err := c.Download(gctx, key, cat, id)
				if err != nil {
					return fmt.Errorf("survey %s (%s): %w", id, cat, err)
				}
				slots[i] = t
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[models.Category]*table.Table, len(results))
	for cat, parts := range results {
		merged := table.New(cat, nil, nil)
		for _, t := range parts {
			merged.Append(t)
		}
		out[cat] = merged
		zap.S().Debugw("Category downloaded", "category", cat, "surveys", len(parts), "responses", merged.Len())
	}
	return out, nil
}

// Download exports one survey's complete responses with long answer texts
// and relabels its columns as "<CODE>. <question text>". A survey without
// responses yields an empty table.
func (c *Client) Download(ctx context.Context, key string, cat models.Category, surveyID string) (*table.Table, error) {
	var encoded string
	err := c.call(ctx, "export_responses",
		[]any{key, surveyID, "json", language, "complete", "long", "long"}, &encoded)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.NoData() {
		zap.S().Infow("Survey has no responses", "survey", surveyID)
		return table.New(cat, nil, nil), nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := decodeExport(encoded)
	if err != nil {
		return nil, err
	}
	labels, err := c.questionLabels(ctx, key, surveyID)
	if err != nil {
		return nil, err
	}

	columns := collectColumns(rows)
	renamed := make([]string, 0, len(columns)+1)
	for _, col := range columns {
		renamed = append(renamed, relabel(col, labels))
	}
	renamed = append(renamed, models.ColumnFormOrigin)

	out := make([]table.Row, len(rows))
	for i, r := range rows {
		row := make(table.Row, len(r)+1)
		for col, v := range r {
			row[relabel(col, labels)] = v
		}
		row[models.ColumnFormOrigin] = surveyID
		out[i] = row
	}
	zap.S().Debugw("Survey exported", "survey", surveyID, "responses", len(out), "columns", len(renamed))
	return table.New(cat, renamed, out), nil
}

// decodeExport unpacks the base64 JSON export. Responses may come wrapped in
// a single-key object keyed by the response id.
func decodeExport(encoded string) ([]map[string]string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode export payload: %w", err)
	}
	var payload exportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse export payload: %w", err)
	}

	rows := make([]map[string]string, 0, len(payload.Responses))
	for _, item := range payload.Responses {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			return nil, fmt.Errorf("parse response: %w", err)
		}
		if len(fields) == 1 {
			for _, inner := range fields {
				if v := bytes.TrimSpace(inner); len(v) > 0 && v[0] == '{' {
					fields = nil
					if err := json.Unmarshal(v, &fields); err != nil {
						return nil, fmt.Errorf("parse wrapped response: %w", err)
					}
				}
			}
		}
		row := make(map[string]string, len(fields))
		for col, v := range fields {
			if s, ok := cellText(v); ok {
				row[col] = s
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// cellText renders a JSON value as cell text. Null is a missing cell.
func cellText(v json.RawMessage) (string, bool) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || string(v) == "null" {
		return "", false
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return string(v), true
		}
		return s, true
	}
	return string(v), true
}

func collectColumns(rows []map[string]string) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, r := range rows {
		for col := range r {
			if _, ok := seen[col]; !ok {
				seen[col] = struct{}{}
				cols = append(cols, col)
			}
		}
	}
	sort.Slice(cols, func(i, j int) bool {
		ri, iok := leadingColumns[cols[i]]
		rj, jok := leadingColumns[cols[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return cols[i] < cols[j]
	})
	return cols
}

// questionLabels maps each top-level question code to "<CODE>. <text>".
func (c *Client) questionLabels(ctx context.Context, key, surveyID string) (map[string]string, error) {
	var groups []group
	err := c.call(ctx, "list_groups", []any{key, surveyID}, &groups)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.NoData() {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	labels := make(map[string]string)
	for _, g := range groups {
		var questions []question
		err := c.call(ctx, "list_questions", []any{key, surveyID, string(g.ID), language}, &questions)
		if errors.As(err, &apiErr) && apiErr.NoData() {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, q := range questions {
			if q.ParentID != "" && q.ParentID != "0" {
				continue
			}
			text := strings.TrimSpace(strings.ReplaceAll(q.Question, "\n", " "))
			labels[q.Title] = q.Title + ". " + text
		}
	}
	return labels, nil
}

// relabel applies the question text to a column code and normalizes the
// label. Sub-question columns such as "P6Q6[SQ009]" keep their code.
func relabel(col string, labels map[string]string) string {
	if full, ok := labels[col]; ok {
		col = full
	}
	return CleanLabel(col)
}

// CleanLabel strips HTML tags, turns non-breaking spaces into plain ones
// and collapses whitespace.
func CleanLabel(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = htmlTag.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
