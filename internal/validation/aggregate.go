package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
	"github.com/marcella-castro/check-pesquisa-mj/internal/table"
)

const maxSubmissionSpreadDays = 30

// Report is the merged outcome of one validation run.
type Report struct {
	Errors  map[models.Category][]ErrorRecord
	General []string
	// Faults lists categories whose rule set panicked.
	Faults []models.Category
}

func newReport() *Report {
	r := &Report{Errors: make(map[models.Category][]ErrorRecord), General: make([]string, 0)}
	for _, c := range models.Categories() {
		r.Errors[c] = make([]ErrorRecord, 0)
	}
	return r
}

// Count returns the number of entries in a category, counting notes for
// the general bucket.
func (r *Report) Count(c models.Category) int {
	if c == models.General {
		return len(r.General)
	}
	return len(r.Errors[c])
}

func (r *Report) Total() int {
	n := len(r.General)
	for _, recs := range r.Errors {
		n += len(recs)
	}
	return n
}

// MarshalJSON renders the report as one flat map from category name to its
// entries, with the notes under "gerais".
func (r *Report) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Errors)+1)
	for c, recs := range r.Errors {
		if recs == nil {
			recs = make([]ErrorRecord, 0)
		}
		out[string(c)] = recs
	}
	general := r.General
	if general == nil {
		general = make([]string, 0)
	}
	out[string(models.General)] = general
	return json.Marshal(out)
}

// Aggregate runs every category rule set and the cross-category checks.
// It is safe for concurrent use once configured.
type Aggregate struct {
	validators map[models.Category]Validator
}

func NewAggregate() *Aggregate {
	a := &Aggregate{validators: make(map[models.Category]Validator)}
	for _, c := range models.Categories() {
		a.validators[c] = ForCategory(c)
	}
	return a
}

// Use replaces the validator of a category.
func (a *Aggregate) Use(c models.Category, v Validator) *Aggregate {
	a.validators[c] = v
	return a
}

// ValidateAll validates one case. Empty or missing tables are not
// validated. A panic inside a category is turned into a general note and
// the remaining categories still run.
func (a *Aggregate) ValidateAll(tables map[models.Category]*table.Table) *Report {
	report := newReport()
	if len(tables) == 0 {
		report.General = append(report.General, "Nenhum dado encontrado para validação")
		return report
	}
	for _, c := range models.Categories() {
		t := tables[c]
		v := a.validators[c]
		if t.Empty() || v == nil {
			continue
		}
		recs, err := runIsolated(v, t)
		if err != nil {
			zap.S().Warnw("Category validation failed", "category", c, "error", err)
			report.General = append(report.General, fmt.Sprintf("Erro na validação de %s: %v", c.Noun(), err))
			report.Faults = append(report.Faults, c)
			continue
		}
		zap.S().Debugw("Category validated", "category", c, "errors", len(recs))
		report.Errors[c] = recs
	}
	report.General = append(report.General, consistencyNotes(tables)...)
	return report
}

func runIsolated(v Validator, t *table.Table) (recs []ErrorRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return v.Validate(t), nil
}

func consistencyNotes(tables map[models.Category]*table.Table) []string {
	var notes []string
	for _, c := range models.Categories() {
		t := tables[c]
		if t.Len() < 2 {
			continue
		}
		col, ok := t.FindColumn("processo", "número", "numero")
		if !ok {
			continue
		}
		if n := duplicateRows(t, col); n > 0 {
			notes = append(notes, fmt.Sprintf("Categoria %s: Encontradas %d respostas duplicadas", c, n))
		}
	}
	for _, c := range models.Categories() {
		t := tables[c]
		if !t.Has(models.ColumnSubmitDate) {
			continue
		}
		if days, ok := submissionSpread(t); ok && days > maxSubmissionSpreadDays {
			notes = append(notes, fmt.Sprintf("Categoria %s: Respostas com diferença temporal de %d dias", c, days))
		}
	}
	var missing []string
	for _, c := range models.Categories() {
		if tables[c].Empty() {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		notes = append(notes, "Categorias sem dados: "+strings.Join(missing, ", "))
	}
	return notes
}

// duplicateRows counts the rows belonging to a group of two or more rows
// with the same value in column.
func duplicateRows(t *table.Table, column string) int {
	counts := make(map[string]int, t.Len())
	for _, r := range t.Rows {
		counts[r.Raw(column)]++
	}
	n := 0
	for _, c := range counts {
		if c > 1 {
			n += c
		}
	}
	return n
}

// submissionSpread returns the whole days between the first and last
// parsable submission dates.
func submissionSpread(t *table.Table) (int, bool) {
	var lo, hi time.Time
	found := false
	for _, r := range t.Rows {
		v, ok := r.Value(models.ColumnSubmitDate)
		if !ok {
			continue
		}
		d, ok := ParseDate(v)
		if !ok {
			continue
		}
		if !found || d.Before(lo) {
			lo = d
		}
		if !found || d.After(hi) {
			hi = d
		}
		found = true
	}
	if !found {
		return 0, false
	}
	return int(hi.Sub(lo).Hours() / 24), true
}
