// Package table holds questionnaire responses as label-keyed rows.
//
// A Row maps a column label to its cell text. A label missing from the row,
// or mapped to blank text, is a null cell. Column presence is tracked on the
// Table so that rules can tell "column absent" apart from "value empty".
package table

import (
	"sort"
	"strings"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
)

type Row map[string]string

// Table is one category's response table.
type Table struct {
	Category models.Category `json:"category,omitempty"`
	Columns  []string        `json:"columns"`
	Rows     []Row           `json:"rows"`

	index map[string]struct{}
}

// New builds a table and indexes its columns. Columns seen only in rows are
// appended in sorted order so that Has reflects every label the table
// carries.
func New(category models.Category, columns []string, rows []Row) *Table {
	t := &Table{Category: category, Columns: append([]string(nil), columns...), Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		t.index[c] = struct{}{}
	}
	for _, r := range t.Rows {
		var extra []string
		for c := range r {
			if _, ok := t.index[c]; !ok {
				t.index[c] = struct{}{}
				extra = append(extra, c)
			}
		}
		sort.Strings(extra)
		t.Columns = append(t.Columns, extra...)
	}
}

// Has reports whether the column exists in the table.
func (t *Table) Has(column string) bool {
	if t == nil {
		return false
	}
	if t.index == nil {
		for _, c := range t.Columns {
			if c == column {
				return true
			}
		}
		return false
	}
	_, ok := t.index[column]
	return ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Value returns the trimmed cell text and whether the cell is non-null.
func (r Row) Value(column string) (string, bool) {
	v, ok := r[column]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

// Raw returns the untrimmed cell text, blank when null.
func (r Row) Raw(column string) string {
	return r[column]
}

// Filter returns a table sharing columns with t and holding the rows that
// satisfy keep.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{Category: t.Category, Columns: append([]string(nil), t.Columns...)}
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	out.reindex()
	return out
}

// Append concatenates other's rows and columns onto t.
func (t *Table) Append(other *Table) {
	if other == nil {
		return
	}
	t.Columns = append(t.Columns, other.Columns...)
	t.Rows = append(t.Rows, other.Rows...)
	seen := make(map[string]struct{}, len(t.Columns))
	cols := t.Columns[:0]
	for _, c := range t.Columns {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		cols = append(cols, c)
	}
	t.Columns = cols
	t.reindex()
}

// FindColumn returns the first column, in table order, whose lower-cased
// label contains any keyword.
func (t *Table) FindColumn(keywords ...string) (string, bool) {
	for _, c := range t.Columns {
		lower := strings.ToLower(c)
		for _, k := range keywords {
			if strings.Contains(lower, k) {
				return c, true
			}
		}
	}
	return "", false
}

var nullTokens = map[string]struct{}{"": {}, "nan": {}, "None": {}, "null": {}}

// Clean drops incomplete responses (no lastpage) when the table records
// them, trims every cell and removes null tokens.
func (t *Table) Clean() *Table {
	filterIncomplete := t.Has(models.ColumnLastPage)
	out := &Table{Category: t.Category, Columns: append([]string(nil), t.Columns...)}
	for _, r := range t.Rows {
		clean := make(Row, len(r))
		for k, v := range r {
			v = strings.TrimSpace(v)
			if _, null := nullTokens[v]; null {
				continue
			}
			clean[k] = v
		}
		if filterIncomplete {
			if _, ok := clean[models.ColumnLastPage]; !ok {
				continue
			}
		}
		out.Rows = append(out.Rows, clean)
	}
	out.reindex()
	return out
}
