package table

import "github.com/marcella-castro/check-pesquisa-mj/internal/models"

// Field names a row attribute that error records carry regardless of the
// rule that produced them.
type Field int

const (
	FieldFormOrigin Field = iota
	FieldResponseID
	FieldProcessNumber
	FieldControlNumber
	FieldResearcher
)

// Defaults is the text reported for a field whose cell is null or whose
// column is absent.
type Defaults map[Field]string

// StandardDefaults is used by format, required-field, alert and
// chronology rules.
var StandardDefaults = Defaults{
	FieldFormOrigin:    "N/A",
	FieldResponseID:    "N/A",
	FieldProcessNumber: "N/A",
	FieldControlNumber: "N/A",
	FieldResearcher:    "Desconhecido",
}

// ConsistencyDefaults is used by duplicate and numeric consistency rules.
var ConsistencyDefaults = Defaults{
	FieldFormOrigin:    "Desconhecido",
	FieldResponseID:    "Não encontrado",
	FieldProcessNumber: "Não disponível",
	FieldControlNumber: "Não disponível",
	FieldResearcher:    "Desconhecido",
}

// Label resolves a field to the column label used by the table's category.
func (t *Table) Label(f Field) string {
	switch f {
	case FieldFormOrigin:
		return models.ColumnFormOrigin
	case FieldResponseID:
		return models.ColumnResponseID
	case FieldProcessNumber:
		return t.Category.ProcessColumn()
	case FieldControlNumber:
		return models.ColumnControl
	case FieldResearcher:
		return models.ColumnResearcher
	}
	return ""
}

// Get returns the field's cell for the row.
func (t *Table) Get(r Row, f Field) (string, bool) {
	return r.Value(t.Label(f))
}

// GetOr returns the field's cell, or the policy's default when null.
func (t *Table) GetOr(r Row, f Field, d Defaults) string {
	if v, ok := t.Get(r, f); ok {
		return v
	}
	return d[f]
}
