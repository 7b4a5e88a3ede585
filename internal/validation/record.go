// Package validation audits questionnaire response tables.
//
// Each category owns a fixed RuleSet. A rule names the columns it reads,
// the table decides whether the rule is evaluated or skipped, and every
// finding is returned as an ErrorRecord. Aggregate runs the four rule sets,
// isolates faults per category and adds cross-category notes.
package validation

import (
	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
	"github.com/marcella-castro/check-pesquisa-mj/internal/table"
)

// Kind classifies an ErrorRecord.
type Kind int

const (
	FormatInvalid Kind = iota
	RequiredFieldEmpty
	CrossFieldInconsistent
	DuplicateKey
	MissingSequenceMember
	ChronologyViolation
	AlertAdvisory
)

var kindNames = [...]string{
	FormatInvalid:          "FormatInvalid",
	RequiredFieldEmpty:     "RequiredFieldEmpty",
	CrossFieldInconsistent: "CrossFieldInconsistent",
	DuplicateKey:           "DuplicateKey",
	MissingSequenceMember:  "MissingSequenceMember",
	ChronologyViolation:    "ChronologyViolation",
	AlertAdvisory:          "AlertAdvisory",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Advisory reports whether the kind is informational. Advisories are still
// counted like any other record.
func (k Kind) Advisory() bool {
	return k == AlertAdvisory
}

// ErrorRecord is one finding. The JSON names are read by report renderers
// and must not change.
type ErrorRecord struct {
	Form          string          `json:"Formulário"`
	ResponseID    string          `json:"ID da Resposta"`
	ProcessNumber string          `json:"Nº Processo"`
	ControlNumber string          `json:"Nº de Controle"`
	Researcher    string          `json:"Bolsista"`
	Field         string          `json:"Campo"`
	ErrorType     string          `json:"Tipo de Erro"`
	Found         string          `json:"Valor Encontrado"`
	Expected      string          `json:"Regra Violada / Esperado"`
	Category      models.Category `json:"Categoria"`
	Kind          Kind            `json:"kind"`
}

// newRecord fills the identity columns of a record from the row using the
// given default policy.
func newRecord(t *table.Table, r table.Row, d table.Defaults, kind Kind) ErrorRecord {
	return ErrorRecord{
		Form:          t.Category.FormName() + " " + t.GetOr(r, table.FieldFormOrigin, d),
		ResponseID:    t.GetOr(r, table.FieldResponseID, d),
		ProcessNumber: t.GetOr(r, table.FieldProcessNumber, d),
		ControlNumber: t.GetOr(r, table.FieldControlNumber, d),
		Researcher:    t.GetOr(r, table.FieldResearcher, d),
		Category:      t.Category,
		Kind:          kind,
	}
}
