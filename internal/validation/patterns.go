package validation

import (
	"regexp"
	"strings"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
	"github.com/marcella-castro/check-pesquisa-mj/internal/table"
)

var (
	controlPattern       = regexp.MustCompile(`^\d{1,4}[RV]0[1-9]$`)
	provasControlPattern = regexp.MustCompile(`^\d{1,4}$`)
	cnjPattern           = regexp.MustCompile(`^\d{7}-\d{2}\.\d{4}\.\d{1}\.\d{2}\.\d{4}$`)

	// defendantControlPattern is the looser "R" form used when grouping
	// defendants of one process.
	defendantControlPattern = regexp.MustCompile(`^\d{1,4}R\d{2}$`)
	firstDefendantPattern   = regexp.MustCompile(`^\d{1,4}R01$`)
)

const (
	controlRuleText       = "Padrão: até 4 dígitos + [R/V] + 0 + 1 dígito (ex: 123R01, 45V09)"
	provasControlRuleText = "Padrão: até 4 dígitos (ex: 123)"
	cnjRuleText           = "Formato CNJ: 0000000-00.0000.0.00.0000"

	typeFormatInvalid = "Formato Inválido"
	typeRequiredEmpty = "Campo Obrigatório Vazio"
)

// ValidControl reports whether s is a well formed control number.
func ValidControl(s string) bool {
	return controlPattern.MatchString(s)
}

// ValidCNJ reports whether s is a process number in CNJ format.
func ValidCNJ(s string) bool {
	return cnjPattern.MatchString(s)
}

// IsEmpty reports whether a cell is null or blank after trimming.
func IsEmpty(r table.Row, column string) bool {
	_, ok := r.Value(column)
	return !ok
}

// formatRule flags every row whose cell does not match pattern. A null cell
// never matches.
func formatRule(name, column string, pattern *regexp.Regexp, expected string) Rule {
	return Rule{
		Name:    name,
		Columns: []string{column},
		Check: func(t *table.Table) []ErrorRecord {
			var out []ErrorRecord
			for _, r := range t.Rows {
				v, ok := r.Value(column)
				if ok && pattern.MatchString(v) {
					continue
				}
				e := newRecord(t, r, table.StandardDefaults, FormatInvalid)
				e.Field = column
				e.ErrorType = typeFormatInvalid
				e.Found = v
				if !ok {
					e.Found = "N/A"
				}
				e.Expected = expected
				out = append(out, e)
			}
			return out
		},
	}
}

func controlFormatRule(pattern *regexp.Regexp, expected string) Rule {
	return formatRule("control-format", models.ColumnControl, pattern, expected)
}

func processFormatRule(c models.Category) Rule {
	return formatRule("process-format", c.ProcessColumn(), cnjPattern, cnjRuleText)
}

// requiredRule flags null or blank cells in each of the present columns.
func requiredRule(columns ...string) Rule {
	return Rule{
		Name:    "required-fields",
		Columns: columns,
		Any:     true,
		Check: func(t *table.Table) []ErrorRecord {
			var out []ErrorRecord
			for _, column := range columns {
				if !t.Has(column) {
					continue
				}
				for _, r := range t.Rows {
					if !IsEmpty(r, column) {
						continue
					}
					e := newRecord(t, r, table.StandardDefaults, RequiredFieldEmpty)
					e.Field = column
					e.ErrorType = typeRequiredEmpty
					e.Found = "Vazio/Nulo"
					e.Expected = "Campo deve ser preenchido"
					out = append(out, e)
				}
			}
			return out
		},
	}
}

func requiredIdentityRule(c models.Category) Rule {
	return requiredRule(models.ColumnResearcher, models.ColumnControl, c.ProcessColumn())
}

func isYes(r table.Row, column string) bool {
	v, ok := r.Value(column)
	return ok && v == models.AnswerYes
}

func isNotInformed(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), models.AnswerNotInformed)
}
