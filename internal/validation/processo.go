package validation

import (
	"fmt"
	"strings"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
	"github.com/marcella-castro/check-pesquisa-mj/internal/table"
)

// Processo form columns read by cross-field rules.
const (
	ColumnVictimControl     = "P0Q1A. Número de controle para casos em que há mais de uma vítima:"
	ColumnDefendants        = "P0Q14. Número de réus no processo:"
	ColumnFinalJudgments    = "P0Q014. Número de réus que tiveram decisão com trânsito em julgado neste processo"
	ColumnSuspects          = "P0Q17. Quantos suspeitos foram apontados e identificados pela polícia?"
	ColumnVictims           = "P0Q18. Qual o número de vítimas no processo?"
	ColumnUnidentifiedVicts = "P0Q20. Quantas vítimas NÃO foram identificadas pela polícia?"
	ColumnWitnessTestimony  = "P6Q6[SQ009]"
	ColumnPenalOther        = "P4Q8[other]"
)

// PenalTypeColumns are the specific classifications of the complaint.
var PenalTypeColumns = []string{
	"P4Q8[SQ001]",
	"P4Q8[SQ002]",
	"P4Q8[SQ003]",
	"P4Q8[SQ004]",
	"P4Q8[SQ005]",
	"P4Q8[SQ006]",
	"P4Q8[SQ007]",
}

// ProcessoRules returns the case form rule set.
func ProcessoRules() *RuleSet {
	return &RuleSet{
		Category: models.Processo,
		Rules: []Rule{
			controlFormatRule(controlPattern, controlRuleText),
			processFormatRule(models.Processo),
			firstDefendantRule(),
			victimDuplicateRule(),
			countRule("defendants-final-judgment", ColumnDefendants, ColumnFinalJudgments,
				ColumnDefendants+" E "+ColumnFinalJudgments,
				"Réus total: %s e Réus com TJ: %s",
				"O No de Réus com TJ não pode ser maior que o No Réus Total.",
				func(base, other float64) bool { return other > base }),
			countRule("defendants-suspects", ColumnDefendants, ColumnSuspects,
				ColumnDefendants+" E "+ColumnSuspects,
				"Réus total: %s e Suspeitos apontados: %s",
				"O No de Suspeitos não pode ser maior que o No Réus Total.",
				func(base, other float64) bool { return other < base }),
			countRule("victims-unidentified", ColumnVictims, ColumnUnidentifiedVicts,
				ColumnUnidentifiedVicts,
				"Vítimas Total: %s e Vítimas Não Identificadas: %s",
				"O No de Vítimas Não Identificadas não pode ser maior que o No de Vítimas Total",
				func(base, other float64) bool { return other > base }),
			witnessRule(),
			controlSequenceRule(),
			penalTypeRule(),
			chronologyRule(),
			flagrantDelayRule(),
			requiredIdentityRule(models.Processo),
		},
	}
}

// firstDefendantRule requires every process to carry a control ending in
// R01. One record is emitted per offending process.
func firstDefendantRule() Rule {
	process := models.Processo.ProcessColumn()
	return Rule{
		Name:    "first-defendant",
		Columns: []string{process, models.ColumnControl},
		Check: func(t *table.Table) []ErrorRecord {
			var (
				order  []string
				first  = make(map[string]table.Row)
				hasR01 = make(map[string]bool)
			)
			for _, r := range t.Rows {
				p, ok := r.Value(process)
				if !ok {
					continue
				}
				c, ok := r.Value(models.ColumnControl)
				if !ok || !defendantControlPattern.MatchString(c) {
					continue
				}
				if _, seen := first[p]; !seen {
					first[p] = r
					order = append(order, p)
				}
				if firstDefendantPattern.MatchString(c) {
					hasR01[p] = true
				}
			}
			var out []ErrorRecord
			for _, p := range order {
				if hasR01[p] {
					continue
				}
				e := newRecord(t, first[p], table.StandardDefaults, MissingSequenceMember)
				e.Field = models.ColumnControl
				e.ErrorType = "Ausência de número de controle com R01"
				e.Found = p
				e.Expected = "Todo número de processo deve ter ao menos um número de controle terminando em R01"
				out = append(out, e)
			}
			return out
		},
	}
}

// victimDuplicateRule flags every row whose control plus victim control
// pair occurs more than once.
func victimDuplicateRule() Rule {
	return Rule{
		Name:    "control-victim-duplicate",
		Columns: []string{models.ColumnControl, ColumnVictimControl},
		Check: func(t *table.Table) []ErrorRecord {
			key := func(r table.Row) (string, string) {
				return strings.TrimSpace(r.Raw(models.ColumnControl)), strings.TrimSpace(r.Raw(ColumnVictimControl))
			}
			counts := make(map[string]int, len(t.Rows))
			for _, r := range t.Rows {
				c, v := key(r)
				counts[c+" | "+v]++
			}
			var out []ErrorRecord
			for _, r := range t.Rows {
				c, v := key(r)
				if counts[c+" | "+v] < 2 {
					continue
				}
				e := newRecord(t, r, table.ConsistencyDefaults, DuplicateKey)
				e.Field = models.ColumnControl + " + " + ColumnVictimControl
				e.ErrorType = "Duplicação da combinação entre controle principal e controle de vítima"
				e.Found = c + " + " + v
				e.Expected = "Cada combinação de número de controle e controle de vítima deve ser única na base"
				out = append(out, e)
			}
			return out
		},
	}
}

// countRule compares two numeric columns. Rows whose base is zero, missing
// or not numeric are skipped, as are rows whose other value is not numeric.
func countRule(name, base, other, field, found, expected string, violates func(base, other float64) bool) Rule {
	return Rule{
		Name:    name,
		Columns: []string{base, other},
		Check: func(t *table.Table) []ErrorRecord {
			var out []ErrorRecord
			for _, r := range t.Rows {
				b, ok := r.Value(base)
				if !ok {
					continue
				}
				bv, ok := parseNumber(b)
				if !ok || bv == 0 {
					continue
				}
				o, ok := r.Value(other)
				if !ok {
					continue
				}
				ov, ok := parseNumber(o)
				if !ok || !violates(bv, ov) {
					continue
				}
				e := newRecord(t, r, table.ConsistencyDefaults, CrossFieldInconsistent)
				e.Field = field
				e.ErrorType = "Valores inconsistentes"
				e.Found = fmt.Sprintf(found, formatNumber(bv), formatNumber(ov))
				e.Expected = expected
				out = append(out, e)
			}
			return out
		},
	}
}

func witnessRule() Rule {
	return Rule{
		Name:    "witness-testimony",
		Columns: []string{ColumnWitnessTestimony},
		Check: func(t *table.Table) []ErrorRecord {
			var out []ErrorRecord
			for _, r := range t.Rows {
				v, ok := r.Value(ColumnWitnessTestimony)
				if !ok || v != models.AnswerNo {
					continue
				}
				e := newRecord(t, r, table.StandardDefaults, AlertAdvisory)
				e.Field = ColumnWitnessTestimony
				e.ErrorType = "[ALERTA] Ausência de depoimento de testemunha"
				e.Found = v
				e.Expected = "Sem depoimento de testemunha como diligência processual"
				out = append(out, e)
			}
			return out
		},
	}
}

// maxSequence is the highest two-digit control suffix.
const maxSequence = 99

// controlSequenceRule expects controls <prefix>01..<prefix>0n for a row
// declaring n > 1 defendants with final judgment. Counts above 99 only
// check the suffixes a control can carry.
func controlSequenceRule() Rule {
	return Rule{
		Name:    "control-sequence",
		Columns: []string{ColumnFinalJudgments, models.ColumnControl},
		Check: func(t *table.Table) []ErrorRecord {
			known := make(map[string]struct{})
			for _, r := range t.Rows {
				if c, ok := r.Value(models.ColumnControl); ok && defendantControlPattern.MatchString(c) {
					known[c] = struct{}{}
				}
			}
			var out []ErrorRecord
			for _, r := range t.Rows {
				raw, ok := r.Value(ColumnFinalJudgments)
				if !ok {
					continue
				}
				n, ok := parseCount(raw)
				if !ok || n <= 1 {
					continue
				}
				c, _ := r.Value(models.ColumnControl)
				if !defendantControlPattern.MatchString(c) {
					continue
				}
				prefix := c[:len(c)-2]
				var missing []string
				for i := 1; i <= min(n, maxSequence); i++ {
					want := fmt.Sprintf("%s%02d", prefix, i)
					if _, ok := known[want]; !ok {
						missing = append(missing, want)
					}
				}
				if len(missing) == 0 {
					continue
				}
				list := strings.Join(missing, ", ")
				e := newRecord(t, r, table.StandardDefaults, MissingSequenceMember)
				e.Field = models.ColumnControl
				e.ErrorType = "Números de controle ausentes ou inválidos"
				e.Found = fmt.Sprintf("Nº de Réus: %d. Formulários Faltando: %s", n, list)
				e.Expected = fmt.Sprintf("Os seguintes números de controle esperados para %d réus não foram encontrados na base: %s", n, list)
				out = append(out, e)
			}
			return out
		},
	}
}

// penalTypeRule alerts when no specific classification of the complaint is
// answered "Sim", leaving at most the free text "other" answer.
func penalTypeRule() Rule {
	columns := append(append([]string(nil), PenalTypeColumns...), ColumnPenalOther)
	return Rule{
		Name:    "penal-type",
		Columns: columns,
		Any:     true,
		Check: func(t *table.Table) []ErrorRecord {
			var out []ErrorRecord
			for _, r := range t.Rows {
				marked := false
				for _, c := range PenalTypeColumns {
					if !t.Has(c) {
						continue
					}
					if v, ok := r.Value(c); ok && v == models.AnswerYes {
						marked = true
						break
					}
				}
				if marked {
					continue
				}
				other, ok := r.Value(ColumnPenalOther)
				if !ok {
					other = "Não preenchido"
				}
				e := newRecord(t, r, table.StandardDefaults, AlertAdvisory)
				e.Field = "P4Q8"
				e.ErrorType = "[ALERTA] Sem Preenchimento ou Apenas Outros na Qualificação da Denúncia"
				e.Found = "Outros: " + other
				e.Expected = "Sem preenchimento adequado sobre a Qualificação da Denúncia."
				out = append(out, e)
			}
			return out
		},
	}
}
