package validation

import (
	"time"

	"github.com/marcella-castro/check-pesquisa-mj/internal/table"
)

// Milestone is a procedural event recorded as a date column.
type Milestone struct {
	Name   string
	Column string
}

// Milestones lists procedural events in the order they must happen.
var Milestones = []Milestone{
	{"Data do Crime", "P1Q1. Qual a data do crime?"},
	{"Data abertura IP", "P3Q1. Data da abertura do Inquérito Policial:"},
	{"Data Relatório Final IP", "P3Q28. Data do relatório final do Inquérito Policial:"},
	{"Data oferecimento da Denúncia", "P4Q7. Data do oferecimento da denúncia:"},
	{"Data decisão imediatamente após Denúncia", "P4Q14. Qual a data da decisão/despacho do juiz imediatamente após a denúncia?"},
	{"Data do Recebimento da Denúncia", "P6Q0. Qual a data em que a denúncia foi recebida?"},
	{"Data 1a AIJ", "P6Q1. Data da primeira audiência de instrução realizada:"},
	{"Data última AIJ", "P6Q3. Se sim, qual a data da última audiência de instrução realizada?"},
	{"Data decisão 1a fase do Juri", "P7Q2. Data da decisão que finaliza a primeira fase do Júri:"},
	{"Data nova decisão da 1a Fase", "P7Q31. Data da nova decisão de primeira fase"},
	{"Data agendamento audiência Juri", "P8Q0. Primeira data de agendamento da audiência de júri:"},
	{"Data realização audiência Júri", "P8Q4. Data em que a audiência de júri foi realizada:"},
	{"Data prolação sentença de júri", "P8Q20. Data em que a sentença de júri foi prolatada:"},
	{"Data nova decisão de 2a fase", "P8Q57. Qual a data da nova decisão de segunda fase?"},
	{"Data do trânsito em julgado", "P9Q1. Data do trânsito em julgado da sentença:"},
	{"Data do arquivamento definitivo", "P9Q2. Data do arquivamento definitivo do processo:"},
}

const (
	ColumnCrimeDate   = "P0Q21. Data do crime:"
	ColumnArrestDate  = "P1Q2. Data da prisão em flagrante:"
	ColumnArrestInAct = "P1Q1. Houve prisão em flagrante desse réu?"

	maxFlagrantDelayDays = 364
)

func milestoneColumns() []string {
	cols := make([]string, len(Milestones))
	for i, m := range Milestones {
		cols[i] = m.Column
	}
	return cols
}

// chronologyRule compares every pair of filled milestones in a row.
// Unparsable dates count as absent.
func chronologyRule() Rule {
	type filled struct {
		m Milestone
		d time.Time
	}
	return Rule{
		Name:    "chronology",
		Columns: milestoneColumns(),
		Any:     true,
		Check: func(t *table.Table) []ErrorRecord {
			var out []ErrorRecord
			for _, r := range t.Rows {
				var dates []filled
				for _, m := range Milestones {
					v, ok := r.Value(m.Column)
					if !ok {
						continue
					}
					if d, ok := ParseDate(v); ok {
						dates = append(dates, filled{m, d})
					}
				}
				for i := 0; i < len(dates); i++ {
					for j := i + 1; j < len(dates); j++ {
						earlier, later := dates[i], dates[j]
						if !later.d.Before(earlier.d) {
							continue
						}
						e := newRecord(t, r, table.StandardDefaults, ChronologyViolation)
						e.Field = later.m.Name + " < " + earlier.m.Name
						e.ErrorType = "Ordem cronológica incorreta"
						e.Found = formatDay(earlier.d) + " → " + formatDay(later.d)
						e.Expected = earlier.m.Name + " deve ser anterior a " + later.m.Name
						out = append(out, e)
					}
				}
			}
			return out
		},
	}
}

// flagrantDelayRule alerts when an in-flagrante arrest is dated more than
// a year after the crime.
func flagrantDelayRule() Rule {
	return Rule{
		Name:    "flagrant-delay",
		Columns: []string{ColumnCrimeDate, ColumnArrestDate, ColumnArrestInAct},
		Check: func(t *table.Table) []ErrorRecord {
			var out []ErrorRecord
			for _, r := range t.Rows {
				if !isYes(r, ColumnArrestInAct) {
					continue
				}
				cv, _ := r.Value(ColumnCrimeDate)
				crime, ok := ParseDate(cv)
				if !ok {
					continue
				}
				av, _ := r.Value(ColumnArrestDate)
				arrest, ok := ParseDate(av)
				if !ok {
					continue
				}
				if int(arrest.Sub(crime).Hours()/24) <= maxFlagrantDelayDays {
					continue
				}
				e := newRecord(t, r, table.StandardDefaults, AlertAdvisory)
				e.Field = ColumnArrestDate + " > " + ColumnCrimeDate
				e.ErrorType = "[ALERTA] Tempo excessivo entre crime e flagrante"
				e.Found = formatDay(crime) + " → " + formatDay(arrest)
				e.Expected = "Prisão em flagrante mais de um ano depois do crime"
				out = append(out, e)
			}
			return out
		},
	}
}
