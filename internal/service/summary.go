package service

import (
	"sort"
	"time"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
	"github.com/marcella-castro/check-pesquisa-mj/internal/table"
	"github.com/marcella-castro/check-pesquisa-mj/internal/validation"
)

// ColumnObservations holds the researcher's free-text notes on the process.
const ColumnObservations = "P9Q3. Este processo, por qualquer motivo, se destacou/diferenciou das demais?( *humilhação, ofensa, julgamento moral, diligência na produção de provas, relato de violência detalhado etc_ .) Se sim, por que este caso se destacou/diferenciou das demais?"

const notAvailable = "N/A"

// ProcessSummary describes the responses found for a process.
type ProcessSummary struct {
	ProcessNumber  string         `json:"processNumber"`
	ControlNumber  string         `json:"controlNumber"`
	Court          string         `json:"court,omitempty"`
	TotalResponses int            `json:"totalResponses"`
	Categories     map[string]int `json:"categories"`
	LastSubmission *time.Time     `json:"lastSubmission,omitempty"`
	Researchers    []string       `json:"researchers"`
	Observations   []Observation  `json:"observations,omitempty"`
}

type Observation struct {
	ResponseID    string `json:"responseId"`
	ControlNumber string `json:"controlNumber"`
	Text          string `json:"text"`
}

// SummarizeProcess collects the identity and fill statistics of a
// process. Process and control numbers come from the first processo
// response that carries them.
func SummarizeProcess(tables map[models.Category]*table.Table) ProcessSummary {
	s := ProcessSummary{
		ProcessNumber: notAvailable,
		ControlNumber: notAvailable,
		Categories:    make(map[string]int),
		Researchers:   make([]string, 0),
	}
	proc := tables[models.Processo]
	if !proc.Empty() {
		s.ProcessNumber = firstValue(proc, models.ColumnProcess, notAvailable)
		s.ControlNumber = firstValue(proc, models.ColumnControl, notAvailable)
		if col, ok := proc.FindColumn("tribunal"); ok {
			s.Court = firstValue(proc, col, "")
		}
		for _, r := range proc.Rows {
			if text, ok := r.Value(ColumnObservations); ok {
				s.Observations = append(s.Observations, Observation{
					ResponseID:    proc.GetOr(r, table.FieldResponseID, table.StandardDefaults),
					ControlNumber: proc.GetOr(r, table.FieldControlNumber, table.StandardDefaults),
					Text:          text,
				})
			}
		}
	}

	researchers := make(map[string]struct{})
	for c, t := range tables {
		if t.Empty() {
			continue
		}
		s.Categories[string(c)] = t.Len()
		s.TotalResponses += t.Len()
		for _, r := range t.Rows {
			if name, ok := r.Value(models.ColumnResearcher); ok {
				researchers[name] = struct{}{}
			}
			if at, ok := validation.ParseDate(r.Raw(models.ColumnSubmitDate)); ok {
				if s.LastSubmission == nil || at.After(*s.LastSubmission) {
					s.LastSubmission = &at
				}
			}
		}
	}
	for name := range researchers {
		s.Researchers = append(s.Researchers, name)
	}
	sort.Strings(s.Researchers)
	return s
}

func firstValue(t *table.Table, column, fallback string) string {
	for _, r := range t.Rows {
		if v, ok := r.Value(column); ok {
			return v
		}
	}
	return fallback
}
