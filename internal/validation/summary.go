package validation

import "github.com/marcella-castro/check-pesquisa-mj/internal/models"

type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// Label is the Portuguese text shown in reports.
func (s Status) Label() string {
	if s == StatusError {
		return "ERRO"
	}
	return "OK"
}

type Severity string

const (
	SeverityNone   Severity = "NONE"
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

func (s Severity) Label() string {
	switch s {
	case SeverityLow:
		return "BAIXA"
	case SeverityMedium:
		return "MÉDIA"
	case SeverityHigh:
		return "ALTA"
	}
	return "NENHUM"
}

// SeverityFor maps a total count to a severity. Advisories weigh the same
// as hard violations.
func SeverityFor(total int) Severity {
	switch {
	case total <= 0:
		return SeverityNone
	case total <= 2:
		return SeverityLow
	case total <= 10:
		return SeverityMedium
	}
	return SeverityHigh
}

// Summary condenses a report.
type Summary struct {
	Total      int            `json:"total"`
	Categories map[string]int `json:"categories"`
	Status     Status         `json:"status"`
	Severity   Severity       `json:"severity"`
}

// Summarize counts every category, the general bucket included.
func Summarize(r *Report) Summary {
	s := Summary{Categories: make(map[string]int, len(r.Errors)+1)}
	for c := range r.Errors {
		s.Categories[string(c)] = r.Count(c)
	}
	s.Categories[string(models.General)] = r.Count(models.General)
	s.Total = r.Total()
	s.Status = StatusOK
	if s.Total > 0 {
		s.Status = StatusError
	}
	s.Severity = SeverityFor(s.Total)
	return s
}
