package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
	"github.com/marcella-castro/check-pesquisa-mj/internal/table"
	"github.com/marcella-castro/check-pesquisa-mj/internal/validation"
)

var (
	ErrInvalidNumber = errors.New("número de processo inválido")
	ErrNotFound      = errors.New("nenhuma resposta encontrada para o processo")
)

var nonDigit = regexp.MustCompile(`\D`)

// Snapshots supplies the tables of one process.
type Snapshots interface {
	FilterByProcess(number string) (map[models.Category]*table.Table, error)
}

// ReportObserver is notified of every validation run.
type ReportObserver interface {
	ObserveReport(r *validation.Report)
}

type SearchService struct {
	snaps     Snapshots
	aggregate *validation.Aggregate
	observer  ReportObserver
	now       func() time.Time
}

func NewSearchService(snaps Snapshots, observer ReportObserver) *SearchService {
	return &SearchService{
		snaps:     snaps,
		aggregate: validation.NewAggregate(),
		observer:  observer,
		now:       time.Now,
	}
}

// Result is one validation report.
type Result struct {
	ReportID      string             `json:"reportId"`
	ProcessNumber string             `json:"processNumber"`
	GeneratedAt   time.Time          `json:"generatedAt"`
	Summary       ProcessSummary     `json:"summary"`
	Errors        *validation.Report `json:"errors"`
	Validation    validation.Summary `json:"validation"`
}

// NormalizeCNJ trims the input and formats a bare 20 digit number as
// 0000000-00.0000.0.00.0000. Other input is returned trimmed.
func NormalizeCNJ(s string) string {
	s = strings.TrimSpace(s)
	if len(s) != 20 || nonDigit.MatchString(s) {
		return s
	}
	return s[:7] + "-" + s[7:9] + "." + s[9:13] + "." + s[13:14] + "." + s[14:16] + "." + s[16:]
}

// Search validates every response recorded for one process.
func (s *SearchService) Search(ctx context.Context, number string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	number = NormalizeCNJ(number)
	if number == "" {
		return nil, ErrInvalidNumber
	}
	tables, err := s.snaps.FilterByProcess(number)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, number)
	}
	res := s.ValidateTables(tables)
	res.ProcessNumber = number
	return res, nil
}

// ValidateTables runs the full audit over caller supplied tables.
func (s *SearchService) ValidateTables(tables map[models.Category]*table.Table) *Result {
	report := s.aggregate.ValidateAll(tables)
	if s.observer != nil {
		s.observer.ObserveReport(report)
	}
	summary := SummarizeProcess(tables)
	return &Result{
		ReportID:      uuid.NewString(),
		ProcessNumber: summary.ProcessNumber,
		GeneratedAt:   s.now(),
		Summary:       summary,
		Errors:        report,
		Validation:    validation.Summarize(report),
	}
}
