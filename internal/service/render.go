package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
	"github.com/marcella-castro/check-pesquisa-mj/internal/validation"
)

const (
	noErrorsText = "Nenhum erro encontrado! Todas as validações passaram com sucesso."
	maxCellRunes = 100
)

// RenderText lists the report for manual audit under a status and severity
// header, grouped by category with general notes last.
func RenderText(r *validation.Report) string {
	if r.Total() == 0 {
		return noErrorsText + "\n"
	}
	sum := validation.Summarize(r)
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s | Severidade: %s | Total: %s\n\n", sum.Status.Label(), sum.Severity.Label(), plural(sum.Total))
	for _, c := range models.Categories() {
		recs := r.Errors[c]
		if len(recs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s (%s)\n", c.FormName(), plural(len(recs)))
		for _, rec := range recs {
			fmt.Fprintf(&b, "  - [%s] Campo: %s | Tipo de Erro: %s | Valor Encontrado: %s | Regra Violada / Esperado: %s | Bolsista: %s\n",
				rec.Form, truncate(rec.Field), rec.ErrorType, truncate(rec.Found), truncate(rec.Expected), rec.Researcher)
		}
	}
	if n := len(r.General); n > 0 {
		fmt.Fprintf(&b, "Gerais (%s)\n", plural(n))
		for i, note := range r.General {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, note)
		}
	}
	return b.String()
}

func plural(n int) string {
	if n > 1 {
		return fmt.Sprintf("%d erros", n)
	}
	return fmt.Sprintf("%d erro", n)
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxCellRunes {
		return s
	}
	return string([]rune(s)[:maxCellRunes]) + "..."
}
