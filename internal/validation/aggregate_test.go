package validation

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
	"github.com/marcella-castro/check-pesquisa-mj/internal/table"
)

type panicValidator struct{}

func (panicValidator) Validate(*table.Table) []ErrorRecord {
	panic("boom")
}

func caseTables() map[models.Category]*table.Table {
	return map[models.Category]*table.Table{
		models.Processo: tableOf(models.Processo, table.Row{models.ColumnControl: "bad"}),
		models.Vitima:   tableOf(models.Vitima, table.Row{models.ColumnControl: "1V01"}),
		models.Reu:      tableOf(models.Reu, table.Row{models.ColumnControl: "also-bad"}),
		models.Provas:   tableOf(models.Provas, table.Row{models.ColumnControl: "x"}),
	}
}

func TestAggregateCleanCase(t *testing.T) {
	tables := caseTables()
	tables[models.Processo] = tableOf(models.Processo, table.Row{models.ColumnControl: "1R01"})
	tables[models.Reu] = tableOf(models.Reu, table.Row{models.ColumnControl: "1R01"})
	tables[models.Provas] = tableOf(models.Provas, table.Row{models.ColumnControl: "1"})

	report := NewAggregate().ValidateAll(tables)
	assert.Equal(t, 0, report.Total())

	s := Summarize(report)
	assert.Equal(t, StatusOK, s.Status)
	assert.Equal(t, SeverityNone, s.Severity)
	assert.Equal(t, 0, s.Categories["gerais"])
}

func TestAggregateIsolatesFaults(t *testing.T) {
	report := NewAggregate().Use(models.Vitima, panicValidator{}).ValidateAll(caseTables())

	assert.Len(t, report.Errors[models.Processo], 1)
	assert.Len(t, report.Errors[models.Reu], 1)
	assert.Len(t, report.Errors[models.Provas], 1)
	assert.Empty(t, report.Errors[models.Vitima])
	require.Len(t, report.General, 1)
	assert.Equal(t, "Erro na validação de vítima: boom", report.General[0])
	assert.Equal(t, []models.Category{models.Vitima}, report.Faults)

	s := Summarize(report)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, SeverityMedium, s.Severity)
}

func TestAggregateMissingCategories(t *testing.T) {
	tables := caseTables()
	delete(tables, models.Reu)
	tables[models.Provas] = table.New(models.Provas, []string{models.ColumnControl}, nil)

	report := NewAggregate().ValidateAll(tables)
	assert.Contains(t, report.General, "Categorias sem dados: reu, provas")
}

func TestAggregateNoData(t *testing.T) {
	report := NewAggregate().ValidateAll(nil)
	assert.Equal(t, []string{"Nenhum dado encontrado para validação"}, report.General)
	assert.Equal(t, 1, report.Total())
}

func TestAggregateDuplicateNote(t *testing.T) {
	tables := caseTables()
	tables[models.Vitima] = table.New(models.Vitima,
		[]string{models.ColumnProcessCNJ, models.ColumnControl},
		[]table.Row{
			{models.ColumnProcessCNJ: validCNJ, models.ColumnControl: "1V01"},
			{models.ColumnProcessCNJ: validCNJ, models.ColumnControl: "1V02"},
			{models.ColumnProcessCNJ: "7654321-89.2023.1.01.0001", models.ColumnControl: "2V01"},
		})

	report := NewAggregate().ValidateAll(tables)
	assert.Contains(t, report.General, "Categoria vitima: Encontradas 2 respostas duplicadas")
}

func TestAggregateSubmissionSpread(t *testing.T) {
	tables := caseTables()
	tables[models.Reu] = tableOf(models.Reu,
		table.Row{models.ColumnControl: "1R01", models.ColumnSubmitDate: "2023-01-01 10:00:00"},
		table.Row{models.ColumnControl: "1R02", models.ColumnSubmitDate: "2023-03-01 09:00:00"},
	)
	tables[models.Provas] = tableOf(models.Provas,
		table.Row{models.ColumnControl: "1", models.ColumnSubmitDate: "2023-01-01 10:00:00"},
		table.Row{models.ColumnControl: "1", models.ColumnSubmitDate: "2023-01-31 10:00:00"},
	)

	report := NewAggregate().ValidateAll(tables)
	assert.Contains(t, report.General, "Categoria reu: Respostas com diferença temporal de 58 dias")
	for _, note := range report.General {
		assert.NotContains(t, note, "Categoria provas: Respostas")
	}
}

func TestSeverityBoundaries(t *testing.T) {
	tests := []struct {
		total int
		want  Severity
	}{
		{0, SeverityNone},
		{1, SeverityLow},
		{2, SeverityLow},
		{3, SeverityMedium},
		{10, SeverityMedium},
		{11, SeverityHigh},
		{500, SeverityHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityFor(tt.total), "total %d", tt.total)
	}
	assert.Equal(t, "MÉDIA", SeverityMedium.Label())
	assert.Equal(t, "ERRO", StatusError.Label())
}

func TestReportJSON(t *testing.T) {
	report := NewAggregate().ValidateAll(caseTables())

	raw, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string][]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded, 5)
	assert.Contains(t, decoded, "gerais")
	assert.Empty(t, decoded["vitima"])

	require.Len(t, decoded["processo"], 1)
	rec := decoded["processo"][0].(map[string]any)
	for _, key := range []string{
		"Formulário", "ID da Resposta", "Nº Processo", "Nº de Controle", "Bolsista",
		"Campo", "Tipo de Erro", "Valor Encontrado", "Regra Violada / Esperado", "Categoria",
	} {
		assert.Contains(t, rec, key)
	}
	assert.Equal(t, "processo", rec["Categoria"])
	assert.Equal(t, "FormatInvalid", rec["kind"])
}
