package models

// Category identifies one questionnaire form family.
type Category string

const (
	Processo Category = "processo"
	Vitima   Category = "vitima"
	Reu      Category = "reu"
	Provas   Category = "provas"

	// General is the bucket for cross-category notes and isolated faults.
	General Category = "gerais"
)

// Categories returns the four expected categories in report order.
func Categories() []Category {
	return []Category{Processo, Vitima, Reu, Provas}
}

// Column labels shared by every form. Labels are "<CODE>. <question text>" as
// produced by the survey client.
const (
	ColumnResponseID  = "id"
	ColumnFormOrigin  = "form_origem"
	ColumnSubmitDate  = "submitdate"
	ColumnLastPage    = "lastpage"
	ColumnResearcher  = "P0Q0. Pesquisador responsável pelo preenchimento:"
	ColumnControl     = "P0Q1. Número de controle (dado pela equipe)"
	ColumnProcess     = "P0Q2. Número do Processo:"
	ColumnProcessCNJ  = "P0Q2. Número do Processo (Formato: 0000000-00.0000.0.00.0000):"
	AnswerYes         = "Sim"
	AnswerNo          = "Não"
	AnswerNotInformed = "NI"
)

// ProcessColumn is the label holding the judicial process number in the
// category's form. The processo form predates the formatted label.
func (c Category) ProcessColumn() string {
	if c == Processo {
		return ColumnProcess
	}
	return ColumnProcessCNJ
}

// FormName is the prefix used in the "Formulário" column of error records.
func (c Category) FormName() string {
	switch c {
	case Processo:
		return "Processo"
	case Vitima:
		return "Vítima"
	case Reu:
		return "Réu"
	case Provas:
		return "Provas"
	}
	return string(c)
}

// Noun is the lower-case name used inside free-text notes.
func (c Category) Noun() string {
	switch c {
	case Vitima:
		return "vítima"
	case Reu:
		return "réu"
	}
	return string(c)
}

func (c Category) Valid() bool {
	switch c {
	case Processo, Vitima, Reu, Provas:
		return true
	}
	return false
}
