package validation

import (
	"fmt"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
	"github.com/marcella-castro/check-pesquisa-mj/internal/table"
)

// Exam is a forensic exam question: a yes/no flag plus the request and
// filing dates asked when the exam exists.
type Exam struct {
	Flag    string
	Name    string
	Request string
	Filing  string
}

func exam(flag, name, sq string) Exam {
	return Exam{
		Flag:    "P1Q0[" + flag + "]",
		Name:    name,
		Request: "P1Q1[" + sq + "_SQ002]",
		Filing:  "P1Q1[" + sq + "_SQ003]",
	}
}

// Exams maps exam flags to their date questions. Flag codes are not in
// the same order as date codes in the form.
var Exams = []Exam{
	exam("SQ001", "Exame em local de crime", "SQ001"),
	exam("SQ002", "Exame em arma de fogo", "SQ002"),
	exam("SQ003", "Exame em arma branca", "SQ003"),
	exam("SQ004", "Exame em documentos (ex.: grafotécnico)", "SQ004"),
	exam("57481", "Exame em poeiras, pós e cinzas", "SQ005"),
	exam("SQ005", "Exame em peças de vestuários, acessórios e pertences", "SQ006"),
	exam("SQ006", "Exame em outros tipos de vestígios físicos", "SQ007"),
	exam("SQ007", "Exame em computadores ou tablets", "SQ008"),
	exam("SQ008", "Exame em aparelhos celulares", "SQ009"),
	exam("SQ009", "Exame em arquivos de vídeo/imagens/áudio", "SQ010"),
	exam("SQ012", "Exame em outros tipos de dispositivos digitais", "SQ011"),
	exam("SQ011", "Exame em marcas de mordidas ou impressões labiais", "SQ012"),
	exam("SQ010", "Exame em impressões papiloscópicas (impressão digital)", "SQ013"),
	exam("SQ013", "Exame em outros tipos de vestígios morfológicos", "SQ014"),
	exam("SQ014", "Exame de corpo de delito do acusado", "SQ015"),
	exam("SQ018", "Exame de corpo de delito da vítima", "SQ016"),
	exam("79893", "Exame toxicológico do acusado", "SQ019"),
	exam("SQ017", "Exame toxicológico da vítima", "SQ018"),
	exam("SQ016", "Exame em sangue (outros tipos)", "SQ017"),
	exam("SQ015", "Exame em sêmen", "SQ020"),
	exam("SQ019", "Exame em dentes", "SQ024"),
	exam("SQ023", "Exame psicológico/psiquiátrico do acusado", "SQ023"),
	exam("SQ022", "Exame psicológico/psiquiátrico da vítima", "SQ022"),
	exam("SQ021", "Exame em outros tipos de vestígios biológicos", "SQ021"),
	exam("66635", "Exame em drogas lícitas", "SQ025"),
	exam("SQ020", "Exame em drogas ilícitas", "SQ028"),
	exam("SQ024", "Exame em outros tipos de vestígios químicos (ex.: líquidos, combustíveis, bebidas, metais, etc)", "SQ027"),
	exam("SQ025", "Exame de necropsia", "SQ026"),
	exam("SQ026", "Exame em fragmentos veiculares", "SQ029"),
	exam("SQ027", "Exame em componentes veiculares", "SQ030"),
}

// ProvasRules returns the evidence form rule set.
func ProvasRules() *RuleSet {
	rules := []Rule{
		controlFormatRule(provasControlPattern, provasControlRuleText),
		processFormatRule(models.Provas),
		requiredIdentityRule(models.Provas),
	}
	for _, e := range Exams {
		rules = append(rules, examDateRule(e))
	}
	return &RuleSet{Category: models.Provas, Rules: rules}
}

// examDateRule requires both dates of an exam marked present.
func examDateRule(x Exam) Rule {
	return Rule{
		Name:    "exam-dates " + x.Flag,
		Columns: []string{x.Flag, x.Request, x.Filing},
		Check: func(t *table.Table) []ErrorRecord {
			var out []ErrorRecord
			for _, r := range t.Rows {
				if !isYes(r, x.Flag) {
					continue
				}
				req, reqOK := r.Value(x.Request)
				fil, filOK := r.Value(x.Filing)
				if reqOK && filOK && ValidExamDate(req) && ValidExamDate(fil) {
					continue
				}
				e := newRecord(t, r, table.StandardDefaults, FormatInvalid)
				e.Field = fmt.Sprintf("Tipo de prova: %s - %s ou %s", x.Name, x.Request, x.Filing)
				e.ErrorType = fmt.Sprintf("Data inválida ou ausente para [%s]", x.Name)
				e.Found = fmt.Sprintf("Valores de data para pergunta [%s]: %s / %s", x.Name, orNA(req, reqOK), orNA(fil, filOK))
				e.Expected = `Para provas marcadas presentes ("Sim"), espera-se data de juntada e solicitação ou NI`
				out = append(out, e)
			}
			return out
		},
	}
}

func orNA(v string, ok bool) string {
	if !ok {
		return "N/A"
	}
	return v
}
