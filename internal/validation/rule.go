package validation

import (
	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
	"github.com/marcella-castro/check-pesquisa-mj/internal/table"
)

// Validator turns one category table into error records.
type Validator interface {
	Validate(t *table.Table) []ErrorRecord
}

// Rule is a single check. Columns are the labels the check reads. With Any
// unset every column must be present; with Any set one is enough.
type Rule struct {
	Name    string
	Columns []string
	Any     bool
	Check   func(t *table.Table) []ErrorRecord
}

// Decide reports whether the rule applies to t.
func (r Rule) Decide(t *table.Table) table.Decision {
	if r.Any {
		return t.DecideAny(r.Columns...)
	}
	return t.Decide(r.Columns...)
}

// RuleSet is the fixed, ordered rule list of one category.
type RuleSet struct {
	Category models.Category
	Rules    []Rule
}

// Validate evaluates every applicable rule in order. A table of another
// category is validated as if it belonged to the set's category.
func (s *RuleSet) Validate(t *table.Table) []ErrorRecord {
	if t.Category != s.Category {
		t = table.New(s.Category, t.Columns, t.Rows)
	}
	out := make([]ErrorRecord, 0)
	for _, rule := range s.Rules {
		if rule.Decide(t) == table.Skip {
			continue
		}
		out = append(out, rule.Check(t)...)
	}
	return out
}

// Plan returns the decision taken for every rule, keyed by rule name.
func (s *RuleSet) Plan(t *table.Table) map[string]table.Decision {
	plan := make(map[string]table.Decision, len(s.Rules))
	for _, rule := range s.Rules {
		plan[rule.Name] = rule.Decide(t)
	}
	return plan
}

// ForCategory returns the rule set of a category, or nil for an unknown one.
func ForCategory(c models.Category) *RuleSet {
	switch c {
	case models.Processo:
		return ProcessoRules()
	case models.Vitima:
		return VitimaRules()
	case models.Reu:
		return ReuRules()
	case models.Provas:
		return ProvasRules()
	}
	return nil
}
