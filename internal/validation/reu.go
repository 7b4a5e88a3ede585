package validation

import "github.com/marcella-castro/check-pesquisa-mj/internal/models"

// ReuRules returns the defendant form rule set. The arrest columns are
// collected per defendant, so the flagrant delay alert lives here too.
func ReuRules() *RuleSet {
	return &RuleSet{
		Category: models.Reu,
		Rules: []Rule{
			controlFormatRule(controlPattern, controlRuleText),
			processFormatRule(models.Reu),
			flagrantDelayRule(),
			requiredIdentityRule(models.Reu),
		},
	}
}
