package validation

import "github.com/marcella-castro/check-pesquisa-mj/internal/models"

// VitimaRules returns the victim form rule set.
func VitimaRules() *RuleSet {
	return &RuleSet{
		Category: models.Vitima,
		Rules: []Rule{
			controlFormatRule(controlPattern, controlRuleText),
			processFormatRule(models.Vitima),
			requiredIdentityRule(models.Vitima),
		},
	}
}
