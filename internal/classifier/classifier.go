package classifier

import (
	"strings"

	"github.com/marosky/timelens/internal/models"
	"github.com/marosky/timelens/internal/registry"
)

// Classifier resolves a raw activity interval to a category against a
// registry snapshot.
type Classifier interface {
	Classify(activity models.ActivityInterval, reg *registry.Registry) models.CategoryRef
}

// RuleClassifier applies the layered matching strategy: URL substring, app
// exact, app case-insensitive, app fuzzy substring, then the unknown
// fallback. It is a pure function of its inputs and holds no state.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify walks the match layers in strict priority order and stops at the
// first hit. Layering exact matches before fuzzy ones keeps short aliases
// like "Code" from shadowing exact entries, while the fuzzy layer still
// tolerates version suffixes and localized app names without an explicit
// alias.
func (c *RuleClassifier) Classify(activity models.ActivityInterval, reg *registry.Registry) models.CategoryRef {
	if activity.URL != "" {
		if id, ok := matchURL(activity.URL, reg.URLPatterns()); ok {
			return models.KnownCategory(id)
		}
	}

	if id, ok := reg.ExactAppMatch(activity.AppName); ok {
		return models.KnownCategory(id)
	}

	if id, ok := reg.FoldedAppMatch(activity.AppName); ok {
		return models.KnownCategory(id)
	}

	if id, candidates, ok := matchAppFuzzy(activity.AppName, reg.AppAliases()); ok {
		ref := models.KnownCategory(id)
		ref.Candidates = candidates
		return ref
	}

	return models.UnknownCategory()
}

// matchURL scans patterns in registry insertion order for a case-insensitive
// substring match in either direction. Domain-level patterns like
// "github.com" match any path under the domain because containment, not URL
// parsing, is used.
func matchURL(url string, patterns []registry.URLPattern) (models.CategoryID, bool) {
	folded := strings.ToLower(url)
	for _, p := range patterns {
		pattern := strings.ToLower(p.Pattern)
		if strings.Contains(folded, pattern) || strings.Contains(pattern, folded) {
			return p.CategoryID, true
		}
	}
	return "", false
}

// matchAppFuzzy scans aliases in registry insertion order and matches on
// substring containment in either direction, case-insensitive. The first
// alias satisfying the relation wins, so first-registered categories take
// precedence when several aliases could match; the count of all satisfying
// aliases is returned alongside so callers can surface the ambiguity.
func matchAppFuzzy(appName string, aliases []registry.AppAlias) (models.CategoryID, int, bool) {
	folded := strings.ToLower(appName)
	if folded == "" {
		return "", 0, false
	}
	var winner models.CategoryID
	candidates := 0
	for _, a := range aliases {
		alias := strings.ToLower(a.Alias)
		if strings.Contains(folded, alias) || strings.Contains(alias, folded) {
			if candidates == 0 {
				winner = a.CategoryID
			}
			candidates++
		}
	}
	return winner, candidates, candidates > 0
}
