package inference

import (
	"regexp"

	"github.com/samber/lo"

	"github.com/shipkey/shipkey/internal/config"
)

// FallbackProvider receives every key no rule claims.
const FallbackProvider = "General"

// Rule maps key patterns to a provider.
type Rule struct {
	Provider string
	Patterns []*regexp.Regexp
	GuideURL string
	Guide    string
}

// Matches reports whether any pattern matches key.
func (r Rule) Matches(key string) bool {
	for _, p := range r.Patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

// Classifier is an immutable ordered rule table.
type Classifier struct {
	rules []Rule
}

// NewClassifier copies rules so later changes by the caller have no effect.
func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: append([]Rule(nil), rules...)}
}

// Default returns a classifier over DefaultRules.
func Default() *Classifier {
	return NewClassifier(DefaultRules())
}

// Rules returns a copy of the rule table in match order.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Classify returns the provider of the first matching rule.
func (c *Classifier) Classify(key string) string {
	if rule, ok := c.match(key); ok {
		return rule.Provider
	}
	return FallbackProvider
}

func (c *Classifier) match(key string) (Rule, bool) {
	for _, rule := range c.rules {
		if rule.Matches(key) {
			return rule, true
		}
	}
	return Rule{}, false
}

// GroupByProvider classifies keys and accumulates them per provider in
// input order. Guide metadata is taken from the rule that created the
// provider entry.
func (c *Classifier) GroupByProvider(keys []string) map[string]config.ProviderConfig {
	out := map[string]config.ProviderConfig{}
	for _, key := range keys {
		rule, ok := c.match(key)
		provider := FallbackProvider
		if ok {
			provider = rule.Provider
		}

		pc, exists := out[provider]
		if !exists {
			pc = config.ProviderConfig{GuideURL: rule.GuideURL, Guide: rule.Guide}
		}
		if !lo.Contains(pc.Fields, key) {
			pc.Fields = append(pc.Fields, key)
		}
		out[provider] = pc
	}
	return out
}

func rule(provider, guideURL, guide string, patterns ...string) Rule {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile("(?i)"+p))
	}
	return Rule{Provider: provider, Patterns: compiled, GuideURL: guideURL, Guide: guide}
}
