// Package suggest evaluates aggregated component statistics against a
// declarative, ordered rule catalog and produces ranked, explainable
// optimization suggestions.
//
// Each rule is a plain record with a predicate and a generator; there is no
// rule hierarchy. Every rule can be overridden per installation: disabled
// outright, or forced to Warning/Critical severity.
package suggest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/renderlens/renderlens/internal/collector"
	"github.com/renderlens/renderlens/internal/logging"
)

// SuggestionFunc is invoked synchronously for every generated suggestion
type SuggestionFunc func(s FixSuggestion)

// Suggester runs the rule catalog over component statistics and caches the
// latest analysis per component.
type Suggester struct {
	mu           sync.Mutex
	logger       *logging.Logger
	rules        []Rule
	overrides    map[string]Override
	cache        map[string][]FixSuggestion
	onSuggestion SuggestionFunc
}

// New creates a suggester seeded with the built-in rule catalog
func New() *Suggester {
	return &Suggester{
		logger:    logging.GetLogger("suggest"),
		rules:     BuiltinRules(),
		overrides: make(map[string]Override),
		cache:     make(map[string][]FixSuggestion),
	}
}

// OnSuggestion registers the suggestion callback.
// Must be called before analysis runs; not synchronized against Analyze.
func (sg *Suggester) OnSuggestion(fn SuggestionFunc) {
	sg.onSuggestion = fn
}

// RegisterRule appends a rule to the catalog. Returns an error on a
// duplicate or empty ID.
func (sg *Suggester) RegisterRule(rule Rule) error {
	if rule.ID == "" {
		return fmt.Errorf("rule ID must not be empty")
	}
	if rule.Predicate == nil || rule.Generate == nil {
		return fmt.Errorf("rule %s must have a predicate and a generator", rule.ID)
	}

	sg.mu.Lock()
	defer sg.mu.Unlock()
	for _, r := range sg.rules {
		if r.ID == rule.ID {
			return fmt.Errorf("rule %s is already registered", rule.ID)
		}
	}
	sg.rules = append(sg.rules, rule)
	return nil
}

// Rules returns a copy of the catalog in registration order
func (sg *Suggester) Rules() []Rule {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	return append([]Rule(nil), sg.rules...)
}

// SetOverride configures the installation override for a rule.
// Returns an error for an unknown rule ID.
func (sg *Suggester) SetOverride(ruleID string, override Override) error {
	sg.mu.Lock()
	defer sg.mu.Unlock()

	for _, r := range sg.rules {
		if r.ID == ruleID {
			if override == OverrideNone {
				delete(sg.overrides, ruleID)
			} else {
				sg.overrides[ruleID] = override
			}
			return nil
		}
	}
	return fmt.Errorf("unknown rule: %s", ruleID)
}

// Override returns the configured override for a rule
func (sg *Suggester) Override(ruleID string) Override {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	return sg.overrides[ruleID]
}

// Analyze evaluates every enabled rule against the stats in registration
// order, applies overrides, stable-sorts the results by (severity rank
// ascending, rule priority ascending) and replaces the component's cached
// suggestion list wholesale. One callback fires per generated suggestion,
// in sorted order, before Analyze returns.
func (sg *Suggester) Analyze(stats collector.ComponentStats) []FixSuggestion {
	sg.mu.Lock()

	type ranked struct {
		suggestion FixSuggestion
		priority   int
	}
	var matches []ranked
	for _, rule := range sg.rules {
		if sg.overrides[rule.ID] == OverrideOff {
			continue
		}
		if !rule.Predicate(stats) {
			continue
		}

		s := rule.Generate(stats)
		switch sg.overrides[rule.ID] {
		case OverrideWarning:
			s.Severity = collector.SeverityWarning
		case OverrideCritical:
			s.Severity = collector.SeverityCritical
		}
		matches = append(matches, ranked{suggestion: s, priority: rule.Priority})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].suggestion.Severity.Rank() != matches[j].suggestion.Severity.Rank() {
			return matches[i].suggestion.Severity.Rank() < matches[j].suggestion.Severity.Rank()
		}
		return matches[i].priority < matches[j].priority
	})

	out := make([]FixSuggestion, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.suggestion)
	}
	sg.cache[stats.Name] = out
	sg.mu.Unlock()

	if len(out) > 0 {
		sg.logger.Debug("analysis for %s produced %d suggestions", stats.Name, len(out))
	}
	if sg.onSuggestion != nil {
		for _, s := range out {
			sg.onSuggestion(s)
		}
	}
	return out
}

// Suggestions returns the cached analysis for a component, if any
func (sg *Suggester) Suggestions(component string) []FixSuggestion {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	return append([]FixSuggestion(nil), sg.cache[component]...)
}

// All returns every cached suggestion keyed by component
func (sg *Suggester) All() map[string][]FixSuggestion {
	sg.mu.Lock()
	defer sg.mu.Unlock()

	out := make(map[string][]FixSuggestion, len(sg.cache))
	for name, list := range sg.cache {
		out[name] = append([]FixSuggestion(nil), list...)
	}
	return out
}

// Reset clears all cached analyses. Rule overrides survive a reset.
func (sg *Suggester) Reset() {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	sg.cache = make(map[string][]FixSuggestion)
	sg.logger.Debug("suggestion cache cleared")
}
