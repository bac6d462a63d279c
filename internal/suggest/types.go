package suggest

import (
	"github.com/renderlens/renderlens/internal/collector"
)

// FixKind identifies the category of an optimization suggestion
type FixKind string

const (
	FixMemoization          FixKind = "memoization"
	FixExpensiveComputation FixKind = "expensive-computation"
	FixUnstableCallback     FixKind = "unstable-callback"
	FixOverSubscription     FixKind = "over-subscription"
	FixStatePlacement       FixKind = "state-placement"
	FixExtraction           FixKind = "extraction"
)

// FixSuggestion is a structured, rule-generated recommendation.
// ComponentName and Kind are always set.
type FixSuggestion struct {
	// ComponentName is the target component
	ComponentName string `json:"componentName"`

	// Kind categorizes the fix
	Kind FixKind `json:"kind"`

	// Severity ranks the urgency of the suggestion
	Severity collector.Severity `json:"severity"`

	// Issue describes the observed problem
	Issue string `json:"issue"`

	// Cause explains the likely reason
	Cause string `json:"cause"`

	// CodeBefore and CodeAfter are illustrative exemplars with the
	// component name substituted in
	CodeBefore string `json:"codeBefore"`
	CodeAfter  string `json:"codeAfter"`

	// Explanation describes why the fix helps
	Explanation string `json:"explanation"`

	// EstimatedImpact is a quantitative estimate derived from the stats
	EstimatedImpact string `json:"estimatedImpact"`
}

// Override adjusts a rule's behavior per installation
type Override string

const (
	// OverrideNone leaves the rule's own severity in place
	OverrideNone Override = ""
	// OverrideOff disables the rule entirely
	OverrideOff Override = "off"
	// OverrideWarning forces generated suggestions to Warning severity
	OverrideWarning Override = "force-warning"
	// OverrideCritical forces generated suggestions to Critical severity
	OverrideCritical Override = "force-critical"
)

// ParseOverride validates an override string
func ParseOverride(s string) (Override, bool) {
	switch Override(s) {
	case OverrideNone, OverrideOff, OverrideWarning, OverrideCritical:
		return Override(s), true
	}
	return OverrideNone, false
}

// Rule is one entry of the declarative catalog: a plain record with a
// predicate over aggregated stats and a suggestion generator. Rules are
// independent of each other and evaluated in registration order.
type Rule struct {
	// ID uniquely identifies the rule for overrides
	ID string

	// Kind is the fix category this rule produces
	Kind FixKind

	// Priority orders suggestions of equal severity; lower wins
	Priority int

	// Predicate reports whether the rule matches the stats
	Predicate func(stats collector.ComponentStats) bool

	// Generate produces the suggestion for matching stats
	Generate func(stats collector.ComponentStats) FixSuggestion
}
