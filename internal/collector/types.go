package collector

// Severity classifies a component's render behavior against the configured
// thresholds. It is always derived from (renders, thresholds) and never
// stored as independently mutable truth.
type Severity string

const (
	// SeverityHealthy indicates render counts below all thresholds
	SeverityHealthy Severity = "healthy"
	// SeverityWarning indicates render counts at or above the warning threshold
	SeverityWarning Severity = "warning"
	// SeverityCritical indicates render counts at or above the critical threshold
	SeverityCritical Severity = "critical"
)

// Rank returns the sort rank for a severity. Lower rank sorts first
// (Critical < Warning < Healthy).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Thresholds holds the severity classification thresholds
type Thresholds struct {
	// CriticalRenders is the render count at which a component turns critical
	CriticalRenders int `json:"criticalRenders" yaml:"criticalRenders"`

	// WarningRenders is the render count at which a component turns warning
	WarningRenders int `json:"warningRenders" yaml:"warningRenders"`

	// MinRenderRate is the events-per-second floor below which a
	// throughput-drop notification fires
	MinRenderRate float64 `json:"minRenderRate" yaml:"minRenderRate"`
}

// DefaultThresholds returns the default classification thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		CriticalRenders: 50,
		WarningRenders:  20,
		MinRenderRate:   30,
	}
}

// classifySeverity derives the severity for a render count.
// This is the single source of truth for severity classification.
func classifySeverity(renders int, t Thresholds) Severity {
	switch {
	case renders >= t.CriticalRenders:
		return SeverityCritical
	case renders >= t.WarningRenders:
		return SeverityWarning
	default:
		return SeverityHealthy
	}
}

// ComponentStats holds the aggregated statistics for a single component
type ComponentStats struct {
	// Name identifies the component
	Name string `json:"name"`

	// Renders is the total number of observed renders
	Renders int `json:"renders"`

	// UnnecessaryRenders counts renders flagged as unnecessary.
	// Always <= Renders.
	UnnecessaryRenders int `json:"unnecessaryRenders"`

	// TotalDuration is the cumulative render duration in milliseconds
	TotalDuration float64 `json:"totalDuration"`

	// AverageDuration is the incremental mean render duration in milliseconds
	AverageDuration float64 `json:"averageDuration"`

	// MinDuration is the shortest observed render. Initialized to +Inf so
	// the first sample always sets it.
	MinDuration float64 `json:"minDuration"`

	// MaxDuration is the longest observed render
	MaxDuration float64 `json:"maxDuration"`

	// Severity is the derived classification at the time of the last update
	Severity Severity `json:"severity"`

	// Chain is the ordered cascade membership this component was last seen
	// in, set when a render chain containing it is detected
	Chain []string `json:"chain,omitempty"`

	// Parent is the last known parent component, if any
	Parent string `json:"parent,omitempty"`

	// FirstSeen and LastSeen are Unix millisecond timestamps
	FirstSeen int64 `json:"firstSeen"`
	LastSeen  int64 `json:"lastSeen"`

	// HadPropChanges is sticky: true once any render carried changed props
	HadPropChanges bool `json:"hadPropChanges"`

	// HadStateChanges is sticky: true once any render carried changed state
	HadStateChanges bool `json:"hadStateChanges"`

	// ExpectedRenders is a display-only baseline derived from elapsed
	// session time. No rule or severity decision consumes it.
	ExpectedRenders int `json:"expectedRenders"`
}

// UnnecessaryRatio returns the fraction of renders flagged unnecessary
func (s *ComponentStats) UnnecessaryRatio() float64 {
	if s.Renders == 0 {
		return 0
	}
	return float64(s.UnnecessaryRenders) / float64(s.Renders)
}

// SessionSummary aggregates the state of the whole session
type SessionSummary struct {
	HealthyCount  int `json:"healthyCount"`
	WarningCount  int `json:"warningCount"`
	CriticalCount int `json:"criticalCount"`

	TotalComponents  int `json:"totalComponents"`
	TotalRenders     int `json:"totalRenders"`
	TotalUnnecessary int `json:"totalUnnecessary"`

	// AverageRenderRate and MinRenderRate summarize the throughput samples
	// collected so far (events per second)
	AverageRenderRate float64 `json:"averageRenderRate"`
	MinRenderRate     float64 `json:"minRenderRate"`
}

// SeverityChange describes a severity transition for one component
type SeverityChange struct {
	Component string   `json:"component"`
	From      Severity `json:"from"`
	To        Severity `json:"to"`
}
