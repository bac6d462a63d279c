// Package report assembles session analysis results into an exportable
// document.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/renderlens/renderlens/internal/chains"
	"github.com/renderlens/renderlens/internal/collector"
	"github.com/renderlens/renderlens/internal/suggest"
)

// Format selects the report output encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat validates a format string
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatYAML, FormatText:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown report format %q (expected json, yaml or text)", s)
	}
}

// Report is a point-in-time export of a session's analysis results
type Report struct {
	SessionID   string    `json:"sessionId" yaml:"sessionId"`
	GeneratedAt time.Time `json:"generatedAt" yaml:"generatedAt"`

	Thresholds collector.Thresholds     `json:"thresholds" yaml:"thresholds"`
	Summary    collector.SessionSummary `json:"summary" yaml:"summary"`

	// Components are sorted worst-first: severity rank, then render count
	// descending, then name
	Components []collector.ComponentStats `json:"components" yaml:"components"`

	Chains      []chains.RenderChain    `json:"chains" yaml:"chains"`
	Suggestions []suggest.FixSuggestion `json:"suggestions" yaml:"suggestions"`
}

// Build assembles a report from the session's current state. The component
// slice is expected in snapshot order; chains in detection order.
func Build(sessionID string, thresholds collector.Thresholds, summary collector.SessionSummary,
	components []collector.ComponentStats, detected []chains.RenderChain,
	suggestions []suggest.FixSuggestion) *Report {
	return &Report{
		SessionID:   sessionID,
		GeneratedAt: time.Now().UTC(),
		Thresholds:  thresholds,
		Summary:     summary,
		Components:  components,
		Chains:      detected,
		Suggestions: suggestions,
	}
}

// Write encodes the report in the given format
func (r *Report) Write(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		return r.writeText(w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// writeText renders a compact human-readable summary
func (r *Report) writeText(w io.Writer) error {
	p := func(format string, args ...interface{}) {
		fmt.Fprintf(w, format+"\n", args...)
	}

	p("Render analysis session %s", r.SessionID)
	p("Generated at %s", r.GeneratedAt.Format(time.RFC3339))
	p("")
	p("Components: %d total (%d critical, %d warning, %d healthy)",
		r.Summary.TotalComponents, r.Summary.CriticalCount,
		r.Summary.WarningCount, r.Summary.HealthyCount)
	p("Renders:    %d total, %d unnecessary",
		r.Summary.TotalRenders, r.Summary.TotalUnnecessary)
	p("Throughput: avg %.1f/s, min %.1f/s",
		r.Summary.AverageRenderRate, r.Summary.MinRenderRate)

	if len(r.Components) > 0 {
		p("")
		p("Worst components:")
		limit := len(r.Components)
		if limit > 10 {
			limit = 10
		}
		for _, c := range r.Components[:limit] {
			p("  [%s] %s: %d renders (%d unnecessary), avg %.2fms",
				c.Severity, c.Name, c.Renders, c.UnnecessaryRenders, c.AverageDuration)
		}
	}

	if len(r.Chains) > 0 {
		p("")
		p("Detected render chains:")
		for _, ch := range r.Chains {
			p("  %s: depth %d, %d renders, root cause %s",
				ch.Trigger, ch.Depth, ch.TotalRenders, ch.RootCause)
		}
	}

	if len(r.Suggestions) > 0 {
		p("")
		p("Fix suggestions:")
		for _, s := range r.Suggestions {
			p("  [%s] %s (%s): %s", s.Severity, s.ComponentName, s.Kind, s.Issue)
		}
	}
	return nil
}
