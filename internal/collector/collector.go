// Package collector aggregates render events into durable, queryable
// per-component statistics and classifies each component's severity
// against configurable thresholds.
package collector

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/renderlens/renderlens/internal/logging"
	"github.com/renderlens/renderlens/internal/models"
)

// throughputRingCapacity bounds the number of retained throughput samples
const throughputRingCapacity = 60

// expectedRendersPerMinute is the constant behind the display-only
// expected-render baseline: ceil(minutes elapsed) * constant.
const expectedRendersPerMinute = 60

// neutralRenderRate is reported when no throughput samples exist yet
const neutralRenderRate = 60.0

// SeverityChangeFunc is invoked synchronously whenever a component's derived
// severity transitions. The stats value is a copy; callbacks may not mutate
// collector state through it.
type SeverityChangeFunc func(stats ComponentStats, from, to Severity)

// Collector turns raw render events into per-component statistics.
// All methods are safe for concurrent use.
type Collector struct {
	mu           sync.Mutex
	logger       *logging.Logger
	thresholds   Thresholds
	stats        map[string]*ComponentStats
	samples      *sampleRing
	sessionStart time.Time
	onChange     SeverityChangeFunc

	// now is the clock source, overridable for deterministic tests
	now func() time.Time
}

// New creates a collector with the given thresholds
func New(thresholds Thresholds) *Collector {
	c := &Collector{
		logger:     logging.GetLogger("collector"),
		thresholds: thresholds,
		stats:      make(map[string]*ComponentStats),
		samples:    newSampleRing(throughputRingCapacity),
		now:        time.Now,
	}
	c.sessionStart = c.now()
	return c
}

// OnSeverityChange registers the severity transition callback.
// Must be called before events flow; not synchronized against AddRender.
func (c *Collector) OnSeverityChange(fn SeverityChangeFunc) {
	c.onChange = fn
}

// AddRender updates the statistics record for the event's component,
// creating it lazily on first sight. The update is O(1). Severity is
// recomputed on every call; the change callback fires only on transition.
func (c *Collector) AddRender(event models.RenderEvent) {
	c.mu.Lock()

	s, ok := c.stats[event.ComponentName]
	if !ok {
		s = &ComponentStats{
			Name:        event.ComponentName,
			MinDuration: math.Inf(1),
			Severity:    SeverityHealthy,
			FirstSeen:   event.Timestamp,
		}
		c.stats[event.ComponentName] = s
	}

	s.Renders++
	if !event.Necessary {
		s.UnnecessaryRenders++
	}

	s.TotalDuration += event.Duration
	s.AverageDuration = s.TotalDuration / float64(s.Renders)
	if event.Duration < s.MinDuration {
		s.MinDuration = event.Duration
	}
	if event.Duration > s.MaxDuration {
		s.MaxDuration = event.Duration
	}

	s.LastSeen = event.Timestamp
	if event.HasChangedProps() {
		s.HadPropChanges = true
	}
	if event.ChangedState {
		s.HadStateChanges = true
	}
	if event.Parent != "" {
		s.Parent = event.Parent
	}

	elapsedMinutes := c.now().Sub(c.sessionStart).Minutes()
	s.ExpectedRenders = int(math.Ceil(elapsedMinutes)) * expectedRendersPerMinute

	from := s.Severity
	to := classifySeverity(s.Renders, c.thresholds)
	s.Severity = to

	var snapshot ComponentStats
	changed := from != to
	if changed {
		snapshot = cloneStats(s)
	}
	c.mu.Unlock()

	if changed && c.onChange != nil {
		c.logger.Debug("severity transition for %s: %s -> %s (%d renders)",
			snapshot.Name, from, to, snapshot.Renders)
		c.onChange(snapshot, from, to)
	}
}

// AddThroughputSample appends an events-per-second measurement to the
// bounded sample ring.
func (c *Collector) AddThroughputSample(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples.Add(v)
}

// RecordChain stores the detected cascade membership on every member's
// statistics record. Unknown members are ignored.
func (c *Collector) RecordChain(chain []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range chain {
		s, ok := c.stats[name]
		if !ok {
			continue
		}
		s.Chain = append([]string(nil), chain...)
	}
}

// Get returns a copy of the stats record for a component
func (c *Collector) Get(name string) (ComponentStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.stats[name]
	if !ok {
		return ComponentStats{}, false
	}
	return cloneStats(s), true
}

// Snapshot returns copies of all records sorted by severity rank
// (Critical < Warning < Healthy), then by descending render count, then by
// name. The ordering is deterministic so repeated calls without intervening
// updates return equal results.
func (c *Collector) Snapshot() []ComponentStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]ComponentStats, 0, len(c.stats))
	for _, s := range c.stats {
		out = append(out, cloneStats(s))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() < out[j].Severity.Rank()
		}
		if out[i].Renders != out[j].Renders {
			return out[i].Renders > out[j].Renders
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Summary returns the per-severity counts, render totals and throughput
// aggregates for the session. Throughput defaults to a neutral value when
// no samples exist yet.
func (c *Collector) Summary() SessionSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary := SessionSummary{
		TotalComponents:   len(c.stats),
		AverageRenderRate: neutralRenderRate,
		MinRenderRate:     neutralRenderRate,
	}

	for _, s := range c.stats {
		summary.TotalRenders += s.Renders
		summary.TotalUnnecessary += s.UnnecessaryRenders
		switch s.Severity {
		case SeverityCritical:
			summary.CriticalCount++
		case SeverityWarning:
			summary.WarningCount++
		default:
			summary.HealthyCount++
		}
	}

	if c.samples.Len() > 0 {
		summary.AverageRenderRate = c.samples.Average()
		summary.MinRenderRate = c.samples.Min()
	}
	return summary
}

// Thresholds returns the currently applied thresholds
func (c *Collector) Thresholds() Thresholds {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thresholds
}

// SetThresholds replaces the thresholds and re-derives severity for every
// tracked component, emitting a change callback for each one whose
// classification moved. No new events are required for the transitions.
func (c *Collector) SetThresholds(t Thresholds) {
	c.mu.Lock()

	c.thresholds = t

	type transition struct {
		stats    ComponentStats
		from, to Severity
	}
	var moved []transition
	for _, s := range c.stats {
		from := s.Severity
		to := classifySeverity(s.Renders, t)
		if from == to {
			continue
		}
		s.Severity = to
		moved = append(moved, transition{stats: cloneStats(s), from: from, to: to})
	}
	c.mu.Unlock()

	c.logger.Info("thresholds updated (critical=%d warning=%d floor=%.1f), %d components reclassified",
		t.CriticalRenders, t.WarningRenders, t.MinRenderRate, len(moved))

	if c.onChange != nil {
		for _, tr := range moved {
			c.onChange(tr.stats, tr.from, tr.to)
		}
	}
}

// Reset clears all records and throughput samples and restarts the
// session clock.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats = make(map[string]*ComponentStats)
	c.samples.Reset()
	c.sessionStart = c.now()
	c.logger.Debug("collector reset")
}

// cloneStats returns a deep copy of a stats record
func cloneStats(s *ComponentStats) ComponentStats {
	out := *s
	if s.Chain != nil {
		out.Chain = append([]string(nil), s.Chain...)
	}
	return out
}
