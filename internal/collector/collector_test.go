package collector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renderlens/renderlens/internal/models"
)

func renderEvent(name string, ts int64, duration float64) models.RenderEvent {
	return models.RenderEvent{
		ComponentName: name,
		Timestamp:     ts,
		Duration:      duration,
		Phase:         models.PhaseUpdate,
		Necessary:     true,
	}
}

func TestAddRenderAggregates(t *testing.T) {
	c := New(DefaultThresholds())

	c.AddRender(renderEvent("List", 1000, 4))
	c.AddRender(renderEvent("List", 1010, 2))
	c.AddRender(renderEvent("List", 1020, 6))

	s, ok := c.Get("List")
	require.True(t, ok)

	assert.Equal(t, 3, s.Renders)
	assert.Equal(t, 12.0, s.TotalDuration)
	assert.Equal(t, 4.0, s.AverageDuration)
	assert.Equal(t, 2.0, s.MinDuration)
	assert.Equal(t, 6.0, s.MaxDuration)
	assert.Equal(t, int64(1000), s.FirstSeen)
	assert.Equal(t, int64(1020), s.LastSeen)
	assert.Equal(t, SeverityHealthy, s.Severity)

	// Duration ordering invariant
	assert.LessOrEqual(t, s.MinDuration, s.AverageDuration)
	assert.LessOrEqual(t, s.AverageDuration, s.MaxDuration)
}

func TestAddRenderFirstSampleSetsMinDuration(t *testing.T) {
	c := New(DefaultThresholds())
	c.AddRender(renderEvent("App", 1000, 0))

	s, ok := c.Get("App")
	require.True(t, ok)
	assert.Equal(t, 0.0, s.MinDuration)
	assert.False(t, math.IsInf(s.MinDuration, 1))
}

func TestAddRenderUnnecessaryCount(t *testing.T) {
	c := New(DefaultThresholds())

	for i := 0; i < 4; i++ {
		e := renderEvent("Badge", int64(1000+i), 1)
		e.Necessary = i%2 == 0
		c.AddRender(e)
	}

	s, ok := c.Get("Badge")
	require.True(t, ok)
	assert.Equal(t, 4, s.Renders)
	assert.Equal(t, 2, s.UnnecessaryRenders)
	assert.Equal(t, 0.5, s.UnnecessaryRatio())
}

func TestAddRenderStickyFlags(t *testing.T) {
	c := New(DefaultThresholds())

	e := renderEvent("Form", 1000, 1)
	e.ChangedProps = []string{"value"}
	c.AddRender(e)

	e2 := renderEvent("Form", 1010, 1)
	e2.ChangedState = true
	c.AddRender(e2)

	// Neither flag clears on later quiet renders
	c.AddRender(renderEvent("Form", 1020, 1))

	s, ok := c.Get("Form")
	require.True(t, ok)
	assert.True(t, s.HadPropChanges)
	assert.True(t, s.HadStateChanges)
}

func TestSeverityTransitionCallback(t *testing.T) {
	c := New(Thresholds{CriticalRenders: 5, WarningRenders: 3, MinRenderRate: 30})

	var changes []SeverityChange
	c.OnSeverityChange(func(stats ComponentStats, from, to Severity) {
		changes = append(changes, SeverityChange{Component: stats.Name, From: from, To: to})
	})

	for i := 0; i < 6; i++ {
		c.AddRender(renderEvent("Hot", int64(1000+i), 1))
	}

	// Exactly two transitions: healthy->warning at 3, warning->critical at 5
	require.Len(t, changes, 2)
	assert.Equal(t, SeverityChange{Component: "Hot", From: SeverityHealthy, To: SeverityWarning}, changes[0])
	assert.Equal(t, SeverityChange{Component: "Hot", From: SeverityWarning, To: SeverityCritical}, changes[1])
}

func TestSnapshotOrdering(t *testing.T) {
	c := New(Thresholds{CriticalRenders: 10, WarningRenders: 5, MinRenderRate: 30})

	addN := func(name string, n int) {
		for i := 0; i < n; i++ {
			c.AddRender(renderEvent(name, int64(1000+i), 1))
		}
	}
	addN("Quiet", 2)
	addN("Loud", 12)
	addN("Busy", 7)
	addN("Alike", 7)

	snapshot := c.Snapshot()
	require.Len(t, snapshot, 4)

	// Critical first, then warnings by render count, ties by name
	assert.Equal(t, "Loud", snapshot[0].Name)
	assert.Equal(t, SeverityCritical, snapshot[0].Severity)
	assert.Equal(t, "Alike", snapshot[1].Name)
	assert.Equal(t, "Busy", snapshot[2].Name)
	assert.Equal(t, "Quiet", snapshot[3].Name)

	// Reading the snapshot twice yields identical results
	assert.Equal(t, snapshot, c.Snapshot())
}

func TestSnapshotReturnsCopies(t *testing.T) {
	c := New(DefaultThresholds())
	c.AddRender(renderEvent("A", 1000, 1))
	c.RecordChain([]string{"A", "B"})

	snapshot := c.Snapshot()
	require.Len(t, snapshot, 1)
	snapshot[0].Renders = 999
	snapshot[0].Chain[0] = "mutated"

	s, ok := c.Get("A")
	require.True(t, ok)
	assert.Equal(t, 1, s.Renders)
	assert.Equal(t, []string{"A", "B"}, s.Chain)
}

func TestSetThresholdsReclassifies(t *testing.T) {
	c := New(Thresholds{CriticalRenders: 50, WarningRenders: 20, MinRenderRate: 30})

	for i := 0; i < 10; i++ {
		c.AddRender(renderEvent("Panel", int64(1000+i), 1))
	}
	s, _ := c.Get("Panel")
	assert.Equal(t, SeverityHealthy, s.Severity)

	var changes []SeverityChange
	c.OnSeverityChange(func(stats ComponentStats, from, to Severity) {
		changes = append(changes, SeverityChange{Component: stats.Name, From: from, To: to})
	})

	// Tightening thresholds reclassifies without any new events
	c.SetThresholds(Thresholds{CriticalRenders: 8, WarningRenders: 4, MinRenderRate: 30})

	s, _ = c.Get("Panel")
	assert.Equal(t, SeverityCritical, s.Severity)
	require.Len(t, changes, 1)
	assert.Equal(t, SeverityHealthy, changes[0].From)
	assert.Equal(t, SeverityCritical, changes[0].To)

	// Loosening moves it back down
	c.SetThresholds(Thresholds{CriticalRenders: 100, WarningRenders: 50, MinRenderRate: 30})
	s, _ = c.Get("Panel")
	assert.Equal(t, SeverityHealthy, s.Severity)
}

func TestSummaryCounts(t *testing.T) {
	c := New(Thresholds{CriticalRenders: 5, WarningRenders: 3, MinRenderRate: 30})

	addN := func(name string, n int, necessary bool) {
		for i := 0; i < n; i++ {
			e := renderEvent(name, int64(1000+i), 1)
			e.Necessary = necessary
			c.AddRender(e)
		}
	}
	addN("Crit", 6, true)
	addN("Warn", 3, false)
	addN("Fine", 1, true)

	summary := c.Summary()
	assert.Equal(t, 3, summary.TotalComponents)
	assert.Equal(t, 10, summary.TotalRenders)
	assert.Equal(t, 3, summary.TotalUnnecessary)
	assert.Equal(t, 1, summary.CriticalCount)
	assert.Equal(t, 1, summary.WarningCount)
	assert.Equal(t, 1, summary.HealthyCount)
}

func TestSummaryThroughputNeutralWithoutSamples(t *testing.T) {
	c := New(DefaultThresholds())

	summary := c.Summary()
	assert.Equal(t, neutralRenderRate, summary.AverageRenderRate)
	assert.Equal(t, neutralRenderRate, summary.MinRenderRate)

	c.AddThroughputSample(40)
	c.AddThroughputSample(20)

	summary = c.Summary()
	assert.Equal(t, 30.0, summary.AverageRenderRate)
	assert.Equal(t, 20.0, summary.MinRenderRate)
}

func TestRecordChainIgnoresUnknownMembers(t *testing.T) {
	c := New(DefaultThresholds())
	c.AddRender(renderEvent("Known", 1000, 1))

	c.RecordChain([]string{"Known", "NeverSeen"})

	s, ok := c.Get("Known")
	require.True(t, ok)
	assert.Equal(t, []string{"Known", "NeverSeen"}, s.Chain)

	_, ok = c.Get("NeverSeen")
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	c := New(DefaultThresholds())
	c.AddRender(renderEvent("A", 1000, 1))
	c.AddThroughputSample(10)

	c.Reset()

	_, ok := c.Get("A")
	assert.False(t, ok)
	summary := c.Summary()
	assert.Equal(t, 0, summary.TotalComponents)
	assert.Equal(t, neutralRenderRate, summary.AverageRenderRate)
}

func TestClassifySeverity(t *testing.T) {
	thresholds := Thresholds{CriticalRenders: 50, WarningRenders: 20}

	tests := []struct {
		renders int
		want    Severity
	}{
		{0, SeverityHealthy},
		{19, SeverityHealthy},
		{20, SeverityWarning},
		{49, SeverityWarning},
		{50, SeverityCritical},
		{500, SeverityCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifySeverity(tt.renders, thresholds), "renders=%d", tt.renders)
	}
}

func TestSeverityRank(t *testing.T) {
	assert.Less(t, SeverityCritical.Rank(), SeverityWarning.Rank())
	assert.Less(t, SeverityWarning.Rank(), SeverityHealthy.Rank())
}
