package chains

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renderlens/renderlens/internal/models"
)

func testConfig() Config {
	return Config{
		WindowSize:      16 * time.Millisecond,
		MinDepth:        2,
		DedupTTL:        time.Second,
		WindowRetention: 10,
	}
}

func collectChains(a *Analyzer) *[]RenderChain {
	detected := &[]RenderChain{}
	a.OnChainDetected(func(chain RenderChain) {
		*detected = append(*detected, chain)
	})
	return detected
}

func TestDetectsParentChildCascade(t *testing.T) {
	a := New(testConfig())
	detected := collectChains(a)

	a.AddRender(models.RenderEvent{
		ComponentName: "Dashboard",
		Timestamp:     1600,
		Phase:         models.PhaseUpdate,
		ChangedState:  true,
	})
	a.AddRender(models.RenderEvent{
		ComponentName: "Chart",
		Timestamp:     1604,
		Phase:         models.PhaseUpdate,
		Parent:        "Dashboard",
	})

	require.Len(t, *detected, 1)
	chain := (*detected)[0]
	assert.Equal(t, []string{"Dashboard", "Chart"}, chain.Chain)
	assert.Equal(t, 2, chain.Depth)
	assert.Equal(t, 2, chain.TotalRenders)
	assert.Equal(t, "Dashboard", chain.RootCause)
	assert.Contains(t, chain.Trigger, "state change in Dashboard")
	assert.False(t, chain.ContextTriggered)
	assert.NotEmpty(t, chain.ID)
}

func TestNoChainAcrossWindows(t *testing.T) {
	a := New(testConfig())
	detected := collectChains(a)

	a.RegisterParent("Child", "Parent")
	// 1600/16=100 vs 1632/16=102: different windows
	a.AddRender(models.RenderEvent{ComponentName: "Parent", Timestamp: 1600, Phase: models.PhaseUpdate})
	a.AddRender(models.RenderEvent{ComponentName: "Child", Timestamp: 1632, Phase: models.PhaseUpdate})

	assert.Empty(t, *detected)
}

func TestUnrelatedComponentsStaySingletons(t *testing.T) {
	a := New(testConfig())
	detected := collectChains(a)

	// Same window, no relationship: two singleton clusters under MinDepth
	a.AddRender(models.RenderEvent{ComponentName: "Sidebar", Timestamp: 1600, Phase: models.PhaseUpdate})
	a.AddRender(models.RenderEvent{ComponentName: "Footer", Timestamp: 1605, Phase: models.PhaseUpdate})

	assert.Empty(t, *detected)
}

func TestDedupSuppressesRepeatedChains(t *testing.T) {
	a := New(testConfig())
	detected := collectChains(a)

	emitPair := func(base int64) {
		a.AddRender(models.RenderEvent{
			ComponentName: "Parent", Timestamp: base, Phase: models.PhaseUpdate, ChangedState: true,
		})
		a.AddRender(models.RenderEvent{
			ComponentName: "Child", Timestamp: base + 2, Phase: models.PhaseUpdate, Parent: "Parent",
		})
	}

	emitPair(1600)
	require.Len(t, *detected, 1)

	// Same structure in a later window within the TTL: suppressed
	emitPair(1664)
	assert.Len(t, *detected, 1)
}

func TestDedupTTLExpiryAllowsReReport(t *testing.T) {
	cfg := testConfig()
	cfg.DedupTTL = 50 * time.Millisecond
	a := New(cfg)
	detected := collectChains(a)

	emitPair := func(base int64) {
		a.AddRender(models.RenderEvent{
			ComponentName: "Parent", Timestamp: base, Phase: models.PhaseUpdate, ChangedState: true,
		})
		a.AddRender(models.RenderEvent{
			ComponentName: "Child", Timestamp: base + 2, Phase: models.PhaseUpdate, Parent: "Parent",
		})
	}

	emitPair(1600)
	require.Len(t, *detected, 1)

	// Same structure in a later window while the fingerprint is live
	emitPair(1664)
	require.Len(t, *detected, 1)

	// Once the fingerprint expires, the identical cascade is reported again
	time.Sleep(300 * time.Millisecond)
	emitPair(16000)
	require.Len(t, *detected, 2)
	assert.Equal(t, (*detected)[0].Chain, (*detected)[1].Chain)
	assert.Equal(t, "Parent", (*detected)[1].RootCause)
}

func TestDedupDistinguishesRootCause(t *testing.T) {
	a := New(testConfig())
	detected := collectChains(a)

	a.AddRender(models.RenderEvent{
		ComponentName: "Parent", Timestamp: 1600, Phase: models.PhaseUpdate, ChangedState: true,
	})
	a.AddRender(models.RenderEvent{
		ComponentName: "Child", Timestamp: 1602, Phase: models.PhaseUpdate, Parent: "Parent",
	})
	require.Len(t, *detected, 1)
	assert.Equal(t, "Parent", (*detected)[0].RootCause)

	// Same members in a later window, but now the child's state started it
	a.AddRender(models.RenderEvent{
		ComponentName: "Child", Timestamp: 1664, Phase: models.PhaseUpdate, ChangedState: true,
	})
	a.AddRender(models.RenderEvent{
		ComponentName: "Parent", Timestamp: 1666, Phase: models.PhaseUpdate,
	})

	require.Len(t, *detected, 2)
	assert.Equal(t, "Child", (*detected)[1].RootCause)
}

func TestRootCausePriority(t *testing.T) {
	tests := []struct {
		name      string
		events    []models.RenderEvent
		wantRoot  string
		wantDepth int
	}{
		{
			name: "changed state wins over earlier changed props",
			events: []models.RenderEvent{
				{ComponentName: "A", Timestamp: 1600, Phase: models.PhaseUpdate, ChangedProps: []string{"x"}},
				{ComponentName: "B", Timestamp: 1602, Phase: models.PhaseUpdate, ChangedState: true, Parent: "A"},
			},
			wantRoot:  "B",
			wantDepth: 2,
		},
		{
			name: "changed props wins over plain render",
			events: []models.RenderEvent{
				{ComponentName: "A", Timestamp: 1600, Phase: models.PhaseUpdate},
				{ComponentName: "B", Timestamp: 1602, Phase: models.PhaseUpdate, ChangedProps: []string{"x"}, Parent: "A"},
			},
			wantRoot:  "B",
			wantDepth: 2,
		},
		{
			name: "earliest event is the fallback",
			events: []models.RenderEvent{
				{ComponentName: "A", Timestamp: 1600, Phase: models.PhaseUpdate},
				{ComponentName: "B", Timestamp: 1602, Phase: models.PhaseUpdate, Parent: "A"},
			},
			wantRoot:  "A",
			wantDepth: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(testConfig())
			detected := collectChains(a)

			for _, e := range tt.events {
				a.AddRender(e)
			}

			require.Len(t, *detected, 1)
			assert.Equal(t, tt.wantRoot, (*detected)[0].RootCause)
			assert.Equal(t, tt.wantDepth, (*detected)[0].Depth)
		})
	}
}

func TestContextTriggeredChain(t *testing.T) {
	a := New(testConfig())
	detected := collectChains(a)

	a.AddRender(models.RenderEvent{ComponentName: "Consumer", Timestamp: 1600, Phase: models.PhaseUpdate})
	a.AddRender(models.RenderEvent{ComponentName: "Leaf", Timestamp: 1603, Phase: models.PhaseUpdate, Parent: "Consumer"})

	require.Len(t, *detected, 1)
	chain := (*detected)[0]
	assert.True(t, chain.ContextTriggered)
	assert.Contains(t, chain.Trigger, "context or subscription update reaching Consumer")
}

func TestRelationshipCycleTerminates(t *testing.T) {
	a := New(testConfig())
	detected := collectChains(a)

	a.RegisterParent("A", "B")
	a.RegisterParent("B", "A")

	a.AddRender(models.RenderEvent{ComponentName: "A", Timestamp: 1600, Phase: models.PhaseUpdate})
	a.AddRender(models.RenderEvent{ComponentName: "B", Timestamp: 1602, Phase: models.PhaseUpdate})

	require.Len(t, *detected, 1)
	chain := (*detected)[0]
	assert.Equal(t, 2, chain.Depth)
	assert.ElementsMatch(t, []string{"A", "B"}, chain.Chain)
}

func TestDeepCascade(t *testing.T) {
	a := New(Config{
		WindowSize:      16 * time.Millisecond,
		MinDepth:        3,
		DedupTTL:        time.Second,
		WindowRetention: 10,
	})
	detected := collectChains(a)

	a.AddRender(models.RenderEvent{
		ComponentName: "Root", Timestamp: 1600, Phase: models.PhaseUpdate, ChangedState: true,
	})
	a.AddRender(models.RenderEvent{
		ComponentName: "Mid", Timestamp: 1602, Phase: models.PhaseUpdate, Parent: "Root",
	})
	a.AddRender(models.RenderEvent{
		ComponentName: "Leaf", Timestamp: 1604, Phase: models.PhaseUpdate, Parent: "Mid",
	})

	require.Len(t, *detected, 1)
	chain := (*detected)[0]
	assert.Equal(t, []string{"Root", "Mid", "Leaf"}, chain.Chain)
	assert.Equal(t, 3, chain.Depth)
	assert.Equal(t, "Root", chain.RootCause)
}

func TestTotalRendersCountsRepeats(t *testing.T) {
	a := New(testConfig())
	detected := collectChains(a)

	a.AddRender(models.RenderEvent{
		ComponentName: "Parent", Timestamp: 1600, Phase: models.PhaseUpdate, ChangedState: true,
	})
	a.AddRender(models.RenderEvent{
		ComponentName: "Parent", Timestamp: 1601, Phase: models.PhaseUpdate,
	})
	a.AddRender(models.RenderEvent{
		ComponentName: "Child", Timestamp: 1603, Phase: models.PhaseUpdate, Parent: "Parent",
	})

	require.NotEmpty(t, *detected)
	last := (*detected)[len(*detected)-1]
	assert.Equal(t, 2, last.Depth)
	assert.Equal(t, 3, last.TotalRenders)
}

func TestWindowRetentionPurgesOldWindows(t *testing.T) {
	a := New(testConfig())

	for i := 0; i < 50; i++ {
		a.AddRender(models.RenderEvent{
			ComponentName: fmt.Sprintf("C%d", i),
			Timestamp:     int64(i) * 160,
			Phase:         models.PhaseUpdate,
		})
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	assert.LessOrEqual(t, len(a.windows), testConfig().WindowRetention+1)
}

func TestResetClearsStateAndDedup(t *testing.T) {
	a := New(testConfig())
	detected := collectChains(a)

	a.AddRender(models.RenderEvent{
		ComponentName: "Parent", Timestamp: 1600, Phase: models.PhaseUpdate, ChangedState: true,
	})
	a.AddRender(models.RenderEvent{
		ComponentName: "Child", Timestamp: 1602, Phase: models.PhaseUpdate, Parent: "Parent",
	})
	require.Len(t, *detected, 1)

	a.Reset()

	_, ok := a.Parent("Child")
	assert.False(t, ok)

	// The same structure right after reset is no longer suppressed,
	// but the relationship must be re-learned.
	a.AddRender(models.RenderEvent{
		ComponentName: "Parent", Timestamp: 3200, Phase: models.PhaseUpdate, ChangedState: true,
	})
	a.AddRender(models.RenderEvent{
		ComponentName: "Child", Timestamp: 3202, Phase: models.PhaseUpdate, Parent: "Parent",
	})
	assert.Len(t, *detected, 2)
}

func TestRegisterParent(t *testing.T) {
	a := New(testConfig())

	a.RegisterParent("Child", "Parent")
	p, ok := a.Parent("Child")
	require.True(t, ok)
	assert.Equal(t, "Parent", p)

	// Empty names are ignored
	a.RegisterParent("", "Parent")
	a.RegisterParent("Child2", "")
	_, ok = a.Parent("Child2")
	assert.False(t, ok)
}

func TestConfigDefaultsBackfilled(t *testing.T) {
	a := New(Config{})
	assert.Equal(t, DefaultConfig().WindowSize, a.cfg.WindowSize)
	assert.Equal(t, DefaultConfig().MinDepth, a.cfg.MinDepth)
	assert.Equal(t, DefaultConfig().WindowRetention, a.cfg.WindowRetention)
}
