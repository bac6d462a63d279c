package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/renderlens/renderlens/internal/chains"
	"github.com/renderlens/renderlens/internal/collector"
	"github.com/renderlens/renderlens/internal/suggest"
)

func sampleReport() *Report {
	return Build(
		"session-1",
		collector.DefaultThresholds(),
		collector.SessionSummary{
			TotalComponents:   2,
			TotalRenders:      30,
			TotalUnnecessary:  12,
			CriticalCount:     1,
			HealthyCount:      1,
			AverageRenderRate: 45.5,
			MinRenderRate:     12.0,
		},
		[]collector.ComponentStats{
			{Name: "Feed", Renders: 25, UnnecessaryRenders: 12, AverageDuration: 3.2, Severity: collector.SeverityCritical},
			{Name: "App", Renders: 5, AverageDuration: 1.1, Severity: collector.SeverityHealthy},
		},
		[]chains.RenderChain{
			{ID: "c1", Trigger: "state change in Feed", Chain: []string{"Feed", "Item"}, Depth: 2, TotalRenders: 6, RootCause: "Feed"},
		},
		[]suggest.FixSuggestion{
			{ComponentName: "Feed", Kind: suggest.FixOverSubscription, Severity: collector.SeverityCritical, Issue: "renders constantly"},
		},
	)
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"json", "yaml", "text"} {
		format, err := ParseFormat(valid)
		require.NoError(t, err)
		assert.Equal(t, Format(valid), format)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown report format")
}

func TestWriteJSONRoundTrips(t *testing.T) {
	rep := sampleReport()

	var buf bytes.Buffer
	require.NoError(t, rep.Write(&buf, FormatJSON))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "session-1", decoded.SessionID)
	assert.Equal(t, rep.Summary, decoded.Summary)
	require.Len(t, decoded.Components, 2)
	assert.Equal(t, "Feed", decoded.Components[0].Name)
	require.Len(t, decoded.Chains, 1)
	assert.Equal(t, "Feed", decoded.Chains[0].RootCause)
}

func TestWriteYAML(t *testing.T) {
	rep := sampleReport()

	var buf bytes.Buffer
	require.NoError(t, rep.Write(&buf, FormatYAML))

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "session-1", decoded["sessionId"])
	assert.Contains(t, buf.String(), "state change in Feed")
}

func TestWriteText(t *testing.T) {
	rep := sampleReport()

	var buf bytes.Buffer
	require.NoError(t, rep.Write(&buf, FormatText))
	out := buf.String()

	assert.Contains(t, out, "session-1")
	assert.Contains(t, out, "2 total (1 critical, 0 warning, 1 healthy)")
	assert.Contains(t, out, "30 total, 12 unnecessary")
	assert.Contains(t, out, "[critical] Feed: 25 renders")
	assert.Contains(t, out, "state change in Feed")
	assert.Contains(t, out, "[critical] Feed (over-subscription)")
}

func TestWriteTextLimitsComponentList(t *testing.T) {
	rep := sampleReport()
	rep.Components = nil
	for i := 0; i < 15; i++ {
		rep.Components = append(rep.Components, collector.ComponentStats{
			Name: string(rune('A' + i)), Renders: 1, Severity: collector.SeverityHealthy,
		})
	}

	var buf bytes.Buffer
	require.NoError(t, rep.Write(&buf, FormatText))

	listed := strings.Count(buf.String(), "unnecessary), avg")
	assert.Equal(t, 10, listed)
}

func TestWriteUnknownFormat(t *testing.T) {
	rep := sampleReport()
	var buf bytes.Buffer
	require.Error(t, rep.Write(&buf, Format("csv")))
}
