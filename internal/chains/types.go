package chains

import "time"

// Config holds the chain detection tunables
type Config struct {
	// WindowSize is the width of each detection time window
	WindowSize time.Duration

	// MinDepth is the minimum number of related components required before
	// a cluster is reported as a chain
	MinDepth int

	// DedupTTL is how long a detected chain's fingerprint suppresses
	// re-reporting of a structurally identical chain
	DedupTTL time.Duration

	// WindowRetention is the number of window buckets kept before old
	// windows are purged
	WindowRetention int
}

// DefaultConfig returns the default chain detection configuration
func DefaultConfig() Config {
	return Config{
		WindowSize:      16 * time.Millisecond,
		MinDepth:        2,
		DedupTTL:        1000 * time.Millisecond,
		WindowRetention: 10,
	}
}

// RenderChain describes a detected cascade: a cluster of renders across
// related components within one time window, attributed to a common
// trigger. Chains are ephemeral; only a dedup fingerprint with a TTL
// survives emission.
type RenderChain struct {
	// ID is a unique identifier for this detection
	ID string `json:"id"`

	// Trigger is the human-readable description of the likely trigger
	Trigger string `json:"trigger"`

	// Chain lists the member components ordered by first render time.
	// Always has at least MinDepth entries.
	Chain []string `json:"chain"`

	// Depth is len(Chain)
	Depth int `json:"depth"`

	// TotalRenders counts all renders in the window contributed by members
	TotalRenders int `json:"totalRenders"`

	// RootCause names the component whose event most likely started the
	// cascade
	RootCause string `json:"rootCause"`

	// DetectedAt is the detection timestamp (Unix milliseconds)
	DetectedAt int64 `json:"detectedAt"`

	// ContextTriggered is true when the root event was an update with
	// neither changed props nor changed state
	ContextTriggered bool `json:"contextTriggered"`
}
