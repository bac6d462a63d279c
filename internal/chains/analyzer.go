// Package chains detects cascades of renders attributable to one trigger.
//
// Incoming events are bucketed into fixed-size time windows keyed by
// floor(timestamp / windowSize). Once a window holds enough events, related
// renders are clustered by walking the parent/child relationship map, a
// root cause is selected and a trigger explanation is generated. Detected
// chains are deduplicated by fingerprint with a TTL so a repeating cascade
// is reported once per TTL period.
package chains

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/renderlens/renderlens/internal/logging"
	"github.com/renderlens/renderlens/internal/models"
)

// dedupCacheSize bounds the number of retained chain fingerprints
const dedupCacheSize = 1024

// ChainDetectedFunc is invoked synchronously for every emitted chain
type ChainDetectedFunc func(chain RenderChain)

// Analyzer maintains the relationship map and time windows and detects
// render chains. All methods are safe for concurrent use and never fail on
// malformed relationship data: missing or unknown parent links simply
// degrade to singleton clusters, which the depth threshold filters out.
type Analyzer struct {
	mu      sync.Mutex
	logger  *logging.Logger
	cfg     Config
	parents map[string]string
	windows map[int64][]models.RenderEvent
	dedup   *expirable.LRU[string, int64]
	onChain ChainDetectedFunc

	// now is the clock source, overridable for deterministic tests
	now func() time.Time
}

// New creates an analyzer with the given configuration
func New(cfg Config) *Analyzer {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultConfig().WindowSize
	}
	if cfg.MinDepth < 1 {
		cfg.MinDepth = DefaultConfig().MinDepth
	}
	if cfg.WindowRetention < 1 {
		cfg.WindowRetention = DefaultConfig().WindowRetention
	}
	return &Analyzer{
		logger:  logging.GetLogger("chains"),
		cfg:     cfg,
		parents: make(map[string]string),
		windows: make(map[int64][]models.RenderEvent),
		dedup:   expirable.NewLRU[string, int64](dedupCacheSize, nil, cfg.DedupTTL),
		now:     time.Now,
	}
}

// OnChainDetected registers the detection callback.
// Must be called before events flow; not synchronized against AddRender.
func (a *Analyzer) OnChainDetected(fn ChainDetectedFunc) {
	a.onChain = fn
}

// RegisterParent records a parent/child relationship hint independently of
// any event. Registration has no cycle prevention; traversal stays safe
// through an explicit visited set.
func (a *Analyzer) RegisterParent(child, parent string) {
	if child == "" || parent == "" {
		return
	}
	a.mu.Lock()
	a.parents[child] = parent
	a.mu.Unlock()
}

// Parent returns the registered parent for a component, if any
func (a *Analyzer) Parent(child string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.parents[child]
	return p, ok
}

// AddRender buckets the event into its time window and analyzes the window
// once it holds at least MinDepth events. Old windows beyond the retention
// count are purged on every insert to bound memory.
func (a *Analyzer) AddRender(event models.RenderEvent) {
	a.mu.Lock()

	if event.Parent != "" {
		a.parents[event.ComponentName] = event.Parent
	}

	windowMs := a.cfg.WindowSize.Milliseconds()
	key := event.Timestamp / windowMs
	a.windows[key] = append(a.windows[key], event)

	// Bound retention: drop windows older than the retention horizon
	horizon := key - int64(a.cfg.WindowRetention)
	for k := range a.windows {
		if k < horizon {
			delete(a.windows, k)
		}
	}

	var detected []RenderChain
	if len(a.windows[key]) >= a.cfg.MinDepth {
		detected = a.analyzeWindow(a.windows[key])
	}
	a.mu.Unlock()

	for _, chain := range detected {
		a.logger.Debug("chain detected: root=%s depth=%d trigger=%q",
			chain.RootCause, chain.Depth, chain.Trigger)
		if a.onChain != nil {
			a.onChain(chain)
		}
	}
}

// Reset clears all windows, relationship hints and dedup fingerprints
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.parents = make(map[string]string)
	a.windows = make(map[int64][]models.RenderEvent)
	a.dedup.Purge()
	a.logger.Debug("analyzer reset")
}

// analyzeWindow clusters the window's events into related groups and emits
// one chain per cluster that satisfies the depth threshold and is not
// suppressed by the dedup cache. Caller holds the lock.
func (a *Analyzer) analyzeWindow(events []models.RenderEvent) []RenderChain {
	sorted := append([]models.RenderEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	// earliest event per component, plus per-component render counts
	firstEvent := make(map[string]models.RenderEvent)
	renderCount := make(map[string]int)
	order := []string{}
	for _, e := range sorted {
		if _, ok := firstEvent[e.ComponentName]; !ok {
			firstEvent[e.ComponentName] = e
			order = append(order, e.ComponentName)
		}
		renderCount[e.ComponentName]++
	}

	var out []RenderChain
	visited := make(map[string]bool)
	for _, name := range order {
		if visited[name] {
			continue
		}

		cluster := a.expandCluster(name, firstEvent, visited)
		if len(cluster) < a.cfg.MinDepth {
			continue
		}

		// Order members chronologically by first render
		sort.SliceStable(cluster, func(i, j int) bool {
			return firstEvent[cluster[i]].Timestamp < firstEvent[cluster[j]].Timestamp
		})

		members := make(map[string]bool, len(cluster))
		total := 0
		for _, member := range cluster {
			members[member] = true
			total += renderCount[member]
		}

		rootEvent := selectRootCause(sorted, members)

		fingerprint := rootEvent.ComponentName + "|" + strings.Join(cluster, ">")
		if a.dedup.Contains(fingerprint) {
			continue
		}
		a.dedup.Add(fingerprint, a.now().UnixMilli())

		out = append(out, RenderChain{
			ID:               uuid.NewString(),
			Trigger:          triggerText(rootEvent),
			Chain:            cluster,
			Depth:            len(cluster),
			TotalRenders:     total,
			RootCause:        rootEvent.ComponentName,
			DetectedAt:       a.now().UnixMilli(),
			ContextTriggered: rootEvent.IsContextTriggered(),
		})
	}
	return out
}

// expandCluster walks the relationship map from a seed component, adding
// the parent when it also rendered in this window, and any children whose
// registered parent rendered in this window. Members are marked visited
// before expansion so relationship cycles cannot loop.
func (a *Analyzer) expandCluster(seed string, inWindow map[string]models.RenderEvent, visited map[string]bool) []string {
	cluster := []string{}
	queue := []string{seed}
	visited[seed] = true

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		cluster = append(cluster, current)

		// Walk upward: the parent joins only if it rendered in this window
		if parent, ok := a.parents[current]; ok && !visited[parent] {
			if _, rendered := inWindow[parent]; rendered {
				visited[parent] = true
				queue = append(queue, parent)
			}
		}

		// Walk downward: any component in this window whose parent is current
		for name := range inWindow {
			if visited[name] {
				continue
			}
			if a.parents[name] == current {
				visited[name] = true
				queue = append(queue, name)
			}
		}
	}
	return cluster
}

// selectRootCause chooses the event that most likely started the cascade.
// Priority: earliest changed-state event in the cluster, else earliest
// changed-props event, else the chronologically first member event.
// The events slice is already sorted by timestamp.
func selectRootCause(sorted []models.RenderEvent, members map[string]bool) models.RenderEvent {
	var propsEvent, firstEvent *models.RenderEvent
	for i := range sorted {
		e := &sorted[i]
		if !members[e.ComponentName] {
			continue
		}
		if e.ChangedState {
			return *e
		}
		if propsEvent == nil && e.HasChangedProps() {
			propsEvent = e
		}
		if firstEvent == nil {
			firstEvent = e
		}
	}
	if propsEvent != nil {
		return *propsEvent
	}
	return *firstEvent
}
