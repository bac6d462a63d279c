// Package engine wires the statistics collector, chain analyzer and fix
// suggester together behind a single event-driven facade. It owns the
// engine lifecycle (start/stop/reset), event intake with batching,
// periodic throughput sampling and notification fan-out.
package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/renderlens/renderlens/internal/chains"
	"github.com/renderlens/renderlens/internal/collector"
	"github.com/renderlens/renderlens/internal/logging"
	"github.com/renderlens/renderlens/internal/metrics"
	"github.com/renderlens/renderlens/internal/models"
	"github.com/renderlens/renderlens/internal/suggest"
)

// burstThreshold is the per-batch render count at which a component gets
// proactive suggestion analysis, before any severity threshold trips.
const burstThreshold = 3

// Config holds the engine tunables
type Config struct {
	// Thresholds are the severity classification thresholds
	Thresholds collector.Thresholds

	// Chains configures cascade detection
	Chains chains.Config

	// BatchSize is the buffered event cap that forces an immediate flush
	BatchSize int

	// BatchDebounce is the quiet period after which a partial batch flushes
	BatchDebounce time.Duration

	// SampleInterval is the throughput sampling period
	SampleInterval time.Duration
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{
		Thresholds:     collector.DefaultThresholds(),
		Chains:         chains.DefaultConfig(),
		BatchSize:      10,
		BatchDebounce:  100 * time.Millisecond,
		SampleInterval: time.Second,
	}
}

// Engine is the public facade of the analytics core. External callers only
// touch the engine; the collector, analyzer and suggester are internal
// collaborators wired together at construction time.
//
// All state mutation is serialized; timer callbacks check the running flag
// before touching anything, so repeated start/stop/reset cycles never leak
// callbacks into a new session.
type Engine struct {
	mu        sync.Mutex
	logger    *logging.Logger
	cfg       Config
	sessionID string

	collector *collector.Collector
	analyzer  *chains.Analyzer
	suggester *suggest.Suggester
	notifier  *notifier
	metrics   *metrics.Metrics

	running         bool
	batch           []models.RenderEvent
	debounce        *time.Timer
	tickerStop      chan struct{}
	tickerDone      chan struct{}
	eventsSinceTick int
}

// New creates an engine. The metrics parameter may be nil when Prometheus
// export is not wanted.
func New(cfg Config, m *metrics.Metrics) *Engine {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.BatchDebounce <= 0 {
		cfg.BatchDebounce = DefaultConfig().BatchDebounce
	}
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = DefaultConfig().SampleInterval
	}

	e := &Engine{
		logger:    logging.GetLogger("engine"),
		cfg:       cfg,
		sessionID: uuid.NewString(),
		collector: collector.New(cfg.Thresholds),
		analyzer:  chains.New(cfg.Chains),
		suggester: suggest.New(),
		notifier:  newNotifier(),
		metrics:   m,
	}

	e.collector.OnSeverityChange(e.handleSeverityChange)
	e.analyzer.OnChainDetected(e.handleChainDetected)
	e.suggester.OnSuggestion(e.handleSuggestion)
	return e
}

// SessionID returns the identifier of the current analysis session
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

// Subscribe registers a notification listener and returns an unsubscribe
// func. Listeners are called synchronously; a panicking listener is
// isolated and reported via a listener-error notification.
func (e *Engine) Subscribe(fn ListenerFunc) func() {
	return e.notifier.subscribe(fn)
}

// Start transitions the engine to running and begins periodic throughput
// sampling. Idempotent: starting a running engine is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.eventsSinceTick = 0
	e.tickerStop = make(chan struct{})
	e.tickerDone = make(chan struct{})
	stop, done := e.tickerStop, e.tickerDone
	e.mu.Unlock()

	go e.sampleLoop(stop, done)

	e.logger.Info("engine started (session %s)", e.sessionID)
	e.notifier.publish(Notification{Type: NotificationStarted, Timestamp: time.Now().UnixMilli()})
}

// Stop halts throughput sampling, cancels the debounce timer and flushes
// any buffered batch. Idempotent: stopping a stopped engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.tickerStop)
	done := e.tickerDone
	if e.debounce != nil {
		e.debounce.Stop()
		e.debounce = nil
	}
	batch := e.batch
	e.batch = nil
	e.mu.Unlock()

	<-done
	e.processBatch(batch)

	e.logger.Info("engine stopped")
	e.notifier.publish(Notification{Type: NotificationStopped, Timestamp: time.Now().UnixMilli()})
}

// Reset stops the engine, clears every sub-component and the batch buffer
// and starts a fresh session.
func (e *Engine) Reset() {
	e.Stop()

	e.mu.Lock()
	e.batch = nil
	e.sessionID = uuid.NewString()
	e.mu.Unlock()

	e.collector.Reset()
	e.analyzer.Reset()
	e.suggester.Reset()
	if e.metrics != nil {
		e.metrics.TrackedComponents.Set(0)
		e.metrics.RenderRate.Set(0)
	}

	e.logger.Info("engine reset (new session %s)", e.sessionID)
	e.notifier.publish(Notification{Type: NotificationReset, Timestamp: time.Now().UnixMilli()})
}

// IsRunning reports whether the engine currently accepts events
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// AddRender ingests one render event. A no-op while the engine is idle.
// The event is forwarded synchronously to the collector and the chain
// analyzer; every derived notification (render-recorded, severity-changed,
// chain-detected, suggestion-produced) is delivered before AddRender
// returns. The event is also buffered for burst detection.
func (e *Engine) AddRender(event models.RenderEvent) {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.eventsSinceTick++
	e.mu.Unlock()

	e.collector.AddRender(event)
	e.analyzer.AddRender(event)

	if e.metrics != nil {
		e.metrics.EventsTotal.Inc()
		if !event.Necessary {
			e.metrics.UnnecessaryTotal.Inc()
		}
		e.metrics.TrackedComponents.Set(float64(e.collector.Summary().TotalComponents))
	}

	e.notifier.publish(Notification{
		Type:      NotificationRenderRecorded,
		Timestamp: time.Now().UnixMilli(),
		Event:     &event,
	})

	e.bufferForBatch(event)
}

// RegisterParent records a parent/child relationship hint independently of
// any event.
func (e *Engine) RegisterParent(child, parent string) {
	e.analyzer.RegisterParent(child, parent)
}

// Snapshot returns the ordered per-component statistics
func (e *Engine) Snapshot() []collector.ComponentStats {
	return e.collector.Snapshot()
}

// Summary returns the session summary
func (e *Engine) Summary() collector.SessionSummary {
	return e.collector.Summary()
}

// Suggestions returns the cached suggestions for a component
func (e *Engine) Suggestions(component string) []suggest.FixSuggestion {
	return e.suggester.Suggestions(component)
}

// AllSuggestions returns every cached suggestion keyed by component
func (e *Engine) AllSuggestions() map[string][]suggest.FixSuggestion {
	return e.suggester.All()
}

// Rules returns the suggestion rule catalog
func (e *Engine) Rules() []suggest.Rule {
	return e.suggester.Rules()
}

// SetThresholds applies new severity thresholds. Every tracked component
// is re-classified immediately; transitions emit severity-changed
// notifications without requiring new events.
func (e *Engine) SetThresholds(t collector.Thresholds) {
	e.collector.SetThresholds(t)
}

// Thresholds returns the currently applied thresholds
func (e *Engine) Thresholds() collector.Thresholds {
	return e.collector.Thresholds()
}

// SetRuleOverride configures an installation override for a suggestion rule
func (e *Engine) SetRuleOverride(ruleID string, override suggest.Override) error {
	return e.suggester.SetOverride(ruleID, override)
}

// handleSeverityChange republishes collector severity transitions and runs
// suggestion analysis whenever a component degrades into Warning or
// Critical.
func (e *Engine) handleSeverityChange(stats collector.ComponentStats, from, to collector.Severity) {
	e.notifier.publish(Notification{
		Type:      NotificationSeverityChanged,
		Timestamp: time.Now().UnixMilli(),
		SeverityChange: &collector.SeverityChange{
			Component: stats.Name,
			From:      from,
			To:        to,
		},
	})

	if to == collector.SeverityWarning || to == collector.SeverityCritical {
		e.suggester.Analyze(stats)
	}
}

// handleChainDetected records the cascade path on the affected components
// and republishes the detection.
func (e *Engine) handleChainDetected(chain chains.RenderChain) {
	e.collector.RecordChain(chain.Chain)
	if e.metrics != nil {
		e.metrics.ChainsDetectedTotal.Inc()
	}

	e.notifier.publish(Notification{
		Type:      NotificationChainDetected,
		Timestamp: time.Now().UnixMilli(),
		Chain:     &chain,
	})
}

// handleSuggestion republishes generated suggestions
func (e *Engine) handleSuggestion(s suggest.FixSuggestion) {
	if e.metrics != nil {
		e.metrics.SuggestionsTotal.WithLabelValues(string(s.Kind)).Inc()
	}

	e.notifier.publish(Notification{
		Type:       NotificationSuggestion,
		Timestamp:  time.Now().UnixMilli(),
		Suggestion: &s,
	})
}

// bufferForBatch appends the event to the batch buffer. The batch flushes
// at the size cap, or after a single re-armed debounce timer fires,
// whichever comes first.
func (e *Engine) bufferForBatch(event models.RenderEvent) {
	e.mu.Lock()
	e.batch = append(e.batch, event)

	if len(e.batch) >= e.cfg.BatchSize {
		batch := e.batch
		e.batch = nil
		if e.debounce != nil {
			e.debounce.Stop()
			e.debounce = nil
		}
		e.mu.Unlock()
		e.processBatch(batch)
		return
	}

	if e.debounce == nil {
		e.debounce = time.AfterFunc(e.cfg.BatchDebounce, e.debounceFlush)
	} else {
		e.debounce.Reset(e.cfg.BatchDebounce)
	}
	e.mu.Unlock()
}

// debounceFlush flushes a partial batch after the debounce quiet period
func (e *Engine) debounceFlush() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	batch := e.batch
	e.batch = nil
	e.debounce = nil
	e.mu.Unlock()

	e.processBatch(batch)
}

// processBatch groups buffered events by component and proactively runs
// suggestion analysis for any component rendering in bursts, catching
// pathological render loops before a severity threshold trips.
func (e *Engine) processBatch(batch []models.RenderEvent) {
	if len(batch) == 0 {
		return
	}

	counts := make(map[string]int)
	order := []string{}
	for _, event := range batch {
		if counts[event.ComponentName] == 0 {
			order = append(order, event.ComponentName)
		}
		counts[event.ComponentName]++
	}

	for _, name := range order {
		if counts[name] < burstThreshold {
			continue
		}
		stats, ok := e.collector.Get(name)
		if !ok {
			continue
		}
		e.logger.Debug("burst detected for %s (%d renders in one batch)", name, counts[name])
		e.suggester.Analyze(stats)
	}
}

// sampleLoop measures throughput once per sample interval until stopped.
// The rate is the number of events since the previous tick divided by the
// interval; the counter resets every tick.
func (e *Engine) sampleLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.sampleTick()
		case <-stop:
			return
		}
	}
}

// sampleTick takes one throughput measurement. Guarded by the running
// flag so a tick racing a stop never mutates a fresh session. A drop is
// reported only when the tick saw at least one event: a silent engine is
// idle, not slow, and an idle session must not accumulate drop incidents.
func (e *Engine) sampleTick() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	count := e.eventsSinceTick
	e.eventsSinceTick = 0
	interval := e.cfg.SampleInterval
	e.mu.Unlock()

	floor := e.collector.Thresholds().MinRenderRate

	rate := float64(count) / interval.Seconds()
	e.collector.AddThroughputSample(rate)
	if e.metrics != nil {
		e.metrics.RenderRate.Set(rate)
	}

	// A silent engine is not a slow one: drops are only reported while
	// events are actually flowing.
	if count > 0 && rate < floor {
		e.logger.Warn("throughput dropped to %.1f events/s (floor %.1f)", rate, floor)
		if e.metrics != nil {
			e.metrics.ThroughputDropsTotal.Inc()
		}
		e.notifier.publish(Notification{
			Type:       NotificationThroughputDrop,
			Timestamp:  time.Now().UnixMilli(),
			Throughput: rate,
		})
	}
}
