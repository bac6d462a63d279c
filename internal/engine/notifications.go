package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/renderlens/renderlens/internal/chains"
	"github.com/renderlens/renderlens/internal/collector"
	"github.com/renderlens/renderlens/internal/logging"
	"github.com/renderlens/renderlens/internal/models"
	"github.com/renderlens/renderlens/internal/suggest"
)

// NotificationType identifies the kind of engine notification
type NotificationType string

const (
	NotificationRenderRecorded  NotificationType = "render-recorded"
	NotificationSeverityChanged NotificationType = "severity-changed"
	NotificationChainDetected   NotificationType = "chain-detected"
	NotificationSuggestion      NotificationType = "suggestion-produced"
	NotificationThroughputDrop  NotificationType = "throughput-drop"
	NotificationStarted         NotificationType = "started"
	NotificationStopped         NotificationType = "stopped"
	NotificationReset           NotificationType = "reset"
	NotificationListenerError   NotificationType = "listener-error"
)

// Notification is the single push message type of the engine. Exactly the
// fields relevant for the Type are populated. Notifications are delivered
// synchronously within the call that caused them, giving subscribers a
// causally consistent observation order.
type Notification struct {
	Type      NotificationType `json:"type"`
	Timestamp int64            `json:"timestamp"`

	Event          *models.RenderEvent       `json:"event,omitempty"`
	SeverityChange *collector.SeverityChange `json:"severityChange,omitempty"`
	Chain          *chains.RenderChain       `json:"chain,omitempty"`
	Suggestion     *suggest.FixSuggestion    `json:"suggestion,omitempty"`

	// Throughput carries the measured rate for throughput-drop
	Throughput float64 `json:"throughput,omitempty"`

	// Error carries the failure description for listener-error
	Error string `json:"error,omitempty"`
}

// ListenerFunc receives engine notifications
type ListenerFunc func(n Notification)

// notifier fans notifications out to subscribers. A panicking listener
// never halts event processing: the panic is recovered and surfaced as a
// listener-error notification to the remaining listeners.
type notifier struct {
	mu        sync.Mutex
	logger    *logging.Logger
	listeners map[int]ListenerFunc
	nextID    int
}

func newNotifier() *notifier {
	return &notifier{
		logger:    logging.GetLogger("engine.notifier"),
		listeners: make(map[int]ListenerFunc),
	}
}

// subscribe registers a listener and returns an unsubscribe func
func (n *notifier) subscribe(fn ListenerFunc) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

// publish delivers the notification to every listener in subscription
// order, isolating per-listener failures.
func (n *notifier) publish(note Notification) {
	n.mu.Lock()
	ids := make([]int, 0, len(n.listeners))
	for id := range n.listeners {
		ids = append(ids, id)
	}
	// Deliver in subscription order
	sort.Ints(ids)
	fns := make([]ListenerFunc, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, n.listeners[id])
	}
	n.mu.Unlock()

	for _, fn := range fns {
		n.deliver(fn, note)
	}
}

// deliver invokes one listener, converting a panic into a listener-error
// notification. Failures inside listener-error delivery are only logged to
// avoid recursion.
func (n *notifier) deliver(fn ListenerFunc, note Notification) {
	defer func() {
		if r := recover(); r == nil {
			return
		} else if note.Type == NotificationListenerError {
			n.logger.Error("listener panicked while handling listener-error: %v", r)
		} else {
			n.logger.Error("listener panicked on %s notification: %v", note.Type, r)
			n.publish(Notification{
				Type:      NotificationListenerError,
				Timestamp: time.Now().UnixMilli(),
				Error:     fmt.Sprintf("listener panic on %s: %v", note.Type, r),
			})
		}
	}()
	fn(note)
}
