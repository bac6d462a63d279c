package models

import (
	"time"
)

// RenderPhase represents the lifecycle phase of a render
type RenderPhase string

const (
	// PhaseInitial represents the first render of a component (mount)
	PhaseInitial RenderPhase = "initial"
	// PhaseUpdate represents a re-render of an already mounted component
	PhaseUpdate RenderPhase = "update"
)

// RenderEvent represents a single observed render of a UI component,
// delivered by the host-runtime instrumentation. Events are immutable
// once handed to the engine.
type RenderEvent struct {
	// ComponentName identifies the rendered component
	ComponentName string `json:"componentName"`

	// Timestamp is when the render occurred (Unix milliseconds)
	Timestamp int64 `json:"timestamp"`

	// Duration is the render duration in milliseconds
	Duration float64 `json:"duration"`

	// Phase indicates whether this was a mount or a re-render
	Phase RenderPhase `json:"phase"`

	// Necessary is false when the render produced no observable change
	Necessary bool `json:"necessary"`

	// ChangedProps lists the prop names that changed for this render, if any
	ChangedProps []string `json:"changedProps,omitempty"`

	// ChangedState is true when component state changed for this render
	ChangedState bool `json:"changedState,omitempty"`

	// Parent optionally names the parent component that triggered this
	// render. Relationships can also be registered independently.
	Parent string `json:"parent,omitempty"`
}

// Validate checks that the event has all required fields and is well-formed.
// This is the ingest-boundary check; the engine itself degrades silently on
// semantically odd but well-typed input.
func (e *RenderEvent) Validate() error {
	if e.ComponentName == "" {
		return NewValidationError("componentName must not be empty")
	}
	if e.Timestamp < 0 {
		return NewValidationError("timestamp must be non-negative")
	}
	if e.Duration < 0 {
		return NewValidationError("duration must be non-negative")
	}
	if e.Phase != PhaseInitial && e.Phase != PhaseUpdate {
		return NewValidationError("phase must be one of: initial, update")
	}
	return nil
}

// IsValid checks if the event is valid
func (e *RenderEvent) IsValid() bool {
	return e.Validate() == nil
}

// Time returns the event timestamp as a time.Time
func (e *RenderEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// HasChangedProps returns true when the event carries at least one changed prop
func (e *RenderEvent) HasChangedProps() bool {
	return len(e.ChangedProps) > 0
}

// IsContextTriggered reports whether this render was most likely caused by
// an external subscription: an update with neither changed props nor
// changed state.
func (e *RenderEvent) IsContextTriggered() bool {
	return e.Phase == PhaseUpdate && !e.HasChangedProps() && !e.ChangedState
}
