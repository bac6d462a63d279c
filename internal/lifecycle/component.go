package lifecycle

import "context"

// Component defines the lifecycle interface for everything the manager
// orchestrates. Start and Stop must be idempotent and respect the context
// deadline; Name must return a non-empty string used in logs.
type Component interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Name() string
}

// FuncComponent adapts plain start/stop funcs into a Component. Either
// func may be nil.
type FuncComponent struct {
	ComponentName string
	StartFunc     func(ctx context.Context) error
	StopFunc      func(ctx context.Context) error
}

// Name implements Component
func (f *FuncComponent) Name() string { return f.ComponentName }

// Start implements Component
func (f *FuncComponent) Start(ctx context.Context) error {
	if f.StartFunc == nil {
		return nil
	}
	return f.StartFunc(ctx)
}

// Stop implements Component
func (f *FuncComponent) Stop(ctx context.Context) error {
	if f.StopFunc == nil {
		return nil
	}
	return f.StopFunc(ctx)
}
