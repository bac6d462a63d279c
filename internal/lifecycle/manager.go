// Package lifecycle orchestrates startup and shutdown of the process
// components with dependency awareness.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/renderlens/renderlens/internal/logging"
)

// Manager starts components in dependency order and stops them in reverse
// start order, with per-component timeout protection.
type Manager struct {
	mu              sync.Mutex
	logger          *logging.Logger
	components      []Component
	dependencies    map[Component][]Component
	started         []Component
	shutdownTimeout time.Duration
}

// NewManager creates a lifecycle manager with a 30-second shutdown timeout
func NewManager() *Manager {
	return &Manager{
		logger:          logging.GetLogger("lifecycle"),
		dependencies:    make(map[Component][]Component),
		shutdownTimeout: 30 * time.Second,
	}
}

// SetShutdownTimeout sets the per-component grace period for Stop
func (m *Manager) SetShutdownTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownTimeout = timeout
}

// Register registers a component with optional dependencies. Dependencies
// must already be registered; duplicate registration and dependency cycles
// are rejected.
func (m *Manager) Register(component Component, dependsOn ...Component) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if component == nil {
		return fmt.Errorf("cannot register nil component")
	}
	if component.Name() == "" {
		return fmt.Errorf("component must have a non-empty name")
	}

	for _, c := range m.components {
		if c == component {
			return fmt.Errorf("component %s is already registered", component.Name())
		}
	}
	for _, dep := range dependsOn {
		found := false
		for _, c := range m.components {
			if c == dep {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("dependency %s is not registered", dep.Name())
		}
	}
	if m.wouldCreateCycle(component, dependsOn) {
		return fmt.Errorf("registering %s would create a circular dependency", component.Name())
	}

	m.components = append(m.components, component)
	m.dependencies[component] = dependsOn
	m.logger.Debug("registered component %s with %d dependencies", component.Name(), len(dependsOn))
	return nil
}

// wouldCreateCycle checks whether the new dependency edges lead back to
// the component being registered.
func (m *Manager) wouldCreateCycle(component Component, dependsOn []Component) bool {
	visited := make(map[Component]bool)
	var walk func(deps []Component) bool
	walk = func(deps []Component) bool {
		for _, dep := range deps {
			if dep == component {
				return true
			}
			if visited[dep] {
				continue
			}
			visited[dep] = true
			if walk(m.dependencies[dep]) {
				return true
			}
		}
		return false
	}
	return walk(dependsOn)
}

// Start starts all registered components in dependency order. On failure,
// already started components are stopped in reverse order before the
// error is returned.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.started = nil
	for _, component := range m.topologicalOrder() {
		m.logger.Info("starting %s", component.Name())
		begin := time.Now()

		if err := component.Start(ctx); err != nil {
			m.logger.Error("failed to start %s: %v", component.Name(), err)
			m.rollbackLocked()
			return fmt.Errorf("initialization failed for %s: %w", component.Name(), err)
		}

		m.started = append(m.started, component)
		m.logger.Info("%s started (took %dms)", component.Name(), time.Since(begin).Milliseconds())
	}
	return nil
}

// topologicalOrder returns components with dependencies before dependents
func (m *Manager) topologicalOrder() []Component {
	visited := make(map[Component]bool)
	var sorted []Component
	var visit func(c Component)
	visit = func(c Component) {
		if visited[c] {
			return
		}
		visited[c] = true
		for _, dep := range m.dependencies[c] {
			visit(dep)
		}
		sorted = append(sorted, c)
	}
	for _, c := range m.components {
		visit(c)
	}
	return sorted
}

// rollbackLocked stops successfully started components after a failed
// startup, in reverse start order. Caller holds the lock.
func (m *Manager) rollbackLocked() {
	for i := len(m.started) - 1; i >= 0; i-- {
		component := m.started[i]
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := component.Stop(ctx); err != nil {
			m.logger.Warn("error stopping %s during rollback: %v", component.Name(), err)
		}
		cancel()
	}
	m.started = nil
}

// Stop stops all started components in reverse start order. Each component
// gets its own shutdown timeout; errors are logged but never abort the
// remaining shutdowns.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.started) - 1; i >= 0; i-- {
		component := m.started[i]
		m.logger.Info("stopping %s", component.Name())

		componentCtx, cancel := context.WithTimeout(ctx, m.shutdownTimeout)
		err := component.Stop(componentCtx)
		cancel()

		if err != nil {
			if err == context.DeadlineExceeded {
				m.logger.Warn("component %s exceeded grace period, forcing termination", component.Name())
			} else {
				m.logger.Error("error stopping %s: %v", component.Name(), err)
			}
		}
	}
	m.started = nil
	return nil
}
