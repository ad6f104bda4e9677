package model

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valpere/pagetran/internal/apperrors"
	"github.com/valpere/pagetran/internal/logger"
)

type State string

const (
	StateUnloaded  State = "unloaded"
	StateLoading   State = "loading"
	StateResident  State = "resident"
	StateUnloading State = "unloading"
)

// Status is an immutable view of the manager. Tier and Model are set for
// every state except unloaded.
type Status struct {
	State State  `json:"state"`
	Tier  Tier   `json:"tier,omitempty"`
	Model string `json:"model,omitempty"`
}

// Manager switches the resident model between tiers. Two models are never
// resident at once: the current one is always released before the next
// one is loaded.
type Manager struct {
	backend Backend
	catalog Catalog

	mu      sync.Mutex
	current Model

	status atomic.Pointer[Status]
}

func NewManager(backend Backend, catalog Catalog) *Manager {
	m := &Manager{backend: backend, catalog: catalog}
	m.status.Store(&Status{State: StateUnloaded})
	return m
}

func (m *Manager) Catalog() Catalog { return m.catalog }

// Status never blocks and never reports a model as resident before its
// load has returned.
func (m *Manager) Status() Status { return *m.status.Load() }

func (m *Manager) publish(s Status) { m.status.Store(&s) }

// EnsureResident returns the model for tier, loading it first if needed.
func (m *Manager) EnsureResident(ctx context.Context, tier Tier) (Model, error) {
	spec, err := m.catalog.Spec(tier)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.Tier() == tier {
		return m.current, nil
	}

	if err := m.unloadLocked(ctx); err != nil {
		return nil, err
	}

	m.publish(Status{State: StateLoading, Tier: tier, Model: spec.Model})
	logger.Info("Loading model", "tier", tier, "model", spec.Model)
	start := time.Now()

	mdl, err := m.backend.Load(ctx, spec)
	if err != nil {
		m.publish(Status{State: StateUnloaded})
		logger.Error("Model load failed", "tier", tier, "model", spec.Model, "error", err)
		return nil, apperrors.ModelLoad(spec.Model, err)
	}

	m.current = mdl
	m.publish(Status{State: StateResident, Tier: tier, Model: spec.Model})
	logger.Info("Model resident", "tier", tier, "model", spec.Model, "elapsed", time.Since(start).Round(time.Millisecond))
	return mdl, nil
}

// Unload releases the resident model, if any.
func (m *Manager) Unload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unloadLocked(ctx)
}

func (m *Manager) unloadLocked(ctx context.Context) error {
	if m.current == nil {
		return nil
	}
	prev := m.current
	m.publish(Status{State: StateUnloading, Tier: prev.Tier(), Model: prev.ID()})
	logger.Info("Unloading model", "tier", prev.Tier(), "model", prev.ID())

	err := m.backend.Unload(ctx, prev)
	m.current = nil
	m.publish(Status{State: StateUnloaded})
	if err != nil {
		logger.Error("Model unload failed", "model", prev.ID(), "error", err)
		return apperrors.ModelLoad(prev.ID(), err)
	}
	return nil
}
