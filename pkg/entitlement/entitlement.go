// Package entitlement holds the process-wide plan state: the tier and the
// persisted template preference, loaded from a kvstore.Store at start and
// written back on every transition.
package entitlement

import (
	"context"
	"sync"

	ierr "github.com/invoice-studio/pkg/errors"
	"github.com/invoice-studio/pkg/kvstore"
	"github.com/invoice-studio/pkg/logger"
)

// Tier is the two-valued plan level.
type Tier string

const (
	TierFree     Tier = "free"
	TierUnlocked Tier = "unlocked"
)

func (t Tier) Valid() bool {
	return t == TierFree || t == TierUnlocked
}

// Store keys.
const (
	KeyIsPro    = "isPro"
	KeyTemplate = "template"
)

// State is a snapshot of the entitlement. SelectedTemplate is empty when no
// preference has been persisted.
type State struct {
	Tier             Tier   `json:"tier"`
	SelectedTemplate string `json:"selectedTemplate,omitempty"`
}

func (s State) Unlocked() bool {
	return s.Tier == TierUnlocked
}

// Listener is notified after every persisted change.
type Listener func(State)

type Manager struct {
	store kvstore.Store
	log   *logger.Logger

	mu        sync.RWMutex
	state     State
	listeners []Listener
}

// NewManager loads the state from store. Missing keys mean Free with no
// template preference.
func NewManager(ctx context.Context, store kvstore.Store, log *logger.Logger) (*Manager, error) {
	m := &Manager{store: store, log: log, state: State{Tier: TierFree}}

	pro, err := m.read(ctx, KeyIsPro)
	if err != nil {
		return nil, err
	}
	if pro == "true" {
		m.state.Tier = TierUnlocked
	}

	tmpl, err := m.read(ctx, KeyTemplate)
	if err != nil {
		return nil, err
	}
	m.state.SelectedTemplate = tmpl

	log.Debugw("entitlement loaded", "tier", m.state.Tier, "template", m.state.SelectedTemplate)
	return m, nil
}

func (m *Manager) read(ctx context.Context, key string) (string, error) {
	has, err := m.store.Has(ctx, key)
	if err != nil {
		return "", ierr.WithError(err).WithHintf("could not read %s", key).Mark(ierr.ErrDatabase)
	}
	if !has {
		return "", nil
	}
	v, err := m.store.Get(ctx, key)
	if err != nil {
		return "", ierr.WithError(err).WithHintf("could not read %s", key).Mark(ierr.ErrDatabase)
	}
	return v, nil
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) Tier() Tier {
	return m.State().Tier
}

// Subscribe registers fn for change notifications.
func (m *Manager) Subscribe(fn Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// ConfirmPurchase performs the Free → Unlocked transition after a purchase
// has been confirmed. It is a no-op when already unlocked.
func (m *Manager) ConfirmPurchase(ctx context.Context) error {
	if m.Tier() == TierUnlocked {
		return nil
	}
	return m.setTier(ctx, TierUnlocked)
}

// Override forces either tier. It exists for debugging and tests; callers
// decide whether it is reachable.
func (m *Manager) Override(ctx context.Context, tier Tier) error {
	if !tier.Valid() {
		return ierr.NewErrorf("unknown tier %q", tier).
			WithHint("tier must be free or unlocked").
			Mark(ierr.ErrValidation)
	}
	return m.setTier(ctx, tier)
}

func (m *Manager) setTier(ctx context.Context, tier Tier) error {
	value := "false"
	if tier == TierUnlocked {
		value = "true"
	}
	if err := m.store.Set(ctx, KeyIsPro, value); err != nil {
		return ierr.WithError(err).WithHint("could not save plan").Mark(ierr.ErrDatabase)
	}

	m.mu.Lock()
	m.state.Tier = tier
	snapshot, listeners := m.state, append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	m.log.Infow("plan tier changed", "tier", tier)
	notify(listeners, snapshot)
	return nil
}

// PersistTemplate stores id as the default template for future sessions.
// Only the unlocked tier may persist a choice.
func (m *Manager) PersistTemplate(ctx context.Context, id string) error {
	if m.Tier() != TierUnlocked {
		return ierr.NewErrorf("persisting template %q on free tier", id).
			WithHint("Upgrade to apply").
			Mark(ierr.ErrPermissionDenied)
	}
	if m.State().SelectedTemplate == id {
		return nil
	}
	if err := m.store.Set(ctx, KeyTemplate, id); err != nil {
		return ierr.WithError(err).WithHint("could not save template").Mark(ierr.ErrDatabase)
	}

	m.mu.Lock()
	m.state.SelectedTemplate = id
	snapshot, listeners := m.state, append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	m.log.Debugw("template preference saved", "template", id)
	notify(listeners, snapshot)
	return nil
}

func notify(listeners []Listener, s State) {
	for _, fn := range listeners {
		fn(s)
	}
}
