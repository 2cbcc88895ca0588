package demo

import (
	"fmt"
	"sync"
	"time"
)

// Manager tracks the active scenario (if any) and the scheduler's
// clock needed to turn wall-clock time into sim-time. Only one
// scenario is active at a time; starting a new one replaces it.
type Manager struct {
	mu       sync.Mutex
	active   *Scenario
	startTS  time.Time
	prevSimT float64
	log      []string
}

// NewManager returns a manager with no active scenario.
func NewManager() *Manager { return &Manager{} }

// Start begins a named scenario. Returns an error for an unknown ID so
// the HTTP handler can respond 422 rather than silently no-op.
func (m *Manager) Start(id string, speed float64, seed int64, now time.Time) error {
	if speed <= 0 {
		speed = 1
	}
	switch id {
	case "heat_wave":
		m.set(Scenario{ID: id, Duration: 600, Speed: speed, Seed: seed}, now)
	case "price_spike":
		m.set(Scenario{ID: id, Duration: 240, Speed: speed, Seed: seed}, now)
	default:
		return fmt.Errorf("unknown demo scenario %q", id)
	}
	return nil
}

func (m *Manager) set(s Scenario, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = &s
	m.startTS = now
	m.prevSimT = 0
}

// Reset clears the active scenario and its log.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = nil
	m.log = nil
}

// Tick advances the active scenario's clock to now and returns the
// effect bundle plus any narrative events newly crossed. Overlays
// never bypass safety gates: callers only ever feed this effect into
// the twin/planner's *inputs*, never into rule evaluation directly.
func (m *Manager) Tick(now time.Time) Effect {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return NeutralEffect()
	}

	simT := now.Sub(m.startTS).Seconds() * m.active.Speed
	effect, stillActive := m.active.EffectAt(simT)
	for _, ev := range m.active.Narratives(m.prevSimT, simT) {
		m.log = append(m.log, ev.Message)
	}
	m.prevSimT = simT

	if !stillActive {
		m.active = nil
	}
	return effect
}

// LogTail returns the most recent limit narrative lines, oldest-first.
func (m *Manager) LogTail(limit int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.log) {
		limit = len(m.log)
	}
	out := make([]string, limit)
	copy(out, m.log[len(m.log)-limit:])
	return out
}

// Active reports the currently running scenario ID, or "" if none.
func (m *Manager) Active() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ""
	}
	return m.active.ID
}
