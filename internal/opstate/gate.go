// Package opstate tracks the lifecycle of long-running user operations such
// as calendar sync and assistant turns.
package opstate

import (
	"fmt"
	"sync"
	"time"

	"github.com/tomokana225/schedule-planning/internal/apperr"
)

// State of a gated operation.
type State string

const (
	Idle      State = "idle"
	InFlight  State = "in_flight"
	Succeeded State = "succeeded"
	Failed    State = "failed"
)

// Ticket identifies one started run of an operation.
type Ticket struct {
	Seq uint64
}

// Snapshot is a point-in-time view of a gate.
type Snapshot struct {
	Name       string    `json:"name"`
	State      State     `json:"state"`
	Seq        uint64    `json:"seq"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt,omitzero"`
	FinishedAt time.Time `json:"finishedAt,omitzero"`
}

// Gate allows at most one run of an operation at a time.
type Gate struct {
	mu   sync.Mutex
	snap Snapshot
	now  func() time.Time
	// onChange, if set, is called with the new snapshot after every
	// transition, outside the lock.
	onChange func(Snapshot)
}

// NewGate returns an idle gate. onChange may be nil.
func NewGate(name string, onChange func(Snapshot)) *Gate {
	return &Gate{
		snap:     Snapshot{Name: name, State: Idle},
		now:      time.Now,
		onChange: onChange,
	}
}

// Begin moves the gate to in_flight. It fails with apperr.ErrBusy if a run is
// already in flight.
func (g *Gate) Begin() (Ticket, error) {
	g.mu.Lock()
	if g.snap.State == InFlight {
		g.mu.Unlock()
		return Ticket{}, fmt.Errorf("%s: %w", g.snap.Name, apperr.ErrBusy)
	}
	g.snap.Seq++
	g.snap.State = InFlight
	g.snap.Error = ""
	g.snap.StartedAt = g.now()
	g.snap.FinishedAt = time.Time{}
	t, snap := Ticket{Seq: g.snap.Seq}, g.snap
	g.mu.Unlock()

	g.notify(snap)
	return t, nil
}

// Finish records the outcome of the run identified by t. Stale tickets are
// ignored and Finish reports false for them.
func (g *Gate) Finish(t Ticket, err error) bool {
	g.mu.Lock()
	if t.Seq != g.snap.Seq || g.snap.State != InFlight {
		g.mu.Unlock()
		return false
	}
	g.snap.State = Succeeded
	if err != nil {
		g.snap.State = Failed
		g.snap.Error = err.Error()
	}
	g.snap.FinishedAt = g.now()
	snap := g.snap
	g.mu.Unlock()

	g.notify(snap)
	return true
}

// Snapshot returns the current state.
func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snap
}

func (g *Gate) notify(s Snapshot) {
	if g.onChange != nil {
		g.onChange(s)
	}
}
