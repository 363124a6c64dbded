// Package vp implements the VP lifecycle: the single shared VPState slot
// (C3's target), the subprocess supervisor (C3), the trace ingestor (C4),
// the start-options resolver (C8), and the GDB TUI helper launcher.
package vp

import (
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/protolens/vpbridge/internal/bus"
	"github.com/protolens/vpbridge/internal/domain/trace"
)

// CtrlMsg is the VP control-bus payload (C7's vp_ctrl channel).
type CtrlMsg int

const (
	RecvTransaction CtrlMsg = iota
	RecvModule
	Shutdown
)

// Mode selects how the VP's trace buffer behaves on flush: Stream clears
// it after each delivery, Step retains it for reconnecting clients.
type Mode int

const (
	Stream Mode = iota
	Step
)

func (m Mode) String() string {
	if m == Step {
		return "Step"
	}
	return "Stream"
}

// State is one VP's live state: the owned subprocess handles, the shared
// trace buffer and layout (§3's VPState), and its private control bus.
//
// Grounded on PLS/src/virtual_prototype.rs's VP struct; subproc/gdbgui are
// os/exec.Cmd here instead of std::process::Child, steps/arch become
// trace.Buffer/trace.Layout (each already owning its own RWMutex per §5's
// "trace_buffer and layout each have their own lock").
type State struct {
	Subproc *exec.Cmd
	GDBGUI  *exec.Cmd // optional GDB TUI helper child; nil if none launched

	Mode Mode

	TraceBuffer trace.Buffer
	Layout      trace.Layout

	CtrlBus *bus.Bus[CtrlMsg]

	isRunning       atomic.Bool
	cumulativeCount atomic.Uint64
}

// IsRunning reports whether this VP is still considered live.
func (s *State) IsRunning() bool { return s.isRunning.Load() }

// CumulativeCount returns the running total of transactions ever flushed
// for this VP's lifetime (§3's cumulative_count; never resets).
func (s *State) CumulativeCount() uint64 { return s.cumulativeCount.Load() }

// AddCumulative advances the cumulative counter by k and returns the new total.
func (s *State) AddCumulative(k uint64) uint64 {
	return s.cumulativeCount.Add(k)
}

// Manager owns the process-wide zero-or-one VPState slot (§9's design note:
// "hide it behind a small API... holding a single mutex, never exposing the
// slot directly to session code"). Grounded on
// PLS/src/client_handler.rs's state.vp.lock().await usage and the teacher's
// registry.Hub single-mutex-guarded map pattern generalized to a single slot.
type Manager struct {
	mu    sync.Mutex
	state *State
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// ErrAlreadyRunning is returned by Install when a VP is already installed,
// enforcing I4 ("at most one VPState; start-while-running is rejected").
var ErrAlreadyRunning = fmt.Errorf("vp: a VP is already running")

// WithVP runs f with the current VPState, or nil if none is installed. The
// manager lock is held for the duration of f, so f must not block on
// anything that could itself wait on the manager (e.g. a second WithVP
// call) or on a network send to a UI socket (§5: "no lock is held across a
// network send to a UI socket").
func (m *Manager) WithVP(f func(*State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(m.state)
}

// Get returns the current VPState, or nil if none is installed. Prefer
// WithVP when the caller needs a consistent read-then-act sequence; Get is
// for call sites that only need a snapshot pointer (the pointer's own
// fields are independently synchronized).
func (m *Manager) Get() *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Install places a freshly-started VPState into the slot. It fails if one
// is already present (I4).
func (m *Manager) Install(s *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		return ErrAlreadyRunning
	}
	m.state = s
	return nil
}

// Take removes and returns the current VPState, leaving the slot empty.
// Returns nil if none was installed.
func (m *Manager) Take() *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	m.state = nil
	return s
}
