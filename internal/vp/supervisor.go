package vp

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"time"

	"github.com/sony/gobreaker"

	"github.com/protolens/vpbridge/internal/bus"
)

// warmup is the fixed startup barrier before the supervisor dials the VP's
// trace port, matching §5's "one short, synchronous sleep is allowed — the
// 2 s VP warm-up — because it is a startup barrier, not a hot-path wait."
const warmup = 2000 * time.Millisecond

// StartParams are the resolved inputs to Start, produced by the C8 resolver.
type StartParams struct {
	VPPath    string
	Binary    string
	Args      []string
	Mode      Mode
	TracePort int
}

// Supervisor owns VP subprocess spawn/kill and the trace-port dial (C3).
// Grounded on PLS/src/virtual_prototype.rs::VP::start/stop/connect_vp: args
// append binary last, stdout/stderr inherited, stdin inherited only in
// Stream mode, a synchronous warmup sleep, then a TCP dial to the trace
// port. The repeated-dial-across-restarts path is wrapped in a
// gobreaker.CircuitBreaker so a VP that is reliably misconfigured (wrong
// trace port, crashes before listening) stops being redialed on every
// operator retry once it has failed enough times in a row.
type Supervisor struct {
	dialBreaker *gobreaker.CircuitBreaker
}

// NewSupervisor constructs a Supervisor with a breaker tuned for the VP
// trace-port dial: trips after 3 consecutive failures, half-opens after 30s.
func NewSupervisor() *Supervisor {
	return &Supervisor{
		dialBreaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "vp-trace-dial",
			MaxRequests: 1,
			Interval:    0,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// Start spawns the VP subprocess and connects to its trace port, returning a
// freshly-initialized State on success. On dial failure, or if ctx is done
// during the warm-up, the supervisor kills the half-started subprocess
// itself and returns only the error.
func (s *Supervisor) Start(ctx context.Context, p StartParams, ctrl *bus.Bus[CtrlMsg]) (*State, error) {
	args := append(append([]string{}, p.Args...), p.Binary)

	cmd := exec.CommandContext(context.Background(), p.VPPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if p.Mode == Stream {
		cmd.Stdin = os.Stdin
	} else {
		cmd.Stdin = nil
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("vp: spawn failed: %w", err)
	}

	select {
	case <-time.After(warmup):
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		return nil, ctx.Err()
	}

	conn, err := s.dialBreaker.Execute(func() (any, error) {
		return net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", p.TracePort), 5*time.Second)
	})
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("vp: could not connect to trace port %d: %w", p.TracePort, err)
	}

	state := &State{
		Subproc: cmd,
		Mode:    p.Mode,
		CtrlBus: ctrl,
	}
	state.isRunning.Store(true)

	ingestor := newIngestor(conn.(net.Conn), state)
	go ingestor.run()

	return state, nil
}

// Stop marks the VP not running, broadcasts Shutdown, kills the optional GDB
// helper and the subprocess, and reports whether both the kill and an
// acknowledging subscriber occurred — used by C6 to decide whether to
// confirm the stop to the UI. Grounded on VP::stop's receiver_shutdown logic.
func (s *Supervisor) Stop(state *State) bool {
	state.isRunning.Store(false)

	acked := state.CtrlBus.Publish(Shutdown) > 0

	if state.GDBGUI != nil {
		_ = state.GDBGUI.Process.Kill()
		state.GDBGUI = nil
	}

	killed := state.Subproc.Process.Kill() == nil
	return killed && acked
}
