package vp

import (
	"context"
	"net"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protolens/vpbridge/internal/bus"
)

func mustStartSleep(t *testing.T) *exec.Cmd {
	t.Helper()
	cmd := exec.Command("sleep", "5")
	require.NoError(t, cmd.Start())
	return cmd
}

// TestSupervisor_StartConnectsToTracePort exercises the full start path: the
// synchronous 2s warmup, then the trace-port dial. It spawns `sh` as a
// stand-in VP binary and a local listener as the stand-in trace port.
func TestSupervisor_StartConnectsToTracePort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			defer conn.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	s := NewSupervisor()
	ctrl := bus.New[CtrlMsg]()

	state, err := s.Start(context.Background(), StartParams{
		VPPath:    "sh",
		Args:      []string{"-c", "sleep 5"},
		Binary:    "",
		Mode:      Stream,
		TracePort: port,
	}, ctrl)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.True(t, state.IsRunning())

	s.Stop(state)
}

func TestSupervisor_StartFailsWhenTracePortUnreachable(t *testing.T) {
	s := NewSupervisor()
	ctrl := bus.New[CtrlMsg]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.Start(ctx, StartParams{
		VPPath: "sh",
		Args:   []string{"-c", "sleep 5"},
		Mode:   Stream,
	}, ctrl)
	assert.Error(t, err)
}

func TestSupervisor_StopBroadcastsShutdownAndKills(t *testing.T) {
	cmd := mustStartSleep(t)
	ctrl := bus.New[CtrlMsg]()
	events, unsub := ctrl.Subscribe()
	defer unsub()

	state := &State{Subproc: cmd, CtrlBus: ctrl}
	state.isRunning.Store(true)

	s := NewSupervisor()
	ok := s.Stop(state)
	assert.True(t, ok)
	assert.False(t, state.IsRunning())

	select {
	case msg := <-events:
		assert.Equal(t, Shutdown, msg)
	default:
		t.Fatal("expected Shutdown to have been published")
	}
}
