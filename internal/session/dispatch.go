package session

import (
	"context"
	"strconv"

	"github.com/protolens/vpbridge/internal/domain/command"
	"github.com/protolens/vpbridge/internal/vp"
)

// dispatch parses and routes one inbound UI text frame (§4.6.1). Malformed
// frames are logged and skipped; the session continues.
func (s *Session) dispatch(data []byte) {
	msg, err := command.Decode(data)
	if err != nil {
		s.log.Warn("session: malformed UI frame", "error", err)
		return
	}

	switch msg.Command {
	case command.Start:
		s.dispatchStart(msg.Value)
	case command.Status:
		s.sendVPStatus()
	case command.Step:
		s.dispatchStep(msg.Value)
	case command.Options:
		// Unsupported inbound (§4.2): ignored.
	default:
		s.log.Warn("session: unknown command", "command", msg.Command)
	}
}

func (s *Session) dispatchStart(value string) {
	if value == "" {
		s.dispatchStop()
		return
	}

	start, err := command.DecodeStart(value)
	if err != nil {
		s.log.Warn("session: malformed start command", "error", err)
		return
	}

	if s.manager.Get() != nil {
		// I4 / P6: a VP is already running; leave it untouched, no reply.
		return
	}

	snap, gen := s.inventory.Snapshot()
	resolved, ok := s.resolver.Resolve(start, snap, gen)
	if !ok {
		// §9's resolved open question: silent failure, no UI reply.
		s.log.Warn("session: start options rejected", "vp", start.VP, "proj", start.Proj)
		return
	}

	state, err := s.supervisor.Start(context.Background(), resolved.Params, s.ctrlBus)
	if err != nil {
		s.log.Warn("session: VP start failed", "error", err)
		return
	}

	if resolved.Arch != "" {
		if helper, err := vp.LaunchGDBHelper(s.gdbOpt, resolved.Arch, resolved.Params.Binary); err != nil {
			s.log.Warn("session: gdb helper launch failed", "error", err)
		} else {
			state.GDBGUI = helper
		}
	}

	if err := s.manager.Install(state); err != nil {
		// Lost a race with another session; tear down what we just spawned.
		s.supervisor.Stop(state)
		return
	}

	s.sentSteps.Store(0)
	s.sendStart(strconv.FormatBool(state.IsRunning()))
}

func (s *Session) dispatchStop() {
	state := s.manager.Get()
	if state == nil {
		return
	}
	// §7: stop() returning false ("no acknowledging subscriber") means C6
	// does not echo a Start reply; the VP is still torn down from the slot
	// either way since is_running is already false at that point.
	acked := s.supervisor.Stop(state)
	s.manager.Take()
	s.sentSteps.Store(0)
	if acked {
		// Scenario 1 (§8): a stop reply carries an empty value, not "false".
		s.sendStart("")
	}
}

func (s *Session) dispatchStep(value string) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		s.log.Warn("session: invalid step value", "value", value)
		return
	}
	// Lossy by design if no GDB frontend is connected (§4.6.1).
	s.proxy.StepBus.Publish(uint32(n))
}

func (s *Session) sendStart(value string) {
	s.sendCommand(command.Start, value)
}
