package session

import (
	"encoding/binary"

	"github.com/protolens/vpbridge/internal/domain/trace"
	"github.com/protolens/vpbridge/internal/vp"
)

// flush implements the transaction flush protocol (§4.6.2). It is a no-op
// if no VP is installed. Get, not WithVP, is used deliberately: State's own
// fields (TraceBuffer, the atomic counters) are independently synchronized,
// so flushState's network send never runs under the process-wide Manager
// lock (§5: "no lock is held across a network send to a UI socket").
func (s *Session) flush() {
	state := s.manager.Get()
	if state == nil {
		return
	}
	s.flushState(state)
}

func (s *Session) flushState(state *vp.State) {
	sent := int(s.sentSteps.Load())
	items, length := state.TraceBuffer.FlushSince(sent)
	if length == 0 || length == sent {
		return
	}

	cumulative := state.AddCumulative(uint64(len(items)))

	payload := make([]byte, 8+len(items)*trace.BinSize)
	binary.LittleEndian.PutUint64(payload[0:8], cumulative)
	for i, tx := range items {
		frame := tx.MarshalBinary()
		copy(payload[8+i*trace.BinSize:], frame[:])
	}

	if err := s.transport.WriteMessage(BinaryMessage, payload); err != nil {
		// Best-effort send; a subsequent recv failure ends the session
		// (§7: "UI socket send failure... ignored per-frame").
		s.log.Warn("session: flush send failed", "error", err)
	}

	switch state.Mode {
	case vp.Stream:
		state.TraceBuffer.Clear()
		// sent_steps is not updated in Stream mode (§4.6.2).
	case vp.Step:
		s.sentSteps.Store(cumulative)
	}
}
