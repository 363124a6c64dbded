package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/protolens/vpbridge/internal/bus"
	"github.com/protolens/vpbridge/internal/config"
	"github.com/protolens/vpbridge/internal/domain/command"
	"github.com/protolens/vpbridge/internal/domain/trace"
	"github.com/protolens/vpbridge/internal/gdbproxy"
	"github.com/protolens/vpbridge/internal/inventory"
	"github.com/protolens/vpbridge/internal/vp"
)

// Session is one UI client's control loop (C6). Grounded on
// PLS/src/client_handler.rs::handle/handle_msg/send_transactions,
// translated from the Rust State struct's Arc<Mutex<...>> fields into this
// module's already-synchronized collaborators (vp.Manager, gdbproxy.Proxy,
// inventory.Store), and from tokio::select! into the fan-in-then-priority-
// select shape described by §9's design note.
type Session struct {
	id        string
	transport Transport
	log       *slog.Logger

	manager    *vp.Manager
	supervisor *vp.Supervisor
	resolver   *vp.Resolver
	ctrlBus    *bus.Bus[vp.CtrlMsg]
	proxy      *gdbproxy.Proxy
	inventory  *inventory.Store
	gdbOpt     config.GDBOptions

	sentSteps atomic.Uint64
}

// New constructs a Session bound to transport.
func New(
	transport Transport,
	log *slog.Logger,
	manager *vp.Manager,
	supervisor *vp.Supervisor,
	resolver *vp.Resolver,
	ctrlBus *bus.Bus[vp.CtrlMsg],
	proxy *gdbproxy.Proxy,
	inv *inventory.Store,
	gdbOpt config.GDBOptions,
) *Session {
	return &Session{
		id:         uuid.NewString(),
		transport:  transport,
		log:        log,
		manager:    manager,
		supervisor: supervisor,
		resolver:   resolver,
		ctrlBus:    ctrlBus,
		proxy:      proxy,
		inventory:  inv,
		gdbOpt:     gdbOpt,
	}
}

// event carries one UI read result from the read pump to Run's loop. VP
// control and GDB status signals arrive on their own bus channels, and Run
// orders the three sources with two nested selects.
type event struct {
	uiData []byte
	uiErr  error
}

// Run drives the connect handshake then the main multiplexing loop until
// the UI socket closes or errors.
func (s *Session) Run() error {
	if err := s.handshake(); err != nil {
		return err
	}

	ctrlCh, unsubCtrl := s.ctrlBus.Subscribe()
	defer unsubCtrl()
	statusCh, unsubStatus := s.proxy.SubscribeStatus()
	defer unsubStatus()

	ui := make(chan event)
	go s.readUI(ui)

	for {
		// Priority: UI message first, then VP control, then GDB status
		// (§4.6: "biased toward UI input first... this prevents starvation
		// of the UI reply path").
		select {
		case ev := <-ui:
			if end, err := s.handleUI(ev); end {
				return err
			}
			continue
		default:
		}

		select {
		case ev := <-ui:
			if end, err := s.handleUI(ev); end {
				return err
			}

		case msg := <-ctrlCh:
			s.handleCtrl(msg)

		case st := <-statusCh:
			s.sendGdbStatus(st)
		}
	}
}

func (s *Session) readUI(out chan<- event) {
	defer close(out)
	for {
		mt, data, err := s.transport.ReadMessage()
		if err != nil {
			out <- event{uiErr: err}
			return
		}
		if mt != TextMessage {
			// Binary from UI is ignored (§6).
			continue
		}
		out <- event{uiData: data}
	}
}

// handleUI processes one UI event and reports whether the session should
// end (a recv error ends it; malformed frames are logged and skipped).
func (s *Session) handleUI(ev event) (end bool, err error) {
	if ev.uiErr != nil {
		return true, ev.uiErr
	}
	s.dispatch(ev.uiData)
	return false, nil
}

func (s *Session) handleCtrl(msg vp.CtrlMsg) {
	switch msg {
	case vp.RecvModule:
		s.sendLayout()
	case vp.RecvTransaction:
		s.flush()
	case vp.Shutdown:
		// The session does not end with the VP (§4.6).
	}
}

// handshake implements §4.6 steps 1-6.
func (s *Session) handshake() error {
	s.sendVPStatus()
	s.sendInventory()

	if state := s.manager.Get(); state != nil {
		if snap := state.Layout.Snapshot(); len(snap.Modules) > 0 {
			if err := s.sendLayoutSnapshot(snap); err != nil {
				return err
			}
		}
	}

	s.sendGdbStatus(s.proxy.Status())
	if err := s.sendOptions(); err != nil {
		return err
	}

	n := 0
	if state := s.manager.Get(); state != nil {
		n = state.TraceBuffer.Len()
	}
	if n == 0 {
		s.sentSteps.Store(0)
	} else {
		// §9: initialized to len-1, not len, so the last transaction is
		// resent on reconnect.
		s.sentSteps.Store(uint64(n - 1))
	}

	s.flush()
	return nil
}

func (s *Session) sendOptions() error {
	data, err := command.Encode(command.Options, fmt.Sprintf("%d", s.proxy.DownstreamPort))
	if err != nil {
		return err
	}
	return s.transport.WriteMessage(TextMessage, data)
}

// sendVPStatus replies with the VP running boolean (§4.6 step 1; also the
// reply to an inbound Status command — grounded on client_handler.rs's
// send_status, which reports state.vp's is_running, not the GDB status).
func (s *Session) sendVPStatus() {
	running := s.manager.Get() != nil
	s.sendCommand(command.Status, strconv.FormatBool(running))
}

// sendGdbStatus relays a GDB connection transition as a Status message
// (§4.6 step 4 and the main loop's "GDB status signal" source).
func (s *Session) sendGdbStatus(st gdbproxy.Status) {
	s.sendCommand(command.Status, st.String())
}

func (s *Session) sendCommand(kind command.Kind, value string) {
	data, err := command.Encode(kind, value)
	if err != nil {
		s.log.Warn("session: encode command failed", "kind", kind, "error", err)
		return
	}
	_ = s.transport.WriteMessage(TextMessage, data)
}

func (s *Session) sendInventory() {
	snap, _ := s.inventory.Snapshot()
	data, err := json.Marshal(snap.ToTransfer())
	if err != nil {
		s.log.Warn("session: encode inventory failed", "error", err)
		return
	}
	_ = s.transport.WriteMessage(TextMessage, data)
}

func (s *Session) sendLayout() {
	state := s.manager.Get()
	if state == nil {
		return
	}
	// Snapshot (Layout has its own lock) before sending, so the network
	// write never runs under the Manager's process-wide lock.
	snap := state.Layout.Snapshot()
	if err := s.sendLayoutSnapshot(snap); err != nil {
		s.log.Warn("session: send layout failed", "error", err)
	}
}

func (s *Session) sendLayoutSnapshot(snap trace.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.transport.WriteMessage(TextMessage, data)
}
