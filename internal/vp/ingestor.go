package vp

import (
	"bufio"
	"net"
	"strings"
	"time"

	"github.com/protolens/vpbridge/internal/domain/trace"
)

// tickInterval is the ticker period that collapses bursts of pending
// notifications to at most one signal per kind per tick (§4.4).
const tickInterval = 10 * time.Millisecond

// ingestor reads newline-delimited VP trace records and drives the §4.4
// state machine. Grounded on PLS/src/virtual_prototype.rs::recv_loop and
// handle_response, translated from a single tokio::select! over a socket
// BufReader, an interval, and a broadcast receiver into Go's equivalent: a
// dedicated reader goroutine bridging blocking bufio reads onto a channel,
// multiplexed by a priority select that checks Shutdown first (mirroring
// the original's `biased;` ordering).
type ingestor struct {
	conn  net.Conn
	state *State
}

func newIngestor(conn net.Conn, state *State) *ingestor {
	return &ingestor{conn: conn, state: state}
}

func (ig *ingestor) run() {
	defer ig.conn.Close()

	lines := make(chan string)
	go ig.readLines(lines)

	shutdownCh, unsub := ig.state.CtrlBus.Subscribe()
	defer unsub()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var parsingLayout, pendingModule, pendingTrans bool

	for {
		// Priority 1: shutdown pre-empts everything else, matching the
		// original's `biased;` ordering.
		select {
		case msg := <-shutdownCh:
			if msg == Shutdown {
				return
			}
		default:
		}

		select {
		case msg := <-shutdownCh:
			if msg == Shutdown {
				return
			}

		case <-ticker.C:
			if pendingModule {
				ig.state.CtrlBus.Publish(RecvModule)
				pendingModule = false
			} else if pendingTrans {
				ig.state.CtrlBus.Publish(RecvTransaction)
				pendingTrans = false
			}

		case line, ok := <-lines:
			if !ok {
				// Trace socket closed (VP killed or exited); subsequent
				// data is unreachable, so just wait for Shutdown/exit.
				lines = nil
				continue
			}
			if tx, err := trace.ParseLine(line); err == nil {
				ig.state.TraceBuffer.Append(*tx)
				if parsingLayout {
					parsingLayout = false
					pendingModule = true
					pendingTrans = true
				} else {
					pendingTrans = true
				}
				continue
			}

			fields := strings.Split(strings.TrimRight(line, "\r\n"), ";")
			if len(fields) == 4 {
				parsingLayout = true
				ig.state.Layout.Append(fields[1], fields[2], fields[3])
			}
			// Any other line is ignored (§4.4).
		}
	}
}

// readLines bridges blocking socket reads onto a channel so the main loop's
// select can multiplex it alongside the ticker and the shutdown signal.
func (ig *ingestor) readLines(out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(ig.conn)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}
