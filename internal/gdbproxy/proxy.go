package gdbproxy

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/protolens/vpbridge/internal/bus"
)

// stepPacket is the literal GDB-RSP continue packet injected N times per
// Step command (§4.5, §6).
const stepPacket = "$vCont;c#a8"

const copyBufSize = 2048

// Proxy is the long-lived GDB remote-protocol transparent proxy (C5).
// Grounded on PLS/src/gdb_proxy.rs::run/stream_copy: accept one downstream
// client, dial upstream, copy both directions concurrently with a shared
// cancellation, inject step packets into the downstream→upstream leg.
// errgroup.Group replaces tokio::join! (grounded on the teacher's
// service/peer_enricher.go errgroup usage); sony/gobreaker wraps the
// upstream dial the same way Supervisor wraps the VP trace-port dial.
type Proxy struct {
	Address        string
	UpstreamPort   int
	DownstreamPort int
	StepBus        *bus.Bus[uint32]
	log            *slog.Logger
	dialBreaker    *gobreaker.CircuitBreaker
	statusStore    *StatusStore
	statusBus      *bus.Bus[Status]
}

// New constructs a Proxy.
func New(address string, upstreamPort, downstreamPort int, log *slog.Logger) *Proxy {
	return &Proxy{
		Address:        address,
		UpstreamPort:   upstreamPort,
		DownstreamPort: downstreamPort,
		StepBus:        bus.New[uint32](),
		log:            log,
		statusStore:    &StatusStore{},
		statusBus:      bus.New[Status](),
		dialBreaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "gdb-upstream-dial",
			Timeout: 10 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Status returns the current connection status.
func (p *Proxy) Status() Status { return p.statusStore.Get() }

// SubscribeStatus registers a subscriber for status transitions
// (§4.7's gdb_status channel).
func (p *Proxy) SubscribeStatus() (<-chan Status, func()) {
	return p.statusBus.Subscribe()
}

func (p *Proxy) publish(s Status) {
	p.statusStore.set(s)
	p.statusBus.Publish(s)
}

// Run accepts downstream connections forever, proxying each to the
// upstream VP debug port, until stop is closed or the listener errors.
func (p *Proxy) Run(stop <-chan struct{}) error {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", p.Address, p.DownstreamPort))
	if err != nil {
		return fmt.Errorf("gdbproxy: listen: %w", err)
	}
	defer ln.Close()

	go func() {
		<-stop
		ln.Close()
	}()

	p.publish(NotConnected)

	for {
		client, err := ln.Accept()
		if err != nil {
			select {
			case <-stop:
				return nil
			default:
				return fmt.Errorf("gdbproxy: accept: %w", err)
			}
		}
		p.handleClient(client)
	}
}

func (p *Proxy) handleClient(client net.Conn) {
	upstreamAny, err := p.dialBreaker.Execute(func() (any, error) {
		return net.DialTimeout("tcp", fmt.Sprintf("%s:%d", p.Address, p.UpstreamPort), 5*time.Second)
	})
	if err != nil {
		p.log.Warn("gdbproxy: upstream dial failed", "error", err)
		client.Close()
		p.publish(NotConnected)
		return
	}
	upstream := upstreamAny.(net.Conn)
	defer upstream.Close()
	defer client.Close()

	steps, unsubSteps := p.StepBus.Subscribe()
	defer unsubSteps()

	p.publish(Connected)
	defer p.publish(NotConnected)

	cancel := make(chan struct{})
	var closeOnce sync.Once
	raiseCancel := func() { closeOnce.Do(func() { close(cancel) }) }

	var g errgroup.Group
	g.Go(func() error {
		defer raiseCancel()
		_, err := copyPlain(upstream, client, cancel)
		return err
	})
	g.Go(func() error {
		defer raiseCancel()
		_, err := copyWithInjection(client, upstream, cancel, steps)
		return err
	})
	if err := g.Wait(); err != nil {
		p.log.Warn("gdbproxy: copy leg error", "error", err)
	}
}

// readResult is the reader-goroutine-to-channel bridge payload: a blocking
// net.Conn.Read cannot itself participate in a select, so a dedicated
// goroutine performs the read and posts the outcome here.
type readResult struct {
	buf []byte
	err error
}

func bridgeReads(conn net.Conn, out chan<- readResult) {
	defer close(out)
	for {
		buf := make([]byte, copyBufSize)
		n, err := conn.Read(buf)
		if n > 0 {
			out <- readResult{buf: buf[:n]}
		}
		if err != nil {
			out <- readResult{err: err}
			return
		}
	}
}

func isCleanClose(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		// net.Conn wraps ECONNRESET/ECONNABORTED as *net.OpError; treat any
		// non-timeout network error here as a clean close, matching
		// stream_copy's ConnectionReset|ConnectionAborted => Ok(copied).
		return !ne.Timeout()
	}
	return false
}

// copyPlain mirrors stream_copy's no-injection branch: read, write, repeat,
// until EOF, a clean-close error, or cancel.
func copyPlain(src net.Conn, dst net.Conn, cancel <-chan struct{}) (int, error) {
	reads := make(chan readResult)
	go bridgeReads(src, reads)

	copied := 0
	for {
		select {
		case <-cancel:
			return copied, nil
		case r, ok := <-reads:
			if !ok {
				return copied, nil
			}
			if len(r.buf) > 0 {
				if _, err := dst.Write(r.buf); err != nil {
					return copied, err
				}
				copied += len(r.buf)
			}
			if r.err != nil {
				if r.err.Error() == "EOF" || isCleanClose(r.err) {
					return copied, nil
				}
				return copied, r.err
			}
		}
	}
}

// copyWithInjection mirrors stream_copy's injection branch: biased priority
// read-then-inject-then-cancel (§4.5's "biased polling order
// (read-then-inject-then-cancel) ensures backpressure favors draining real
// GDB traffic before injecting"). Each received step count N writes
// stepPacket N times consecutively before resuming reads.
func copyWithInjection(src net.Conn, dst net.Conn, cancel <-chan struct{}, steps <-chan uint32) (int, error) {
	reads := make(chan readResult)
	go bridgeReads(src, reads)

	copied := 0
	for {
		// Priority 1: drain any buffered read first.
		select {
		case r, ok := <-reads:
			if !ok {
				return copied, nil
			}
			if done, n, err := applyRead(r, dst, &copied); done {
				return n, err
			}
			continue
		default:
		}

		// Priority 2: an injected step count.
		select {
		case n, ok := <-steps:
			if ok {
				for i := uint32(0); i < n; i++ {
					if _, err := dst.Write([]byte(stepPacket)); err != nil {
						return copied, err
					}
				}
			}
			continue
		default:
		}

		// Priority 3: block on whichever is ready, cancel included.
		select {
		case <-cancel:
			return copied, nil
		case r, ok := <-reads:
			if !ok {
				return copied, nil
			}
			if done, n, err := applyRead(r, dst, &copied); done {
				return n, err
			}
		case n, ok := <-steps:
			if ok {
				for i := uint32(0); i < n; i++ {
					if _, err := dst.Write([]byte(stepPacket)); err != nil {
						return copied, err
					}
				}
			}
		}
	}
}

func applyRead(r readResult, dst net.Conn, copied *int) (done bool, n int, err error) {
	if len(r.buf) > 0 {
		if _, werr := dst.Write(r.buf); werr != nil {
			return true, *copied, werr
		}
		*copied += len(r.buf)
	}
	if r.err != nil {
		if r.err.Error() == "EOF" || isCleanClose(r.err) {
			return true, *copied, nil
		}
		return true, *copied, r.err
	}
	return false, *copied, nil
}
