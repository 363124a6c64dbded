package gdbproxy

import (
	"bytes"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type syncBuf struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func newSyncBuf() *syncBuf { return &syncBuf{} }

func (s *syncBuf) Write(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Write(p)
}

func (s *syncBuf) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// startUpstreamEcho starts a TCP listener that records everything it reads,
// standing in for the VP's GDB stub.
func startUpstreamEcho(t *testing.T) (port int, received *syncBuf) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	received = newSyncBuf()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				received.Write(buf[:n])
			}
			if err != nil {
				return
			}
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port, received
}

func newProxyOnFreePort(t *testing.T, upstreamPort int) *Proxy {
	t.Helper()
	p := New("127.0.0.1", upstreamPort, 0, discardLogger())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	p.DownstreamPort = ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return p
}

func dialDownstream(t *testing.T, p *Proxy) net.Conn {
	t.Helper()
	var conn net.Conn
	require.Eventually(t, func() bool {
		c, err := net.DialTimeout("tcp", "127.0.0.1:"+strconv.Itoa(p.DownstreamPort), 50*time.Millisecond)
		if err != nil {
			return false
		}
		conn = c
		return true
	}, time.Second, 10*time.Millisecond)
	return conn
}

func TestProxy_InjectsStepPacketsToUpstream(t *testing.T) {
	upstreamPort, received := startUpstreamEcho(t)
	p := newProxyOnFreePort(t, upstreamPort)

	stop := make(chan struct{})
	defer close(stop)
	go p.Run(stop)

	downstream := dialDownstream(t, p)
	defer downstream.Close()

	require.Eventually(t, func() bool { return p.Status() == Connected }, time.Second, 10*time.Millisecond)

	p.StepBus.Publish(3)

	require.Eventually(t, func() bool {
		return strings.Count(received.String(), stepPacket) == 3
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, strings.Repeat(stepPacket, 3), received.String())
}

func TestProxy_RelaysDownstreamBytesToUpstream(t *testing.T) {
	upstreamPort, received := startUpstreamEcho(t)
	p := newProxyOnFreePort(t, upstreamPort)

	stop := make(chan struct{})
	defer close(stop)
	go p.Run(stop)

	downstream := dialDownstream(t, p)
	defer downstream.Close()

	_, err := downstream.Write([]byte("$g#67"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return received.String() == "$g#67"
	}, time.Second, 10*time.Millisecond)
}

func TestProxy_PublishesNotConnectedAfterClientDisconnects(t *testing.T) {
	upstreamPort, _ := startUpstreamEcho(t)
	p := newProxyOnFreePort(t, upstreamPort)

	stop := make(chan struct{})
	defer close(stop)
	go p.Run(stop)

	downstream := dialDownstream(t, p)
	require.Eventually(t, func() bool { return p.Status() == Connected }, time.Second, 10*time.Millisecond)

	downstream.Close()

	require.Eventually(t, func() bool { return p.Status() == NotConnected }, time.Second, 10*time.Millisecond)
}
