// Package gdbproxy implements the GDB remote-protocol transparent proxy
// (C5): accept one downstream GDB frontend, dial the upstream VP debug
// stub, copy bytes in both directions, and inject synthetic step packets
// into the downstream→upstream leg on command.
package gdbproxy

import "sync"

// Status is the process-wide GDB connection status (§3's GdbConnectionStatus).
type Status int

const (
	NotConnected Status = iota
	Connected
)

// String renders the wire value for a Status message, matching
// PLS/src/gdb_proxy.rs's `impl fmt::Display for GdbStatus` (a literal
// `{self:?}` of the enum variant name) — distinct from the VP-running
// boolean's "true"/"false" wire value sent under the same Status command
// kind (client_handler.rs's vp.is_running.to_string() vs con.to_string()).
func (s Status) String() string {
	if s == Connected {
		return "Connected"
	}
	return "NotConnected"
}

// StatusStore holds the current Status behind its own lock (§5: "writers
// are C5, readers are all sessions").
type StatusStore struct {
	mu     sync.RWMutex
	status Status
}

// Get returns the current status.
func (s *StatusStore) Get() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *StatusStore) set(v Status) {
	s.mu.Lock()
	s.status = v
	s.mu.Unlock()
}
