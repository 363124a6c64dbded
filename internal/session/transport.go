// Package session implements the per-UI-client control loop (C6): connect
// handshake, the three-source priority fan-in (UI message, VP control
// signal, GDB status signal), command dispatch, and the transaction flush
// protocol.
package session

import "github.com/gorilla/websocket"

// Transport is the subset of *websocket.Conn a Session needs. Grounded on
// the teacher's internal/handler/ws/delivery.go, which reads/writes
// directly against *websocket.Conn; Session depends on this narrower
// interface instead so its loop can be driven by an in-memory fake in
// tests without a real socket.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
}

// message types, mirroring gorilla/websocket's constants so any Transport
// implementation (real or fake) can use the same values.
const (
	TextMessage   = websocket.TextMessage
	BinaryMessage = websocket.BinaryMessage
)
