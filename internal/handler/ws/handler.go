// Package ws upgrades an incoming HTTP request to a websocket connection
// and hands it to a freshly-built session.Session, the UI transport half of
// §6's "bidirectional message channel (text and binary frames)".
//
// Grounded on the teacher's internal/handler/ws/delivery.go: an
// *websocket.Upgrader field, an Upgrade-then-defer-Close handler body. The
// teacher's own pump loop is replaced entirely by session.Session.Run,
// since this spec's per-client loop (C6) already owns the priority fan-in
// the teacher's ServeHTTP inlines.
package ws

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/protolens/vpbridge/internal/session"
)

// Handler upgrades requests on its route to websocket connections and runs
// one session.Session per connection.
type Handler struct {
	log      *slog.Logger
	sessions session.Factory
	upgrader websocket.Upgrader
}

// New constructs a Handler.
func New(log *slog.Logger, sessions session.Factory) *Handler {
	return &Handler{
		log:      log,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	h.log.Info("ws session opened", "session_id", id)

	sess := h.sessions(conn)
	if err := sess.Run(); err != nil {
		h.log.Info("ws session closed", "session_id", id, "error", err)
		return
	}
	h.log.Info("ws session closed", "session_id", id)
}
