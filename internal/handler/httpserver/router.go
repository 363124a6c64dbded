// Package httpserver assembles the chi router serving the UI's websocket
// route, the static debugging frontend, and a liveness probe, and runs it
// as an fx-managed *http.Server.
//
// Grounded on SPEC_FULL.md §2's "Static file route + HTTP router" ambient
// component (go-chi/chi/v5 replacing the original's warp route
// combinators) and on the teacher's amqp handler module's
// lc.Append(fx.Hook{OnStart/OnStop}) shape for a long-running resource
// with an explicit start and graceful close.
package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/protolens/vpbridge/internal/config"
	"github.com/protolens/vpbridge/internal/handler/ws"
)

// NewRouter builds the chi.Router serving /ws, the static frontend under
// serv_opt.static_dir, and /healthz.
func NewRouter(cfg *config.Config, wsHandler *ws.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/ws", wsHandler)

	static := http.FileServer(http.Dir(cfg.ServOpt.StaticDir))
	r.Handle("/*", static)

	return r
}

// NewServer wraps the router in an *http.Server bound to serv_opt's
// address/port.
func NewServer(cfg *config.Config, router chi.Router) *http.Server {
	return &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.ServOpt.Address, cfg.ServOpt.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
	}
}
