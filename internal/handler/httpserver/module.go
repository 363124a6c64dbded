package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"go.uber.org/fx"
)

// Module provides the chi router and *http.Server, and starts/stops the
// server as an fx lifecycle hook — listen at OnStart and Serve on a
// background goroutine, graceful Shutdown at OnStop, mirroring the
// teacher's amqp handler's router.Run/router.Close pairing.
var Module = fx.Module("httpserver",
	fx.Provide(
		NewRouter,
		NewServer,
	),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, srv *http.Server, log *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("httpserver: serve failed", "error", err)
				}
			}()
			log.Info("httpserver: listening", "addr", srv.Addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
