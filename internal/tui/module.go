package tui

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
)

// Enabled carries the --tui flag's value through fx. A distinct named type
// avoids colliding with any other bool the graph might provide.
type Enabled bool

// Module provides the Dashboard and starts it for the process lifetime
// when Enabled is true.
var Module = fx.Module("tui",
	fx.Provide(New),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, enabled Enabled, d *Dashboard, log *slog.Logger) {
	if !enabled {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			go func() {
				if err := d.Run(ctx); err != nil {
					log.Error("tui: dashboard exited", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			return nil
		},
	})
}
