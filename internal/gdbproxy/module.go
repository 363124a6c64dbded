package gdbproxy

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/protolens/vpbridge/internal/config"
)

// Module provides the GDB proxy and runs its accept loop for the process
// lifetime.
var Module = fx.Module("gdbproxy",
	fx.Provide(newFromConfig),
	fx.Invoke(registerLifecycle),
)

func newFromConfig(cfg *config.Config, log *slog.Logger) *Proxy {
	return New(cfg.ServOpt.Address, cfg.VPOpt.VPDebugPort, cfg.GDBOpt.GDBProxyPort, log)
}

func registerLifecycle(lc fx.Lifecycle, p *Proxy, log *slog.Logger) {
	stop := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := p.Run(stop); err != nil {
					log.Error("gdbproxy: accept loop exited", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(stop)
			return nil
		},
	})
}
