package inventory

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/protolens/vpbridge/internal/config"
)

// Module provides the inventory Store, scanning Config's bin_dir/vp_dir,
// and keeps it fresh with an fsnotify watch for the process lifetime.
var Module = fx.Module("inventory",
	fx.Provide(NewStoreFromConfig),
	fx.Invoke(registerLifecycle),
)

// NewStoreFromConfig adapts Config's directory fields to NewStore.
func NewStoreFromConfig(cfg *config.Config, log *slog.Logger) (*Store, error) {
	return NewStore(cfg.BinDir, cfg.VPDir, log)
}

func registerLifecycle(lc fx.Lifecycle, s *Store, log *slog.Logger) {
	stop := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := s.Watch(stop); err != nil {
					log.Error("inventory: watch exited", "error", err)
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
