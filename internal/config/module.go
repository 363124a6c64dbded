package config

import (
	"log/slog"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// Module provides the decoded Config and the underlying *viper.Viper (kept
// around so callers can attach Watch for live reload), and starts the
// settings-file watch for the process lifetime. Components hold their own
// Config snapshot from startup; a live reload is logged for operator
// visibility rather than re-propagated through the DI graph.
var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Invoke(func(v *viper.Viper, log *slog.Logger) {
		Watch(v, log, func(cfg *Config) {})
	}),
)
