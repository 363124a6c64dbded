package cmd

import (
	"github.com/spf13/pflag"
	"go.uber.org/fx"

	"github.com/protolens/vpbridge/internal/config"
	"github.com/protolens/vpbridge/internal/gdbproxy"
	"github.com/protolens/vpbridge/internal/handler/httpserver"
	"github.com/protolens/vpbridge/internal/handler/ws"
	"github.com/protolens/vpbridge/internal/inventory"
	"github.com/protolens/vpbridge/internal/session"
	"github.com/protolens/vpbridge/internal/telemetry"
	"github.com/protolens/vpbridge/internal/tui"
	"github.com/protolens/vpbridge/internal/vp"
)

// NewApp assembles the fx.App from the parsed serve-command flags,
// matching the teacher's cmd/fx.go NewApp(cfg) shape of one fx.Provide for
// process-wide inputs followed by a module per concern.
func NewApp(fs *pflag.FlagSet, tuiEnabled bool) *fx.App {
	return fx.New(
		fx.Provide(
			func() *pflag.FlagSet { return fs },
			func() tui.Enabled { return tui.Enabled(tuiEnabled) },
		),
		telemetry.Module,
		config.Module,
		inventory.Module,
		vp.Module,
		gdbproxy.Module,
		session.Module,
		ws.Module,
		httpserver.Module,
		tui.Module,
	)
}
