package session

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/protolens/vpbridge/internal/bus"
	"github.com/protolens/vpbridge/internal/config"
	"github.com/protolens/vpbridge/internal/gdbproxy"
	"github.com/protolens/vpbridge/internal/inventory"
	"github.com/protolens/vpbridge/internal/vp"
)

// Module provides a Factory for the HTTP layer to build one Session per
// accepted websocket connection.
var Module = fx.Module("session",
	fx.Provide(NewFactory),
)

// Factory builds a Session bound to a freshly-accepted Transport. One
// Factory is shared process-wide; it closes over the process's singleton
// collaborators (the VP manager, supervisor, GDB proxy, inventory store).
type Factory func(transport Transport) *Session

// NewFactory builds a Factory from the process-wide collaborators.
func NewFactory(
	log *slog.Logger,
	manager *vp.Manager,
	supervisor *vp.Supervisor,
	resolver *vp.Resolver,
	ctrlBus *bus.Bus[vp.CtrlMsg],
	proxy *gdbproxy.Proxy,
	inv *inventory.Store,
	cfg *config.Config,
) Factory {
	return func(transport Transport) *Session {
		return New(transport, log, manager, supervisor, resolver, ctrlBus, proxy, inv, cfg.GDBOpt)
	}
}
