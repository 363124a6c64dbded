package vp

import (
	"go.uber.org/fx"

	"github.com/protolens/vpbridge/internal/bus"
	"github.com/protolens/vpbridge/internal/config"
)

// Module provides the VP lifecycle collaborators: the shared Manager slot,
// the Supervisor, the process-wide control Bus, and the start-options
// Resolver.
var Module = fx.Module("vp",
	fx.Provide(
		NewManager,
		NewSupervisor,
		bus.New[CtrlMsg],
		newResolverFromConfig,
	),
)

func newResolverFromConfig(cfg *config.Config) (*Resolver, error) {
	return NewResolver(cfg.VPOpt.VPDebugPort, cfg.VPOpt.VPTracePort, cfg.GUIVPKitDir, cfg.GUIVPArgs)
}
