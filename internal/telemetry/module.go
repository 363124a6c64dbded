package telemetry

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
)

// Module provides the process-wide *slog.Logger (consumed by every other
// module) and registers the otel provider's shutdown as an fx lifecycle
// hook, matching the teacher's amqp handler's lc.Append(fx.Hook{...})
// shape for a resource with an explicit close.
var Module = fx.Module("telemetry",
	fx.Provide(
		New,
		func(p *Provider) *slog.Logger { return p.Logger },
	),
	fx.Invoke(func(lc fx.Lifecycle, p *Provider) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return p.Shutdown(ctx)
			},
		})
	}),
)
