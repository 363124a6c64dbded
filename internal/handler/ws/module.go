package ws

import "go.uber.org/fx"

// Module provides the websocket upgrade Handler.
var Module = fx.Module("ws-handler",
	fx.Provide(New),
)
