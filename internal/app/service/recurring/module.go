package recurring

import "go.uber.org/fx"

// Module exposes the recurring charge generator via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
