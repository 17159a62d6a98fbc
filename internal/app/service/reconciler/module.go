package reconciler

import "go.uber.org/fx"

// Module exposes the billing event reconciler via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
