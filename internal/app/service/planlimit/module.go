package planlimit

import "go.uber.org/fx"

// Module exposes the plan limit evaluator via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
