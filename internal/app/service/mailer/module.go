package mailer

import "go.uber.org/fx"

// Module exposes the mailer via Fx, bound to the Mailer interface.
var Module = fx.Options(
	fx.Provide(New),
	fx.Provide(func(s *Service) Mailer { return s }),
)
