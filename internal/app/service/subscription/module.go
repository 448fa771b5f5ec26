package subscription

import "go.uber.org/fx"

// Module provides the subscription store service.
var Module = fx.Options(
	fx.Provide(NewService),
)
