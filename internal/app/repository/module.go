package repository

import "go.uber.org/fx"

// Module exposes the GORM-backed repository via Fx.
var Module = fx.Options(
	fx.Provide(NewGorm),
)
