package stripe_client

import (
	"go.uber.org/fx"

	cfgpkg "github.com/fatflowers/masterclass/pkg/config"
)

func NewFromConfig(cfg *cfgpkg.Config) (*Client, error) {
	return New(&Options{SecretKey: cfg.Stripe.SecretKey})
}

var Module = fx.Options(
	fx.Provide(NewFromConfig),
)
