package stripe_event

import (
	"go.uber.org/fx"

	cfgpkg "github.com/fatflowers/masterclass/pkg/config"
)

func NewVerifierFromConfig(cfg *cfgpkg.Config) *Verifier {
	return NewVerifier(cfg.Stripe.WebhookSecret)
}

var Module = fx.Options(
	fx.Provide(NewVerifierFromConfig),
)
