package clerk_webhook

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/fatflowers/masterclass/pkg/config"
)

// NewVerifierFromConfig returns nil when no secret is configured; the webhook
// route then rejects every delivery.
func NewVerifierFromConfig(l *zap.SugaredLogger, cfg *cfgpkg.Config) (*Verifier, error) {
	if cfg.Clerk.WebhookSecret == "" {
		l.Warnw("clerk webhook secret not configured, identity webhooks will be rejected")
		return nil, nil
	}
	return NewVerifier(cfg.Clerk.WebhookSecret)
}

var Module = fx.Options(
	fx.Provide(NewVerifierFromConfig),
)
