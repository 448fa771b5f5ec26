package sendgrid_mail

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/fatflowers/masterclass/pkg/config"
)

type discard struct{ l *zap.SugaredLogger }

func (d discard) Send(_ context.Context, msg *Message) error {
	d.l.Debugw("mail disabled, dropping message", "to", msg.ToEmail, "subject", msg.Subject)
	return nil
}

// NewFromConfig returns a SendGrid mailer, or a mailer that drops messages when
// mail.enabled is false.
func NewFromConfig(l *zap.SugaredLogger, cfg *cfgpkg.Config) (Mailer, error) {
	if !cfg.Mail.Enabled {
		return discard{l: l}, nil
	}
	return New(&Options{
		APIKey:    cfg.Mail.SendgridAPIKey,
		FromEmail: cfg.Mail.FromEmail,
		FromName:  cfg.Mail.FromName,
	})
}

var Module = fx.Options(
	fx.Provide(NewFromConfig),
)
