package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/masterclass/internal/app/api/server"
	"github.com/fatflowers/masterclass/internal/app/repository"
	"github.com/fatflowers/masterclass/internal/app/service/access"
	"github.com/fatflowers/masterclass/internal/app/service/billing"
	"github.com/fatflowers/masterclass/internal/app/service/catalog"
	"github.com/fatflowers/masterclass/internal/app/service/checkout"
	"github.com/fatflowers/masterclass/internal/app/service/eventlog"
	"github.com/fatflowers/masterclass/internal/app/service/identity"
	"github.com/fatflowers/masterclass/internal/app/service/notifier"
	"github.com/fatflowers/masterclass/internal/app/service/ratelimit"
	"github.com/fatflowers/masterclass/internal/app/service/reconciler"
	"github.com/fatflowers/masterclass/internal/app/service/statistics"
	"github.com/fatflowers/masterclass/internal/app/service/subscription"
	"github.com/fatflowers/masterclass/internal/platform/cache"
	"github.com/fatflowers/masterclass/internal/platform/clerk/clerk_webhook"
	"github.com/fatflowers/masterclass/internal/platform/db"
	"github.com/fatflowers/masterclass/internal/platform/sendgrid_mail"
	"github.com/fatflowers/masterclass/internal/platform/stripe/stripe_client"
	"github.com/fatflowers/masterclass/internal/platform/stripe/stripe_event"
	"github.com/fatflowers/masterclass/pkg/config"
	"github.com/fatflowers/masterclass/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

// Platform wires configuration, logging and external clients. The CLI uses it
// without the HTTP server.
var Platform = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	cache.Module,
	stripe_client.Module,
	stripe_event.Module,
	clerk_webhook.Module,
	sendgrid_mail.Module,
	repository.Module,
)

// Services wires the domain services on top of Platform.
var Services = fx.Options(
	eventlog.Module,
	notifier.Module,
	ratelimit.Module,
	subscription.Module,
	checkout.Module,
	reconciler.Module,
	access.Module,
	identity.Module,
	billing.Module,
	catalog.Module,
	statistics.Module,
)

var Module = fx.Options(
	Platform,
	Services,
	server.Module,
)
