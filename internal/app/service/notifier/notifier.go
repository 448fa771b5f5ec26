package notifier

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/internal/platform/sendgrid_mail"
	"github.com/fatflowers/masterclass/pkg/config"
	"github.com/fatflowers/masterclass/pkg/logctx"
)

const sendTimeout = 15 * time.Second

var (
	purchaseTmpl = template.Must(template.New("purchase").Parse(
		`<p>Hi {{.CustomerName}},</p><p>Thanks for purchasing <strong>{{.CourseTitle}}</strong> ({{.Amount}}).</p>` +
			`{{if .CourseImage}}<img src="{{.CourseImage}}" alt="{{.CourseTitle}}" width="480">{{end}}` +
			`<p><a href="{{.CourseURL}}">Start learning</a></p>`))
	proPlanTmpl = template.Must(template.New("pro").Parse(
		`<p>Hi {{.Name}},</p><p>Your MasterClass Pro {{.PlanType}} plan is active from {{.Start}} until {{.End}}.</p>` +
			`<p><a href="{{.URL}}">Browse courses</a></p>`))
	welcomeTmpl = template.Must(template.New("welcome").Parse(
		`<p>Welcome to MasterClass, {{.Name}}!</p><p><a href="{{.URL}}">Find your first course</a></p>`))
)

// PurchaseConfirmation is sent once per newly recorded purchase.
type PurchaseConfirmation struct {
	ToEmail      string
	CustomerName string
	CourseID     string
	CourseTitle  string
	CourseImage  string
	// AmountMinor is in currency minor units.
	AmountMinor int64
	Currency    string
}

// ProPlanActivated is sent after a subscription is created or updated.
type ProPlanActivated struct {
	ToEmail            string
	Name               string
	PlanType           string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	Created            bool
}

// Service sends transactional emails in the background. Failures are logged
// and never reach the caller.
type Service struct {
	mailer sendgrid_mail.Mailer
	cfg    *config.Config
	log    *zap.SugaredLogger
	wg     sync.WaitGroup
}

func New(mailer sendgrid_mail.Mailer, cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{mailer: mailer, cfg: cfg, log: log}
}

func (s *Service) dispatch(ctx context.Context, kind string, msg *sendgrid_mail.Message) {
	if msg.ToEmail == "" {
		logctx.FromCtx(ctx, s.log).Infow("skip email without recipient", "kind", kind)
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		if err := s.mailer.Send(sendCtx, msg); err != nil {
			logctx.FromCtx(ctx, s.log).Errorw("failed to send email", "kind", kind, "to", msg.ToEmail, "err", err)
			return
		}
		logctx.FromCtx(ctx, s.log).Infow("email sent", "kind", kind, "to", msg.ToEmail)
	}()
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}

// FormatAmount renders minor units as a decimal amount with the upper-case currency code.
func FormatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, strings.ToUpper(currency))
}

func (s *Service) PurchaseConfirmed(ctx context.Context, p *PurchaseConfirmation) {
	amount := FormatAmount(p.AmountMinor, p.Currency)
	courseURL := s.cfg.PublicURL("/courses/" + p.CourseID)
	s.dispatch(ctx, "purchase_confirmation", &sendgrid_mail.Message{
		ToEmail: p.ToEmail,
		ToName:  p.CustomerName,
		Subject: "Purchase Confirmed!",
		PlainText: fmt.Sprintf("Hi %s, thanks for purchasing %s (%s). Start learning: %s",
			p.CustomerName, p.CourseTitle, amount, courseURL),
		HTML: render(purchaseTmpl, map[string]string{
			"CustomerName": p.CustomerName,
			"CourseTitle":  p.CourseTitle,
			"CourseImage":  p.CourseImage,
			"CourseURL":    courseURL,
			"Amount":       amount,
		}),
	})
}

func (s *Service) ProPlanChanged(ctx context.Context, p *ProPlanActivated) {
	subject := "Your MasterClass Pro Plan has been updated!"
	if p.Created {
		subject = "Welcome to MasterClass Pro!"
	}
	start := p.CurrentPeriodStart.Format("Jan 2, 2006")
	end := p.CurrentPeriodEnd.Format("Jan 2, 2006")
	url := s.cfg.PublicURL("/courses")
	s.dispatch(ctx, "pro_plan", &sendgrid_mail.Message{
		ToEmail:   p.ToEmail,
		ToName:    p.Name,
		Subject:   subject,
		PlainText: fmt.Sprintf("Hi %s, your MasterClass Pro %s plan is active from %s until %s. %s", p.Name, p.PlanType, start, end, url),
		HTML: render(proPlanTmpl, map[string]string{
			"Name":     p.Name,
			"PlanType": p.PlanType,
			"Start":    start,
			"End":      end,
			"URL":      url,
		}),
	})
}

func (s *Service) Welcome(ctx context.Context, email, name string) {
	url := s.cfg.PublicURL("/")
	s.dispatch(ctx, "welcome", &sendgrid_mail.Message{
		ToEmail:   email,
		ToName:    name,
		Subject:   "Welcome to MasterClass",
		PlainText: fmt.Sprintf("Welcome to MasterClass, %s! Find your first course: %s", name, url),
		HTML:      render(welcomeTmpl, map[string]string{"Name": name, "URL": url}),
	})
}

// Flush waits for in-flight sends or until ctx is done.
func (s *Service) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func registerFlush(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return s.Flush(ctx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(registerFlush),
)
