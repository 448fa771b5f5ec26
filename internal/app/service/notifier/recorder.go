package notifier

import (
	"context"
	"sync"

	"github.com/fatflowers/masterclass/internal/platform/sendgrid_mail"
)

// RecordingMailer keeps sent messages in memory. Used by tests and dry runs.
type RecordingMailer struct {
	mu   sync.Mutex
	sent []*sendgrid_mail.Message
	Err  error
}

func (r *RecordingMailer) Send(_ context.Context, msg *sendgrid_mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	cp := *msg
	r.sent = append(r.sent, &cp)
	return nil
}

func (r *RecordingMailer) Sent() []*sendgrid_mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*sendgrid_mail.Message(nil), r.sent...)
}
