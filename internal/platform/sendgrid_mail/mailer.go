package sendgrid_mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a single transactional email.
type Message struct {
	ToEmail   string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

type Options struct {
	APIKey    string
	FromEmail string
	FromName  string
}

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Client sends mail through the SendGrid v3 API.
type Client struct {
	from   *mail.Email
	client sender
}

func New(opts *Options) (*Client, error) {
	if opts == nil {
		return nil, errors.New("opts is nil")
	}
	if opts.APIKey == "" {
		return nil, errors.New("sendgrid api key is empty")
	}
	return &Client{
		from:   mail.NewEmail(opts.FromName, opts.FromEmail),
		client: sendgrid.NewSendClient(opts.APIKey),
	}, nil
}

func (c *Client) Send(ctx context.Context, msg *Message) error {
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	message := mail.NewSingleEmail(c.from, msg.Subject, to, msg.PlainText, msg.HTML)
	resp, err := c.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
