package sendgrid_mail

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	got    *mail.SGMailV3
	status int
	err    error
}

func (f *fakeSender) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.got = email
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status, Body: "body"}, nil
}

func TestClient_Send(t *testing.T) {
	fs := &fakeSender{status: 202}
	c := &Client{from: mail.NewEmail("MasterClass", "noreply@example.com"), client: fs}

	err := c.Send(context.Background(), &Message{ToEmail: "ada@example.com", ToName: "Ada", Subject: "Welcome", PlainText: "hi", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	require.Equal(t, "Welcome", fs.got.Subject)
	require.Equal(t, "noreply@example.com", fs.got.From.Address)
	require.Equal(t, "ada@example.com", fs.got.Personalizations[0].To[0].Address)
}

func TestClient_SendFailures(t *testing.T) {
	c := &Client{from: mail.NewEmail("", "noreply@example.com"), client: &fakeSender{status: 401}}
	require.Error(t, c.Send(context.Background(), &Message{ToEmail: "a@b.c"}))

	c.client = &fakeSender{err: errors.New("dial tcp")}
	require.Error(t, c.Send(context.Background(), &Message{ToEmail: "a@b.c"}))

	_, err := New(&Options{})
	require.Error(t, err)
}
