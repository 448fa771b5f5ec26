package stripe_event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

// Event types handled by the reconciler.
const (
	TypeCheckoutSessionCompleted = "checkout.session.completed"
	TypeSubscriptionCreated      = "customer.subscription.created"
	TypeSubscriptionUpdated      = "customer.subscription.updated"
	TypeSubscriptionDeleted      = "customer.subscription.deleted"
)

// Metadata keys written at checkout and read back from events.
const (
	MetaUserID         = "userId"
	MetaCourseID       = "courseId"
	MetaPlanID         = "planId"
	MetaUserName       = "userName"
	MetaUserEmail      = "userEmail"
	MetaCourseTitle    = "courseTitle"
	MetaCourseImageURL = "courseImageUrl"
)

var ErrInvalidSignature = errors.New("stripe signature verification failed")

// Event is a verified gateway event with its data object left raw.
type Event struct {
	ID      string
	Type    string
	Created time.Time
	Object  json.RawMessage
}

// Verifier authenticates webhook payloads against the endpoint secret.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret, tolerance: webhook.DefaultTolerance}
}

// ConstructEvent verifies the Stripe-Signature header over the raw body and decodes the event.
func (v *Verifier) ConstructEvent(payload []byte, header string) (*Event, error) {
	if v.secret == "" {
		return nil, fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}
	evt, err := webhook.ConstructEventWithOptions(payload, header, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	out := &Event{
		ID:      evt.ID,
		Type:    string(evt.Type),
		Created: time.Unix(evt.Created, 0).UTC(),
	}
	if evt.Data != nil {
		out.Object = evt.Data.Raw
	}
	return out, nil
}

// SignedHeader builds a Stripe-Signature header for payload. Used by local
// tooling and tests that replay events.
func SignedHeader(payload []byte, secret string, at time.Time) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	})
	return signed.Header
}

// CheckoutSession is the subset of a completed checkout session the reconciler reads.
type CheckoutSession struct {
	ID          string
	CustomerID  string
	Mode        string
	AmountTotal int64
	Currency    string
	Metadata    map[string]string
}

func ParseCheckoutSession(raw json.RawMessage) (*CheckoutSession, error) {
	var s stripe.CheckoutSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	out := &CheckoutSession{
		ID:          s.ID,
		Mode:        string(s.Mode),
		AmountTotal: s.AmountTotal,
		Currency:    string(s.Currency),
		Metadata:    s.Metadata,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	return out, nil
}

// Subscription is the subset of a gateway subscription the reconciler reads.
type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	LatestInvoiceID    string
	Interval           string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	Metadata           map[string]string
}

// HasInvoice reports whether an invoice is associated yet.
func (s *Subscription) HasInvoice() bool { return s.LatestInvoiceID != "" }

func ParseSubscription(raw json.RawMessage) (*Subscription, error) {
	var s stripe.Subscription
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode subscription: %w", err)
	}
	out := &Subscription{
		ID:                 s.ID,
		Status:             string(s.Status),
		CurrentPeriodStart: time.Unix(s.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:   time.Unix(s.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		Metadata:           s.Metadata,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.LatestInvoice != nil {
		out.LatestInvoiceID = s.LatestInvoice.ID
	}
	if s.Items != nil {
		for _, item := range s.Items.Data {
			if item != nil && item.Price != nil && item.Price.Recurring != nil {
				out.Interval = string(item.Price.Recurring.Interval)
				break
			}
		}
	}
	return out, nil
}
