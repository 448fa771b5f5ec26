package clerk_webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	svix "github.com/svix/svix-webhooks/go"
)

// Header names required on every delivery.
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

const TypeUserCreated = "user.created"

var (
	ErrMissingHeaders   = errors.New("svix headers missing")
	ErrInvalidSignature = errors.New("svix signature verification failed")
)

// Event is a verified identity-provider event.
type Event struct {
	Type   string          `json:"type"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// UserData is the payload of user.* events.
type UserData struct {
	ID                    string         `json:"id"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
}

// PrimaryEmail returns the primary address, falling back to the first one listed.
func (u *UserData) PrimaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID != "" && e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

// FullName joins first and last name, trimming missing parts.
func (u *UserData) FullName() string {
	var first, last string
	if u.FirstName != nil {
		first = *u.FirstName
	}
	if u.LastName != nil {
		last = *u.LastName
	}
	return strings.TrimSpace(first + " " + last)
}

// Verifier authenticates svix-signed deliveries.
type Verifier struct {
	wh *svix.Webhook
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("clerk webhook secret is empty")
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid clerk webhook secret: %w", err)
	}
	return &Verifier{wh: wh}, nil
}

// Verify checks the three signing headers and the signature over payload, then decodes the event.
func (v *Verifier) Verify(payload []byte, headers http.Header) (*Event, error) {
	if headers.Get(HeaderID) == "" || headers.Get(HeaderTimestamp) == "" || headers.Get(HeaderSignature) == "" {
		return nil, ErrMissingHeaders
	}
	if err := v.wh.Verify(payload, headers); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("failed to decode clerk event: %w", err)
	}
	return &evt, nil
}

// Sign returns headers for payload as the identity provider would send them.
// Used by local tooling and tests.
func (v *Verifier) Sign(msgID string, at time.Time, payload []byte) (http.Header, error) {
	sig, err := v.wh.Sign(msgID, at, payload)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set(HeaderID, msgID)
	h.Set(HeaderTimestamp, fmt.Sprintf("%d", at.Unix()))
	h.Set(HeaderSignature, sig)
	return h, nil
}

// DecodeUser decodes the data of a user.* event.
func (e *Event) DecodeUser() (*UserData, error) {
	var u UserData
	if err := json.Unmarshal(e.Data, &u); err != nil {
		return nil, fmt.Errorf("failed to decode user data: %w", err)
	}
	if u.ID == "" {
		return nil, errors.New("user id missing from event")
	}
	return &u, nil
}
