package stripe_client

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatflowers/masterclass/pkg/apperr"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"
)

type Options struct {
	SecretKey string
	// APIURL overrides the API endpoint; empty uses the public Stripe API.
	APIURL string
}

// Client wraps the Stripe API for checkout, billing portal and customer calls.
type Client struct {
	api *client.API
}

func New(opts *Options) (*Client, error) {
	if opts == nil {
		return nil, errors.New("opts is nil")
	}
	var backends *stripe.Backends
	if opts.APIURL != "" {
		backends = &stripe.Backends{
			API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
				URL:               stripe.String(opts.APIURL),
				MaxNetworkRetries: stripe.Int64(0),
			}),
		}
	}
	return &Client{api: client.New(opts.SecretKey, backends)}, nil
}

// CheckoutSessionRequest describes a hosted checkout. Payment mode uses inline
// price data; subscription mode uses PriceID.
type CheckoutSessionRequest struct {
	CustomerID           string
	Mode                 string
	Currency             string
	UnitAmount           int64
	ProductName          string
	ProductImage         string
	PriceID              string
	SuccessURL           string
	CancelURL            string
	Metadata             map[string]string
	SubscriptionMetadata map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(req.CustomerID),
		Mode:       stripe.String(req.Mode),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx

	switch req.Mode {
	case ModePayment:
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(req.ProductName),
		}
		if req.ProductImage != "" {
			productData.Images = stripe.StringSlice([]string{req.ProductImage})
		}
		params.PaymentMethodTypes = stripe.StringSlice([]string{"card"})
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(req.UnitAmount),
			},
			Quantity: stripe.Int64(1),
		}}
	case ModeSubscription:
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(req.PriceID),
			Quantity: stripe.Int64(1),
		}}
		if len(req.SubscriptionMetadata) > 0 {
			params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
				Metadata: req.SubscriptionMetadata,
			}
		}
	default:
		return nil, fmt.Errorf("unsupported checkout mode: %s", req.Mode)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", apperr.ErrUpstream, err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (c *Client) CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	s, err := c.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create billing portal session: %v", apperr.ErrUpstream, err)
	}
	return s.URL, nil
}

type CustomerRequest struct {
	Email    string
	Name     string
	Metadata map[string]string
}

// CreateCustomer creates a gateway customer and returns its id.
func (c *Client) CreateCustomer(ctx context.Context, req *CustomerRequest) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(req.Email),
		Name:  stripe.String(req.Name),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	cus, err := c.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create customer: %v", apperr.ErrUpstream, err)
	}
	return cus.ID, nil
}
