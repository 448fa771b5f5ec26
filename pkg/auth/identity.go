// Package auth carries the caller identity resolved from the session token.
package auth

import "context"

// Identity is the authenticated caller as asserted by the identity provider.
type Identity struct {
	// Subject is the identity provider's user id (the User's external id).
	Subject string
	Email   string
}

type ctxKey struct{}

// GinKey is the gin.Context key holding *Identity.
const GinKey = "identity"

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the caller identity, or nil when the request is anonymous.
func FromContext(ctx context.Context) *Identity {
	if ctx == nil {
		return nil
	}
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}

// Subject returns the caller's external id or an empty string.
func Subject(ctx context.Context) string {
	if id := FromContext(ctx); id != nil {
		return id.Subject
	}
	return ""
}
