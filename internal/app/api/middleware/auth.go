package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/pkg/auth"
	"github.com/fatflowers/masterclass/pkg/config"
	"github.com/fatflowers/masterclass/pkg/logctx"
)

// SessionCookie is the cookie the identity provider's frontend SDK stores the session token in.
const SessionCookie = "__session"

type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates session tokens issued by the identity provider.
type TokenVerifier struct {
	key    any
	method string
	issuer string
}

// NewTokenVerifier builds a verifier from config. RS256 is used when a PEM
// public key is configured, HS256 with the shared secret otherwise. It
// returns nil when neither is set, in which case every request is anonymous.
func NewTokenVerifier(cfg *config.Config, log *zap.SugaredLogger) (*TokenVerifier, error) {
	switch {
	case cfg.Auth.JWTPublicKey != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.Auth.JWTPublicKey))
		if err != nil {
			return nil, fmt.Errorf("invalid auth.jwt_public_key: %w", err)
		}
		return &TokenVerifier{key: key, method: jwt.SigningMethodRS256.Alg(), issuer: cfg.Auth.Issuer}, nil
	case cfg.Auth.JWTSecret != "":
		return &TokenVerifier{key: []byte(cfg.Auth.JWTSecret), method: jwt.SigningMethodHS256.Alg(), issuer: cfg.Auth.Issuer}, nil
	default:
		log.Warnw("auth not configured, all requests are anonymous")
		return nil, nil
	}
}

// Verify parses token and returns the caller identity.
func (v *TokenVerifier) Verify(token string) (*auth.Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{v.method}), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	var claims sessionClaims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return v.key, nil }, opts...); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &auth.Identity{Subject: claims.Subject, Email: claims.Email}, nil
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleware attaches the caller identity when a valid session token is
// present. It never aborts: services decide whether anonymous callers are allowed.
func AuthMiddleware(v *TokenVerifier, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if v == nil || token == "" {
			c.Next()
			return
		}
		id, err := v.Verify(token)
		if err != nil {
			logctx.FromGin(c, base).Debugw("session token rejected", "error", err)
			c.Next()
			return
		}
		c.Set(auth.GinKey, id)
		ctx := auth.WithIdentity(c.Request.Context(), id)
		ctx = logctx.WithUserID(ctx, id.Subject)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
