// Package auth resolves bearer tokens to a caller identity and guards gin
// routes with it.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	sharederrors "github.com/ydbloom/commerce-api/internal/shared/errors"
)

// ErrUnknownToken indicates the presented token resolves to no identity.
var ErrUnknownToken = errors.New("unknown token")

// Identity is the authenticated caller.
type Identity struct {
	UserID int64
	Staff  bool
}

// TokenStore abstracts token-to-identity resolution.
type TokenStore interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}

// identityKey is the gin context key the middleware stores the identity under.
const identityKey = "auth.identity"

// FromContext returns the identity the middleware attached, if any.
func FromContext(c *gin.Context) (Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := value.(Identity)
	return identity, ok
}

// Middleware authenticates "Authorization: Bearer <token>" against the
// store and aborts unauthenticated requests with a problem response.
func Middleware(store TokenStore) gin.HandlerFunc {
	responder := sharederrors.DefaultResponder
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			responder.Respond(c, sharederrors.ErrUnauthorized.WithDetail("missing bearer token"))
			c.Abort()
			return
		}
		identity, err := store.Resolve(c.Request.Context(), token)
		if err != nil {
			responder.Respond(c, sharederrors.ErrUnauthorized.WithDetail("invalid bearer token"))
			c.Abort()
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireStaff rejects authenticated callers without the staff flag. It must
// run after Middleware.
func RequireStaff() gin.HandlerFunc {
	responder := sharederrors.DefaultResponder
	return func(c *gin.Context) {
		identity, ok := FromContext(c)
		if !ok || !identity.Staff {
			responder.Respond(c, sharederrors.ErrForbidden.WithDetail("staff access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
