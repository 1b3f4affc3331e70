package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hanejj/MealCheck/internal/account"
	"github.com/hanejj/MealCheck/internal/apperr"
)

const accountKey = "auth.account"

// AccountLoader resolves the caller's current account state. Loading a
// fresh snapshot per request means a deactivation or deletion takes effect
// on the next call, not at token expiry.
type AccountLoader interface {
	Get(ctx context.Context, id int64) (*account.Account, error)
}

// RequireAccount enforces bearer JWT tokens and stashes the caller's
// account snapshot on the request context.
func RequireAccount(signingKey, issuer string, loader AccountLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token", "code": "AUTHENTICATION"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "AUTHENTICATION"})
			return
		}
		acct, err := loader.Get(c.Request.Context(), claims.AccountID)
		if err != nil {
			// A store outage is not the caller's fault; only a token that
			// resolves to no account is an authentication failure.
			if apperr.KindOf(err) == apperr.Storage {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "temporary failure, retry later", "code": "STORAGE"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "AUTHENTICATION"})
			return
		}
		c.Set(accountKey, acct)
		c.Next()
	}
}

// CurrentAccount returns the snapshot stashed by RequireAccount, or nil.
func CurrentAccount(c *gin.Context) *account.Account {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil
	}
	acct, _ := v.(*account.Account)
	return acct
}
