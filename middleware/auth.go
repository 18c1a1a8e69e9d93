package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"luxwise/cv-back/apperr"
	"luxwise/cv-back/model"
	"luxwise/cv-back/respond"
)

const AuthCookie = "auth_token"

type AccountResolver interface {
	Account(ctx context.Context, token string) (*model.Account, error)
}

// NewAuthMiddleware accepts a bearer token or the auth_token cookie and sets
// accountID and account for the handlers
func NewAuthMiddleware(r AccountResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(AuthCookie)
		}

		if token == "" {
			respond.Error(c, apperr.Unauthorized("Not authenticated"))
			return
		}

		acc, err := r.Account(c.Request.Context(), token)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.Set("accountID", acc.ID)
		c.Set("account", acc)
		c.Next()
	}
}

func bearer(h string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

// AccountFrom returns the account set by the auth middleware
func AccountFrom(c *gin.Context) *model.Account {
	if v, ok := c.Get("account"); ok {
		if acc, ok := v.(*model.Account); ok {
			return acc
		}
	}

	return nil
}
