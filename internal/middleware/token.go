package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/results-app/internal/models"
	appErrors "github.com/noah-isme/results-app/pkg/errors"
	"github.com/noah-isme/results-app/pkg/response"
)

// AccessTokenHeader carries the token issued by login and register.
const AccessTokenHeader = "X-Access-Token"

// ContextUserKey is the gin context key storing the token claims.
const ContextUserKey = "currentUser"

// TokenValidator checks access tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.AccessClaims, error)
}

// AccessToken protects routes by requiring a valid X-Access-Token header.
func AccessToken(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(AccessTokenHeader))
		if token == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing access token"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// Claims returns the claims stored by AccessToken.
func Claims(c *gin.Context) (*models.AccessClaims, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.AccessClaims)
	return claims, ok && claims != nil
}
