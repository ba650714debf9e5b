package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-admissions-api/pkg/errors"
	"github.com/noah-isme/sma-admissions-api/pkg/response"
)

// SharedSecret guards machine-to-machine endpoints (webhooks, external cron)
// with a static bearer secret. An empty secret disables the route entirely.
func SharedSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, "endpoint not configured"))
			c.Abort()
			return
		}
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
