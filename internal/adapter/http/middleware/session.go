package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"taskmanager/internal/adapter/http/helper"
	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
	"taskmanager/pkg/auth"
	ct "taskmanager/pkg/context"
	"taskmanager/pkg/tracing"
)

const principalKey = "principal"

// SessionAuth verifies the session cookie, then the bearer header when the
// cookie is absent or rejected, and stores the first valid principal on the
// request. Requests without a valid session stop here with 401.
func SessionAuth(idp port.IdentityProvider, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		tokens := auth.TokensFromRequest(c.Request)

		if len(tokens) == 0 {
			helper.SendUnauthorized(c)
			return
		}

		var (
			principal domain.Principal
			err       error
		)

		// A stale cookie must not shadow a valid bearer token.
		for _, token := range tokens {
			if principal, err = idp.VerifySession(token); err == nil {
				break
			}
		}

		if err != nil {
			logger.Debug("Session rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))

			helper.SendUnauthorized(c)
			return
		}

		tracing.AddUserAttributes(trace.SpanFromContext(c.Request.Context()), principal.UserID)

		c.Set(principalKey, principal)
		c.Set(ct.UserIDKey, principal.UserID)
		GetCurrent(c).Set(ct.UserIDKey, principal.UserID)

		c.Next()
	}
}

// GetPrincipal returns the verified caller, or the zero Principal when the
// request did not pass SessionAuth.
func GetPrincipal(c *gin.Context) domain.Principal {
	if value, ok := c.Get(principalKey); ok {
		if principal, ok := value.(domain.Principal); ok {
			return principal
		}
	}

	return domain.Principal{}
}
