package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizboard-backend/internal/response"
	"github.com/stemsi/quizboard-backend/internal/service"
)

const (
	// ContextKeyClaims is the Gin context key for JWT claims.
	ContextKeyClaims = "claims"
)

// RequireJWT validates the bearer token from the Authorization header.
// Every failure gets the same 401 body; the reason only reaches the debug log.
func RequireJWT(authService *service.AuthService, log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "jwt_middleware").Logger()

	return func(c *gin.Context) {
		claims, err := authService.Authenticate(c.GetHeader("Authorization"))
		if err != nil {
			log.Debug().
				Err(err).
				Str("request_id", response.RequestID(c)).
				Str("path", c.FullPath()).
				Msg("Rejected request")
			response.AbortFail(c, http.StatusUnauthorized, response.ErrUnauthorized)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}
