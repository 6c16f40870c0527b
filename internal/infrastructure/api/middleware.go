package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tidemarkhq/tidemark/internal/infrastructure/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// CallerContextKey is the context key for the validated token claims.
	CallerContextKey contextKey = "caller_claims"
)

// AuthConfig holds authentication middleware configuration.
type AuthConfig struct {
	JWTValidator *auth.JWTValidator
}

// AdminAuthMiddleware requires a valid service token with the admin role.
// protects mutating operational endpoints like forced recomputes.
func AdminAuthMiddleware(config AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := auth.ExtractBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			claims, err := config.JWTValidator.ValidateToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			if !claims.IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "admin role required")
			}

			// store in context for downstream handlers
			c.Set(string(CallerContextKey), claims)

			return next(c)
		}
	}
}

// GetCallerClaims retrieves the validated claims from context.
// returns nil if the request was not authenticated.
func GetCallerClaims(c echo.Context) *auth.ServiceClaims {
	if val := c.Get(string(CallerContextKey)); val != nil {
		if claims, ok := val.(*auth.ServiceClaims); ok {
			return claims
		}
	}
	return nil
}
