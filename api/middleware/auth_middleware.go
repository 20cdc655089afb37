package middleware

import (
	"net/http"
	"strings"

	"astrotalk/internal/service"

	"github.com/labstack/echo/v4"
)

type TokenVerifier interface {
	Verify(token string) (service.Identity, error)
}

type AuthMiddleware struct {
	Verifier TokenVerifier
}

// RequireAuth resolves the bearer token and stores the identity on the
// context. Every failure is a plain 401.
func (m AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.Verifier == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		token := extractBearerToken(c.Request())
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		identity, err := m.Verifier.Verify(token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		SetIdentity(c, identity)
		return next(c)
	}
}

func extractBearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
