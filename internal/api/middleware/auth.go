package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/marketbay/commerce-api/internal/core/domain"
	"github.com/marketbay/commerce-api/internal/core/ports"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxAccountID = "account_id"
	CtxRole      = "role"
	CtxStoreID   = "store_id"
)

// Auth validates the bearer access token, including the revocation
// blacklist, and injects the verified claims into the request context.
func Auth(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := tokens.VerifyAccess(c.Request().Context(), parts[1])
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrTokenExpired):
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				case errors.Is(err, domain.ErrTokenRevoked):
					return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
				case errors.Is(err, domain.ErrTokenInvalid):
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				return err
			}

			c.Set(CtxAccountID, claims.AccountID)
			c.Set(CtxRole, claims.Role)
			c.Set(CtxStoreID, claims.StoreID)

			return next(c)
		}
	}
}
