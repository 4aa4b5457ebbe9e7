package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/marketbay/commerce-api/internal/api/middleware"
)

// bearerToken extracts the raw bearer token from the Authorization header,
// or "" when the header is absent or malformed.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// ctxAccountID extracts the account id injected by the Auth middleware.
// An empty id means the middleware never ran; fail fast with 401 before any
// service call.
func ctxAccountID(c echo.Context) (string, error) {
	accountID, _ := c.Get(middleware.CtxAccountID).(string)
	if accountID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return accountID, nil
}
