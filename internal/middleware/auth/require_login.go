package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ovchar/tradejournal/internal/autherrors"
	"github.com/ovchar/tradejournal/internal/tokens"
)

type Middleware struct {
	Issuer *tokens.Issuer
}

// RequireLogin verifies the bearer access token and puts the user id into the
// echo context under "userID".
func (m *Middleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, err := bearerToken(c)
		if err != nil {
			return err
		}

		userID, err := m.Issuer.ParseAccessToken(raw)
		if err != nil {
			if errors.Is(err, autherrors.ErrTokenExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "access token expired")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		c.Set("userID", userID)
		return next(c)
	}
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "malformed authorization header")
	}
	return token, nil
}

func UserID(c echo.Context) (uint, error) {
	id, ok := c.Get("userID").(uint)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return id, nil
}
