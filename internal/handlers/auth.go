package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ovchar/tradejournal/internal/autherrors"
	"github.com/ovchar/tradejournal/internal/logging"
	"github.com/ovchar/tradejournal/internal/service"
)

type AuthHandler struct {
	Svc *service.AuthService
}

type tokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Register handles POST /users. Any failing validation check answers 400 with
// the first failure's message.
func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Confirm  string `json:"confirm"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	pair, err := h.Svc.Register(ctx, service.Credentials{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Confirm:  req.Confirm,
	})
	if err != nil {
		return authError(c, err)
	}

	return c.JSON(http.StatusOK, tokenResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Login handles POST /auth: 400 on missing fields, 404 when no such user,
// 401 on a bad password.
func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	pair, err := h.Svc.Login(ctx, service.Credentials{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return authError(c, err)
	}

	return c.JSON(http.StatusOK, tokenResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh handles POST /auth/refresh: 403 whether the token is missing,
// unknown or expired, with the reason in the body.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusForbidden, "refresh token missing")
	}

	pair, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return authError(c, err)
	}

	return c.JSON(http.StatusOK, tokenResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh token missing")
	}

	if err := h.Svc.Logout(ctx, req.RefreshToken); err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// CheckCredentials handles GET /auth/check-credentials?username=&email=.
func (h *AuthHandler) CheckCredentials(c echo.Context) error {
	ctx := c.Request().Context()

	username := c.QueryParam("username")
	email := c.QueryParam("email")
	if username == "" && email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username or email required")
	}

	available, err := h.Svc.CheckAvailability(ctx, username, email)
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available": available})
}

// authError maps the service error taxonomy onto HTTP statuses. Internal
// detail never reaches the client.
func authError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, autherrors.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, autherrors.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, autherrors.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid password")
	case errors.Is(err, autherrors.ErrRefreshTokenExpired):
		return echo.NewHTTPError(http.StatusForbidden, "refresh token expired")
	case errors.Is(err, autherrors.ErrRefreshTokenInvalid):
		return echo.NewHTTPError(http.StatusForbidden, "refresh token invalid")
	case errors.Is(err, autherrors.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	default:
		logging.FromContext(c.Request().Context()).Error("internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
