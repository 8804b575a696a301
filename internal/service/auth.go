package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ovchar/tradejournal/internal/autherrors"
	"github.com/ovchar/tradejournal/internal/hash"
	"github.com/ovchar/tradejournal/internal/logging"
	"github.com/ovchar/tradejournal/internal/models"
	"github.com/ovchar/tradejournal/internal/mykafka"
	"github.com/ovchar/tradejournal/internal/store"
	"github.com/ovchar/tradejournal/internal/tokens"
	"github.com/ovchar/tradejournal/internal/validation"
)

type AuthService struct {
	Store    store.Store
	Issuer   *tokens.Issuer
	Producer *mykafka.Producer
}

// Credentials are transient request data. Never logged, never cached.
type Credentials struct {
	Username string
	Email    string
	Password string
	Confirm  string
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Register runs the validation checks in a fixed order; the first failure
// determines the reported error. The availability checks read the user set at
// call time, so the unique constraints behind SaveUser remain the real guard
// against a concurrent registration slipping through.
func (s *AuthService) Register(ctx context.Context, creds Credentials) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if creds.Username == "" {
		return nil, autherrors.NewValidation("username is required")
	}
	if !validation.IsEmailValid(creds.Email) {
		return nil, autherrors.NewValidation("invalid email address")
	}
	if !validation.IsPasswordStrong(creds.Password) {
		return nil, autherrors.NewValidation("password too weak")
	}
	if creds.Confirm != "" && creds.Confirm != creds.Password {
		return nil, autherrors.NewValidation("passwords do not match")
	}

	existing, err := s.Store.ListUsers(ctx)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "db_error", "error", err)
		return nil, autherrors.WrapInternal(err, "register")
	}
	if !validation.IsUsernameAvailable(creds.Username, existing) {
		return nil, autherrors.NewValidation("username already taken")
	}
	if !validation.IsEmailAvailable(creds.Email, existing) {
		return nil, autherrors.NewValidation("email already taken")
	}

	pwHash, err := hash.HashPassword(creds.Password)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, autherrors.WrapInternal(err, "register")
	}

	user := models.User{
		Username:     creds.Username,
		Email:        creds.Email,
		PasswordHash: pwHash,
	}
	if err := s.Store.SaveUser(ctx, &user); err != nil {
		if errors.Is(err, autherrors.ErrConflict) {
			l.Warn("register_failed", "status", 400, "reason", "conflict")
			return nil, autherrors.NewValidation("username or email already taken")
		}
		l.Error("register_failed", "status", 500, "reason", "db_error", "error", err)
		return nil, autherrors.WrapInternal(err, "register")
	}

	// No transaction spans user-create, role-assign and token-issue. A crash
	// here leaves a user without a role or tokens; login re-issues tokens.
	role, err := s.Store.GetRoleByName(ctx, "user")
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "role_lookup", "error", err)
		return nil, autherrors.WrapInternal(err, "register")
	}
	if err := s.Store.AssignRole(ctx, user.ID, role.ID); err != nil {
		l.Error("register_failed", "status", 500, "reason", "role_assign", "error", err)
		return nil, autherrors.WrapInternal(err, "register")
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "token_issue", "error", err)
		return nil, autherrors.WrapInternal(err, "register")
	}

	s.publish(ctx, map[string]interface{}{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	}, fmt.Sprint(user.ID))

	l.Info("register_successful", "userID", user.ID)
	return pair, nil
}

// Login resolves by username or email, username taking precedence when both
// are supplied. An unknown identifier and a bad password fail differently so
// the HTTP layer can answer 404 vs 401.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if creds.Password == "" || (creds.Username == "" && creds.Email == "") {
		return nil, autherrors.NewValidation("missing credentials")
	}

	var (
		user *models.User
		err  error
	)
	if creds.Username != "" {
		user, err = s.Store.GetUserByUsername(ctx, creds.Username)
	} else {
		user, err = s.Store.GetUserByEmail(ctx, creds.Email)
	}
	if err != nil {
		if errors.Is(err, autherrors.ErrUserNotFound) {
			l.Warn("login_failed", "status", 404, "reason", "user_not_found")
			return nil, autherrors.ErrUserNotFound
		}
		l.Error("login_failed", "status", 500, "reason", "db_error", "error", err)
		return nil, autherrors.WrapInternal(err, "login")
	}

	if !hash.CheckPassword(user.PasswordHash, creds.Password) {
		l.Warn("login_failed", "status", 401, "reason", "bad_password", "userID", user.ID)
		return nil, autherrors.ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "token_issue", "error", err)
		return nil, autherrors.WrapInternal(err, "login")
	}

	s.publish(ctx, map[string]interface{}{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	}, fmt.Sprint(user.ID))

	l.Info("login_successful", "userID", user.ID)
	return pair, nil
}

// Refresh trades a live refresh token for a new access token; the refresh
// token itself is returned unchanged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	access, err := s.Issuer.Exchange(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")
	if err := s.Store.DeleteRefreshToken(ctx, refreshToken); err != nil {
		l.Error("logout_failed", "status", 500, "error", err)
		return autherrors.WrapInternal(err, "logout")
	}
	s.publish(ctx, map[string]interface{}{"type": "user_logged_out"}, refreshToken)
	return nil
}

// CheckAvailability is read-only: both supplied identifiers must be free.
func (s *AuthService) CheckAvailability(ctx context.Context, username, email string) (bool, error) {
	existing, err := s.Store.ListUsers(ctx)
	if err != nil {
		return false, autherrors.WrapInternal(err, "check availability")
	}
	if username != "" && !validation.IsUsernameAvailable(username, existing) {
		return false, nil
	}
	if email != "" && !validation.IsEmailAvailable(email, existing) {
		return false, nil
	}
	return true, nil
}

func (s *AuthService) issueTokens(ctx context.Context, userID uint) (*TokenPair, error) {
	refresh, refreshExp, err := s.Issuer.NewRefreshToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	access, err := s.Issuer.NewAccessToken(userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, event map[string]interface{}, key string) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, "user_events", key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
