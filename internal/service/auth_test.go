package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ovchar/tradejournal/internal/autherrors"
	"github.com/ovchar/tradejournal/internal/config"
	"github.com/ovchar/tradejournal/internal/models"
	"github.com/ovchar/tradejournal/internal/store"
	"github.com/ovchar/tradejournal/internal/tokens"
)

func initAuthService(t *testing.T) *AuthService {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	s := store.NewGormStore(db)
	issuer := &tokens.Issuer{
		Store:      s,
		JWTSecret:  []byte("test_secret"),
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}
	return &AuthService{Store: s, Issuer: issuer}
}

func validCreds() Credentials {
	return Credentials{
		Username: "test",
		Email:    "test@example.com",
		Password: "Tester42@!",
		Confirm:  "Tester42@!",
	}
}

func TestRegisterSuccess(t *testing.T) {
	svc := initAuthService(t)
	ctx := context.Background()

	pair, err := svc.Register(ctx, validCreds())
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	user, err := svc.Store.GetUserByUsername(ctx, "test")
	require.NoError(t, err)
	require.NotEqual(t, "Tester42@!", user.PasswordHash)
	require.Len(t, user.Roles, 1)
	require.Equal(t, "user", user.Roles[0].Name)
}

func TestRegisterValidationOrder(t *testing.T) {
	svc := initAuthService(t)
	ctx := context.Background()

	creds := validCreds()
	creds.Email = "not an email"
	creds.Password = "weak"
	_, err := svc.Register(ctx, creds)
	require.ErrorIs(t, err, autherrors.ErrValidation)
	require.Contains(t, err.Error(), "email", "email format is checked first")

	creds = validCreds()
	creds.Password = "weak"
	creds.Confirm = "weak"
	_, err = svc.Register(ctx, creds)
	require.ErrorIs(t, err, autherrors.ErrValidation)
	require.Contains(t, err.Error(), "password")

	creds = validCreds()
	creds.Confirm = "Different42@!"
	_, err = svc.Register(ctx, creds)
	require.ErrorIs(t, err, autherrors.ErrValidation)
	require.Contains(t, err.Error(), "match")
}

func TestRegisterConfirmOptional(t *testing.T) {
	svc := initAuthService(t)

	creds := validCreds()
	creds.Confirm = ""
	_, err := svc.Register(context.Background(), creds)
	require.NoError(t, err)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := initAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validCreds())
	require.NoError(t, err)

	creds := validCreds()
	creds.Email = "other@example.com"
	_, err = svc.Register(ctx, creds)
	require.ErrorIs(t, err, autherrors.ErrValidation)
	require.Contains(t, err.Error(), "username")
}

func TestLoginSuccess(t *testing.T) {
	svc := initAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validCreds())
	require.NoError(t, err)

	pair, err := svc.Login(ctx, Credentials{Username: "test", Password: "Tester42@!"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
}

func TestLoginByEmail(t *testing.T) {
	svc := initAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validCreds())
	require.NoError(t, err)

	pair, err := svc.Login(ctx, Credentials{Email: "test@example.com", Password: "Tester42@!"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := initAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validCreds())
	require.NoError(t, err)

	_, err = svc.Login(ctx, Credentials{Username: "test", Password: "wrong"})
	require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := initAuthService(t)

	_, err := svc.Login(context.Background(), Credentials{Username: "nobody", Password: "Tester42@!"})
	require.ErrorIs(t, err, autherrors.ErrUserNotFound)
}

func TestLoginMissingFields(t *testing.T) {
	svc := initAuthService(t)

	_, err := svc.Login(context.Background(), Credentials{Username: "test"})
	require.ErrorIs(t, err, autherrors.ErrValidation)

	_, err = svc.Login(context.Background(), Credentials{Password: "Tester42@!"})
	require.ErrorIs(t, err, autherrors.ErrValidation)
}

func TestLoginReplacesRefreshToken(t *testing.T) {
	svc := initAuthService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, validCreds())
	require.NoError(t, err)

	second, err := svc.Login(ctx, Credentials{Username: "test", Password: "Tester42@!"})
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, autherrors.ErrRefreshTokenInvalid)

	pair, err := svc.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, second.RefreshToken, pair.RefreshToken, "refresh returns the same refresh token")
	require.NotEmpty(t, pair.AccessToken)
}

func TestLogout(t *testing.T) {
	svc := initAuthService(t)
	ctx := context.Background()

	pair, err := svc.Register(ctx, validCreds())
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, autherrors.ErrRefreshTokenInvalid)
}

func TestCheckAvailability(t *testing.T) {
	svc := initAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validCreds())
	require.NoError(t, err)

	available, err := svc.CheckAvailability(ctx, "test", "")
	require.NoError(t, err)
	require.False(t, available)

	available, err = svc.CheckAvailability(ctx, "", "test@example.com")
	require.NoError(t, err)
	require.False(t, available)

	available, err = svc.CheckAvailability(ctx, "fresh", "fresh@example.com")
	require.NoError(t, err)
	require.True(t, available)
}

func TestSweeperDeletesExpired(t *testing.T) {
	svc := initAuthService(t)
	ctx := context.Background()

	gs := svc.Store.(*store.GormStore)
	user := models.User{Username: "sweep", Email: "sweep@example.com", PasswordHash: "x"}
	require.NoError(t, gs.SaveUser(ctx, &user))
	require.NoError(t, gs.SaveRefreshToken(ctx, "stale", user.ID, time.Now().Add(-time.Hour)))

	sweepCtx, cancel := context.WithCancel(ctx)
	sweeper := &TokenSweeper{Store: gs, Period: 10 * time.Millisecond}
	go sweeper.Run(sweepCtx)

	require.Eventually(t, func() bool {
		_, err := gs.GetRefreshToken(ctx, "stale")
		return err != nil
	}, time.Second, 20*time.Millisecond)
	cancel()
}
