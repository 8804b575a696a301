package tokens

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovchar/tradejournal/internal/autherrors"
	"github.com/ovchar/tradejournal/internal/store"
)

const refreshTokenBytes = 32

// Issuer hands out the two token kinds: a signed, self-contained access token
// and an opaque refresh token persisted through the store. The signing secret
// is loaded once at startup and read-only after that.
type Issuer struct {
	Store      store.Store
	JWTSecret  []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (i *Issuer) NewAccessToken(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.AccessTTL)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.JWTSecret)
	if err != nil {
		return "", fmt.Errorf("cannot sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken reports expiry distinctly from any other defect so callers
// can tell "re-login" apart from "reject".
func (i *Issuer) ParseAccessToken(raw string) (uint, error) {
	var claims jwt.RegisteredClaims
	t, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.JWTSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, autherrors.ErrTokenExpired
		}
		return 0, autherrors.ErrTokenInvalid
	}
	if !t.Valid {
		return 0, autherrors.ErrTokenInvalid
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, autherrors.ErrTokenInvalid
	}
	return uint(userID), nil
}

// NewRefreshToken mints an opaque random token and persists it, replacing any
// token the user already holds.
func (i *Issuer) NewRefreshToken(ctx context.Context, userID uint) (string, time.Time, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, fmt.Errorf("cannot generate refresh token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	expiresAt := time.Now().Add(i.RefreshTTL)

	if err := i.Store.SaveRefreshToken(ctx, token, userID, expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Exchange trades a live refresh token for a fresh access token. The refresh
// token itself stays as-is. An expired token is deleted on presentation, so a
// retry with the same token reads as invalid rather than expired.
func (i *Issuer) Exchange(ctx context.Context, refreshToken string) (string, error) {
	stored, err := i.Store.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	if time.Now().After(stored.ExpiresAt) {
		if err := i.Store.DeleteRefreshToken(ctx, refreshToken); err != nil {
			return "", err
		}
		return "", autherrors.ErrRefreshTokenExpired
	}

	return i.NewAccessToken(stored.UserID)
}
