package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ovchar/tradejournal/internal/autherrors"
	"github.com/ovchar/tradejournal/internal/models"
)

// Store is the data-access boundary the auth core talks through. Everything
// behind it is storage detail; callers only ever see typed records.
type Store interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	GetRoleByName(ctx context.Context, name string) (*models.Role, error)
	AssignRole(ctx context.Context, userID, roleID uint) error
	GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	SaveRefreshToken(ctx context.Context, token string, userID uint, expiresAt time.Time) error
	DeleteRefreshToken(ctx context.Context, token string) error
}

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Preload("Roles").Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, autherrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Preload("Roles").Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, autherrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &user, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.DB.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

func (s *GormStore) SaveUser(ctx context.Context, user *models.User) error {
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return autherrors.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *GormStore) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := s.DB.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("role %q not found: %w", name, err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &role, nil
}

func (s *GormStore) AssignRole(ctx context.Context, userID, roleID uint) error {
	assoc := map[string]any{"user_id": userID, "role_id": roleID}
	if err := s.DB.WithContext(ctx).Table("user_roles").Create(assoc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *GormStore) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var stored models.RefreshToken
	if err := s.DB.WithContext(ctx).Where("token = ?", token).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, autherrors.ErrRefreshTokenInvalid
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &stored, nil
}

// SaveRefreshToken replaces whatever token the user currently holds. Delete
// and insert run in one transaction so the one-token-per-user invariant holds
// even against the unique index on user_id.
func (s *GormStore) SaveRefreshToken(ctx context.Context, token string, userID uint, expiresAt time.Time) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.RefreshToken{
			Token:     token,
			UserID:    userID,
			ExpiresAt: expiresAt,
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return autherrors.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteRefreshToken(ctx context.Context, token string) error {
	if err := s.DB.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{}).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpiredRefreshTokens backs the periodic sweeper; the request path only
// ever deletes lazily.
func (s *GormStore) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("db error: %w", res.Error)
	}
	return res.RowsAffected, nil
}
