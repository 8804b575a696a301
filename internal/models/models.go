package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"unique;not null"          json:"username"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Roles        []Role    `gorm:"many2many:user_roles"     json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Role struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"unique;not null"          json:"name"`
}

// One live refresh token per user: user_id carries a unique index so a stale
// row cannot coexist with its replacement.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"           json:"id"`
	Token     string    `gorm:"unique;not null"      json:"token"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"             json:"expires_at"`
}

type Project struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"index;not null"           json:"user_id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Trade struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID  uint       `gorm:"index;not null"           json:"project_id"`
	UserID     uint       `gorm:"index;not null"           json:"user_id"`
	Symbol     string     `gorm:"not null"                 json:"symbol"`
	Strategy   string     `gorm:"not null"                 json:"strategy"`
	OptionType string     `json:"option_type"`
	Strike     float64    `json:"strike"`
	Expiry     time.Time  `json:"expiry"`
	Quantity   int        `gorm:"not null"                 json:"quantity"`
	OpenPrice  float64    `json:"open_price"`
	ClosePrice float64    `json:"close_price"`
	OpenedAt   time.Time  `json:"opened_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	Fees       float64    `json:"fees"`
	Notes      string     `json:"notes"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
