package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ovchar/tradejournal/internal/models"
)

type Config struct {
	DB_HOST       string
	DB_PORT       string
	DB_USER       string
	DB_PASSWORD   string
	DB_NAME       string
	ES_URL        string
	ES_USER       string
	ES_PASSWORD   string
	KAFKA_ADDRESS string
	JWT_SECRET    string
	ACCESS_TTL    time.Duration
	REFRESH_TTL   time.Duration
	SWEEP_PERIOD  time.Duration
	LOG_LEVEL     string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DB_HOST:       os.Getenv("DB_HOST"),
		DB_PORT:       os.Getenv("DB_PORT"),
		DB_USER:       os.Getenv("DB_USER"),
		DB_PASSWORD:   os.Getenv("DB_PASSWORD"),
		DB_NAME:       os.Getenv("DB_NAME"),
		ES_URL:        os.Getenv("ES_URL"),
		ES_USER:       os.Getenv("ES_USER"),
		ES_PASSWORD:   os.Getenv("ES_PASSWORD"),
		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),
		JWT_SECRET:    os.Getenv("JWT_SECRET"),
		ACCESS_TTL:    durationEnv("ACCESS_TTL_SECONDS", 86400*time.Second),
		REFRESH_TTL:   durationEnv("REFRESH_TTL_SECONDS", 7*24*time.Hour),
		SWEEP_PERIOD:  durationEnv("SWEEP_PERIOD_SECONDS", time.Hour),
		LOG_LEVEL:     os.Getenv("LOG_LEVEL"),
	}

	if config.JWT_SECRET == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	return config, nil
}

func durationEnv(name string, def time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		log.Printf("Notice: invalid %s=%q, using default", name, raw)
		return def
	}
	return time.Duration(secs) * time.Second
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.RefreshToken{},
		&models.Project{},
		&models.Trade{},
	); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return SeedRoles(db)
}

func SeedRoles(db *gorm.DB) error {
	for _, name := range []string{"user", "admin"} {
		role := models.Role{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("cannot seed role %q: %w", name, err)
		}
	}
	return nil
}
