package config

import (
	"os"
	"sync"
	"time"

	"biwenger-tracker/internal/constants"
	"biwenger-tracker/internal/domain"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	LeagueName      string
	BaseURL         string
	Competition     string
	Lang            string
	Score           string
	PriorSeasonID   string
	PriorSeasonName string
	RequestTimeout  time.Duration
	DBPath          string
	ServerPort      string
	LogLevel        string
}

var (
	envOnce sync.Once
	envErr  error
)

// loadEnv reads .env once per process; variables already set win.
func loadEnv() error {
	envOnce.Do(func() { envErr = godotenv.Load() })
	return envErr
}

// LogLevel is readable before Load so the logger can be built first.
func LogLevel() string {
	_ = loadEnv()
	return getEnv("LOG_LEVEL", "info")
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := loadEnv(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		LeagueName:      getEnv("BIWENGER_LEAGUE_NAME", ""),
		BaseURL:         getEnv("BIWENGER_BASE_URL", "https://biwenger.as.com/api/v2"),
		Competition:     getEnv("BIWENGER_COMPETITION", "la-liga"),
		Lang:            getEnv("BIWENGER_LANG", "es"),
		Score:           getEnv("BIWENGER_SCORE", "5"),
		PriorSeasonID:   getEnv("BIWENGER_PRIOR_SEASON_ID", "2022"),
		PriorSeasonName: getEnv("BIWENGER_PRIOR_SEASON_NAME", "Temporada 2021/2022"),
		DBPath:          getEnv("DB_PATH", ""),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        LogLevel(),
		RequestTimeout:  constants.ExternalAPITimeout,
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, &domain.ConfigurationError{Key: "REQUEST_TIMEOUT", Reason: "must be a positive duration like 10s"}
		}
		cfg.RequestTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("league", cfg.LeagueName).
		Str("competition", cfg.Competition).
		Str("db_path", cfg.DBPath).
		Str("log_level", cfg.LogLevel).
		Dur("request_timeout", cfg.RequestTimeout).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.LeagueName == "" {
		return &domain.ConfigurationError{Key: "BIWENGER_LEAGUE_NAME", Reason: "is required"}
	}
	if c.BaseURL == "" {
		return &domain.ConfigurationError{Key: "BIWENGER_BASE_URL", Reason: "is required"}
	}
	if c.Competition == "" {
		return &domain.ConfigurationError{Key: "BIWENGER_COMPETITION", Reason: "is required"}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
