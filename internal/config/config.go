// Package config provides centralized configuration loaded from environment
// variables. The variable names match the .env files of existing deployments.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingToken is returned by Load when API_TOKEN is not set.
var ErrMissingToken = errors.New("API_TOKEN must be set")

// DefaultTargetRoles is the allow-list used when TARGET_ROLES is unset.
var DefaultTargetRoles = []string{"officer", "armycommander", "spotter", "tankcommander"}

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Game-server API
	APIBaseURL   string
	APIToken     string
	APIRateLimit int // requests per minute, 0 = unlimited
	APITimeout   time.Duration

	// Scheduling
	PollInterval          time.Duration
	StartThresholdMinutes int
	SendOffsetMinutes     int
	TargetRoles           []string // lowercased

	// Message
	MessageContent string // overrides the language table when set
	Language       string
	LanguageFile   string

	// Status server, empty = disabled
	StatusAddr string

	LogLevel slog.Level
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	token := envOr("API_TOKEN", "")
	if token == "" {
		return nil, ErrMissingToken
	}

	level := slog.LevelInfo
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
		}
	}

	roles := envList("TARGET_ROLES", DefaultTargetRoles)
	for i, r := range roles {
		roles[i] = strings.ToLower(r)
	}

	return &Config{
		APIBaseURL:   strings.TrimRight(envOr("API_BASE_URL", "http://localhost:8010"), "/"),
		APIToken:     token,
		APIRateLimit: envInt("API_RATE_LIMIT", 0),
		APITimeout:   time.Duration(envPositiveInt("API_TIMEOUT_SECONDS", 15)) * time.Second,

		PollInterval:          time.Duration(envPositiveInt("SLEEPTIMER", 2)) * time.Minute,
		StartThresholdMinutes: envInt("START_TIME", 90),
		SendOffsetMinutes:     envInt("TARGET_TIME", 10),
		TargetRoles:           roles,

		MessageContent: envOr("MESSAGE_CONTENT", ""),
		Language:       envOr("BOT_LANG", "en"),
		LanguageFile:   envOr("LANGUAGE_FILE", "language.json"),

		StatusAddr: envOr("STATUS_ADDR", ""),

		LogLevel: level,
	}, nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

// envPositiveInt is envInt for values where zero or less is meaningless.
func envPositiveInt(key string, fallback int) int {
	if n := envInt(key, fallback); n > 0 {
		return n
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return append([]string(nil), fallback...)
}
