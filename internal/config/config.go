// Package config loads application configuration from the environment,
// with a .env file picked up automatically when present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Relay server configuration
	Port string

	// Presence client configuration
	RelayURL           string
	RelayEnabled       bool
	CursorSendInterval time.Duration

	// Board persistence
	BoardPath    string
	IdentityPath string

	// AI collaborator configuration
	AnthropicAPIKey string
	AIModel         string
}

// Load reads configuration from the environment. Every field has a
// default; nothing is required.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", "8080"),
		RelayURL:           getEnv("RELAY_URL", ""),
		RelayEnabled:       getEnvAsBool("RELAY_ENABLED", false),
		CursorSendInterval: getEnvAsDuration("CURSOR_SEND_INTERVAL", 0),
		BoardPath:          getEnv("BOARD_PATH", "collab-board.json"),
		IdentityPath:       getEnv("IDENTITY_PATH", "collab-board-identity.json"),
		AnthropicAPIKey:    getEnv("ANTHROPIC_API_KEY", ""),
		AIModel:            getEnv("AI_MODEL", ""),
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as a bool or returns a
// default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration or
// returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
