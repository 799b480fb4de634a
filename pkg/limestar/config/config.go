package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port         int    `json:"port"`
	DatabasePath string `json:"database_path"`

	OpenAIAPIKey    string `json:"-"`
	OpenAIBaseURL   string `json:"openai_base_url"`
	OpenAIModelName string `json:"openai_model_name"`

	TelegramBotToken     string `json:"-"`
	TelegramAllowedUsers []int64 `json:"telegram_allowed_users"`

	// WebAdminPassword enables the authenticated web surface; empty disables it.
	WebAdminPassword string `json:"-"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvAsInt("PORT", 8080),
		DatabasePath:     getEnv("DATABASE_PATH", "limestar.db"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModelName:  getEnv("OPENAI_MODEL_NAME", "gpt-4o-mini"),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebAdminPassword: getEnv("WEB_ADMIN_PASSWORD", ""),
	}
	cfg.TelegramAllowedUsers = parseUserIDs(getEnv("TELEGRAM_ALLOWED_USERS", ""))

	return cfg, nil
}

// parseUserIDs parses a comma-separated whitelist of Telegram user IDs
func parseUserIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt gets an environment variable as integer with a fallback value
func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
