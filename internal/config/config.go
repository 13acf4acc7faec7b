package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// OpenAI-compatible completion service
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	DefaultChatModel string

	// Assistant identity (seeds the settings row on first boot)
	AIName        string
	AIDescription string

	// Chat streaming
	ChatUpstreamTimeoutSeconds int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                       getEnvOrDefault("PORT", "8080"),
		Env:                        getEnvOrDefault("ENV", "development"),
		DatabaseURL:                mustGetEnv("DATABASE_URL"),
		RedisURL:                   mustGetEnv("REDIS_URL"),
		JWTSecret:                  mustGetEnv("JWT_SECRET"),
		OpenAIAPIKey:               getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL:              getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		DefaultChatModel:           getEnvOrDefault("DEFAULT_CHAT_MODEL", "gpt-4o"),
		AIName:                     getEnvOrDefault("AI_NAME", "Poiesis Pete"),
		AIDescription:              getEnvOrDefault("AI_DESCRIPTION", "AI tutor for Poiesis Education"),
		ChatUpstreamTimeoutSeconds: getEnvAsIntOrDefault("CHAT_UPSTREAM_TIMEOUT_SECONDS", 60),
		FrontendURL:                getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
