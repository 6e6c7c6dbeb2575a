package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings. It is built once at startup and
// passed by reference; nothing mutates it afterwards.
type Config struct {
	GeminiAPIKey   string
	SerpAPIKey     string // optional; web search fallback is disabled without it
	DatabaseURL    string
	HTTPPort       string
	LLMModel       string
	EmbeddingModel string
	LogLevel       string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		SerpAPIKey:     getEnv("SERPAPI_API_KEY", ""),
		DatabaseURL:    getEnv("DATABASE_URL", "ragchat.db"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		LLMModel:       getEnv("LLM_MODEL", "gemini-2.0-flash"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		LogLevel:       getEnv("LOG_LEVEL", "INFO"),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
