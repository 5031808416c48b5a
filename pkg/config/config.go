package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DatabaseURL      string
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	GoogleClientID     string
	GoogleClientSecret string

	ChromaAPIKey   string
	ChromaTenant   string
	ChromaDatabase string

	GeminiApiKey  string
	AIProvider    string
	OllamaBaseURL string
	OllamaModel   string

	EncryptionKey string

	// Governor limits
	DeepSyncLimit int // users deep-syncing at once
	APICallLimit  int // in-flight remote calls app-wide

	// Safety-net loop timing
	SyncInterval    time.Duration
	SyncGracePeriod time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	accessExpiry := 15 * time.Minute
	if exp := os.Getenv("JWT_ACCESS_EXPIRY"); exp != "" {
		if parsed, err := time.ParseDuration(exp); err == nil {
			accessExpiry = parsed
		}
	}

	refreshExpiry := 168 * time.Hour // 7 days
	if exp := os.Getenv("JWT_REFRESH_EXPIRY"); exp != "" {
		if parsed, err := time.ParseDuration(exp); err == nil {
			refreshExpiry = parsed
		}
	}

	syncInterval := 6 * time.Hour
	if iv := os.Getenv("SYNC_INTERVAL"); iv != "" {
		if parsed, err := time.ParseDuration(iv); err == nil {
			syncInterval = parsed
		}
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", "postgres://localhost/fiwb"),
		JWTSecret:          getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:    accessExpiry,
		JWTRefreshExpiry:   refreshExpiry,
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		ChromaAPIKey:       getEnv("CHROMA_API_KEY", ""),
		ChromaTenant:       getEnv("CHROMA_TENANT", ""),
		ChromaDatabase:     getEnv("CHROMA_DATABASE", ""),
		GeminiApiKey:       getEnv("GEMINI_API_KEY", ""),
		AIProvider:         getEnv("AI_PROVIDER", "auto"),
		OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:        getEnv("OLLAMA_MODEL", "llama3"),
		EncryptionKey:      getEnv("ENCRYPTION_KEY", ""),
		DeepSyncLimit:      getEnvInt("DEEP_SYNC_LIMIT", 5),
		APICallLimit:       getEnvInt("API_CALL_LIMIT", 10),
		SyncInterval:       syncInterval,
		SyncGracePeriod:    time.Minute,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
