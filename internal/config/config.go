package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string
	MaxFileSize int64

	// Ingestion
	MaxChunkSize int

	// Embeddings configuration
	EmbeddingsProvider    string // "gemini" (typed SDK, default), "gemini-rest"
	GeminiAPIKey          string
	GeminiAPIURL          string // base URL for the REST provider
	GoogleEmbeddingsModel string // e.g., "text-embedding-004"
	EmbedRequestsPerMin   int

	// Vector store configuration
	VectorStoreMode string // "grpc" (default), "rest"
	QdrantHost      string
	QdrantGRPCPort  int
	QdrantURL       string // REST endpoint, used when VectorStoreMode is "rest"
	QdrantAPIKey    string

	// MongoDB (ingestion records)
	MongoEnabled bool
	MongoURI     string
	DBName       string

	// Redis Configuration
	RedisEnabled  bool
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Collection lock
	LockBackend    string // "local" (default), "redis"
	LockTTLSeconds int

	// Telemetry
	TracingEnabled bool
	OTLPEndpoint   string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
		MaxFileSize: getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB upload cap

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 5000),

		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", "gemini"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiAPIURL:          getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		EmbedRequestsPerMin:   getEnvInt("EMBED_RPM", 60),

		VectorStoreMode: getEnv("VECTOR_STORE_MODE", "grpc"),
		QdrantHost:      getEnv("QDRANT_HOST", "localhost"),
		QdrantGRPCPort:  getEnvInt("QDRANT_GRPC_PORT", 6334),
		QdrantURL:       getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:    getEnv("QDRANT_API_KEY", ""),

		MongoEnabled: getEnvBool("MONGO_ENABLED", true),
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017/edu_assistant"),
		DBName:       getEnv("DB_NAME", "edu_assistant"),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		LockBackend:    getEnv("LOCK_BACKEND", "local"),
		LockTTLSeconds: getEnvInt("LOCK_TTL", 300),

		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.MaxChunkSize <= 0 {
		return nil, fmt.Errorf("MAX_CHUNK_SIZE must be positive, got %d", cfg.MaxChunkSize)
	}

	switch cfg.EmbeddingsProvider {
	case "gemini", "gemini-rest":
	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}

	switch cfg.VectorStoreMode {
	case "grpc", "rest":
	default:
		return nil, fmt.Errorf("unknown vector store mode: %s", cfg.VectorStoreMode)
	}

	if cfg.LockBackend == "redis" && !cfg.RedisEnabled {
		return nil, fmt.Errorf("LOCK_BACKEND=redis requires REDIS_ENABLED=true")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
