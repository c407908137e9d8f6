package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Ai          AIConfig
	Rag         RagConfig
	Cache       CacheConfig
	Persistence PersistenceConfig
	Tracing     TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection string
	LogLevel   string // "silent" | "error" | "warn" | "info"
}

type AIConfig struct {
	EmbeddingProvider    string // "ollama" or "openai"
	OllamaBaseURL        string
	OllamaEmbeddingModel string
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	OpenAIEmbeddingModel string
	SparseEmbeddingURL   string // text-embeddings-inference serving a SPLADE model
	EmbeddingDimensions  int
	LLMProvider          string // "ollama" or "openai"
	LLMModel             string
	LLMTemperature       float64
}

type RagConfig struct {
	CandidateLimit int // per source, before fusion
	ContextLimit   int // after fusion
	RRFConstant    int
}

type CacheConfig struct {
	IndexName       string
	Threshold       float64
	MinAnswerLength int
	TTL             time.Duration
}

type PersistenceConfig struct {
	BufferSize  int
	TaskTimeout time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", "host=localhost user=admin password=admin dbname=gym_food_db port=5432 sslmode=disable"),
			LogLevel:   getEnv("DB_LOG_LEVEL", "warn"),
		},
		Ai: AIConfig{
			EmbeddingProvider:    getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "bge-m3"),
			OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIEmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			SparseEmbeddingURL:   getEnv("SPARSE_EMBEDDING_URL", "http://localhost:8080"),
			EmbeddingDimensions:  getEnvAsInt("EMBEDDING_DIMENSIONS", 1024),
			LLMProvider:          getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:             getEnv("LLM_MODEL", "llama3.1"),
			LLMTemperature:       getEnvAsFloat("LLM_TEMPERATURE", 0.3),
		},
		Rag: RagConfig{
			CandidateLimit: getEnvAsInt("RAG_CANDIDATE_LIMIT", 100),
			ContextLimit:   getEnvAsInt("RAG_CONTEXT_LIMIT", 30),
			RRFConstant:    getEnvAsInt("RAG_RRF_CONSTANT", 60),
		},
		Cache: CacheConfig{
			IndexName:       getEnv("SEMCACHE_INDEX", "gym_chat_cache"),
			Threshold:       getEnvAsFloat("SEMCACHE_THRESHOLD", 0.95),
			MinAnswerLength: getEnvAsInt("SEMCACHE_MIN_ANSWER_LENGTH", 10),
			TTL:             getEnvAsDuration("SEMCACHE_TTL", 168*time.Hour),
		},
		Persistence: PersistenceConfig{
			BufferSize:  getEnvAsInt("PERSISTENCE_BUFFER_SIZE", 256),
			TaskTimeout: getEnvAsDuration("PERSISTENCE_TASK_TIMEOUT", 15*time.Second),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "gym-food-rag"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("15s", "168h"); "0" disables.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if strValue == "0" {
		return 0
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
