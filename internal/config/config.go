package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Line     LineConfig
	Keys     APIKeys
	Ai       AIConfig
	Pipeline PipelineConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AuditLogPath       string
	NatsURL            string
	RedisURL           string
	EventTopic         string // In-process watermill topic for domain events
	AdminJWTSecret     string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	Connection string
}

type LineConfig struct {
	ChannelSecret      string
	ChannelAccessToken string
	APIBaseURL         string
}

// Enabled reports whether outbound delivery can be performed at all
func (c LineConfig) Enabled() bool {
	return c.ChannelAccessToken != ""
}

type APIKeys struct {
	GoogleGemini string
	Jina         string
	OpenAI       string // Any OpenAI-compatible endpoint key
	HuggingFace  string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama" or "jina"
	EmbeddingCacheTTL time.Duration
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama", "openai" or "huggingface"
	LLMModel          string // e.g. "llama3", "gemini-2.0-flash"
	OpenAIBaseURL     string
}

type PipelineConfig struct {
	TopN             int
	HandoffTTL       time.Duration
	SessionStore     string // "memory", "redis" or "postgres"
	SessionRetention time.Duration
	CorpusSource     string // "csv" or "postgres"
	CorpusCSVPath    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogPath:       getEnv("DELIVERY_LOG_FILE_PATH", "logs/delivery.log"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			EventTopic:         getEnv("EVENT_TOPIC_NAME", "SUBSIDY_INTAKE_EVENTS"),
			AdminJWTSecret:     getEnv("JWT_SECRET", ""),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Line: LineConfig{
			ChannelSecret:      getEnv("LINE_CHANNEL_SECRET", ""),
			ChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
			APIBaseURL:         getEnv("LINE_API_BASE_URL", "https://api.line.me"),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingCacheTTL: getEnvAsDuration("EMBEDDING_CACHE_TTL", 10*time.Minute),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
			LLMModel:          getEnv("LLM_MODEL", "gemini-2.0-flash"),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		},
		Pipeline: PipelineConfig{
			TopN:             getEnvAsInt("PIPELINE_TOP_N", 3),
			HandoffTTL:       getEnvAsDuration("HANDOFF_TTL", 30*time.Second),
			SessionStore:     getEnv("SESSION_STORE", "memory"),
			SessionRetention: getEnvAsDuration("SESSION_RETENTION", 24*time.Hour),
			CorpusSource:     getEnv("CORPUS_SOURCE", "csv"),
			CorpusCSVPath:    getEnv("CORPUS_CSV_PATH", "data/subsidies_with_embeddings.csv"),
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil && value > 0 {
		return value
	}
	return fallback
}
