package config

import (
	"os"
	"strconv"
)

// Settings holds the service configuration, read from environment variables.
// Empty API keys disable the collaborator they belong to rather than failing
// startup.
type Settings struct {
	AppName    string
	ApiVersion string
	HttpAddr   string

	VectorBackend  string
	QdrantUrl      string
	QdrantApiKey   string
	PostgresUrl    string
	CollectionName string

	EmbeddingsProvider  string
	EmbeddingsModel     string
	EmbeddingsDimension int

	LLMProvider string
	LLMModel    string

	OpenAIKey    string
	AnthropicKey string
	GoogleKey    string

	TraceEndpoint string

	ProductDataPath string

	ChunkSize    int
	ChunkOverlap int

	ApiKey             string
	RateLimitPerMinute int
	RateLimitBurst     int
}

// Load reads settings from environment variables with defaults suitable for
// the docker-compose topology.
func Load() *Settings {
	return &Settings{
		AppName:    getEnv("APP_NAME", "atelier"),
		ApiVersion: getEnv("API_VERSION", "v1"),
		HttpAddr:   getEnv("HTTP_ADDR", ":8000"),

		VectorBackend:  getEnv("VECTOR_BACKEND", "qdrant"),
		QdrantUrl:      getEnv("QDRANT_URL", "http://qdrant:6333"),
		QdrantApiKey:   getEnv("QDRANT_API_KEY", ""),
		PostgresUrl:    getEnv("POSTGRES_URL", ""),
		CollectionName: getEnv("COLLECTION_NAME", "knowledge_base"),

		EmbeddingsProvider:  getEnv("EMBEDDINGS_PROVIDER", "openai"),
		EmbeddingsModel:     getEnv("EMBEDDINGS_MODEL", "text-embedding-3-small"),
		EmbeddingsDimension: getEnvInt("EMBEDDINGS_DIMENSION", 1536),

		LLMProvider: getEnv("LLM_PROVIDER", "openai"),
		LLMModel:    getEnv("LLM_MODEL", "gpt-4o-mini"),

		OpenAIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicKey: getEnv("ANTHROPIC_API_KEY", ""),
		GoogleKey:    getEnv("GOOGLE_API_KEY", ""),

		TraceEndpoint: getEnv("TRACE_ENDPOINT", "http://phoenix:6006"),

		ProductDataPath: getEnv("PRODUCT_DATA_PATH", "data/products.jsonl"),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 512),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 50),

		ApiKey:             getEnv("API_KEY", ""),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 10),
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
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
