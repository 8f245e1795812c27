// Package config loads service configuration from the environment.
// All configuration is resolved once at startup and passed down explicitly.
package config

import (
	"fmt"
	"os"
	"time"
)

// Embedding backend selectors.
const (
	EmbeddingLocal   = "local"
	EmbeddingRemote  = "remote"
	EmbeddingManaged = "managed"
)

// LLM backend selectors.
const (
	LLMOpenAI = "openai"
	LLMOllama = "ollama"
)

// Config holds all service settings resolved from the environment.
type Config struct {
	// HTTP
	Port string

	// SQLite
	DataDir string

	// Auth
	JWTSecret   string
	TokenExpiry time.Duration

	// Qdrant
	QdrantHost     string
	QdrantPort     int
	QdrantAPIKey   string
	CollectionName string
	// DefaultDimension is used when the embedding provider cannot report one.
	DefaultDimension int

	// Embedding
	EmbeddingBackend string
	OllamaBaseURL    string
	OllamaModel      string
	OpenAIAPIKey     string
	EmbeddingModel   string
	ManagedEndpoint  string
	ManagedModel     string

	// Generation
	LLMBackend     string
	LLMModel       string
	OllamaLLMModel string

	// GitHub source import
	GitHubToken string
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		DataDir:          getEnv("DATA_DIR", "data"),
		JWTSecret:        getEnv("JWT_SECRET", "change-me-in-production"),
		TokenExpiry:      time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		QdrantHost:       getEnv("QDRANT_HOST", ""),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		CollectionName:   getEnv("QDRANT_COLLECTION", "docupilot-docs"),
		DefaultDimension: getEnvInt("EMBEDDING_DIMENSION", 768),
		EmbeddingBackend: getEnv("EMBEDDING_BACKEND", EmbeddingLocal),
		OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:      getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		ManagedEndpoint:  getEnv("MANAGED_EMBEDDING_ENDPOINT", ""),
		ManagedModel:     getEnv("MANAGED_EMBEDDING_MODEL", "llama-text-embed-v2"),
		LLMBackend:       getEnv("LLM_BACKEND", LLMOpenAI),
		LLMModel:         getEnv("LLM_MODEL", "gpt-4o-mini"),
		OllamaLLMModel:   getEnv("OLLAMA_LLM_MODEL", "llama3.1"),
		GitHubToken:      getEnv("GITHUB_TOKEN", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
