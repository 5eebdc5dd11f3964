package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider identifies the hosted model backing the matching delegate.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
)

// FallbackPolicy controls what the candidate selector returns when no
// ontology term shares a token with the description.
type FallbackPolicy string

const (
	// FallbackHead returns the first K active terms in table order.
	FallbackHead FallbackPolicy = "head"
	// FallbackNone returns an empty candidate set.
	FallbackNone FallbackPolicy = "none"
)

// Config holds all configuration values.
type Config struct {
	// Ontology source
	OntologyPath string
	UseSynonyms  bool

	// LLM provider
	LLMProvider     Provider
	LLMModel        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string

	// Matching
	CandidateK          int
	Fallback            FallbackPolicy
	ConfidenceThreshold float64
	HighConfidence      float64
	SimpleMode          bool

	// Batch processing
	BatchSize   int
	Workers     int
	CallTimeout time.Duration
	// RateLimit is the shared delegate-call budget in requests per second,
	// enforced across all workers. 0 disables the limiter.
	RateLimit float64

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
// Defaults match the original Python matcher.
func Load() Config {
	return Config{
		OntologyPath: getEnv("EDAMATCH_ONTOLOGY", "EDAM.csv"),
		UseSynonyms:  getEnv("EDAMATCH_USE_SYNONYMS", "false") == "true",

		LLMProvider:     Provider(getEnv("EDAMATCH_LLM_PROVIDER", "openai")),
		LLMModel:        getEnv("EDAMATCH_LLM_MODEL", "gpt-4o"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),

		CandidateK:          getEnvInt("EDAMATCH_CANDIDATES", 10),
		Fallback:            FallbackPolicy(getEnv("EDAMATCH_FALLBACK", string(FallbackHead))),
		ConfidenceThreshold: getEnvFloat("EDAMATCH_CONFIDENCE_THRESHOLD", 0.5),
		HighConfidence:      getEnvFloat("EDAMATCH_HIGH_CONFIDENCE", 0.8),
		SimpleMode:          getEnv("EDAMATCH_SIMPLE_MODE", "true") == "true",

		BatchSize:   getEnvInt("EDAMATCH_BATCH_SIZE", 5000),
		Workers:     getEnvInt("EDAMATCH_WORKERS", 1),
		CallTimeout: getEnvDuration("EDAMATCH_CALL_TIMEOUT", 2*time.Minute),
		RateLimit:   getEnvFloat("EDAMATCH_RATE_LIMIT", 2),

		LogFile:  getEnv("EDAMATCH_LOG_FILE", "/tmp/edamatch.log"),
		LogLevel: parseLogLevel(getEnv("EDAMATCH_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
