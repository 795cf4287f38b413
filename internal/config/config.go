package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/anime-shed/notes-ai-go/pkg/validation"
)

// Storage backends understood by the factory.
const (
	StorageAzure = "azure"
	StorageLocal = "local"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	LogLevel           string
	CORSAllowedOrigins []string

	// AIRateLimit is the sustained AI requests per second allowed per user;
	// zero disables throttling.
	AIRateLimit float64
	AIRateBurst int

	// FunctionsBaseURL is the prefix of the managed backend's callable functions,
	// e.g. https://us-central1-project.cloudfunctions.net
	FunctionsBaseURL string

	StorageBackend        string
	AzureStorageAccount   string
	AzureStorageKey       string
	AzureStorageContainer string
	LocalBlobDir          string
	PublicBaseURL         string

	AuthTokenSecret string
	DatabasePath    string

	AI AIConfig
}

// AIConfig mirrors the limits and endpoint names of the hosted AI functions.
type AIConfig struct {
	MaxImageSize        int64
	MaxTextLength       int
	SupportedImageTypes []string

	MinConfidence      float64
	MaxLabels          int
	Language           string
	EnforceLabelLimits bool

	Endpoints Endpoints
}

// Endpoints holds the callable function names.
type Endpoints struct {
	ClassifyImage    string
	DetectText       string
	AnalyzeImage     string
	AnalyzeSentiment string
	TranslateText    string
	ModerateContent  string
	ExtractEntities  string
	SummarizeText    string
}

// DefaultAIConfig returns the limits the hosted functions are provisioned with.
func DefaultAIConfig() AIConfig {
	return AIConfig{
		MaxImageSize:        5 * 1024 * 1024,
		MaxTextLength:       5000,
		SupportedImageTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		MinConfidence:       0.5,
		MaxLabels:           10,
		Language:            "pt",
		Endpoints: Endpoints{
			ClassifyImage:    "classifyImage",
			DetectText:       "detectText",
			AnalyzeImage:     "analyzeImage",
			AnalyzeSentiment: "analyzeSentiment",
			TranslateText:    "translateText",
			ModerateContent:  "moderateContent",
			ExtractEntities:  "extractEntities",
			SummarizeText:    "summarizeText",
		},
	}
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return LoadFromEnv()
}

func LoadFromEnv() (*Config, error) {
	ai := DefaultAIConfig()
	ai.MaxImageSize = parseIntOrDefault("AI_MAX_IMAGE_SIZE", ai.MaxImageSize)
	ai.MaxTextLength = int(parseIntOrDefault("AI_MAX_TEXT_LENGTH", int64(ai.MaxTextLength)))
	ai.MinConfidence = parseFloatOrDefault("AI_MIN_CONFIDENCE", ai.MinConfidence)
	ai.MaxLabels = int(parseIntOrDefault("AI_MAX_LABELS", int64(ai.MaxLabels)))
	ai.Language = getEnvOrDefault("AI_LANGUAGE", ai.Language)
	ai.EnforceLabelLimits = parseBoolOrDefault("AI_ENFORCE_LABEL_LIMITS", false)

	cfg := &Config{
		Host:                  getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                  getEnvOrDefault("PORT", "8080"),
		RequestTimeout:        parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestBodySize:    parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		CORSAllowedOrigins:    splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		AIRateLimit:           parseFloatOrDefault("AI_RATE_LIMIT", 2),
		AIRateBurst:           int(parseIntOrDefault("AI_RATE_BURST", 5)),
		FunctionsBaseURL:      strings.TrimRight(getEnvOrDefault("FUNCTIONS_BASE_URL", "http://localhost:5001"), "/"),
		StorageBackend:        strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", StorageLocal)),
		AzureStorageAccount:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:       os.Getenv("AZURE_STORAGE_KEY"),
		AzureStorageContainer: getEnvOrDefault("AZURE_STORAGE_CONTAINER", "ai-images"),
		LocalBlobDir:          getEnvOrDefault("LOCAL_BLOB_DIR", "./data/blobs"),
		PublicBaseURL:         strings.TrimRight(getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		AuthTokenSecret:       os.Getenv("AUTH_TOKEN_SECRET"),
		DatabasePath:          getEnvOrDefault("DATABASE_PATH", "./data/notes.db"),
		AI:                    ai,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values for consistency.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0 (got %s)", c.RequestTimeout)
	}
	if err := validation.NewURLValidator().ValidateURL(c.FunctionsBaseURL); err != nil {
		return fmt.Errorf("invalid FUNCTIONS_BASE_URL: %w", err)
	}
	if c.AuthTokenSecret == "" {
		return fmt.Errorf("AUTH_TOKEN_SECRET is required")
	}
	switch c.StorageBackend {
	case StorageAzure:
		if c.AzureStorageAccount == "" || c.AzureStorageKey == "" {
			return fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	case StorageLocal:
		if err := validation.NewURLValidator().ValidateURL(c.PublicBaseURL); err != nil {
			return fmt.Errorf("invalid PUBLIC_BASE_URL: %w", err)
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND: %q", c.StorageBackend)
	}
	if c.AIRateLimit < 0 || (c.AIRateLimit > 0 && c.AIRateBurst < 1) {
		return fmt.Errorf("invalid AI rate limit: %g/s burst %d", c.AIRateLimit, c.AIRateBurst)
	}
	if c.AI.MaxImageSize <= 0 || c.AI.MaxTextLength <= 0 {
		return fmt.Errorf("AI limits must be > 0 (got image=%d, text=%d)", c.AI.MaxImageSize, c.AI.MaxTextLength)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
