package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all pipeline configuration.
type Config struct {
	OCR OCRConfig
	LLM LLMConfig
	FX  FXConfig
}

// OCRConfig holds optical recognition settings. The scoring knobs are
// hand-tuned; they are configuration, not fixed law.
type OCRConfig struct {
	Languages        string // tesseract language string, e.g. "eng+rus"
	MinDirectTextLen int    // below this, a PDF is treated as scanned
	MinPixelSide     int    // upscale target for low-resolution sources
	KeywordWeight    float64
	LengthBonusCap   float64
	GarbageRatio     float64
	MaxPages         int    // 0 = no limit when rasterizing scanned PDFs
	HeicConverter    string // external binary for HEIC input; "" disables
}

// LLMConfig holds generation backend settings.
type LLMConfig struct {
	Provider       string // "openai" | "ollama" | "gigachat"
	Model          string
	APIKey         string
	BaseURL        string
	OllamaURL      string // auxiliary local endpoint for the ollama provider
	Temperature    float32
	AttemptTimeout time.Duration
	MaxAttempts    int
	BackoffBase    time.Duration
	TruncateBudget int
}

// FXConfig holds exchange-rate provider settings.
type FXConfig struct {
	Provider string // "openerapi" | "frankfurter"
	BaseURL  string
	APIKey   string
	CacheTTL time.Duration
	Timeout  time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Languages:        getEnv("OCR_LANGUAGES", "eng+rus"),
			MinDirectTextLen: getEnvAsInt("OCR_MIN_DIRECT_TEXT_LEN", 50),
			MinPixelSide:     getEnvAsInt("OCR_MIN_PIXEL_SIDE", 1200),
			KeywordWeight:    getEnvAsFloat("OCR_KEYWORD_WEIGHT", 25),
			LengthBonusCap:   getEnvAsFloat("OCR_LENGTH_BONUS_CAP", 20),
			GarbageRatio:     getEnvAsFloat("OCR_GARBAGE_RATIO", 0.10),
			MaxPages:         getEnvAsInt("OCR_MAX_PAGES", 10),
			HeicConverter:    getEnv("OCR_HEIC_CONVERTER", "heif-convert"),
		},
		LLM: LLMConfig{
			Provider:       getEnv("LLM_PROVIDER", "openai"),
			Model:          getEnv("LLM_MODEL", "gpt-4o-mini"),
			APIKey:         getEnv("LLM_API_KEY", ""),
			BaseURL:        getEnv("LLM_BASE_URL", ""),
			OllamaURL:      getEnv("OLLAMA_URL", "http://localhost:11434"),
			Temperature:    getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			AttemptTimeout: getEnvAsDuration("LLM_ATTEMPT_TIMEOUT", 60*time.Second),
			MaxAttempts:    getEnvAsInt("LLM_MAX_ATTEMPTS", 3),
			BackoffBase:    getEnvAsDuration("LLM_BACKOFF_BASE", 1*time.Second),
			TruncateBudget: getEnvAsInt("LLM_TRUNCATE_BUDGET", 4000),
		},
		FX: FXConfig{
			Provider: getEnv("FX_PROVIDER", "openerapi"),
			BaseURL:  getEnv("FX_BASE_URL", ""),
			APIKey:   getEnv("FX_API_KEY", ""),
			CacheTTL: getEnvAsDuration("FX_CACHE_TTL", 12*time.Hour),
			Timeout:  getEnvAsDuration("FX_TIMEOUT", 10*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate fails fast on configuration that cannot work. This is the only
// error class that surfaces at construction time; everything downstream
// degrades instead of failing.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "gigachat":
		if c.LLM.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "LLM_API_KEY is required for provider "+c.LLM.Provider, ErrInvalidInput)
		}
	case "ollama":
		if c.LLM.OllamaURL == "" {
			return NewAppError("CONFIG_ERROR", "OLLAMA_URL is required for provider ollama", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "unknown LLM provider: "+c.LLM.Provider, ErrInvalidInput)
	}
	// An unrecognized FX provider is not fatal; fx.NewRateProvider falls
	// back to the keyless default.
	if c.LLM.MaxAttempts < 1 {
		return NewAppError("CONFIG_ERROR", "LLM_MAX_ATTEMPTS must be >= 1", ErrInvalidInput)
	}
	return nil
}
