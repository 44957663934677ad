package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var AppEnv Config

type Config struct {
	Port      string
	MongoURI  string
	DBName    string
	JWTSecret string

	RedisAddr     string
	RedisPassword string

	OracleProvider string
	OpenAIKey      string
	OpenAIBaseURL  string
	OpenAIModel    string
	GeminiKey      string
	GeminiModel    string

	NominatimURL string
	WoltBaseURL  string
	WoltCountry  string
	WoltCurrency string

	MaxConcurrentRequests int
	MinTimeBetweenCalls   time.Duration
	CartTTL               time.Duration
	CatalogFreshness      time.Duration
	HTTPTimeout           time.Duration

	LogLevel    string
	LogPretty   bool
	TraceStdout bool
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Info().Err(err).Msg(".env not loaded")
	}
	AppEnv = FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() Config {
	return Config{
		Port:      getEnvOrDefault("PORT", "8080"),
		MongoURI:  getEnvOrDefault("MONGO_URI", ""),
		DBName:    getEnvOrDefault("DB_NAME", "cheapcart"),
		JWTSecret: getEnvOrDefault("JWT_SECRET", ""),

		RedisAddr:     getEnvOrDefault("REDIS_ADDR", ""),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		OracleProvider: strings.ToLower(getEnvOrDefault("ORACLE_PROVIDER", ProviderOpenAI)),
		OpenAIKey:      getEnvOrDefault("OPENAI_API_KEY", getEnvOrDefault("API_KEY", "")),
		OpenAIBaseURL:  strings.TrimRight(getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		OpenAIModel:    getEnvOrDefault("OPENAI_MODEL", "gpt-4o"),
		GeminiKey:      getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:    getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),

		NominatimURL: strings.TrimRight(getEnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"), "/"),
		WoltBaseURL:  strings.TrimRight(getEnvOrDefault("WOLT_BASE_URL", "https://consumer-api.wolt.com"), "/"),
		WoltCountry:  getEnvOrDefault("WOLT_COUNTRY", "ISR"),
		WoltCurrency: getEnvOrDefault("WOLT_CURRENCY", "ILS"),

		MaxConcurrentRequests: getIntEnv("MAX_CONCURRENT_REQUESTS", 5),
		MinTimeBetweenCalls:   getDurationEnv("MIN_TIME_BETWEEN_REQUESTS_MS", 200, time.Millisecond),
		CartTTL:               getDurationEnv("CART_TTL_MINUTES", 60, time.Minute),
		CatalogFreshness:      getDurationEnv("CATALOG_FRESHNESS_HOURS", 24, time.Hour),
		HTTPTimeout:           getDurationEnv("HTTP_TIMEOUT_SECONDS", 15, time.Second),

		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogPretty:   getBoolEnv("LOG_PRETTY", false),
		TraceStdout: getBoolEnv("TRACE_STDOUT", false),
	}
}

// Validate reports every missing required key at once.
func (c Config) Validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.OracleProvider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	case ProviderGemini:
		if c.GeminiKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ORACLE_PROVIDER %q", c.OracleProvider))
	}
	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv accepts zero so spacing gates can be switched off.
func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
