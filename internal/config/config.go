package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Paidguy/SpotiFLAC-web/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port             string
	DataDir          string
	DBPath           string
	DownloadPath     string
	FilenameTemplate string
	DefaultService   string
	DefaultFormat    string
	HistoryBackend   string
	MongoURI         string
	MongoDB          string
	LogLevel         string
	LogFormat        string
	Env              string
	MaxConcurrent    int
	SubscriberBuffer int
	ProgressInterval time.Duration
	RateLimitRPS     float64
	SourceRPS        float64

	parseErrors []string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	cfg := &Config{
		Port:             getEnv("PORT", constants.DefaultPort),
		DataDir:          getEnv("DATA_DIR", constants.DefaultDataDir),
		DownloadPath:     getEnv("DOWNLOAD_PATH", constants.DefaultDownloadPath),
		FilenameTemplate: getEnv("FILENAME_TEMPLATE", constants.DefaultFilenameTemplate),
		DefaultService:   strings.ToLower(getEnv("DEFAULT_SERVICE", constants.DefaultService)),
		DefaultFormat:    strings.ToLower(getEnv("DEFAULT_FORMAT", constants.DefaultFormat)),
		HistoryBackend:   strings.ToLower(getEnv("HISTORY_BACKEND", constants.DefaultHistoryBackend)),
		MongoURI:         getEnv("MONGO_URI", ""),
		MongoDB:          getEnv("MONGO_DB", constants.DefaultMongoDB),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		Env:              getEnv("ENV", "production"),
	}
	cfg.DBPath = getEnv("DB_PATH", filepath.Join(cfg.DataDir, constants.DefaultDBName))

	cfg.MaxConcurrent = cfg.getEnvInt("MAX_CONCURRENT", constants.DefaultConcurrency)
	cfg.SubscriberBuffer = cfg.getEnvInt("SUBSCRIBER_BUFFER", constants.DefaultSubscriberBuffer)
	cfg.ProgressInterval = cfg.getEnvDuration("PROGRESS_INTERVAL", constants.DefaultProgressInterval)
	cfg.RateLimitRPS = cfg.getEnvFloat("RATE_LIMIT_RPS", 0)
	cfg.SourceRPS = cfg.getEnvFloat("SOURCE_RPS", constants.DefaultRequestsPerSec)

	return cfg
}

// IsDevelopment enables permissive CORS and verbose defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	errors := append([]string(nil), c.parseErrors...)

	// Validate Port
	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}
	if c.DownloadPath == "" {
		errors = append(errors, "DOWNLOAD_PATH cannot be empty")
	}
	if strings.TrimSpace(c.FilenameTemplate) == "" {
		errors = append(errors, "FILENAME_TEMPLATE cannot be empty")
	}
	if c.DefaultService == "" {
		errors = append(errors, "DEFAULT_SERVICE cannot be empty")
	} else if !slices.Contains(constants.BuiltinServices, c.DefaultService) {
		errors = append(errors, fmt.Sprintf("DEFAULT_SERVICE must be one of: %s, got: %s", strings.Join(constants.BuiltinServices, ", "), c.DefaultService))
	}

	validFormats := map[string]bool{
		constants.FormatFLAC: true,
		constants.FormatMP3:  true,
		constants.FormatM4A:  true,
	}
	if !validFormats[c.DefaultFormat] {
		errors = append(errors, fmt.Sprintf("DEFAULT_FORMAT must be one of: flac, mp3, m4a, got: %s", c.DefaultFormat))
	}

	if c.MaxConcurrent < 1 || c.MaxConcurrent > constants.MaxConcurrency {
		errors = append(errors, fmt.Sprintf("MAX_CONCURRENT must be between 1 and %d, got: %d", constants.MaxConcurrency, c.MaxConcurrent))
	}
	if c.SubscriberBuffer < 1 {
		errors = append(errors, fmt.Sprintf("SUBSCRIBER_BUFFER must be positive, got: %d", c.SubscriberBuffer))
	}
	if c.ProgressInterval < 0 {
		errors = append(errors, fmt.Sprintf("PROGRESS_INTERVAL must not be negative, got: %s", c.ProgressInterval))
	}
	if c.RateLimitRPS < 0 {
		errors = append(errors, fmt.Sprintf("RATE_LIMIT_RPS must not be negative, got: %g", c.RateLimitRPS))
	}

	switch c.HistoryBackend {
	case constants.HistoryBackendSQLite:
	case constants.HistoryBackendMongo:
		if c.MongoURI == "" {
			errors = append(errors, "MONGO_URI is required when HISTORY_BACKEND is mongo")
		}
		if c.MongoDB == "" {
			errors = append(errors, "MONGO_DB cannot be empty")
		}
	default:
		errors = append(errors, fmt.Sprintf("HISTORY_BACKEND must be one of: sqlite, mongo, got: %s", c.HistoryBackend))
	}

	// Validate LogLevel
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	// Validate LogFormat
	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func (c *Config) getEnvInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("%s must be a valid number, got: %s", key, raw))
		return fallback
	}
	return n
}

func (c *Config) getEnvFloat(key string, fallback float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("%s must be a valid number, got: %s", key, raw))
		return fallback
	}
	return n
}

func (c *Config) getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("%s must be a duration such as 250ms, got: %s", key, raw))
		return fallback
	}
	return d
}
