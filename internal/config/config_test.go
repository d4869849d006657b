package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Paidguy/SpotiFLAC-web/internal/constants"
)

func TestLoad(t *testing.T) {
	cfg := Load()

	if cfg.Port != constants.DefaultPort {
		t.Errorf("Expected Port to be %s, got %s", constants.DefaultPort, cfg.Port)
	}

	wantDB := filepath.Join(constants.DefaultDataDir, constants.DefaultDBName)
	if cfg.DBPath != wantDB {
		t.Errorf("Expected DBPath to be %s, got %s", wantDB, cfg.DBPath)
	}

	if cfg.MaxConcurrent != constants.DefaultConcurrency {
		t.Errorf("Expected MaxConcurrent to be %d, got %d", constants.DefaultConcurrency, cfg.MaxConcurrent)
	}

	if cfg.ProgressInterval != constants.DefaultProgressInterval {
		t.Errorf("Expected ProgressInterval to be %s, got %s", constants.DefaultProgressInterval, cfg.ProgressInterval)
	}

	if cfg.HistoryBackend != constants.HistoryBackendSQLite {
		t.Errorf("Expected sqlite backend, got %s", cfg.HistoryBackend)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestLoadWithEnvVars(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_DIR", "/var/lib/spotiflac")
	t.Setenv("MAX_CONCURRENT", "4")
	t.Setenv("PROGRESS_INTERVAL", "1s")
	t.Setenv("DEFAULT_FORMAT", "MP3")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Expected Port to be 9090, got %s", cfg.Port)
	}
	if cfg.DBPath != filepath.Join("/var/lib/spotiflac", constants.DefaultDBName) {
		t.Errorf("Expected DBPath under DATA_DIR, got %s", cfg.DBPath)
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("Expected MaxConcurrent to be 4, got %d", cfg.MaxConcurrent)
	}
	if cfg.ProgressInterval != time.Second {
		t.Errorf("Expected ProgressInterval to be 1s, got %s", cfg.ProgressInterval)
	}
	if cfg.DefaultFormat != "mp3" {
		t.Errorf("Expected DefaultFormat to be mp3, got %s", cfg.DefaultFormat)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("Expected RateLimitRPS to be 2.5, got %g", cfg.RateLimitRPS)
	}
}

func TestLoad_ParseErrorsSurfaceInValidate(t *testing.T) {
	t.Setenv("MAX_CONCURRENT", "many")
	t.Setenv("PROGRESS_INTERVAL", "soon")

	err := Load().Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	for _, want := range []string{"MAX_CONCURRENT must be a valid number", "PROGRESS_INTERVAL must be a duration"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to contain %q, got %v", want, err)
		}
	}
}

func validConfig() Config {
	return Config{
		Port:             "8080",
		DBPath:           "test.db",
		DownloadPath:     "/tmp/downloads",
		FilenameTemplate: constants.DefaultFilenameTemplate,
		DefaultService:   "http",
		DefaultFormat:    "flac",
		HistoryBackend:   "sqlite",
		MongoDB:          "spotiflac",
		LogLevel:         "info",
		LogFormat:        "text",
		MaxConcurrent:    2,
		SubscriberBuffer: 64,
		ProgressInterval: 250 * time.Millisecond,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid config", func(*Config) {}, ""},
		{"empty port", func(c *Config) { c.Port = "" }, "PORT cannot be empty"},
		{"invalid port", func(c *Config) { c.Port = "abc" }, "PORT must be a valid number"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "PORT must be between 1 and 65535"},
		{"empty db path", func(c *Config) { c.DBPath = "" }, "DB_PATH cannot be empty"},
		{"empty download path", func(c *Config) { c.DownloadPath = "" }, "DOWNLOAD_PATH cannot be empty"},
		{"empty service", func(c *Config) { c.DefaultService = "" }, "DEFAULT_SERVICE cannot be empty"},
		{"unregistered service", func(c *Config) { c.DefaultService = "tidal" }, "DEFAULT_SERVICE must be one of: http"},
		{"bad format", func(c *Config) { c.DefaultFormat = "wav" }, "DEFAULT_FORMAT must be one of"},
		{"zero workers", func(c *Config) { c.MaxConcurrent = 0 }, "MAX_CONCURRENT must be between 1"},
		{"too many workers", func(c *Config) { c.MaxConcurrent = 17 }, "MAX_CONCURRENT must be between 1"},
		{"zero buffer", func(c *Config) { c.SubscriberBuffer = 0 }, "SUBSCRIBER_BUFFER must be positive"},
		{"unknown backend", func(c *Config) { c.HistoryBackend = "redis" }, "HISTORY_BACKEND must be one of"},
		{"mongo without uri", func(c *Config) { c.HistoryBackend = "mongo" }, "MONGO_URI is required"},
		{"mongo with uri", func(c *Config) {
			c.HistoryBackend = "mongo"
			c.MongoURI = "mongodb://localhost:27017"
		}, ""},
		{"invalid log level", func(c *Config) { c.LogLevel = "verbose" }, "LOG_LEVEL must be one of"},
		{"invalid log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = ""
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.HasPrefix(err.Error(), "configuration validation failed:") {
		t.Errorf("Unexpected error prefix: %v", err)
	}
	if strings.Count(err.Error(), "\n  - ") != 2 {
		t.Errorf("Expected 2 listed problems, got: %v", err)
	}
}
