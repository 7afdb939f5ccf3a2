// Package config loads settings for the CLI and HTTP server from defaults,
// an optional YAML file, a .env file and environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"image_to_pdf/internal/converter"
)

// Config holds all configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Upload     UploadConfig     `yaml:"upload"`
	Conversion ConversionConfig `yaml:"conversion"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// UploadConfig limits what a single request may carry.
type UploadConfig struct {
	MaxFileSize int64 `yaml:"max_file_size"` // Per image, bytes
	MaxMemory   int64 `yaml:"max_memory"`    // Multipart parsing memory, bytes
	MaxFiles    int   `yaml:"max_files"`
	MaxPDFSize  int64 `yaml:"max_pdf_size"` // Body of an inspect request, bytes
}

// ConversionConfig holds defaults applied when a request leaves a field empty.
type ConversionConfig struct {
	DefaultQuality string `yaml:"default_quality"`
	Title          string `yaml:"title"`
	Author         string `yaml:"author"`
	Creator        string `yaml:"creator"`
}

// LogConfig selects log verbosity and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns a configuration with development defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 120 * time.Second,
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://localhost:3000",
			},
		},
		Upload: UploadConfig{
			MaxFileSize: converter.DefaultMaxFileSize,
			MaxMemory:   32 << 20,
			MaxFiles:    100,
			MaxPDFSize:  100 << 20,
		},
		Conversion: ConversionConfig{
			DefaultQuality: string(converter.DefaultQuality),
			Title:          converter.DefaultTitle,
			Author:         converter.DefaultAuthor,
			Creator:        converter.DefaultCreator,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path (if not empty), applies .env and environment overrides and validates the result.
func Load(path string) (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive, got %d", c.Upload.MaxFileSize)
	}
	if c.Upload.MaxMemory <= 0 {
		return fmt.Errorf("max_memory must be positive, got %d", c.Upload.MaxMemory)
	}
	if c.Upload.MaxFiles < 1 {
		return fmt.Errorf("max_files must be at least 1, got %d", c.Upload.MaxFiles)
	}
	if c.Upload.MaxPDFSize <= 0 {
		return fmt.Errorf("max_pdf_size must be positive, got %d", c.Upload.MaxPDFSize)
	}
	if c.Conversion.DefaultQuality != "" && !converter.Quality(strings.ToLower(c.Conversion.DefaultQuality)).Valid() {
		return fmt.Errorf("invalid default quality: %q", c.Conversion.DefaultQuality)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}
	return nil
}

// Address returns host:port for the HTTP listener.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Quality returns the configured default quality.
func (c *Config) Quality() converter.Quality {
	return converter.ParseQuality(c.Conversion.DefaultQuality)
}

// applyEnvOverrides applies environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) {
	// PORT is what most hosting platforms set; SERVER_PORT wins for local runs.
	if v := firstEnv("SERVER_PORT", "PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("MAX_FILE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Upload.MaxFileSize = n
		}
	}
	if v := os.Getenv("MAX_FILES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Upload.MaxFiles = n
		}
	}
	if v := os.Getenv("MAX_PDF_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Upload.MaxPDFSize = n
		}
	}
	if v := os.Getenv("DEFAULT_QUALITY"); v != "" {
		cfg.Conversion.DefaultQuality = v
	}
	if v := os.Getenv("PDF_AUTHOR"); v != "" {
		cfg.Conversion.Author = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
