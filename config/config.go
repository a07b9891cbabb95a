// Package config has the configuration for the template and brace tools
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/bpmn-tools/braces"
	"github.com/joho/godotenv"
)

// Environment names
const (
	EnvDevelopment = "dev"
	EnvStaging     = "staging"
	EnvProduction  = "prod"
	EnvTest        = "test"
)

// DefaultOutputPath is where the aggregated templates are written when nothing else is configured
const DefaultOutputPath = "all-connectors.json"

// Config holds all application configuration
type Config struct {
	Env               string
	LogLevel          string
	LogDir            string // Empty means console only
	LogRetentionWeeks int    // Number of weeks to keep log files
	MaxLogFileSize    int64  // Maximum log file size in bytes

	OutputPath  string        // Aggregated templates file
	SourcesFile string        // Optional YAML list of template URLs
	Schedule    string        // Refresh times for serve mode, "06:00;18:00"
	HTTPTimeout time.Duration // Per fetch, 0 disables the timeout
	MetricsFile string        // Optional Prometheus textfile

	BracesInput    string
	BracesEncoding string

	Port    string
	Address string
}

// LoadDotEnv loads a .env file from the working directory if there is one
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	timeout, err := getDurationEnvWithDefault("HTTP_TIMEOUT", 0)
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid HTTP_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Env:               getEnvWithDefault("ENV", EnvDevelopment),
		LogLevel:          os.Getenv("LOG_LEVEL"), // Empty lets ENV pick the console level
		LogDir:            os.Getenv("LOG_DIR"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		OutputPath:        getEnvWithDefault("TEMPLATES_OUTPUT", DefaultOutputPath),
		SourcesFile:       os.Getenv("TEMPLATES_SOURCES"),
		Schedule:          os.Getenv("TEMPLATES_SCHEDULE"),
		HTTPTimeout:       timeout,
		MetricsFile:       os.Getenv("METRICS_FILE"),
		BracesInput:       os.Getenv("BRACES_INPUT"),
		BracesEncoding:    getEnvWithDefault("BRACES_ENCODING", "utf-8"),
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks every field of cfg. Commands call it again after applying flags.
func Validate(cfg *Config) error {
	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if strings.TrimSpace(cfg.OutputPath) == "" {
		return fmt.Errorf("invalid TEMPLATES_OUTPUT: path cannot be empty")
	}

	if err := validateSchedule(cfg.Schedule); err != nil {
		return fmt.Errorf("invalid TEMPLATES_SCHEDULE: %w", err)
	}

	if cfg.HTTPTimeout < 0 {
		return fmt.Errorf("invalid HTTP_TIMEOUT: must not be negative, got: %s", cfg.HTTPTimeout)
	}

	if err := validateEncoding(cfg.BracesEncoding); err != nil {
		return fmt.Errorf("invalid BRACES_ENCODING: %w", err)
	}

	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	return nil
}

// ScheduleTimes splits the schedule into its HH:MM entries
func (c *Config) ScheduleTimes() []string {
	var times []string
	for _, t := range strings.Split(c.Schedule, ";") {
		if t = strings.TrimSpace(t); t != "" {
			times = append(times, t)
		}
	}
	return times
}

func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" || address == "0.0.0.0" {
		return nil
	}

	if ip := net.ParseIP(address); ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	return nil
}

func validateEnv(env string) error {
	validEnvs := []string{EnvDevelopment, EnvStaging, EnvProduction, EnvTest}
	env = strings.ToLower(env)

	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return nil
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

func validateEncoding(name string) error {
	_, err := braces.Lookup(name)
	return err
}

// validateSchedule accepts an empty schedule or HH:MM entries separated by ';'
func validateSchedule(schedule string) error {
	if strings.TrimSpace(schedule) == "" {
		return nil
	}

	for _, entry := range strings.Split(schedule, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, err := time.Parse("15:04", entry); err != nil {
			return fmt.Errorf("time %q must use HH:MM", entry)
		}
	}

	return nil
}

func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 { // 1 year maximum
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

func validateMaxLogFileSize(size int64) error {
	// Minimum 1MB, maximum 1GB
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnvWithDefault accepts Go durations ("30s") or plain seconds ("30")
func getDurationEnvWithDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(value)
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"TEMPLATES_OUTPUT",
		"TEMPLATES_SOURCES",
		"TEMPLATES_SCHEDULE",
		"HTTP_TIMEOUT",
		"METRICS_FILE",
		"BRACES_INPUT",
		"BRACES_ENCODING",
		"PORT",
		"ADDRESS",
	}
}
