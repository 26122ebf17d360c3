// Package config provides configuration management for the Sesame exporter.
//
// Settings come from three layers: a YAML config file, command line flags
// overriding it, and process environment for the API credential and
// logging. Configuration errors are the only fatal errors in the
// exporter and are surfaced at startup.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ucdmkt/sesame-exporter/internal/errors"
)

const (
	defaultPort         = "8000"
	defaultPollInterval = 10 * time.Second
	defaultCacheTTL     = 2 * time.Hour
)

// apiKeyEnv names the environment variable carrying the Sesame web API key.
const apiKeyEnv = "SESAME_WEB_API_KEY"

// Config holds all configuration settings for the Sesame exporter.
type Config struct {
	Port                 string
	APIKey               string
	Devices              map[string]string
	Once                 bool
	PollInterval         time.Duration
	CacheTTL             time.Duration
	MaxConcurrentDevices int
	LogLevel             string
	LogFormat            string
}

// fileConfig is the YAML config file surface.
type fileConfig struct {
	Port        int               `yaml:"port"`
	SesameUUIDs map[string]string `yaml:"sesame_uuids"`
}

// Load parses the given command line arguments, merges them over the
// optional YAML config file, and fills the rest from environment
// variables.
func Load(args []string) (Config, error) {
	cfg := Config{
		Port:                 defaultPort,
		Devices:              map[string]string{},
		PollInterval:         defaultPollInterval,
		CacheTTL:             defaultCacheTTL,
		MaxConcurrentDevices: 10,
	}

	fs := flag.NewFlagSet("sesame-exporter", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to YAML configuration file")
	port := fs.String("port", "", "port to expose metrics on (default: "+defaultPort+")")
	once := fs.Bool("once", false, "run one polling cycle and exit")
	var assignments deviceFlags
	fs.Var(&assignments, "device", "device in format Name=UUID (repeatable)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return Config{}, err
		}
	}

	// Flags override the config file; --device assignments add to or
	// overwrite individual entries rather than replacing the table.
	if *port != "" {
		cfg.Port = *port
	}
	cfg.Once = *once
	for _, a := range assignments {
		name, uuid, ok := strings.Cut(a, "=")
		if !ok {
			return Config{}, &errors.ConfigurationError{
				Field: "device", Value: a, Reason: "expected Name=UUID",
			}
		}
		cfg.Devices[name] = uuid
	}

	cfg.loadEnvSettings()

	return cfg, nil
}

func (cfg *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &errors.ConfigurationError{
			Field: "config", Value: path, Reason: fmt.Sprintf("cannot read config file: %v", err),
		}
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return &errors.ConfigurationError{
			Field: "config", Value: path, Reason: fmt.Sprintf("cannot parse YAML: %v", err),
		}
	}

	if fc.Port != 0 {
		cfg.Port = strconv.Itoa(fc.Port)
	}
	for name, uuid := range fc.SesameUUIDs {
		cfg.Devices[name] = uuid
	}

	return nil
}

func (cfg *Config) loadEnvSettings() {
	cfg.APIKey = os.Getenv(apiKeyEnv)

	cfg.LogLevel = "info"
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	cfg.LogFormat = "text"
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = d
		} else if sec, err := strconv.Atoi(v); err == nil {
			cfg.PollInterval = time.Duration(sec) * time.Second
		}
	}

	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		} else if sec, err := strconv.Atoi(v); err == nil {
			cfg.CacheTTL = time.Duration(sec) * time.Second
		}
	}

	if v := os.Getenv("MAX_CONCURRENT_DEVICES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxConcurrentDevices = n
		}
	}
}

// Validate checks the configuration for consistency and required values.
func (cfg Config) Validate() error {
	if cfg.APIKey == "" {
		return &errors.ConfigurationError{
			Field: "api_key", Value: "", Reason: apiKeyEnv + " environment variable not set",
		}
	}

	if len(cfg.Devices) == 0 {
		return &errors.ConfigurationError{
			Field: "devices", Value: "", Reason: "no Sesame UUIDs configured",
		}
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return &errors.ConfigurationError{
			Field: "port", Value: cfg.Port, Reason: "port must be numeric",
		}
	}

	if cfg.PollInterval <= 0 {
		return &errors.ConfigurationError{
			Field: "poll_interval", Value: cfg.PollInterval.String(), Reason: "poll interval must be positive",
		}
	}

	if cfg.CacheTTL <= 0 {
		return &errors.ConfigurationError{
			Field: "cache_ttl", Value: cfg.CacheTTL.String(), Reason: "cache TTL must be positive",
		}
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, cfg.LogLevel) {
		return &errors.ConfigurationError{
			Field: "log_level", Value: cfg.LogLevel,
			Reason: fmt.Sprintf("valid options: %v", validLogLevels),
		}
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, cfg.LogFormat) {
		return &errors.ConfigurationError{
			Field: "log_format", Value: cfg.LogFormat,
			Reason: fmt.Sprintf("valid options: %v", validLogFormats),
		}
	}

	return nil
}

// deviceFlags collects repeated --device Name=UUID assignments.
type deviceFlags []string

func (d *deviceFlags) String() string {
	return strings.Join(*d, ",")
}

func (d *deviceFlags) Set(value string) error {
	*d = append(*d, value)
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
