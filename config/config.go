package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

const envPrefix = "TCCLEAN_"

// AppConfig represents the complete application configuration
type AppConfig struct {
	Server  ServerConfig  `json:"server" yaml:"server" toml:"server"`
	Cleanup CleanupConfig `json:"cleanup" yaml:"cleanup" toml:"cleanup"`
	Logger  LoggerConfig  `json:"logger" yaml:"logger" toml:"logger"`
	Journal JournalConfig `json:"journal" yaml:"journal" toml:"journal"`
	Report  ReportConfig  `json:"report" yaml:"report" toml:"report"`
	Notify  NotifyConfig  `json:"notify" yaml:"notify" toml:"notify"`
}

// Default returns a configuration with every optional setting at its default
func Default() *AppConfig {
	cfg := &AppConfig{
		Cleanup: CleanupConfig{BatchSize: 50},
	}
	cfg.ApplyDefaults()
	return cfg
}

// Validate validates the entire configuration
func (ac *AppConfig) Validate() error {
	if err := ac.Server.Validate(); err != nil {
		return fmt.Errorf("server config error: %w", err)
	}
	if err := ac.Cleanup.Validate(); err != nil {
		return fmt.Errorf("cleanup config error: %w", err)
	}
	if err := ac.Logger.Validate(); err != nil {
		return fmt.Errorf("logger config error: %w", err)
	}
	if err := ac.Journal.Validate(); err != nil {
		return fmt.Errorf("journal config error: %w", err)
	}
	if err := ac.Report.Validate(); err != nil {
		return fmt.Errorf("report config error: %w", err)
	}
	if err := ac.Notify.Validate(); err != nil {
		return fmt.Errorf("notify config error: %w", err)
	}
	return nil
}

// ApplyDefaults applies default values to all components
func (ac *AppConfig) ApplyDefaults() {
	ac.Server.ApplyDefaults()
	ac.Logger.ApplyDefaults()
	ac.Journal.ApplyDefaults()
	ac.Report.ApplyDefaults()
}

// LoadFromFile reads a yaml, toml or json file on top of the defaults.
// The format is chosen by file extension.
func LoadFromFile(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config file extension %q: %w", ext, model.ErrInvalidArgument)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*AppConfig, error) {
	return ApplyEnv(Default())
}

// ApplyEnv overrides cfg with any TCCLEAN_* environment variables that are set.
// Numeric and boolean values that do not parse are reported, not skipped.
func ApplyEnv(cfg *AppConfig) (*AppConfig, error) {
	env := &envReader{}

	// Server
	cfg.Server.URI = getEnv("URI", cfg.Server.URI)
	cfg.Server.ProjectName = getEnv("PROJECT", cfg.Server.ProjectName)
	cfg.Server.PersonalAccessToken = getEnv("TOKEN", cfg.Server.PersonalAccessToken)
	cfg.Server.APIVersion = getEnv("API_VERSION", cfg.Server.APIVersion)
	cfg.Server.TimeoutSeconds = env.getInt("TIMEOUT_SECONDS", cfg.Server.TimeoutSeconds)
	cfg.Server.MaxRetries = env.getInt("MAX_RETRIES", cfg.Server.MaxRetries)
	cfg.Server.MaxRPS = env.getInt("MAX_RPS", cfg.Server.MaxRPS)

	// Cleanup
	cfg.Cleanup.Delete = env.getBool("DELETE", cfg.Cleanup.Delete)
	cfg.Cleanup.BatchSize = env.getInt("BATCH_SIZE", cfg.Cleanup.BatchSize)
	cfg.Cleanup.FetchWorkers = env.getInt("FETCH_WORKERS", cfg.Cleanup.FetchWorkers)
	cfg.Cleanup.DeleteWorkers = env.getInt("DELETE_WORKERS", cfg.Cleanup.DeleteWorkers)

	// Logger
	cfg.Logger.Level = LogLevel(getEnv("LOG_LEVEL", string(cfg.Logger.Level)))
	cfg.Logger.Output = LogOutput(getEnv("LOG_OUTPUT", string(cfg.Logger.Output)))

	// Journal
	cfg.Journal.Path = getEnv("JOURNAL_PATH", cfg.Journal.Path)
	cfg.Journal.Bucket = getEnv("JOURNAL_BUCKET", cfg.Journal.Bucket)
	cfg.Journal.NoSync = env.getBool("JOURNAL_NO_SYNC", cfg.Journal.NoSync)

	// Report destination
	cfg.Report.DestinationType = DestinationType(getEnv("REPORT_TYPE", string(cfg.Report.DestinationType)))
	if host := getEnv("FTP_HOST", ""); host != "" {
		if cfg.Report.FTP == nil {
			cfg.Report.FTP = &FTPConfig{}
		}
		cfg.Report.FTP.Host = host
		cfg.Report.FTP.Port = env.getInt("FTP_PORT", cfg.Report.FTP.Port)
		cfg.Report.FTP.Username = getEnv("FTP_USERNAME", cfg.Report.FTP.Username)
		cfg.Report.FTP.Password = getEnv("FTP_PASSWORD", cfg.Report.FTP.Password)
		cfg.Report.FTP.BasePath = getEnv("FTP_BASE_PATH", cfg.Report.FTP.BasePath)
	}
	if bucket := getEnv("S3_BUCKET", ""); bucket != "" {
		if cfg.Report.S3 == nil {
			cfg.Report.S3 = &S3Config{}
		}
		cfg.Report.S3.Bucket = bucket
		cfg.Report.S3.Region = getEnv("S3_REGION", cfg.Report.S3.Region)
		cfg.Report.S3.Prefix = getEnv("S3_PREFIX", cfg.Report.S3.Prefix)
		cfg.Report.S3.AccessKeyID = getEnv("S3_ACCESS_KEY_ID", cfg.Report.S3.AccessKeyID)
		cfg.Report.S3.SecretAccessKey = getEnv("S3_SECRET_ACCESS_KEY", cfg.Report.S3.SecretAccessKey)
		cfg.Report.S3.Endpoint = getEnv("S3_ENDPOINT", cfg.Report.S3.Endpoint)
	}

	// Notify
	cfg.Notify.SlackToken = getEnv("SLACK_TOKEN", cfg.Notify.SlackToken)
	cfg.Notify.SlackChannel = getEnv("SLACK_CHANNEL", cfg.Notify.SlackChannel)

	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// Helper functions for environment variables; keys are given without the TCCLEAN_ prefix
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

// envReader parses typed variables and collects the ones that are malformed
type envReader struct {
	errs []error
}

func (r *envReader) getInt(key string, defaultValue int) int {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s=%q is not an integer: %w", envPrefix, key, value, model.ErrInvalidArgument))
		return defaultValue
	}
	return intVal
}

func (r *envReader) getBool(key string, defaultValue bool) bool {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s=%q is not a boolean: %w", envPrefix, key, value, model.ErrInvalidArgument))
		return defaultValue
	}
	return boolVal
}
