package config

import (
	"fmt"
	"strings"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

// LogLevel represents the logging verbosity level
type LogLevel string

const (
	LogLevelSilent  LogLevel = "silent"  // No logging output
	LogLevelError   LogLevel = "error"   // Only errors
	LogLevelInfo    LogLevel = "info"    // Progress lines, warnings, and errors
	LogLevelDebug   LogLevel = "debug"   // Per-batch and per-delete detail
	LogLevelVerbose LogLevel = "verbose" // Request-level trace
)

// LogOutput selects the stream log lines are written to
type LogOutput string

const (
	LogOutputStdout LogOutput = "stdout"
	LogOutputStderr LogOutput = "stderr"
)

// LoggerConfig holds the configuration for logging
type LoggerConfig struct {
	Level      LogLevel  `json:"level" yaml:"level" toml:"level"`                                       // Log level
	Output     LogOutput `json:"output,omitempty" yaml:"output,omitempty" toml:"output,omitempty"`      // stdout or stderr
	AddSource  bool      `json:"add_source,omitempty" yaml:"add_source,omitempty" toml:"add_source"`    // Include source file and line number
	TimeFormat string    `json:"time_format,omitempty" yaml:"time_format,omitempty" toml:"time_format"` // Time format (empty for no timestamp)
}

// ParseLogLevel normalizes user input such as "INFO" or " debug "
func ParseLogLevel(s string) (LogLevel, error) {
	level := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	switch level {
	case LogLevelSilent, LogLevelError, LogLevelInfo, LogLevelDebug, LogLevelVerbose:
		return level, nil
	default:
		return "", fmt.Errorf("invalid log level: %s (must be one of: silent, error, info, debug, verbose): %w", s, model.ErrInvalidArgument)
	}
}

// Validate validates the logger configuration
func (lc *LoggerConfig) Validate() error {
	if lc.Level != "" {
		if _, err := ParseLogLevel(string(lc.Level)); err != nil {
			return err
		}
	}
	switch lc.Output {
	case "", LogOutputStdout, LogOutputStderr:
	default:
		return fmt.Errorf("invalid log output: %s (must be stdout or stderr): %w", lc.Output, model.ErrInvalidArgument)
	}
	return nil
}

// ApplyDefaults sets default values for logger configuration
func (lc *LoggerConfig) ApplyDefaults() {
	if lc.Level == "" {
		lc.Level = LogLevelInfo
	}
	if lc.Output == "" {
		lc.Output = LogOutputStderr
	}
	if lc.TimeFormat == "" {
		lc.TimeFormat = "2006-01-02 15:04:05"
	}
}
