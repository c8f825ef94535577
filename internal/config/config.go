// Package config loads and validates the application configuration
// from a YAML file via viper, producing parsed fields (durations, log level)
// for the rest of the application.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/smartfetch/internal/logger"
)

// Config holds all configuration settings.
type Config struct {
	// UserAgentsPath is the path to the line-oriented user agent list.
	UserAgentsPath string `mapstructure:"user_agents_path"`
	// ProxiesPath is the path to the line-oriented proxy URL list.
	// Empty means no proxies are configured.
	ProxiesPath string `mapstructure:"proxies_path"`
	// CookiesPath is the path of the persisted cookie jar.
	// Empty disables cookie persistence.
	CookiesPath string `mapstructure:"cookies_path"`
	// DebugDirectory is the directory where debug records are written.
	DebugDirectory string `mapstructure:"debug_directory"`
	// OutputPath is the directory where fetched bodies are saved.
	// Empty means bodies are written to stdout.
	OutputPath string `mapstructure:"output_path"`
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level"`
	// RequestTimeout is the per-attempt request deadline (e.g., "30s").
	RequestTimeout string `mapstructure:"request_timeout"`
	// RetryAttemptsCount is the number of attempts for failed fetches.
	RetryAttemptsCount int64 `mapstructure:"retry_attempts_count"`
	// MinRetryPause is the minimum pause duration between retry attempts.
	MinRetryPause string `mapstructure:"min_retry_pause"`
	// MaxRetryPause is the maximum pause duration between retry attempts.
	MaxRetryPause string `mapstructure:"max_retry_pause"`
	// ResponseCacheSize is the capacity of the fetched body cache.
	ResponseCacheSize int64 `mapstructure:"response_cache_size"`
	// DecodeJSON indicates whether fetched bodies are decoded as JSON (set from flags).
	DecodeJSON bool
	// DebugRequests indicates whether request/response pairs are captured (set from flags).
	DebugRequests bool
	// RotateIdentities indicates whether each attempt uses a freshly rotated client (set from flags).
	RotateIdentities bool
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level
	// ParsedRequestTimeout is the parsed per-attempt request deadline.
	ParsedRequestTimeout time.Duration
	// ParsedMinRetryPause is the parsed minimum retry pause duration.
	ParsedMinRetryPause time.Duration
	// ParsedMaxRetryPause is the parsed maximum retry pause duration.
	ParsedMaxRetryPause time.Duration
}

const (
	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".smartfetch.yaml"

	// DefaultRequestTimeout is used when request_timeout is not set.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultResponseCacheSize is used when response_cache_size is not set.
	DefaultResponseCacheSize = 256

	// DefaultMaxLogLength is the default maximum size (in bytes) for dumped request/response data.
	DefaultMaxLogLength = 1 * 1024 * 1024 // 1 MB
)

// Static error definitions for better error handling.
var (
	// ErrEmptyUserAgentsPath indicates that the user agent list path is missing.
	ErrEmptyUserAgentsPath = errors.New("user_agents_path cannot be empty")
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrInvalidRetryAttempts indicates that the retry attempts count is invalid.
	ErrInvalidRetryAttempts = errors.New("retry attempts count must be a positive integer")
	// ErrInvalidRequestTimeout indicates that the request timeout duration is invalid.
	ErrInvalidRequestTimeout = errors.New("request_timeout must be positive")
	// ErrInvalidMinRetryPause indicates that the min retry pause duration is invalid.
	ErrInvalidMinRetryPause = errors.New("min_retry_pause must be positive")
	// ErrInvalidMaxRetryPause indicates that the max retry pause duration is invalid.
	ErrInvalidMaxRetryPause = errors.New("max_retry_pause must be positive")
	// ErrMaxRetryPauseTooLow indicates that max_retry_pause is lower than min_retry_pause.
	ErrMaxRetryPauseTooLow = errors.New("max_retry_pause cannot be lower than min_retry_pause")
	// ErrInvalidResponseCacheSize indicates that the response cache size is invalid.
	ErrInvalidResponseCacheSize = errors.New("response cache size must be a positive integer")
)

// LoadConfig loads configuration settings from a YAML file.
func LoadConfig(configFilename string) (*Config, error) {
	if configFilename == "" {
		configFilename = DefaultConfigFilename
	}

	viper.SetConfigFile(configFilename)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config from file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// ValidateConfig checks the configuration for validity and sets derived fields.
func ValidateConfig(cfg *Config) error {
	var err error

	if strings.TrimSpace(cfg.UserAgentsPath) == "" {
		return ErrEmptyUserAgentsPath
	}

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	if cfg.RetryAttemptsCount <= 0 {
		return ErrInvalidRetryAttempts
	}

	if cfg.RequestTimeout == "" {
		cfg.ParsedRequestTimeout = DefaultRequestTimeout
	} else {
		cfg.ParsedRequestTimeout, err = time.ParseDuration(cfg.RequestTimeout)
		if err != nil {
			return fmt.Errorf("failed to parse request timeout: %w", err)
		}

		if cfg.ParsedRequestTimeout <= 0 {
			return ErrInvalidRequestTimeout
		}
	}

	cfg.ParsedMinRetryPause, err = time.ParseDuration(cfg.MinRetryPause)
	if err != nil {
		return fmt.Errorf("failed to parse min retry pause: %w", err)
	}

	if cfg.ParsedMinRetryPause <= 0 {
		return ErrInvalidMinRetryPause
	}

	cfg.ParsedMaxRetryPause, err = time.ParseDuration(cfg.MaxRetryPause)
	if err != nil {
		return fmt.Errorf("failed to parse max retry pause: %w", err)
	}

	if cfg.ParsedMaxRetryPause <= 0 {
		return ErrInvalidMaxRetryPause
	}

	if cfg.ParsedMaxRetryPause < cfg.ParsedMinRetryPause {
		return ErrMaxRetryPauseTooLow
	}

	if cfg.ResponseCacheSize == 0 {
		cfg.ResponseCacheSize = DefaultResponseCacheSize
	}

	if cfg.ResponseCacheSize < 0 {
		return ErrInvalidResponseCacheSize
	}

	return nil
}
