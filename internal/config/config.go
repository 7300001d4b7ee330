package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is the application version
const Version = "0.1.0"

// DefaultUserAgent is sent when no user agent is configured
const DefaultUserAgent = "getfile/" + Version

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. GETFILE_DOWNLOAD_MAX_RETRIES
const EnvPrefix = "GETFILE"

// searchPaths are tried in order when no config file is given
var searchPaths = []string{".", "~/.config/getfile"}

// flagKeys maps command line flags to config keys
var flagKeys = map[string]string{
	"probe-timeout":         "http.probe_timeout",
	"user-agent":            "http.user_agent",
	"insecure":              "http.skip_tls_verify",
	"buffer-size":           "download.buffer_size_kb",
	"retries":               "download.max_retries",
	"retry-delay":           "download.retry_delay",
	"require-accept-ranges": "download.require_accept_ranges",
	"log-level":             "logging.level",
	"log-format":            "logging.format",
	"verbose":               "logging.verbose",
	"older-than":            "maintenance.partial_max_age",
}

// Config represents the entire application configuration
type Config struct {
	HTTP        HTTPConfig        `mapstructure:"http"`
	Download    DownloadConfig    `mapstructure:"download"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// HTTPConfig contains HTTP client configuration
type HTTPConfig struct {
	ProbeTimeout          string `mapstructure:"probe_timeout"`
	ResponseHeaderTimeout string `mapstructure:"response_header_timeout"`
	SkipTLSVerify         bool   `mapstructure:"skip_tls_verify"`
	UserAgent             string `mapstructure:"user_agent"`
}

// DownloadConfig contains download settings
type DownloadConfig struct {
	BufferSizeKB        int    `mapstructure:"buffer_size_kb"`
	MaxRetries          int    `mapstructure:"max_retries"`
	RetryDelay          string `mapstructure:"retry_delay"`
	ProgressInterval    string `mapstructure:"progress_interval"`
	RequireAcceptRanges bool   `mapstructure:"require_accept_ranges"`
	CheckFreeSpace      bool   `mapstructure:"check_free_space"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	Verbose bool   `mapstructure:"verbose"`
}

// MaintenanceConfig contains partial file cleanup settings
type MaintenanceConfig struct {
	PartialMaxAge string `mapstructure:"partial_max_age"`
}

// Load loads configuration from configPath, GETFILE_* environment variables
// and flags, in increasing order of precedence. An empty configPath
// searches the default locations and tolerates a missing file; an explicit
// path must exist. flags may be nil.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.probe_timeout", "30s")
	v.SetDefault("http.response_header_timeout", "30s")
	v.SetDefault("http.skip_tls_verify", false)
	v.SetDefault("http.user_agent", DefaultUserAgent)
	v.SetDefault("download.buffer_size_kb", 64)
	v.SetDefault("download.max_retries", 3)
	v.SetDefault("download.retry_delay", "2s")
	v.SetDefault("download.progress_interval", "500ms")
	v.SetDefault("download.require_accept_ranges", false)
	v.SetDefault("download.check_free_space", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.verbose", false)
	v.SetDefault("maintenance.partial_max_age", "168h")
}

func readConfigFile(v *viper.Viper, configPath string) error {
	v.SetConfigType("yaml")

	if configPath != "" {
		path, err := homedir.Expand(configPath)
		if err != nil {
			return fmt.Errorf("failed to expand config path: %w", err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	v.SetConfigName("getfile")
	for _, p := range searchPaths {
		if dir, err := homedir.Expand(p); err == nil {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate HTTP config
	if _, err := time.ParseDuration(c.HTTP.ProbeTimeout); err != nil {
		return fmt.Errorf("invalid http.probe_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.HTTP.ResponseHeaderTimeout); err != nil {
		return fmt.Errorf("invalid http.response_header_timeout: %w", err)
	}

	// Validate download config
	if c.Download.BufferSizeKB < 1 || c.Download.BufferSizeKB > 64*1024 {
		return fmt.Errorf("download.buffer_size_kb must be between 1 and 65536")
	}
	if c.Download.MaxRetries < 0 || c.Download.MaxRetries > 100 {
		return fmt.Errorf("download.max_retries must be between 0 and 100")
	}
	if d, err := time.ParseDuration(c.Download.RetryDelay); err != nil {
		return fmt.Errorf("invalid download.retry_delay: %w", err)
	} else if d < 0 {
		return fmt.Errorf("download.retry_delay must not be negative")
	}
	if _, err := time.ParseDuration(c.Download.ProgressInterval); err != nil {
		return fmt.Errorf("invalid download.progress_interval: %w", err)
	}

	// Validate maintenance config
	if _, err := time.ParseDuration(c.Maintenance.PartialMaxAge); err != nil {
		return fmt.Errorf("invalid maintenance.partial_max_age: %w", err)
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	return nil
}

// GetProbeTimeout returns the probe timeout as time.Duration
func (c *HTTPConfig) GetProbeTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ProbeTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetResponseHeaderTimeout returns the response header timeout as time.Duration
func (c *HTTPConfig) GetResponseHeaderTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ResponseHeaderTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetBufferSize returns the buffer size in bytes
func (c *DownloadConfig) GetBufferSize() int {
	if c.BufferSizeKB <= 0 {
		return 64 * 1024 // 64KB default
	}
	return c.BufferSizeKB * 1024
}

// GetRetryDelay returns the retry delay as time.Duration; zero is allowed
func (c *DownloadConfig) GetRetryDelay() time.Duration {
	d, err := time.ParseDuration(c.RetryDelay)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// GetProgressInterval returns the progress interval as time.Duration
func (c *DownloadConfig) GetProgressInterval() time.Duration {
	d, _ := time.ParseDuration(c.ProgressInterval)
	if d == 0 {
		return 500 * time.Millisecond
	}
	return d
}

// GetPartialMaxAge returns the partial file max age as time.Duration
func (c *MaintenanceConfig) GetPartialMaxAge() time.Duration {
	d, _ := time.ParseDuration(c.PartialMaxAge)
	if d == 0 {
		return 7 * 24 * time.Hour
	}
	return d
}

// EffectiveLevel returns the log level, lowered to debug in verbose mode
func (c *LoggingConfig) EffectiveLevel() string {
	if c.Verbose {
		return "debug"
	}
	return c.Level
}
