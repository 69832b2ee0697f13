package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the Pinterest downloader
type Config struct {
	// Pinterest endpoint and session settings
	Pinterest PinterestConfig `yaml:"pinterest" json:"pinterest"`

	// Browser session settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Retry policy for network fetches
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PinterestConfig holds Pinterest-specific configuration
type PinterestConfig struct {
	BaseURL    string `yaml:"base_url" json:"base_url"`
	UserAgent  string `yaml:"user_agent" json:"user_agent"`
	CookieFile string `yaml:"cookie_file" json:"cookie_file"`
	Email      string `yaml:"email" json:"email"`
	Password   string `yaml:"-" json:"-"`
}

// BrowserConfig holds browser session configuration
type BrowserConfig struct {
	ChromePath  string        `yaml:"chrome_path" json:"chrome_path"`
	Headless    bool          `yaml:"headless" json:"headless"`
	NavTimeout  time.Duration `yaml:"nav_timeout" json:"nav_timeout"`
	WaitTimeout time.Duration `yaml:"wait_timeout" json:"wait_timeout"`
	ScrollDelay time.Duration `yaml:"scroll_delay" json:"scroll_delay"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Limit            int           `yaml:"limit" json:"limit"`
	DownloadTimeout  time.Duration `yaml:"download_timeout" json:"download_timeout"`
	TranscodeTimeout time.Duration `yaml:"transcode_timeout" json:"transcode_timeout"`
	PinDelay         time.Duration `yaml:"pin_delay" json:"pin_delay"`
	FFmpegPath       string        `yaml:"ffmpeg_path" json:"ffmpeg_path"`
	IgnoreImages     bool          `yaml:"ignore_images" json:"ignore_images"`
	IgnoreVideos     bool          `yaml:"ignore_videos" json:"ignore_videos"`
	IgnoreMetadata   bool          `yaml:"ignore_metadata" json:"ignore_metadata"`
	DeleteAfter      bool          `yaml:"delete_after" json:"delete_after"`
	Recursive        bool          `yaml:"recursive" json:"recursive"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	LogDirectory  string `yaml:"log_directory" json:"log_directory"`
}

// RetryConfig holds retry policy configuration
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Pinterest: PinterestConfig{
			BaseURL:    "https://pinterest.com",
			UserAgent:  "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			CookieFile: "session-cookies.json",
		},
		Browser: BrowserConfig{
			Headless:    true,
			NavTimeout:  30 * time.Second,
			WaitTimeout: 10 * time.Second,
			ScrollDelay: 1500 * time.Millisecond,
		},
		Download: DownloadConfig{
			Limit:            100,
			DownloadTimeout:  60 * time.Second,
			TranscodeTimeout: 5 * time.Minute,
			PinDelay:         500 * time.Millisecond,
			FFmpegPath:       "ffmpeg",
		},
		Output: OutputConfig{
			BaseDirectory: "./output",
			LogDirectory:  "./logs",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("PINDL_BASE_URL"); baseURL != "" {
		c.Pinterest.BaseURL = baseURL
	}
	if email := os.Getenv("PINDL_EMAIL"); email != "" {
		c.Pinterest.Email = email
	}
	if password := os.Getenv("PINDL_PASSWORD"); password != "" {
		c.Pinterest.Password = password
	}
	if cookieFile := os.Getenv("PINDL_COOKIE_FILE"); cookieFile != "" {
		c.Pinterest.CookieFile = cookieFile
	}
	if chromePath := os.Getenv("PINDL_CHROME_PATH"); chromePath != "" {
		c.Browser.ChromePath = chromePath
	}
	if outputDir := os.Getenv("PINDL_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if logDir := os.Getenv("PINDL_LOG_DIR"); logDir != "" {
		c.Output.LogDirectory = logDir
	}
	if ffmpeg := os.Getenv("PINDL_FFMPEG_PATH"); ffmpeg != "" {
		c.Download.FFmpegPath = ffmpeg
	}
	if limit := os.Getenv("PINDL_LIMIT"); limit != "" {
		var val int
		fmt.Sscanf(limit, "%d", &val)
		if val != 0 {
			c.Download.Limit = val
		}
	}
	if rpm := os.Getenv("PINDL_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if logLevel := os.Getenv("PINDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if headless := os.Getenv("PINDL_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) != "false"
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".pindl.yaml",
		".pindl.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "pindl", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "pindl", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".pindl.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Pinterest.BaseURL == "" {
		errs = append(errs, errors.New("pinterest base URL is required"))
	}
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.LogDirectory == "" {
		errs = append(errs, errors.New("log directory is required"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.TranscodeTimeout <= 0 {
		errs = append(errs, errors.New("transcode timeout must be positive"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if output, ok := flags["output"].(string); ok && output != "" {
		c.Output.BaseDirectory = output
	}
	// Callers only pass "limit" when the flag was explicitly set, so an
	// explicit zero (empty crawl) survives the merge.
	if limit, ok := flags["limit"].(int); ok {
		c.Download.Limit = limit
	}
	if deleteAfter, ok := flags["delete-after"].(bool); ok {
		c.Download.DeleteAfter = deleteAfter
	}
	if ignoreImages, ok := flags["ignore-images"].(bool); ok {
		c.Download.IgnoreImages = ignoreImages
	}
	if ignoreVideos, ok := flags["ignore-videos"].(bool); ok {
		c.Download.IgnoreVideos = ignoreVideos
	}
	if ignoreMetadata, ok := flags["ignore-metadata"].(bool); ok {
		c.Download.IgnoreMetadata = ignoreMetadata
	}
	if recursive, ok := flags["recursive"].(bool); ok {
		c.Download.Recursive = recursive
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".pindl.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
