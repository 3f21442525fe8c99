package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Feed contains configuration for the author feed and its OAuth credential.
type Feed struct {
	BaseURL             string   `toml:"base_url"`
	AuthURL             string   `toml:"auth_url"`
	Author              string   `toml:"author"`
	ClientID            string   `toml:"client_id"`
	ClientSecret        string   `toml:"client_secret"`
	Username            string   `toml:"username"`
	Password            string   `toml:"password"`
	UserAgent           string   `toml:"user_agent"`
	PageSize            int      `toml:"page_size"`
	PageDelaySeconds    int      `toml:"page_delay_seconds"`
	LookbackDays        int      `toml:"lookback_days"`
	FetchRetries        int      `toml:"fetch_retries"`
	RetryBackoffSeconds int      `toml:"retry_backoff_seconds"`
	RequestTimeout      int      `toml:"request_timeout"`
	Vocabulary          []string `toml:"vocabulary"`
}

// Debrid contains configuration for the unrestrict service.
type Debrid struct {
	APIToken            string `toml:"api_token"`
	BaseURL             string `toml:"base_url"`
	RequestsPerMinute   int    `toml:"requests_per_minute"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	MaxPollAttempts     int    `toml:"max_poll_attempts"`
	RequestTimeout      int    `toml:"request_timeout"`
	SourceLabel         string `toml:"source_label"`
}

// Pipeline contains configuration for ingest pass decisions.
type Pipeline struct {
	Qualities       []string `toml:"qualities"`
	CooldownMinutes int      `toml:"cooldown_minutes"`
}

// Daemon contains configuration for scheduled passes.
type Daemon struct {
	Schedule   string `toml:"schedule"`
	RunOnStart bool   `toml:"run_on_start"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	EventReady     bool   `toml:"event_ready"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for pitlane.
//
// Configuration sections by subsystem:
//   - Paths: database and log directories
//   - Feed: author listing, OAuth password grant, pagination pacing
//   - Debrid: unrestrict service token, rate limit and polling
//   - Pipeline: tracked quality tiers and resolver cooldown
//   - Daemon: cron schedule for unattended passes
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level and file retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Feed          Feed          `toml:"feed"`
	Debrid        Debrid        `toml:"debrid"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Daemon        Daemon        `toml:"daemon"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("pitlane.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the catalog database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "pitlane.db")
}

// LockPath returns the file used to serialize ingest passes across processes.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "pitlane.lock")
}

// PageDelay returns the pause between feed page requests.
func (c *Config) PageDelay() time.Duration {
	return time.Duration(c.Feed.PageDelaySeconds) * time.Second
}

// Lookback returns how far back a pass reads the feed.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Feed.LookbackDays) * 24 * time.Hour
}

// RetryBackoff returns the base delay between retries of a failed page fetch.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Feed.RetryBackoffSeconds) * time.Second
}

// PollInterval returns the wait between resolver status polls.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Debrid.PollIntervalSeconds) * time.Second
}

// Cooldown returns how long an in-flight resolver job suppresses work on the
// same reference.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Pipeline.CooldownMinutes) * time.Minute
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
