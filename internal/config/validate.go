package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is structurally usable. Credentials are
// checked separately by ValidateCredentials so read-only commands work
// without them.
func (c *Config) Validate() error {
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateDebrid(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateDaemon(); err != nil {
		return err
	}
	return nil
}

// ValidateCredentials ensures the feed and unrestrict credentials needed by
// an ingest pass are present.
func (c *Config) ValidateCredentials() error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	missing := func(field, env string) error {
		return fmt.Errorf("%s is required. Set %s env var or edit %s (create with 'pitlane config init')", field, env, defaultPath)
	}
	switch {
	case c.Feed.Author == "":
		return fmt.Errorf("feed.author is required. Edit %s (create with 'pitlane config init')", defaultPath)
	case c.Feed.ClientID == "":
		return missing("feed.client_id", "REDDIT_CLIENT_ID")
	case c.Feed.ClientSecret == "":
		return missing("feed.client_secret", "REDDIT_CLIENT_SECRET")
	case c.Feed.Username == "":
		return missing("feed.username", "REDDIT_USERNAME")
	case c.Feed.Password == "":
		return missing("feed.password", "REDDIT_PASSWORD")
	case c.Debrid.APIToken == "":
		return missing("debrid.api_token", "REAL_DEBRID_API_TOKEN")
	}
	return nil
}

func (c *Config) validateFeed() error {
	if !strings.HasPrefix(c.Feed.BaseURL, "http") {
		return errors.New("feed.base_url must be an http(s) URL")
	}
	if !strings.HasPrefix(c.Feed.AuthURL, "http") {
		return errors.New("feed.auth_url must be an http(s) URL")
	}
	return ensurePositiveMap(map[string]int{
		"feed.lookback_days":         c.Feed.LookbackDays,
		"feed.retry_backoff_seconds": c.Feed.RetryBackoffSeconds,
	})
}

func (c *Config) validateDebrid() error {
	if !strings.HasPrefix(c.Debrid.BaseURL, "http") {
		return errors.New("debrid.base_url must be an http(s) URL")
	}
	return ensurePositiveMap(map[string]int{
		"debrid.requests_per_minute":   c.Debrid.RequestsPerMinute,
		"debrid.poll_interval_seconds": c.Debrid.PollIntervalSeconds,
		"debrid.max_poll_attempts":     c.Debrid.MaxPollAttempts,
	})
}

func (c *Config) validatePipeline() error {
	for _, q := range c.Pipeline.Qualities {
		if q != "4K" && q != "1080p" {
			return fmt.Errorf("pipeline.qualities: unsupported quality %q (use \"4K\" or \"1080p\")", q)
		}
	}
	if c.Pipeline.CooldownMinutes <= 0 {
		return errors.New("pipeline.cooldown_minutes must be positive")
	}
	return nil
}

func (c *Config) validateDaemon() error {
	if _, err := cron.ParseStandard(c.Daemon.Schedule); err != nil {
		return fmt.Errorf("daemon.schedule: %w", err)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
