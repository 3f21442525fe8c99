package config

import (
	"fmt"
	"os"
	"strings"

	"pitlane/internal/parser"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFeed()
	c.normalizeDebrid()
	c.normalizePipeline()
	c.normalizeDaemon()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

// envOverride replaces *field with the trimmed value of key when it is set.
func envOverride(field *string, key string) {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		*field = strings.TrimSpace(value)
		return
	}
	*field = strings.TrimSpace(*field)
}

func (c *Config) normalizeFeed() {
	envOverride(&c.Feed.ClientID, "REDDIT_CLIENT_ID")
	envOverride(&c.Feed.ClientSecret, "REDDIT_CLIENT_SECRET")
	envOverride(&c.Feed.Username, "REDDIT_USERNAME")
	envOverride(&c.Feed.Password, "REDDIT_PASSWORD")

	c.Feed.BaseURL = strings.TrimRight(strings.TrimSpace(c.Feed.BaseURL), "/")
	if c.Feed.BaseURL == "" {
		c.Feed.BaseURL = defaultFeedBaseURL
	}
	c.Feed.AuthURL = strings.TrimSpace(c.Feed.AuthURL)
	if c.Feed.AuthURL == "" {
		c.Feed.AuthURL = defaultFeedAuthURL
	}
	c.Feed.Author = strings.TrimPrefix(strings.TrimSpace(c.Feed.Author), "u/")
	c.Feed.UserAgent = strings.TrimSpace(c.Feed.UserAgent)
	if c.Feed.UserAgent == "" {
		c.Feed.UserAgent = defaultFeedUserAgent
	}
	if c.Feed.PageSize <= 0 {
		c.Feed.PageSize = defaultFeedPageSize
	}
	if c.Feed.PageSize > 100 {
		c.Feed.PageSize = 100
	}
	if c.Feed.PageDelaySeconds < 0 {
		c.Feed.PageDelaySeconds = 0
	}
	if c.Feed.FetchRetries < 0 {
		c.Feed.FetchRetries = 0
	}
	if c.Feed.RequestTimeout <= 0 {
		c.Feed.RequestTimeout = defaultRequestTimeout
	}

	terms := make([]string, 0, len(c.Feed.Vocabulary))
	seen := make(map[string]struct{}, len(c.Feed.Vocabulary))
	for _, term := range c.Feed.Vocabulary {
		normalized := strings.ToLower(strings.TrimSpace(term))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		terms = append(terms, normalized)
	}
	if len(terms) == 0 {
		terms = append(terms, defaultVocabulary...)
	}
	c.Feed.Vocabulary = terms
}

func (c *Config) normalizeDebrid() {
	envOverride(&c.Debrid.APIToken, "REAL_DEBRID_API_TOKEN")
	c.Debrid.BaseURL = strings.TrimRight(strings.TrimSpace(c.Debrid.BaseURL), "/")
	if c.Debrid.BaseURL == "" {
		c.Debrid.BaseURL = defaultDebridBaseURL
	}
	if c.Debrid.RequestTimeout <= 0 {
		c.Debrid.RequestTimeout = defaultRequestTimeout
	}
	c.Debrid.SourceLabel = strings.TrimSpace(c.Debrid.SourceLabel)
	if c.Debrid.SourceLabel == "" {
		c.Debrid.SourceLabel = defaultDebridSourceLabel
	}
}

func (c *Config) normalizePipeline() {
	qualities := make([]string, 0, len(c.Pipeline.Qualities))
	seen := make(map[string]struct{}, len(c.Pipeline.Qualities))
	for _, raw := range c.Pipeline.Qualities {
		q := canonicalQuality(raw)
		if _, exists := seen[q]; exists {
			continue
		}
		seen[q] = struct{}{}
		qualities = append(qualities, q)
	}
	if len(qualities) == 0 {
		qualities = append(qualities, defaultQualities...)
	}
	c.Pipeline.Qualities = qualities
}

// canonicalQuality maps common spellings onto the stored tier names. Unknown
// values pass through for Validate to reject.
func canonicalQuality(value string) string {
	if q := parser.ParseQuality(value); q != parser.QualityUnknown {
		return string(q)
	}
	return strings.TrimSpace(value)
}

func (c *Config) normalizeNotifications() {
	envOverride(&c.Notifications.NtfyTopic, "NTFY_TOPIC")
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "console", "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeDaemon() {
	c.Daemon.Schedule = strings.TrimSpace(c.Daemon.Schedule)
	if c.Daemon.Schedule == "" {
		c.Daemon.Schedule = defaultDaemonSchedule
	}
}
