package testsupport

import (
	"path/filepath"
	"testing"

	"pitlane/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories and
// placeholder credentials per test. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Feed.Author = "test-uploader"
	cfgVal.Feed.ClientID = "test-client"
	cfgVal.Feed.ClientSecret = "test-secret"
	cfgVal.Feed.Username = "test-user"
	cfgVal.Feed.Password = "test-pass"
	cfgVal.Feed.PageDelaySeconds = 0
	cfgVal.Debrid.APIToken = "test-token"
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithFeedURL points the feed and its token endpoint at a test server.
func WithFeedURL(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Feed.BaseURL = baseURL
		b.cfg.Feed.AuthURL = baseURL + "/api/v1/access_token"
	}
}

// WithDebridURL points the unrestrict client at a test server.
func WithDebridURL(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Debrid.BaseURL = baseURL
	}
}

// WithNtfyTopic enables notifications against the given endpoint.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
