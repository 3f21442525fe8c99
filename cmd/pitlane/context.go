package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"pitlane/internal/config"
	"pitlane/internal/debrid"
	"pitlane/internal/feed"
	"pitlane/internal/logging"
	"pitlane/internal/notifications"
	"pitlane/internal/pipeline"
	"pitlane/internal/resolver"
	"pitlane/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// withStore opens the catalog for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(cfg, st)
}

// newOrchestrator wires the feed client, the debrid-backed resolver, and
// notifications around st.
func newOrchestrator(cfg *config.Config, st *store.Store, logger *slog.Logger) (*pipeline.Orchestrator, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}
	feedClient, err := feed.New(cfg.Feed)
	if err != nil {
		return nil, fmt.Errorf("feed client: %w", err)
	}
	debridClient, err := debrid.New(cfg.Debrid.APIToken, cfg.Debrid.BaseURL,
		debrid.WithRateLimit(cfg.Debrid.RequestsPerMinute),
		debrid.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Debrid.RequestTimeout) * time.Second}),
	)
	if err != nil {
		return nil, fmt.Errorf("debrid client: %w", err)
	}
	res := resolver.New(debridClient, st, resolver.Options{
		PollInterval:    cfg.PollInterval(),
		MaxPollAttempts: cfg.Debrid.MaxPollAttempts,
		SourceLabel:     cfg.Debrid.SourceLabel,
	}, resolver.WithLogger(logger))

	return pipeline.New(feedClient, res, st, pipeline.OptionsFromConfig(cfg),
		pipeline.WithLogger(logger),
		pipeline.WithNotifier(notifications.NewService(cfg)),
	), nil
}

func commandLogger(cfg *config.Config, withFile bool) (*slog.Logger, error) {
	logger, err := logging.NewFromConfig(cfg, withFile)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
