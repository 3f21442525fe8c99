package pipeline

import (
	"log/slog"
	"time"

	"pitlane/internal/clock"
	"pitlane/internal/config"
	"pitlane/internal/notifications"
)

const defaultMaxEmptyPages = 2

// Options tunes one Orchestrator.
type Options struct {
	Vocabulary    []string
	Lookback      time.Duration
	PageDelay     time.Duration
	MaxEmptyPages int
	FetchRetries  int
	RetryBackoff  time.Duration
	Cooldown      time.Duration
	Qualities     []string
	// LockPath names the cross-process pass lock. Empty disables it.
	LockPath string
}

// OptionsFromConfig maps configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{MaxEmptyPages: defaultMaxEmptyPages}
	}
	return Options{
		Vocabulary:    append([]string(nil), cfg.Feed.Vocabulary...),
		Lookback:      cfg.Lookback(),
		PageDelay:     cfg.PageDelay(),
		MaxEmptyPages: defaultMaxEmptyPages,
		FetchRetries:  cfg.Feed.FetchRetries,
		RetryBackoff:  cfg.RetryBackoff(),
		Cooldown:      cfg.Cooldown(),
		Qualities:     append([]string(nil), cfg.Pipeline.Qualities...),
		LockPath:      cfg.LockPath(),
	}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the clock used for delays, cool-downs, and rollover.
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithNotifier sets the notification sink for ready events and pass
// summaries.
func WithNotifier(n notifications.Service) Option {
	return func(o *Orchestrator) {
		if n != nil {
			o.notifier = n
		}
	}
}
