package config

const (
	defaultConfigPath          = "~/.config/pitlane/config.toml"
	defaultDataDir             = "~/.local/share/pitlane"
	defaultLogDir              = "~/.local/share/pitlane/logs"
	defaultFeedBaseURL         = "https://oauth.reddit.com"
	defaultFeedAuthURL         = "https://www.reddit.com/api/v1/access_token"
	defaultFeedUserAgent       = "pitlane/dev"
	defaultFeedPageSize        = 100
	defaultFeedPageDelay       = 2
	defaultFeedLookbackDays    = 14
	defaultFeedFetchRetries    = 3
	defaultFeedRetryBackoff    = 5
	defaultRequestTimeout      = 30
	defaultDebridBaseURL       = "https://api.real-debrid.com/rest/1.0"
	defaultDebridRPM           = 60
	defaultDebridPollInterval  = 10
	defaultDebridPollAttempts  = 30
	defaultDebridSourceLabel   = "real-debrid"
	defaultPipelineCooldownMin = 30
	defaultDaemonSchedule      = "*/30 * * * *"
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 14
)

var (
	defaultVocabulary = []string{"formula 1", "formula1", "f1"}
	defaultQualities  = []string{"4K", "1080p"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Feed: Feed{
			BaseURL:             defaultFeedBaseURL,
			AuthURL:             defaultFeedAuthURL,
			UserAgent:           defaultFeedUserAgent,
			PageSize:            defaultFeedPageSize,
			PageDelaySeconds:    defaultFeedPageDelay,
			LookbackDays:        defaultFeedLookbackDays,
			FetchRetries:        defaultFeedFetchRetries,
			RetryBackoffSeconds: defaultFeedRetryBackoff,
			RequestTimeout:      defaultRequestTimeout,
			Vocabulary:          append([]string(nil), defaultVocabulary...),
		},
		Debrid: Debrid{
			BaseURL:             defaultDebridBaseURL,
			RequestsPerMinute:   defaultDebridRPM,
			PollIntervalSeconds: defaultDebridPollInterval,
			MaxPollAttempts:     defaultDebridPollAttempts,
			RequestTimeout:      defaultRequestTimeout,
			SourceLabel:         defaultDebridSourceLabel,
		},
		Pipeline: Pipeline{
			Qualities:       append([]string(nil), defaultQualities...),
			CooldownMinutes: defaultPipelineCooldownMin,
		},
		Daemon: Daemon{
			Schedule:   defaultDaemonSchedule,
			RunOnStart: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			EventReady:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
