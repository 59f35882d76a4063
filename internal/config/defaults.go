package config

const (
	defaultDataDir               = "~/.local/share/newsdiet"
	defaultLogDir                = "~/.local/share/newsdiet/logs"
	defaultAPIBind               = "127.0.0.1:8000"
	defaultLLMBaseURL            = "http://ollama:11434/v1"
	defaultLLMModel              = "qwen2.5:3b"
	defaultLLMTimeoutSeconds     = 120
	defaultLLMPullTimeoutSeconds = 600
	defaultScoringMaxRetries     = 1
	defaultScoringPromptChars    = 1000
	defaultFallbackSummaryChars  = 280
	defaultMaxSummarySentences   = 4
	defaultFeedFetchTimeout      = 30
	defaultFeedUserAgent         = "newsdiet/0.1 (+https://github.com/miguelangelnieto/news-diet)"
	defaultMinBodyChars          = 200
	defaultFetchIntervalMinutes  = 60
	defaultFetchConcurrency      = 4
	defaultInferenceConcurrency  = 1
	defaultPruneSchedule         = "0 3 * * *"
	defaultRedisAddr             = "localhost:6379"
	defaultRedisSeenTTLHours     = 720
	defaultNotifyRequestTimeout  = 10
	defaultNotifyMinScore        = 9
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 14
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:            defaultLLMBaseURL,
			Model:              defaultLLMModel,
			TimeoutSeconds:     defaultLLMTimeoutSeconds,
			EnsureModel:        true,
			PullTimeoutSeconds: defaultLLMPullTimeoutSeconds,
		},
		Scoring: Scoring{
			MaxRetries:           defaultScoringMaxRetries,
			PromptChars:          defaultScoringPromptChars,
			FallbackSummaryChars: defaultFallbackSummaryChars,
			MaxSummarySentences:  defaultMaxSummarySentences,
		},
		Feeds: Feeds{
			FetchTimeoutSeconds: defaultFeedFetchTimeout,
			UserAgent:           defaultFeedUserAgent,
			MinBodyChars:        defaultMinBodyChars,
		},
		Ingest: Ingest{
			FetchIntervalMinutes: defaultFetchIntervalMinutes,
			FetchConcurrency:     defaultFetchConcurrency,
			InferenceConcurrency: defaultInferenceConcurrency,
			PruneSchedule:        defaultPruneSchedule,
			RunOnStart:           true,
		},
		Redis: Redis{
			Addr:         defaultRedisAddr,
			SeenTTLHours: defaultRedisSeenTTLHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			MinScore:       defaultNotifyMinScore,
			CycleFailures:  true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
