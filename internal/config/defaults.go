package config

const (
	defaultLogDir              = "~/.local/share/lensflow/logs"
	defaultAPIBind             = "127.0.0.1:7485"
	defaultGeminiBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	defaultVisionModel         = "gemini-3-flash-preview"
	defaultVideoModel          = "veo-3.1-fast-generate-preview"
	defaultGeminiTimeout       = 60
	defaultPollIntervalSeconds = 10
	defaultMaxPollAttempts     = 90
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Gemini: Gemini{
			BaseURL:             defaultGeminiBaseURL,
			VisionModel:         defaultVisionModel,
			VideoModel:          defaultVideoModel,
			TimeoutSeconds:      defaultGeminiTimeout,
			PollIntervalSeconds: defaultPollIntervalSeconds,
			MaxPollAttempts:     defaultMaxPollAttempts,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Ingest:         true,
			Animation:      true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
