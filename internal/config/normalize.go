package config

import (
	"os"
	"strings"
)

// normalize expands paths, applies environment fallbacks, and canonicalizes
// string fields before validation runs.
func (c *Config) normalize() error {
	logDir, err := expandPath(c.Paths.LogDir)
	if err != nil {
		return err
	}
	c.Paths.LogDir = logDir
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)

	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	c.Gemini.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gemini.BaseURL), "/")
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	c.Gemini.VisionModel = strings.TrimSpace(c.Gemini.VisionModel)
	if c.Gemini.VisionModel == "" {
		c.Gemini.VisionModel = defaultVisionModel
	}
	c.Gemini.VideoModel = strings.TrimSpace(c.Gemini.VideoModel)
	if c.Gemini.VideoModel == "" {
		c.Gemini.VideoModel = defaultVideoModel
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = defaultGeminiTimeout
	}
	if c.Gemini.PollIntervalSeconds <= 0 {
		c.Gemini.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Gemini.MaxPollAttempts <= 0 {
		c.Gemini.MaxPollAttempts = defaultMaxPollAttempts
	}

	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
