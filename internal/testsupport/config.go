package testsupport

import (
	"path/filepath"
	"testing"

	"lensflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Gemini.APIKey = "test-key"
	cfg.Gemini.PollIntervalSeconds = 1
	cfg.Gemini.MaxPollAttempts = 5

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithAPIKey sets the Gemini API key on the test config.
func WithAPIKey(key string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Gemini.APIKey = key
	}
}

// WithNtfyTopic points notifications at the supplied topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
	}
}
