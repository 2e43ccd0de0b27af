package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values that would prevent the daemon
// from operating. The API key is deliberately not required here: the
// credential selection flow prompts for one at startup when missing.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.APIBind) == "" {
		problems = append(problems, "paths.api_bind must not be empty")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported (console, json)", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not supported (debug, info, warn, error)", c.Logging.Level))
	}
	if c.Gemini.PollIntervalSeconds <= 0 {
		problems = append(problems, "gemini.poll_interval_seconds must be positive")
	}
	if c.Gemini.MaxPollAttempts <= 0 {
		problems = append(problems, "gemini.max_poll_attempts must be positive")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
