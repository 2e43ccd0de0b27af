package main

import (
	"strings"
	"sync"

	"lensflow/internal/api"
	"lensflow/internal/config"
)

type commandContext struct {
	configFlag *string
	bindFlag   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, bindFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		bindFlag:   bindFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// bind resolves the daemon address: the --bind flag wins, then the config.
func (c *commandContext) bind() string {
	if c.bindFlag != nil && strings.TrimSpace(*c.bindFlag) != "" {
		return strings.TrimSpace(*c.bindFlag)
	}
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return ""
	}
	return cfg.APIBind()
}

func (c *commandContext) apiClient() (*api.Client, error) {
	client, err := api.NewClient(c.bind())
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, api.ErrAPIUnavailable
	}
	return client, nil
}
