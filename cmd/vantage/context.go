package main

import (
	"strings"

	"vantage/internal/api"
	"vantage/internal/config"
)

// commandContext lazily loads configuration and builds the daemon client so
// flag values are read after cobra has parsed them.
type commandContext struct {
	configFlag *string
	addrFlag   *string

	cfg     *config.Config
	cfgPath string
}

func newCommandContext(configFlag, addrFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, addrFlag: addrFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, path, _, err := config.Load(strings.TrimSpace(*c.configFlag))
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.cfgPath = path
	return cfg, nil
}

// client resolves the API address from the --addr flag or the configured
// bind and returns a daemon client.
func (c *commandContext) client() (*api.Client, error) {
	if addr := strings.TrimSpace(*c.addrFlag); addr != "" {
		return api.NewClient(addr), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return api.NewClient(cfg.Paths.APIBind), nil
}
