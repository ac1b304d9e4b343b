package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reelcut/internal/config"
	"reelcut/internal/logging"
)

// skipConfigLoad marks commands whose pre-run must not load the config file.
const skipConfigLoad = "skipConfigLoad"

// commandContext carries state shared by every subcommand of one invocation.
type commandContext struct {
	configFlag string
	// loadConfig runs config.Load at most once, after flags are parsed.
	loadConfig func() (*config.Config, error)
}

func newCommandContext() *commandContext {
	c := &commandContext{}
	c.loadConfig = sync.OnceValues(func() (*config.Config, error) {
		cfg, _, _, err := config.Load(c.configPath())
		return cfg, err
	})
	return c
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	return c.loadConfig()
}

func (c *commandContext) configPath() string {
	return strings.TrimSpace(c.configFlag)
}

func (c *commandContext) logger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// shouldSkipConfig reports whether cmd or one of its parents is annotated
// with skipConfigLoad.
func shouldSkipConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations[skipConfigLoad] == "true" {
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
