package main

import (
	"strings"
	"sync"

	"shelver/internal/api"
	"shelver/internal/bookindex"
	"shelver/internal/config"
	"shelver/internal/logging"
	"shelver/internal/queue"
	"shelver/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// rawConfigFlag returns the --config value without loading anything, for
// commands that must work even when no config exists yet.
func (c *commandContext) rawConfigFlag() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
	})
	return c.config, c.configErr
}

// withService opens the queue store for the duration of one command and
// hands the facade to fn. No worker is attached; batch-running commands use
// withWorkerService instead.
func (c *commandContext) withService(fn func(*api.Service, *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(api.NewService(cfg, store, nil, logging.NewNop()), store)
}

// withWorkerService is withService plus a wired workflow manager and, when
// available, the offline book index.
func (c *commandContext) withWorkerService(fn func(*api.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var opts []workflow.Option
	if index, err := bookindex.Open(cfg); err == nil {
		defer index.Close()
		opts = append(opts, workflow.WithBookIndex(index))
	}
	manager := workflow.NewManager(cfg, c.configPath, store, logging.NewNop(), opts...)
	return fn(api.NewService(cfg, store, manager, logging.NewNop()))
}

func (c *commandContext) withIndex(fn func(*bookindex.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	index, err := bookindex.Open(cfg)
	if err != nil {
		return err
	}
	defer index.Close()
	return fn(index)
}
