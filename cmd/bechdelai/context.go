package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dataforgoodfr/bechdelai/internal/api"
	"github.com/dataforgoodfr/bechdelai/internal/config"
	"github.com/dataforgoodfr/bechdelai/internal/logging"
	"github.com/dataforgoodfr/bechdelai/internal/services/scrape"
	"github.com/dataforgoodfr/bechdelai/internal/store"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	storeOnce sync.Once
	store     *store.Store
	storeErr  error

	serviceOnce sync.Once
	service     *api.Service
	serviceErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// loggerValue returns the CLI logger. Falling back to a nop logger keeps
// commands usable when the log directory is not writable.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) storeValue() (*store.Store, error) {
	c.storeOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.storeErr = err
			return
		}
		st, err := store.Open(cfg)
		if err != nil {
			c.storeErr = fmt.Errorf("open store: %w", err)
			return
		}
		c.store = st
	})
	return c.store, c.storeErr
}

func (c *commandContext) serviceValue() (*api.Service, error) {
	c.serviceOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.serviceErr = err
			return
		}
		st, err := c.storeValue()
		if err != nil {
			c.serviceErr = err
			return
		}
		c.service, c.serviceErr = api.NewService(cfg, st, c.loggerValue())
	})
	return c.service, c.serviceErr
}

func (c *commandContext) fetcher() (*scrape.Fetcher, error) {
	svc, err := c.serviceValue()
	if err != nil {
		return nil, err
	}
	return svc.Fetcher(), nil
}

// track records fn in the run journal under kind.
func (c *commandContext) track(ctx context.Context, kind, subject string, fn func(context.Context) (any, error)) error {
	svc, err := c.serviceValue()
	if err != nil {
		return err
	}
	_, err = svc.Track(ctx, kind, subject, fn)
	return err
}

func (c *commandContext) close() {
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.loggerValue().Warn("close store failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "store_close_failed"),
				logging.String(logging.FieldErrorHint, "the database may need a WAL checkpoint"),
				logging.String(logging.FieldImpact, "none"))
		}
		c.store = nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
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
