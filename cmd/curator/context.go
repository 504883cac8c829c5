package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"curator/internal/config"
	"curator/internal/logging"
	"curator/internal/plex"
	"curator/internal/resolve"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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

// session bundles everything a server-facing command needs: validated
// config, a logger, a connected client, and the optional resolution cache.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *plex.Client
	identity plex.Identity
	cache    *resolve.SQLiteCache
}

func (s *session) Close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
}

// resolveCache returns the cache as the interface the runner expects, nil
// when caching is disabled.
func (s *session) resolveCache() resolve.Cache {
	if s.cache == nil {
		return nil
	}
	return s.cache
}

func (c *commandContext) openSession(ctx context.Context) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	client, identity, err := plex.Connect(ctx, creds, timeout)
	if err != nil {
		return nil, err
	}
	logger.Info("connected",
		"server", identity.FriendlyName,
		"version", identity.Version,
		"address", client.BaseURL())

	sess := &session{cfg: cfg, logger: logger, client: client, identity: identity}
	if cfg.ResolveCache.Enabled {
		cache, err := resolve.OpenCache(cfg.ResolveCache.Path)
		if err != nil {
			// A broken cache degrades to uncached resolution.
			logger.Warn("resolution cache unavailable", "path", cfg.ResolveCache.Path, "error", err)
		} else {
			sess.cache = cache
		}
	}
	return sess, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
