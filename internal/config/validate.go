package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.RootConfig) == "" {
		return fmt.Errorf("paths.root_config must not be empty")
	}
	if strings.TrimSpace(c.Paths.DumpDir) == "" {
		return fmt.Errorf("paths.dump_dir must not be empty")
	}
	if c.Server.TimeoutSeconds <= 0 {
		return fmt.Errorf("server.timeout_seconds must be positive, got %d", c.Server.TimeoutSeconds)
	}
	if c.ResolveCache.Enabled && strings.TrimSpace(c.ResolveCache.Path) == "" {
		return fmt.Errorf("resolve_cache.path must be set when resolve_cache.enabled is true")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
