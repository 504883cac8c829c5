package config

const (
	defaultRootConfig       = "~/.config/curator/config.yml"
	defaultDumpDir          = "~/.local/share/curator/dumps"
	defaultLogDir           = "~/.local/share/curator/logs"
	defaultLockFile         = "~/.local/share/curator/curator.lock"
	defaultResolveCachePath = "~/.cache/curator/resolve.db"
	defaultTimeoutSeconds   = 30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RootConfig: defaultRootConfig,
			DumpDir:    defaultDumpDir,
			LogDir:     defaultLogDir,
			LockFile:   defaultLockFile,
		},
		Server: Server{
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		ResolveCache: ResolveCache{
			Enabled: false,
			Path:    defaultResolveCachePath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
