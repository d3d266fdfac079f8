package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5780"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultDataDir    = "/var/lib/tokenward-server/data"
	DefaultGCInterval = 10 * time.Minute

	DefaultPruneInterval = 15 * time.Minute

	DefaultOwnerKind = "user"

	DefaultRateLimit = 50.0
	DefaultRateBurst = 100

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
		},
		Storage: StorageSection{
			DataDir:    DefaultDataDir,
			GCInterval: DefaultGCInterval,
		},
		Auth: AuthSection{
			OwnerKinds: []string{DefaultOwnerKind},
			RateLimit:  DefaultRateLimit,
			RateBurst:  DefaultRateBurst,
		},
		Prune: PruneSection{
			Interval: DefaultPruneInterval,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
