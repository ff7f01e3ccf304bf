package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5180"
	DefaultShutdownTimeout = 10 * time.Second

	DefaultStorageEngine = "badger"
	DefaultDataDir       = "/var/lib/expiryledger/data"
	DefaultGCInterval    = 10 * time.Minute

	DefaultEventLogDir     = "/var/lib/expiryledger/events"
	DefaultSyncMode        = "batch"
	DefaultSyncInterval    = time.Second
	DefaultMaxEventLogSize = 64 << 20 // 64MB

	DefaultRatePerSecond = 50

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ReadTimeout:     5 * time.Second,
				WriteTimeout:    10 * time.Second,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
		},
		Storage: StorageSection{
			Engine:     DefaultStorageEngine,
			DataDir:    DefaultDataDir,
			GCInterval: DefaultGCInterval,
			SyncWrites: true,
		},
		EventLog: EventLogSection{
			Enabled:      true,
			Dir:          DefaultEventLogDir,
			SyncMode:     DefaultSyncMode,
			SyncInterval: DefaultSyncInterval,
			MaxFileSize:  DefaultMaxEventLogSize,
		},
		Auth: AuthSection{
			RatePerSecond: DefaultRatePerSecond,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
