package config

import "time"

// ServerConfig is the root configuration for tokenward-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Auth    AuthSection    `koanf:"auth"`
	Prune   PruneSection   `koanf:"prune"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	TLSCertFile     string        `koanf:"tls_cert_file"`
	TLSKeyFile      string        `koanf:"tls_key_file"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StorageSection configures the durable token store.
type StorageSection struct {
	// DataDir is the Badger database directory.
	DataDir string `koanf:"data_dir"`

	// SyncWrites makes every write fsync before acknowledging.
	SyncWrites bool `koanf:"sync_writes"`

	// GCInterval is the interval between value log GC runs.
	GCInterval time.Duration `koanf:"gc_interval"`

	// EncryptionKey enables at-rest encryption of token records when
	// set. Hex encoded, 32 bytes.
	EncryptionKey string `koanf:"encryption_key"`
}

// AuthSection configures authentication behavior.
type AuthSection struct {
	// BootstrapCredential authorizes administrative requests (minting
	// and bulk revocation) before any token exists.
	BootstrapCredential string `koanf:"bootstrap_credential"`

	// OwnerKinds lists the owner kinds the server accepts. Empty
	// means the default ("user").
	OwnerKinds []string `koanf:"owner_kinds"`

	// RateLimit is the per-client request rate (requests/second) for
	// authentication endpoints. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the burst size for the rate limiter.
	RateBurst int `koanf:"rate_burst"`
}

// PruneSection configures the expired token sweep.
type PruneSection struct {
	Interval time.Duration `koanf:"interval"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
