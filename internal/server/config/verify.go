package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyAuth(&cfg.Auth); err != nil {
		return err
	}
	if cfg.Prune.Interval < 0 {
		return errors.New("prune.interval must not be negative")
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http: tls_cert_file and tls_key_file must be set together")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return fmt.Errorf("cannot create data directory: %w", err)
	}
	if cfg.EncryptionKey != "" {
		key, err := hex.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return errors.New("storage.encryption_key must be hex encoded")
		}
		if len(key) != 32 {
			return fmt.Errorf("storage.encryption_key must be 32 bytes, got %d", len(key))
		}
	}
	return nil
}

func verifyAuth(cfg *AuthSection) error {
	if cfg.RateLimit < 0 {
		return errors.New("auth.rate_limit must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.RateBurst < 1 {
		return errors.New("auth.rate_burst must be at least 1 when rate limiting is enabled")
	}
	seen := make(map[string]struct{}, len(cfg.OwnerKinds))
	for _, kind := range cfg.OwnerKinds {
		if kind == "" {
			return errors.New("auth.owner_kinds must not contain empty entries")
		}
		if _, dup := seen[kind]; dup {
			return fmt.Errorf("auth.owner_kinds: duplicate kind %q", kind)
		}
		seen[kind] = struct{}{}
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch cfg.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", cfg.Level)
	}
	switch cfg.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
	return nil
}
