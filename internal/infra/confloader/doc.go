// Package confloader loads server configuration from layered sources.
//
// It is a thin wrapper around koanf. Sources are applied in order, so
// later sources override earlier ones:
//
//  1. Configuration file (YAML)
//  2. Environment variables (TOKENWARD_ prefix)
//  3. Explicit overrides (CLI flags, tests)
//
// Defaults come from the target struct the caller passes to Load.
// The Watcher notifies on file changes for runtime-adjustable settings
// such as the log level.
package confloader
