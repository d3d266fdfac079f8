// Package config defines the tokenward-server configuration.
package config
