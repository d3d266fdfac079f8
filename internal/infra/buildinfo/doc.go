// Package buildinfo exposes version metadata injected at build time.
package buildinfo
