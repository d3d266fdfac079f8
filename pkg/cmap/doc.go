// Package cmap provides a concurrent-safe sharded map keyed by string.
//
// Sharding reduces lock contention compared to a single mutex or
// sync.Map under write-heavy concurrent workloads. Keys are assigned
// to shards by murmur3 hash.
package cmap
