// Package memory provides the in-memory token store.
//
// It keeps three indexes: the primary ID index, a unique secret-digest
// index, and a per-owner ID set. Single-key reads go through sharded
// concurrent maps; operations spanning multiple indexes take a store
// mutex so concurrent readers never observe a partially applied
// create or bulk delete.
package memory
