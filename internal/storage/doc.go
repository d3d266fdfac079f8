// Package storage provides the durable token store for Tokenward.
//
// The Engine pairs the in-memory store (fast lookups, secondary
// indexes) with a Badger key-value database for durability. Writes go
// through to Badger; reads are served from memory. Recover rebuilds
// the memory store from Badger at startup.
package storage
