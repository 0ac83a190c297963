// Package store persists the committed contract state and the bet history
// in a key/value database.
//
// Every cell lives under its own key; see schema.go. A transition's writes
// go through a single Batch so a crash never leaves a half-applied state.
package store

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("store: not found")

// KeyValueReader wraps the Has and Get methods of a backing data store.
type KeyValueReader interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
}

// KeyValueWriter wraps the Put and Delete methods of a backing data store.
type KeyValueWriter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// KeyValueStore combines read and write access to a backing data store.
type KeyValueStore interface {
	KeyValueReader
	KeyValueWriter
	Close() error
}

// Batch is a write-only database that commits changes atomically.
type Batch interface {
	KeyValueWriter
	ValueSize() int
	Write() error
	Reset()
}

// Database is a store that can also build batches.
type Database interface {
	KeyValueStore
	NewBatch() Batch
}

// Backend names.
const (
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
)

// Backends lists the supported backend names.
func Backends() []string {
	return []string{BackendMemory, BackendLevelDB, BackendBolt}
}

// Open opens the named backend. dir is ignored for the memory backend.
func Open(backend, dir string) (Database, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryDB(), nil
	case BackendLevelDB:
		return OpenLevelDB(dir)
	case BackendBolt:
		return OpenBolt(dir)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", backend)
	}
}
