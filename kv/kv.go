// Package kv defines the durable key-value engine that backs the page and
// map tables of an ordered view. It is deliberately small: a view only ever
// needs get, set, delete, prefix-iterate, and a single in-flight writer transaction
// at a time, the same shape the teacher's storage/keyval and storage/kvrows
// packages exposed over bbolt, badger, and pebble.
package kv

import "errors"

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Updater is a single writer transaction against a KV engine. All Set calls
// are buffered until Commit; Rollback discards them.
type Updater interface {
	Get(key []byte, fn func(val []byte) error) error
	Set(key, val []byte) error
	Delete(key []byte) error
	Commit() error
	Rollback()
}

// Iterator walks keys in a prefix range in ascending order.
type Iterator interface {
	// Item calls fn with the next key/value pair. Returns io.EOF when done.
	Item(fn func(key, val []byte) error) error
	Close()
}

// KV is a durable, ordered key-value engine.
type KV interface {
	// Iterate returns an Iterator over every key with the given prefix.
	Iterate(prefix []byte) (Iterator, error)
	// Get looks up key outside of any writer transaction.
	Get(key []byte, fn func(val []byte) error) error
	// Update begins a single writer transaction.
	Update() (Updater, error)
	// Close releases any resources held by the engine.
	Close() error
}
