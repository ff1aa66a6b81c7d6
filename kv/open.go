package kv

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Open constructs the named backend, mirroring the teacher's cmd/start.go
// store switch: "btree" is the in-memory engine used by tests and demos,
// the rest are durable engines rooted at dataDir.
func Open(backend, dataDir string, logger *log.Logger) (KV, error) {
	switch backend {
	case "btree":
		return NewBTreeKV(), nil
	case "bbolt":
		return NewBBoltKV(dataDir)
	case "badger":
		return NewBadgerKV(dataDir, logger)
	case "pebble":
		return NewPebbleKV(dataDir, logger)
	default:
		return nil, fmt.Errorf("kv: got %q for backend; want btree, bbolt, badger, or pebble", backend)
	}
}
