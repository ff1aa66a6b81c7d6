// Package primary provides a minimal in-memory stand-in for the primary
// row store that a view's Source interface defers to: rowid<->key lookup
// plus caller-serialized object and metadata for a rowid. The real engine
// this store backs (query planning, SQL execution, wire protocol) is out
// of scope; this package exists only so the view engine has something
// concrete to drive in tests and the CLI demo.
package primary

import (
	"fmt"
	"sync"

	"github.com/leftmike/orderedview/view"
)

// Row is one record the Store holds: a key, an opaque object, and opaque
// metadata, both supplied by the caller and never interpreted here.
type Row struct {
	Key      string
	Object   interface{}
	Metadata interface{}
}

// Store is a trivial in-memory primary row store keyed by Rowid, safe for
// concurrent use. It implements view.Source.
type Store struct {
	mu     sync.RWMutex
	rows   map[view.Rowid]Row
	byKey  map[string]view.Rowid
	nextID view.Rowid
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		rows:  map[view.Rowid]Row{},
		byKey: map[string]view.Rowid{},
	}
}

// Put inserts or replaces the row for key, returning its rowid.
func (s *Store) Put(key string, object, metadata interface{}) view.Rowid {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rowid, ok := s.byKey[key]; ok {
		s.rows[rowid] = Row{Key: key, Object: object, Metadata: metadata}
		return rowid
	}

	s.nextID++
	rowid := s.nextID
	s.rows[rowid] = Row{Key: key, Object: object, Metadata: metadata}
	s.byKey[key] = rowid
	return rowid
}

// Delete removes the row for key, if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rowid, ok := s.byKey[key]
	if !ok {
		return
	}
	delete(s.byKey, key)
	delete(s.rows, rowid)
}

func (s *Store) KeyForRowid(rowid view.Rowid) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[rowid]
	return row.Key, ok, nil
}

func (s *Store) RowidForKey(key string) (view.Rowid, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rowid, ok := s.byKey[key]
	return rowid, ok, nil
}

func (s *Store) ObjectForRowid(rowid view.Rowid) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[rowid]
	if !ok {
		return nil, fmt.Errorf("primary: no row for rowid %d", rowid)
	}
	return row.Object, nil
}

func (s *Store) MetadataForRowid(rowid view.Rowid) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[rowid]
	if !ok {
		return nil, fmt.Errorf("primary: no row for rowid %d", rowid)
	}
	return row.Metadata, nil
}

// Rowids returns every rowid currently stored, used to drive a full
// repopulation after a classVersion or config-version mismatch.
func (s *Store) Rowids() []view.Rowid {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rowids := make([]view.Rowid, 0, len(s.rows))
	for rowid := range s.rows {
		rowids = append(rowids, rowid)
	}
	return rowids
}
