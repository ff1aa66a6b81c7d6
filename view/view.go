package view

import (
	"sync"

	"github.com/leftmike/orderedview/encode"
	"github.com/leftmike/orderedview/kv"
)

// Config supplies everything needed to open a View beyond the backing kv
// engine: its registered name, predicates, and the caller-chosen config
// version that drives repopulation on mismatch.
type Config struct {
	Name        string
	Grouping    GroupingPredicate
	Sorting     SortingPredicate
	Version     int64
	MaxPageSize int
	CacheSize   int
}

// View is the top-level handle a caller opens once per registered
// materialized view. It owns the single writer mutex (standing in for the
// host's outer transaction manager, which serializes writers for us in
// production), the PageStore, and the predicate set.
type View struct {
	name     string
	kv       kv.KV
	source   Source
	grouping GroupingPredicate
	sorting  SortingPredicate
	store    *PageStore

	mu sync.Mutex

	lastInsertWasAtFirstIndex bool
	lastInsertWasAtLastIndex  bool
}

// Open opens or creates the view identified by cfg.Name against store,
// reconciling classVersion and the caller's config version, then
// reconstructing the GroupIndex from the page table.
func Open(kvStore kv.KV, src Source, cfg Config) (*View, error) {
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = DefaultMaxPageSize
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}

	v := &View{
		name:     cfg.Name,
		kv:       kvStore,
		source:   src,
		grouping: cfg.Grouping,
		sorting:  cfg.Sorting,
		store:    NewPageStore(cfg.Name, kvStore, cfg.MaxPageSize, cfg.CacheSize),
	}

	needsRebuild, err := v.reconcileRegistry(cfg.Version)
	if err != nil {
		return nil, err
	}
	if needsRebuild {
		if err := v.dropTables(); err != nil {
			return nil, err
		}
	}

	if err := v.store.Open(); err != nil {
		return nil, err
	}

	if needsRebuild {
		if err := v.repopulate(); err != nil {
			return nil, err
		}
	}

	return v, nil
}

func (v *View) readRegistryInt(field string) (int64, bool, error) {
	var n int64
	found := false
	err := v.kv.Get(registryKey(v.name, field), func(val []byte) error {
		u, ok := encode.DecodeUint64(val)
		if !ok {
			return &CorruptionError{Reason: "unreadable registry field " + field}
		}
		n = int64(u)
		found = true
		return nil
	})
	if err == kv.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, found, nil
}

func (v *View) writeRegistryInt(updater kv.Updater, field string, n int64) error {
	return updater.Set(registryKey(v.name, field), encode.EncodeUint64(nil, uint64(n)))
}

// reconcileRegistry compares the stored classVersion and user version
// against CurrentClassVersion and cfg.Version, reporting whether a
// drop-and-rebuild is required.
func (v *View) reconcileRegistry(userVersion int64) (rebuild bool, err error) {
	storedClass, classFound, err := v.readRegistryInt("classVersion")
	if err != nil {
		return false, err
	}
	storedVersion, versionFound, err := v.readRegistryInt("version")
	if err != nil {
		return false, err
	}

	rebuild = !classFound || storedClass != CurrentClassVersion ||
		!versionFound || storedVersion != userVersion

	updater, err := v.kv.Update()
	if err != nil {
		return false, err
	}
	if err := v.writeRegistryInt(updater, "classVersion", CurrentClassVersion); err != nil {
		updater.Rollback()
		return false, err
	}
	if err := v.writeRegistryInt(updater, "version", userVersion); err != nil {
		updater.Rollback()
		return false, err
	}
	if err := updater.Commit(); err != nil {
		return false, err
	}
	return rebuild, nil
}

// dropTables deletes every page and map row belonging to this view, used
// before a classVersion or config-version driven repopulation.
func (v *View) dropTables() error {
	updater, err := v.kv.Update()
	if err != nil {
		return err
	}

	for _, prefix := range [][]byte{pageTablePrefix(v.name), mapTablePrefix(v.name)} {
		it, err := v.kv.Iterate(prefix)
		if err != nil {
			updater.Rollback()
			return err
		}
		var keys [][]byte
		for {
			ierr := it.Item(func(key, val []byte) error {
				keys = append(keys, append([]byte(nil), key...))
				return nil
			})
			if ierr != nil {
				break
			}
		}
		it.Close()
		for _, key := range keys {
			if err := updater.Delete(key); err != nil {
				updater.Rollback()
				return err
			}
		}
	}

	return updater.Commit()
}

// Enumerable is an optional capability a Source may implement to support
// full repopulation after a classVersion or config-version mismatch. A
// Source that cannot enumerate its own rowids (e.g. one fronting a primary
// store with no efficient full scan) simply does not implement it, and
// repopulation becomes the caller's responsibility.
type Enumerable interface {
	Rowids() []Rowid
}

// repopulate is invoked after a drop-and-rebuild: it re-evaluates the
// grouping and sorting predicates for every rowid the Source can enumerate
// and reinserts them from scratch.
func (v *View) repopulate() error {
	enum, ok := v.source.(Enumerable)
	if !ok {
		return nil
	}

	txn := v.Begin()
	for _, rowid := range enum.Rowids() {
		if err := txn.Insert(rowid, true); err != nil {
			txn.Rollback()
			return err
		}
	}
	if _, err := txn.Commit(); err != nil {
		return err
	}
	return nil
}

// Begin starts a new write transaction, serializing with any other writer
// on this View (standing in for the host's outer transaction manager).
func (v *View) Begin() *Txn {
	v.mu.Lock()
	v.store.BeginTxn()
	return &Txn{
		view:                      v,
		lastInsertWasAtFirstIndex: v.lastInsertWasAtFirstIndex,
		lastInsertWasAtLastIndex:  v.lastInsertWasAtLastIndex,
		mutatedGroups:             map[string]bool{},
	}
}

// Txn is the per-connection mutable state for one write transaction:
// accumulated change records, the mutated-groups set used to detect
// mutation during enumeration, and the endpoint-hint flags that carry over
// from the previous insert.
type Txn struct {
	view *View

	changes       []ChangeRecord
	mutatedGroups map[string]bool
	reset         bool

	lastInsertWasAtFirstIndex bool
	lastInsertWasAtLastIndex  bool
}

// Changes returns the change records accumulated so far in this
// transaction, in emission order.
func (t *Txn) Changes() []ChangeRecord {
	return t.changes
}

func (t *Txn) emit(c ChangeRecord) {
	t.changes = append(t.changes, c)
}

func (t *Txn) markMutated(group string) {
	t.mutatedGroups[group] = true
}

// Commit runs the compactor, then the commit writer, then stores this
// transaction's endpoint hints on the view so the next transaction carries
// them over.
func (t *Txn) Commit() ([]ChangeRecord, error) {
	defer t.view.mu.Unlock()

	if err := t.compact(); err != nil {
		t.view.store.Rollback()
		return nil, err
	}
	if err := t.view.store.Commit(); err != nil {
		return nil, err
	}

	t.view.lastInsertWasAtFirstIndex = t.lastInsertWasAtFirstIndex
	t.view.lastInsertWasAtLastIndex = t.lastInsertWasAtLastIndex

	return t.changes, nil
}

// Rollback discards every mutation made in this transaction.
func (t *Txn) Rollback() {
	defer t.view.mu.Unlock()
	t.view.store.Rollback()
}

// Index exposes the view's GroupIndex for read-only inspection.
func (v *View) Index() *GroupIndex {
	return v.store.Index
}

// Name returns the view's registered name.
func (v *View) Name() string {
	return v.name
}
