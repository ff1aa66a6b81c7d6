package kv

import (
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/pebble"
	log "github.com/sirupsen/logrus"
)

type pebbleKV struct {
	mutex sync.Mutex
	db    *pebble.DB
}

type pebbleIterator struct {
	snap  *pebble.Snapshot
	it    *pebble.Iterator
	upper []byte
}

type pebbleUpdater struct {
	kv    *pebbleKV
	batch *pebble.Batch
}

// NewPebbleKV opens (creating if necessary) a pebble-backed KV engine rooted
// at dataDir, grounded on the teacher's storage/kvrows/pebble.go.
func NewPebbleKV(dataDir string, logger *log.Logger) (KV, error) {
	os.MkdirAll(dataDir, 0755)

	db, err := pebble.Open(dataDir, &pebble.Options{Logger: logger})
	if err != nil {
		return nil, err
	}
	return &pebbleKV{db: db}, nil
}

func (pkv *pebbleKV) Iterate(prefix []byte) (Iterator, error) {
	snap := pkv.db.NewSnapshot()
	it := snap.NewIter(nil)
	it.SeekGE(prefix)

	return &pebbleIterator{snap: snap, it: it, upper: prefixUpperBound(prefix)}, nil
}

func (pit *pebbleIterator) Item(fn func(key, val []byte) error) error {
	if !pit.it.Valid() {
		return io.EOF
	}
	key := pit.it.Key()
	if pit.upper != nil && compareBytes(key, pit.upper) >= 0 {
		return io.EOF
	}

	err := fn(key, pit.it.Value())
	if err != nil {
		return err
	}
	pit.it.Next()
	return nil
}

func (pit *pebbleIterator) Close() {
	pit.it.Close()
	if pit.snap != nil {
		pit.snap.Close()
	}
}

func (pkv *pebbleKV) Get(key []byte, fn func(val []byte) error) error {
	val, closer, err := pkv.db.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return ErrNotFound
		}
		return err
	}
	defer closer.Close()

	return fn(val)
}

func (pkv *pebbleKV) Update() (Updater, error) {
	pkv.mutex.Lock()

	return &pebbleUpdater{
		kv:    pkv,
		batch: pkv.db.NewIndexedBatch(),
	}, nil
}

func (pu *pebbleUpdater) Get(key []byte, fn func(val []byte) error) error {
	val, closer, err := pu.batch.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return ErrNotFound
		}
		return err
	}
	defer closer.Close()

	return fn(val)
}

func (pu *pebbleUpdater) Set(key, val []byte) error {
	return pu.batch.Set(key, val, nil)
}

func (pu *pebbleUpdater) Delete(key []byte) error {
	return pu.batch.Delete(key, nil)
}

func (pu *pebbleUpdater) Commit() error {
	err := pu.batch.Commit(pebble.NoSync)
	pu.kv.mutex.Unlock()
	return err
}

func (pu *pebbleUpdater) Rollback() {
	pu.batch.Close()
	pu.kv.mutex.Unlock()
}

func (pkv *pebbleKV) Close() error {
	return pkv.db.Close()
}
