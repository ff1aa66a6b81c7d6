package kv

import (
	"io"
	"os"

	"github.com/dgraph-io/badger"
	log "github.com/sirupsen/logrus"
)

type badgerKV struct {
	db *badger.DB
}

type badgerIterator struct {
	tx    *badger.Txn
	it    *badger.Iterator
	upper []byte
}

type badgerUpdater struct {
	tx *badger.Txn
}

// NewBadgerKV opens (creating if necessary) a badger-backed KV engine rooted
// at dataDir, grounded on the teacher's storage/keyval/badger.go.
func NewBadgerKV(dataDir string, logger *log.Logger) (KV, error) {
	os.MkdirAll(dataDir, 0755)

	opts := badger.DefaultOptions(dataDir)
	opts = opts.WithLogger(logger)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &badgerKV{db: db}, nil
}

func (bkv *badgerKV) Iterate(prefix []byte) (Iterator, error) {
	tx := bkv.db.NewTransaction(false)
	it := tx.NewIterator(badger.DefaultIteratorOptions)
	it.Seek(prefix)

	return &badgerIterator{tx: tx, it: it, upper: prefixUpperBound(prefix)}, nil
}

func (bit *badgerIterator) Item(fn func(key, val []byte) error) error {
	if !bit.it.Valid() {
		return io.EOF
	}
	item := bit.it.Item()
	key := item.KeyCopy(nil)
	if bit.upper != nil && compareBytes(key, bit.upper) >= 0 {
		return io.EOF
	}

	err := item.Value(func(val []byte) error {
		return fn(key, val)
	})
	if err != nil {
		return err
	}
	bit.it.Next()
	return nil
}

func (bit *badgerIterator) Close() {
	bit.it.Close()
	bit.tx.Discard()
}

func (bkv *badgerKV) Get(key []byte, fn func(val []byte) error) error {
	tx := bkv.db.NewTransaction(false)
	defer tx.Discard()
	return badgerGet(tx, key, fn)
}

func badgerGet(tx *badger.Txn, key []byte, fn func(val []byte) error) error {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		return err
	}
	return item.Value(fn)
}

func (bkv *badgerKV) Update() (Updater, error) {
	return &badgerUpdater{tx: bkv.db.NewTransaction(true)}, nil
}

func (bu *badgerUpdater) Get(key []byte, fn func(val []byte) error) error {
	return badgerGet(bu.tx, key, fn)
}

func (bu *badgerUpdater) Set(key, val []byte) error {
	return bu.tx.Set(key, val)
}

func (bu *badgerUpdater) Delete(key []byte) error {
	return bu.tx.Delete(key)
}

func (bu *badgerUpdater) Commit() error {
	return bu.tx.Commit()
}

func (bu *badgerUpdater) Rollback() {
	bu.tx.Discard()
}

func (bkv *badgerKV) Close() error {
	return bkv.db.Close()
}
