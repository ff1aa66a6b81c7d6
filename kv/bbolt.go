package kv

import (
	"io"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var orderedViewBucket = []byte("orderedview")

type bboltKV struct {
	db *bbolt.DB
}

type bboltIterator struct {
	tx *bbolt.Tx
	cr *bbolt.Cursor
	// upper is the exclusive upper bound derived from the requested prefix.
	upper      []byte
	key, val   []byte
}

type bboltUpdater struct {
	tx  *bbolt.Tx
	bkt *bbolt.Bucket
}

// NewBBoltKV opens (creating if necessary) a bbolt-backed KV engine rooted at
// dataDir, grounded on the teacher's storage/keyval/bbolt.go.
func NewBBoltKV(dataDir string) (KV, error) {
	db, err := bbolt.Open(filepath.Join(dataDir, "orderedview.bbolt"), 0644, nil)
	if err != nil {
		return nil, err
	}
	db.NoFreelistSync = true
	db.NoSync = true

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(orderedViewBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &bboltKV{db: db}, nil
}

func (bkv *bboltKV) Iterate(prefix []byte) (Iterator, error) {
	tx, err := bkv.db.Begin(false)
	if err != nil {
		return nil, err
	}
	bkt := tx.Bucket(orderedViewBucket)
	cr := bkt.Cursor()
	key, val := cr.Seek(prefix)

	return &bboltIterator{
		tx:    tx,
		cr:    cr,
		upper: prefixUpperBound(prefix),
		key:   key,
		val:   val,
	}, nil
}

func (bit *bboltIterator) Item(fn func(key, val []byte) error) error {
	for bit.key != nil {
		if bit.upper != nil && compareBytes(bit.key, bit.upper) >= 0 {
			bit.key = nil
			break
		}
		key, val := bit.key, bit.val
		bit.key, bit.val = bit.cr.Next()
		return fn(key, val)
	}
	return io.EOF
}

func (bit *bboltIterator) Close() {
	bit.tx.Rollback()
}

func (bkv *bboltKV) Get(key []byte, fn func(val []byte) error) error {
	return bkv.db.View(func(tx *bbolt.Tx) error {
		val := tx.Bucket(orderedViewBucket).Get(key)
		if val == nil {
			return ErrNotFound
		}
		return fn(val)
	})
}

func (bkv *bboltKV) Update() (Updater, error) {
	tx, err := bkv.db.Begin(true)
	if err != nil {
		return nil, err
	}
	return &bboltUpdater{tx: tx, bkt: tx.Bucket(orderedViewBucket)}, nil
}

func (bu *bboltUpdater) Get(key []byte, fn func(val []byte) error) error {
	val := bu.bkt.Get(key)
	if val == nil {
		return ErrNotFound
	}
	return fn(val)
}

func (bu *bboltUpdater) Set(key, val []byte) error {
	return bu.bkt.Put(key, val)
}

func (bu *bboltUpdater) Delete(key []byte) error {
	return bu.bkt.Delete(key)
}

func (bu *bboltUpdater) Commit() error {
	return bu.tx.Commit()
}

func (bu *bboltUpdater) Rollback() {
	bu.tx.Rollback()
}

func (bkv *bboltKV) Close() error {
	return bkv.db.Close()
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
