package kv

import (
	"bytes"
	"io"
	"sync"

	"github.com/google/btree"
)

// btreeKV is an in-process KV engine backed by a google/btree ordered tree.
// It never touches disk; it exists for unit tests and the CLI's "btree"
// demo backend, mirroring the teacher's in-memory storage/kvrows btree.go.
type btreeKV struct {
	treeMutex   sync.Mutex
	updateMutex sync.Mutex
	tree        *btree.BTree
}

type btreeItem struct {
	key []byte
	val []byte
}

func (bi btreeItem) Less(item btree.Item) bool {
	return bytes.Compare(bi.key, item.(btreeItem).key) < 0
}

type btreeIterator struct {
	idx   int
	items []btreeItem
}

type btreeUpdater struct {
	bkv  *btreeKV
	tree *btree.BTree
}

// NewBTreeKV returns a fresh in-memory KV engine.
func NewBTreeKV() KV {
	return &btreeKV{tree: btree.New(16)}
}

func prefixUpperBound(prefix []byte) []byte {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] != 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}

func (bkv *btreeKV) snapshot() *btree.BTree {
	bkv.treeMutex.Lock()
	defer bkv.treeMutex.Unlock()
	return bkv.tree
}

func (bkv *btreeKV) Iterate(prefix []byte) (Iterator, error) {
	tree := bkv.snapshot()
	upper := prefixUpperBound(prefix)

	var items []btreeItem
	iter := func(item btree.Item) bool {
		bi := item.(btreeItem)
		if upper != nil && bytes.Compare(bi.key, upper) >= 0 {
			return false
		}
		items = append(items, bi)
		return true
	}
	if upper == nil {
		tree.AscendGreaterOrEqual(btreeItem{key: prefix}, iter)
	} else {
		tree.AscendRange(btreeItem{key: prefix}, btreeItem{key: upper}, iter)
	}

	return &btreeIterator{items: items}, nil
}

func (bit *btreeIterator) Item(fn func(key, val []byte) error) error {
	if bit.idx == len(bit.items) {
		return io.EOF
	}
	it := bit.items[bit.idx]
	bit.idx++
	return fn(it.key, it.val)
}

func (bit *btreeIterator) Close() {}

func (bkv *btreeKV) Get(key []byte, fn func(val []byte) error) error {
	tree := bkv.snapshot()
	item := tree.Get(btreeItem{key: key})
	if item == nil {
		return ErrNotFound
	}
	return fn(item.(btreeItem).val)
}

func (bkv *btreeKV) Update() (Updater, error) {
	bkv.updateMutex.Lock()

	bkv.treeMutex.Lock()
	tree := bkv.tree.Clone()
	bkv.treeMutex.Unlock()

	return &btreeUpdater{bkv: bkv, tree: tree}, nil
}

func (bu *btreeUpdater) Get(key []byte, fn func(val []byte) error) error {
	item := bu.tree.Get(btreeItem{key: key})
	if item == nil {
		return ErrNotFound
	}
	return fn(item.(btreeItem).val)
}

func (bu *btreeUpdater) Set(key, val []byte) error {
	cp := append([]byte(nil), val...)
	bu.tree.ReplaceOrInsert(btreeItem{key: append([]byte(nil), key...), val: cp})
	return nil
}

func (bu *btreeUpdater) Delete(key []byte) error {
	bu.tree.Delete(btreeItem{key: key})
	return nil
}

func (bu *btreeUpdater) Commit() error {
	bu.bkv.treeMutex.Lock()
	bu.bkv.tree = bu.tree
	bu.bkv.treeMutex.Unlock()

	bu.bkv.updateMutex.Unlock()
	return nil
}

func (bu *btreeUpdater) Rollback() {
	bu.bkv.updateMutex.Unlock()
}

func (bkv *btreeKV) Close() error {
	return nil
}
