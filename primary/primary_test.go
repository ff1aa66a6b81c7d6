package primary_test

import (
	"testing"

	"github.com/leftmike/orderedview/primary"
)

func TestStorePutAndLookup(t *testing.T) {
	store := primary.NewStore()

	r1 := store.Put("k1", "obj1", "meta1")
	r2 := store.Put("k2", "obj2", "meta2")
	if r1 == r2 {
		t.Fatalf("distinct keys got the same rowid %d", r1)
	}

	if key, ok, err := store.KeyForRowid(r1); err != nil || !ok || key != "k1" {
		t.Errorf("KeyForRowid(r1) = (%q, %v, %v), want (k1, true, nil)", key, ok, err)
	}

	if rowid, ok, err := store.RowidForKey("k2"); err != nil || !ok || rowid != r2 {
		t.Errorf("RowidForKey(k2) = (%d, %v, %v), want (%d, true, nil)", rowid, ok, err, r2)
	}

	if obj, err := store.ObjectForRowid(r1); err != nil || obj != "obj1" {
		t.Errorf("ObjectForRowid(r1) = (%v, %v), want (obj1, nil)", obj, err)
	}
	if md, err := store.MetadataForRowid(r2); err != nil || md != "meta2" {
		t.Errorf("MetadataForRowid(r2) = (%v, %v), want (meta2, nil)", md, err)
	}

	store.Delete("k1")
	if _, ok, _ := store.RowidForKey("k1"); ok {
		t.Errorf("RowidForKey(k1) found after Delete, want not found")
	}
}

func TestStorePutReplacesExisting(t *testing.T) {
	store := primary.NewStore()
	r1 := store.Put("k", "obj1", nil)
	r2 := store.Put("k", "obj2", nil)
	if r1 != r2 {
		t.Fatalf("Put() on existing key got new rowid %d, want %d", r2, r1)
	}
	if obj, _ := store.ObjectForRowid(r1); obj != "obj2" {
		t.Errorf("ObjectForRowid() after replace = %v, want obj2", obj)
	}
}

func TestStoreRowids(t *testing.T) {
	store := primary.NewStore()
	store.Put("a", nil, nil)
	store.Put("b", nil, nil)
	if got := len(store.Rowids()); got != 2 {
		t.Errorf("len(Rowids()) = %d, want 2", got)
	}
}
