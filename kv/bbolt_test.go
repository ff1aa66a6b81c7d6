package kv_test

import (
	"testing"

	"github.com/leftmike/orderedview/kv"
	"github.com/leftmike/orderedview/testutil"
)

func TestBBoltKV(t *testing.T) {
	err := testutil.CleanDir("testdata", []string{".gitignore"})
	if err != nil {
		t.Fatal(err)
	}

	store, err := kv.NewBBoltKV("testdata")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	testKV(t, store)
}
