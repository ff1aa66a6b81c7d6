package kv_test

import (
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/leftmike/orderedview/kv"
	"github.com/leftmike/orderedview/testutil"
)

func TestBadgerKV(t *testing.T) {
	path := filepath.Join("testdata", "badger")
	err := testutil.CleanDir(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	store, err := kv.NewBadgerKV(path, log.StandardLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	testKV(t, store)
}
