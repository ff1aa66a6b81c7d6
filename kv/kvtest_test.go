package kv_test

import (
	"fmt"
	"io"
	"testing"

	"github.com/leftmike/orderedview/kv"
	"github.com/leftmike/orderedview/testutil"
)

const (
	iterateCmd = iota
	getCmd
	updateCmd
	setCmd
	deleteCmd
	commitCmd
	rollbackCmd
)

type keyVal struct {
	key string
	val string
}

type kvCmd struct {
	fln     testutil.FileLineNumber
	cmd     int
	fail    bool
	key     string
	val     string
	keyVals []keyVal
}

func fln() testutil.FileLineNumber {
	return testutil.MakeFileLineNumber()
}

// runKVTest drives a kv.KV through a sequence of commands, the way the
// backend-agnostic conformance tests for a durable engine are written: one
// shared script, run against every backend in turn.
func runKVTest(t *testing.T, store kv.KV, cmds []kvCmd) {
	t.Helper()

	var updater kv.Updater
	for _, cmd := range cmds {
		switch cmd.cmd {
		case iterateCmd:
			keyVals := cmd.keyVals
			it, err := store.Iterate([]byte(cmd.key))
			if err != nil {
				t.Errorf("%sIterate() failed with %s", cmd.fln, err)
				break
			}
			for {
				ierr := it.Item(func(key, val []byte) error {
					if len(keyVals) == 0 {
						return fmt.Errorf("too many keys")
					}
					if string(key) != keyVals[0].key {
						return fmt.Errorf("key: got %s want %s", key, keyVals[0].key)
					}
					if string(val) != keyVals[0].val {
						return fmt.Errorf("val: got %s want %s", val, keyVals[0].val)
					}
					keyVals = keyVals[1:]
					return nil
				})
				if ierr == io.EOF {
					break
				}
				if ierr != nil {
					t.Errorf("%sIterate() failed with %s", cmd.fln, ierr)
					break
				}
			}
			it.Close()
			if len(keyVals) > 0 {
				t.Errorf("%sIterate() not enough keys: %d left", cmd.fln, len(keyVals))
			}
		case getCmd:
			err := store.Get([]byte(cmd.key), func(val []byte) error {
				if string(val) != cmd.val {
					return fmt.Errorf("val: got %s want %s", val, cmd.val)
				}
				return nil
			})
			if cmd.fail {
				if err == nil {
					t.Errorf("%sGet() did not fail", cmd.fln)
				}
			} else if err != nil {
				t.Errorf("%sGet() failed with %s", cmd.fln, err)
			}
		case updateCmd:
			var err error
			updater, err = store.Update()
			if err != nil {
				t.Errorf("%sUpdate() failed with %s", cmd.fln, err)
			}
		case setCmd:
			if updater == nil {
				panic("set: updater is nil")
			}
			if err := updater.Set([]byte(cmd.key), []byte(cmd.val)); err != nil {
				t.Errorf("%sSet() failed with %s", cmd.fln, err)
			}
		case deleteCmd:
			if updater == nil {
				panic("delete: updater is nil")
			}
			err := updater.Delete([]byte(cmd.key))
			if cmd.fail {
				if err == nil {
					t.Errorf("%sDelete() did not fail", cmd.fln)
				}
			} else if err != nil {
				t.Errorf("%sDelete() failed with %s", cmd.fln, err)
			}
		case commitCmd:
			if updater == nil {
				panic("commit: updater is nil")
			}
			if err := updater.Commit(); err != nil {
				t.Errorf("%sCommit() failed with %s", cmd.fln, err)
			}
			updater = nil
		case rollbackCmd:
			if updater == nil {
				panic("rollback: updater is nil")
			}
			updater.Rollback()
			updater = nil
		default:
			panic(fmt.Sprintf("unexpected command: %d", cmd.cmd))
		}
	}
}

// testKV runs the same set/get/delete/iterate/rollback script against any
// kv.KV implementation, so every backend is held to one conformance bar.
func testKV(t *testing.T, store kv.KV) {
	t.Helper()

	runKVTest(t, store, []kvCmd{
		{fln: fln(), cmd: getCmd, key: "Aaaa", fail: true},
		{fln: fln(), cmd: updateCmd},
		{fln: fln(), cmd: setCmd, key: "Aaaa", val: "aaa"},
		{fln: fln(), cmd: setCmd, key: "Accc", val: "ccc"},
		{fln: fln(), cmd: setCmd, key: "Abbb", val: "bbb"},
		{fln: fln(), cmd: commitCmd},

		{fln: fln(), cmd: getCmd, key: "Aaaa", val: "aaa"},
		{fln: fln(), cmd: iterateCmd, key: "A",
			keyVals: []keyVal{
				{"Aaaa", "aaa"},
				{"Abbb", "bbb"},
				{"Accc", "ccc"},
			},
		},

		{fln: fln(), cmd: updateCmd},
		{fln: fln(), cmd: setCmd, key: "Abbb", val: "bbb2"},
		{fln: fln(), cmd: deleteCmd, key: "Accc"},
		{fln: fln(), cmd: commitCmd},

		{fln: fln(), cmd: getCmd, key: "Abbb", val: "bbb2"},
		{fln: fln(), cmd: getCmd, key: "Accc", fail: true},
		{fln: fln(), cmd: iterateCmd, key: "A",
			keyVals: []keyVal{
				{"Aaaa", "aaa"},
				{"Abbb", "bbb2"},
			},
		},

		{fln: fln(), cmd: updateCmd},
		{fln: fln(), cmd: setCmd, key: "Abbb", val: "bbb3"},
		{fln: fln(), cmd: rollbackCmd},

		{fln: fln(), cmd: getCmd, key: "Abbb", val: "bbb2"},
	})
}
