package cmd

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/leftmike/orderedview/config"
	"github.com/leftmike/orderedview/kv"
	"github.com/leftmike/orderedview/primary"
	"github.com/leftmike/orderedview/view"
)

var (
	demoConfigFile = "orderedview.hcl"
	demoViewName   = ""

	demoCmd = &cobra.Command{
		Use:   "demo [keys...]",
		Short: "Insert the given keys into a demo view, grouped by first letter, and print each group's order",
		RunE:  demoRun,
	}
)

func init() {
	fs := demoCmd.Flags()
	fs.StringVar(&demoConfigFile, "config-file", demoConfigFile, "`file` to load view registration from")
	fs.StringVar(&demoViewName, "view", demoViewName, "`name` of the view to use; defaults to the configured view whose name sorts first")

	rootCmd.AddCommand(demoCmd)
}

// firstLetterGroup groups keys by their first byte, lowercased; a row with
// an empty key is excluded from the view entirely.
var firstLetterGroup = view.GroupingPredicate{
	Arity: view.WithKey,
	Fn: func(key string, object, metadata interface{}) string {
		if key == "" {
			return view.NoGroup
		}
		return strings.ToLower(key[:1])
	},
}

// lexicographicSort orders keys within a group lexicographically.
var lexicographicSort = view.SortingPredicate{
	Arity: view.WithKey,
	Fn: func(group string, aKey string, aObject, aMetadata interface{}, bKey string, bObject, bMetadata interface{}) view.Ordering {
		switch {
		case aKey < bKey:
			return view.Ascending
		case aKey > bKey:
			return view.Descending
		default:
			return view.Equal
		}
	},
}

func demoRun(cmd *cobra.Command, keys []string) error {
	cfg, err := config.Load(demoConfigFile)
	if err != nil {
		log.WithError(err).Warn("orderedview: using in-memory defaults; config file not loaded")
		cfg = config.Config{DataDir: "orderedview-data"}
	}

	vc := config.ViewConfig{Name: "demo", Backend: "btree", MaxPageSize: 50, CacheSize: 1024}
	if demoViewName != "" {
		found := false
		for _, v := range cfg.Views {
			if v.Name == demoViewName {
				vc = v
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("orderedview: view %q not found in %s", demoViewName, demoConfigFile)
		}
	} else if len(cfg.Views) > 0 {
		vc = cfg.Views[0]
	}

	dataDir := vc.DataDir
	if dataDir == "" {
		dataDir = cfg.DataDir
	}

	store, err := kv.Open(vc.Backend, dataDir, log.StandardLogger())
	if err != nil {
		return err
	}
	defer store.Close()

	source := primary.NewStore()

	v, err := view.Open(store, source, view.Config{
		Name:        vc.Name,
		Grouping:    firstLetterGroup,
		Sorting:     lexicographicSort,
		Version:     vc.Version,
		MaxPageSize: vc.MaxPageSize,
		CacheSize:   vc.CacheSize,
	})
	if err != nil {
		return fmt.Errorf("orderedview: open view: %s", err)
	}

	txn := v.Begin()
	for _, key := range keys {
		rowid := source.Put(key, nil, nil)
		if err := txn.Insert(rowid, true); err != nil {
			txn.Rollback()
			return fmt.Errorf("orderedview: insert %q: %s", key, err)
		}
	}
	changes, err := txn.Commit()
	if err != nil {
		return fmt.Errorf("orderedview: commit: %s", err)
	}
	log.WithField("changes", len(changes)).Info("orderedview: committed")

	for _, group := range v.AllGroups() {
		fmt.Printf("%s:", group)
		n := v.NumberOfKeysInGroup(group)
		for i := 0; i < n; i++ {
			key, ok, err := v.KeyAtIndex(group, i)
			if err != nil {
				return err
			}
			if ok {
				fmt.Printf(" %s", key)
			}
		}
		fmt.Println()
	}

	return nil
}
