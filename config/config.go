// Package config loads the HCL file that registers one or more ordered
// views against a backend, following the same hashicorp/hcl decode-into-
// map-then-validate pattern as the teacher's cmd package config loader.
package config

import (
	"fmt"
	"io/ioutil"
	"sort"

	"github.com/hashicorp/hcl"
)

// ViewConfig is one `view "<name>" { ... }` block.
type ViewConfig struct {
	Name        string
	Backend     string
	DataDir     string
	MaxPageSize int
	CacheSize   int
	Version     int64
}

// Config is the fully parsed contents of a registration file: the shared
// backend data directory plus every registered view.
type Config struct {
	DataDir string
	Views   []ViewConfig
}

const defaultDataDir = "orderedview-data"

// Load reads and decodes the HCL file at path.
func Load(path string) (Config, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Decode(string(b))
}

// Decode parses HCL config text of the form:
//
//	data_dir = "orderedview-data"
//
//	view "orders_by_customer" {
//	    backend = "bbolt"
//	    max_page_size = 50
//	    cache_size = 1024
//	    version = 1
//	}
func Decode(text string) (Config, error) {
	var raw map[string]interface{}
	if err := hcl.Decode(&raw, text); err != nil {
		return Config{}, err
	}

	cfg := Config{DataDir: defaultDataDir}
	if dd, ok := raw["data_dir"].(string); ok {
		cfg.DataDir = dd
	}

	viewsRaw, ok := raw["view"]
	if !ok {
		return cfg, nil
	}

	views, ok := asBlockMap(viewsRaw)
	if !ok {
		return Config{}, fmt.Errorf("config: view block has unexpected shape")
	}

	for name, body := range views {
		fields, ok := asBlockMap(body)
		if !ok {
			return Config{}, fmt.Errorf("config: view %q has unexpected shape", name)
		}
		vc := ViewConfig{
			Name:        name,
			Backend:     "btree",
			MaxPageSize: 50,
			CacheSize:   1024,
		}

		if backend, ok := fields["backend"].(string); ok {
			vc.Backend = backend
		}
		if dd, ok := fields["data_dir"].(string); ok {
			vc.DataDir = dd
		}
		if max, ok := asInt(fields["max_page_size"]); ok {
			vc.MaxPageSize = max
		}
		if size, ok := asInt(fields["cache_size"]); ok {
			vc.CacheSize = size
		}
		if ver, ok := asInt(fields["version"]); ok {
			vc.Version = int64(ver)
		}

		cfg.Views = append(cfg.Views, vc)
	}
	sort.Slice(cfg.Views, func(i, j int) bool { return cfg.Views[i].Name < cfg.Views[j].Name })

	return cfg, nil
}

// asBlockMap normalizes the two shapes hashicorp/hcl produces for a labeled
// block decoded into a generic map: a single occurrence decodes directly as
// map[string]interface{}, while two or more occurrences of the same block
// type decode as []map[string]interface{}, one entry per occurrence. Both
// the "view" blocks themselves and each view's body can appear in either
// shape depending on how many sibling blocks share its level, so every
// caller normalizes through here rather than asserting one shape.
func asBlockMap(v interface{}) (map[string]interface{}, bool) {
	switch b := v.(type) {
	case map[string]interface{}:
		return b, true
	case []map[string]interface{}:
		merged := map[string]interface{}{}
		for _, m := range b {
			for k, val := range m {
				merged[k] = val
			}
		}
		return merged, true
	default:
		return nil, false
	}
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
