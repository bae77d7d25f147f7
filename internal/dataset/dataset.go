// Package dataset holds the named tables the server can display and export.
// It has no HTTP dependencies; definitions register themselves from the
// tables subpackage.
package dataset

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/datatable/internal/table"
)

// Querier is the read side of *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// LoadFunc fetches every row of a dataset.
type LoadFunc func(ctx context.Context) ([]table.Row, error)

// Info contains display information about a dataset.
type Info struct {
	Key         string `json:"key"`   // Unique identifier: "employees"
	Group       string `json:"group"` // Business area: "HR", "Finance"
	Label       string `json:"label"` // Display name: "Employees"
	Description string `json:"description,omitempty"`
}

// Definition contains everything needed to display and export a dataset.
type Definition struct {
	Info    Info
	Columns []table.Column

	// Query selects the rows from PostgreSQL. Column names become row keys.
	Query string

	// Seed returns built-in rows used when no database is configured.
	Seed func() []table.Row
}

// Loader returns the LoadFunc for d: the SQL query when db is non-nil and
// a query is defined, otherwise the seed rows.
func (d Definition) Loader(db Querier) LoadFunc {
	if db != nil && d.Query != "" {
		return PGLoader(db, d.Query)
	}
	var rows []table.Row
	if d.Seed != nil {
		rows = d.Seed()
	}
	return StaticLoader(rows)
}

var (
	registry   = make(map[string]Definition)
	registryMu sync.RWMutex
)

// Register adds a dataset definition to the registry.
// Panics if a dataset with the same key is already registered.
func Register(def Definition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("dataset already registered: %s", def.Info.Key))
	}
	if def.Info.Label == "" {
		def.Info.Label = def.Info.Key
	}

	registry[def.Info.Key] = def
}

// Get returns a dataset definition by key.
func Get(key string) (Definition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered definitions sorted by group then key.
func All() []Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Definition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Group != result[j].Info.Group {
			return result[i].Info.Group < result[j].Info.Group
		}
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// ByGroup returns the definitions of one group sorted by key.
func ByGroup(group string) []Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []Definition
	for _, def := range registry {
		if def.Info.Group == group {
			result = append(result, def)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// Groups returns all unique group names, sorted.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range registry {
		seen[def.Info.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// Count returns the number of registered datasets.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered datasets.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Definition)
}
