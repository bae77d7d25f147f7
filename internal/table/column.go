package table

import (
	"errors"
	"fmt"
	"strings"
)

// Row is a single opaque data record. Accessors decide which keys matter.
type Row map[string]any

// DeriveFunc computes a column value from a row. It must not mutate the row.
type DeriveFunc func(Row) (any, error)

// Accessor pulls a column value out of a row. Exactly one of the two forms is
// set: a field path for direct lookup, or a derivation function.
type Accessor struct {
	path   string
	derive DeriveFunc
}

// FieldPath returns an accessor that looks up key in the row. Dotted paths
// ("address.city") walk nested maps when no exact key matches.
func FieldPath(key string) Accessor {
	return Accessor{path: key}
}

// Derive returns an accessor that computes the value with fn.
func Derive(fn DeriveFunc) Accessor {
	return Accessor{derive: fn}
}

// Path returns the field path, or "" for derived accessors.
func (a Accessor) Path() string { return a.path }

// IsDerived reports whether the accessor is a derivation function.
func (a Accessor) IsDerived() bool { return a.derive != nil }

// CompareFunc orders two resolved values: negative if a < b, zero if equal,
// positive if a > b.
type CompareFunc func(a, b any) int

// MatchFunc reports whether a resolved value satisfies a filter query.
type MatchFunc func(value any, query string) bool

// Column describes one logical field of a table.
type Column struct {
	ID       string
	Header   string
	Accessor Accessor

	// Capabilities are on by default.
	DisableSort   bool
	DisableFilter bool

	// Hidden seeds the controller's hidden-column set.
	Hidden bool

	// Compare overrides CompareValues for this column.
	Compare CompareFunc

	// Match overrides the substring filter for this column.
	Match MatchFunc
}

// Sortable reports whether the column can be sorted.
func (c Column) Sortable() bool { return !c.DisableSort }

// Filterable reports whether the column accepts a filter value.
func (c Column) Filterable() bool { return !c.DisableFilter }

// Label returns the header, falling back to the ID.
func (c Column) Label() string {
	if c.Header != "" {
		return c.Header
	}
	return c.ID
}

// Col is shorthand for a field-path column whose ID is the path.
func Col(path, header string) Column {
	return Column{ID: path, Header: header, Accessor: FieldPath(path)}
}

// ErrAccessor marks a failure while resolving a derived column value.
var ErrAccessor = errors.New("accessor failed")

// AccessorError records which column failed to resolve and why.
type AccessorError struct {
	ColumnID string
	Err      error
}

func (e *AccessorError) Error() string {
	return fmt.Sprintf("resolve column %q: %v", e.ColumnID, e.Err)
}

func (e *AccessorError) Unwrap() []error {
	return []error{ErrAccessor, e.Err}
}

// Resolve returns the value of column for row. Every consumer of column
// values (filtering, sorting, the display subset, all export encoders) goes
// through this function.
//
// A missing field yields nil. A derivation that returns an error or panics
// yields an *AccessorError.
func Resolve(column Column, row Row) (value any, err error) {
	if column.Accessor.derive == nil {
		return lookup(row, column.Accessor.path), nil
	}

	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = &AccessorError{ColumnID: column.ID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	value, err = column.Accessor.derive(row)
	if err != nil {
		return nil, &AccessorError{ColumnID: column.ID, Err: err}
	}
	return value, nil
}

// lookup finds key in row, walking nested maps for dotted paths.
func lookup(row Row, key string) any {
	if row == nil || key == "" {
		return nil
	}
	if v, ok := row[key]; ok {
		return v
	}
	if !strings.Contains(key, ".") {
		return nil
	}

	var cur any = map[string]any(row)
	for _, part := range strings.Split(key, ".") {
		switch m := cur.(type) {
		case map[string]any:
			cur = m[part]
		case Row:
			cur = m[part]
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

// validateColumns rejects empty column sets and duplicate or empty IDs.
func validateColumns(columns []Column) error {
	if len(columns) == 0 {
		return ErrNoColumns
	}
	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		if c.ID == "" {
			return fmt.Errorf("column %d: %w", i, ErrEmptyColumnID)
		}
		if seen[c.ID] {
			return fmt.Errorf("column %q: %w", c.ID, ErrDuplicateColumn)
		}
		seen[c.ID] = true
	}
	return nil
}
