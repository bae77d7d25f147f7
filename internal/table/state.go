package table

import (
	"errors"
	"strings"
)

var (
	ErrNoColumns       = errors.New("table has no columns")
	ErrEmptyColumnID   = errors.New("column id is empty")
	ErrDuplicateColumn = errors.New("duplicate column id")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrNotSortable     = errors.New("column is not sortable")
	ErrNotFilterable   = errors.New("column is not filterable")
	ErrUnknownRow      = errors.New("unknown row")
)

// DefaultPageSize is used when Options.PageSize is not set.
const DefaultPageSize = 10

// DefaultIDField is the row key used for selection identity.
const DefaultIDField = "id"

// Direction is the sort direction of the active sort column.
type Direction int

const (
	SortNone Direction = iota
	SortAscending
	SortDescending
)

// String returns "asc", "desc" or "".
func (d Direction) String() string {
	switch d {
	case SortAscending:
		return "asc"
	case SortDescending:
		return "desc"
	default:
		return ""
	}
}

// ParseDirection accepts "asc"/"ascending" and "desc"/"descending".
// Anything else is SortNone.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return SortAscending
	case "desc", "descending":
		return SortDescending
	default:
		return SortNone
	}
}

// next advances the tri-state cycle none -> asc -> desc -> none.
func (d Direction) next() Direction {
	switch d {
	case SortNone:
		return SortAscending
	case SortAscending:
		return SortDescending
	default:
		return SortNone
	}
}

// SortState is the single active sort. A zero SortState means unsorted.
type SortState struct {
	ColumnID  string    `json:"column,omitempty"`
	Direction Direction `json:"-"`
}

// Active reports whether a sort column is set.
func (s SortState) Active() bool {
	return s.ColumnID != "" && s.Direction != SortNone
}

// RowID identifies a row for selection purposes.
type RowID string

// State is a snapshot of the controller's mutable state.
type State struct {
	Sort            SortState
	Filters         map[string]string
	PageIndex       int
	PageSize        int
	SelectedIDs     []RowID
	HiddenColumnIDs []string
}

// PageInfo describes the current pagination window.
type PageInfo struct {
	PageIndex    int  `json:"page_index"`
	PageSize     int  `json:"page_size"`
	PageCount    int  `json:"page_count"`
	TotalRows    int  `json:"total_rows"`
	FilteredRows int  `json:"filtered_rows"`
	HasPrevious  bool `json:"has_previous"`
	HasNext      bool `json:"has_next"`
}

// View is the display subset derived after every state change.
type View struct {
	Columns []Column
	Rows    []Row
	RowIDs  []RowID
	// Cells holds Stringify(Resolve(column, row)) for each page row and
	// visible column, in the same order as Rows and Columns.
	Cells        [][]string
	Page         PageInfo
	Sort         SortState
	Filters      map[string]string
	SelectedRows []Row

	// PositionalIdentity is set when rows lack an id field and selection is
	// keyed by load position. Such selections do not survive SetRows.
	PositionalIdentity bool
}
