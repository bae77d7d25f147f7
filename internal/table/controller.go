package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Options configures a Controller.
type Options struct {
	// PageSize is the initial page size (default: DefaultPageSize).
	PageSize int

	// IDField is the row key holding the selection identity (default: "id").
	IDField string
}

// Controller owns the sort, filter, pagination, selection and visibility
// state of one table instance and derives the visible row window from it.
//
// Rows pass through three stages on every recompute:
//
//  1. filter: AND of every active per-column predicate
//  2. sort: stable, single column
//  3. paginate: a window of PageSize rows at PageIndex
//
// A Controller is not safe for concurrent use.
type Controller struct {
	columns  []Column
	colIndex map[string]int
	idField  string

	rows       []Row
	ids        []RowID
	idIndex    map[RowID]struct{}
	positional bool

	sort      SortState
	filters   map[string]string
	pageIndex int
	pageSize  int
	selected  map[RowID]struct{}
	hidden    map[string]struct{}

	// order holds indices into rows after filtering and sorting.
	order []int

	onSelect func([]Row)
}

// New creates a controller over columns and rows. Column IDs must be unique.
func New(columns []Column, rows []Row, opts Options) (*Controller, error) {
	if err := validateColumns(columns); err != nil {
		return nil, err
	}

	c := &Controller{
		columns:  append([]Column(nil), columns...),
		colIndex: make(map[string]int, len(columns)),
		idField:  opts.IDField,
		filters:  make(map[string]string),
		pageSize: opts.PageSize,
		selected: make(map[RowID]struct{}),
		hidden:   make(map[string]struct{}),
	}
	if c.idField == "" {
		c.idField = DefaultIDField
	}
	if c.pageSize < 1 {
		c.pageSize = DefaultPageSize
	}
	for i, col := range c.columns {
		c.colIndex[col.ID] = i
		if col.Hidden {
			c.hidden[col.ID] = struct{}{}
		}
	}

	if err := c.SetRows(rows); err != nil {
		return nil, err
	}
	return c, nil
}

// SetRows replaces the loaded row collection. Sort and filters are kept and
// re-applied; the page index is clamped. Selected identities that no longer
// exist are dropped. With positional identity the whole selection is dropped,
// since positions do not identify rows across loads.
func (c *Controller) SetRows(rows []Row) error {
	prevRows, prevIDs, prevIndex, prevPositional := c.rows, c.ids, c.idIndex, c.positional

	c.rows = rows
	c.assignIDs()
	if err := c.recompute(); err != nil {
		c.rows, c.ids, c.idIndex, c.positional = prevRows, prevIDs, prevIndex, prevPositional
		return err
	}

	changed := false
	for id := range c.selected {
		_, ok := c.idIndex[id]
		if !ok || c.positional || prevPositional {
			delete(c.selected, id)
			changed = true
		}
	}
	if changed {
		c.notifySelection()
	}
	return nil
}

// assignIDs uses the id field when every row has one and falls back to
// load position otherwise.
func (c *Controller) assignIDs() {
	c.ids = make([]RowID, len(c.rows))
	c.idIndex = make(map[RowID]struct{}, len(c.rows))
	c.positional = false

	for i, row := range c.rows {
		v, ok := row[c.idField]
		if !ok || v == nil || Stringify(v) == "" {
			c.positional = true
			break
		}
		c.ids[i] = RowID(Stringify(v))
	}
	if c.positional {
		for i := range c.rows {
			c.ids[i] = RowID(strconv.Itoa(i))
		}
	}
	for _, id := range c.ids {
		c.idIndex[id] = struct{}{}
	}
}

// PositionalIdentity reports whether selection is keyed by load position
// because at least one row lacks the id field.
func (c *Controller) PositionalIdentity() bool {
	return c.positional
}

// recompute rebuilds the filtered and sorted order and clamps the page.
// On error the previous order is left untouched.
func (c *Controller) recompute() error {
	order, err := c.filterRows()
	if err != nil {
		return err
	}
	if err := c.sortRows(order); err != nil {
		return err
	}
	c.order = order
	c.clampPage()
	return nil
}

func (c *Controller) filterRows() ([]int, error) {
	type active struct {
		col   Column
		query string
	}
	var preds []active
	for _, col := range c.columns {
		if q, ok := c.filters[col.ID]; ok {
			preds = append(preds, active{col: col, query: q})
		}
	}

	order := make([]int, 0, len(c.rows))
rows:
	for i, row := range c.rows {
		for _, p := range preds {
			v, err := Resolve(p.col, row)
			if err != nil {
				return nil, err
			}
			match := p.col.Match
			if match == nil {
				match = ContainsFold
			}
			if !match(v, p.query) {
				continue rows
			}
		}
		order = append(order, i)
	}
	return order, nil
}

// ContainsFold is the default filter predicate: a case-insensitive substring
// match against the stringified value.
func ContainsFold(value any, query string) bool {
	return strings.Contains(fold(Stringify(value)), fold(query))
}

func (c *Controller) sortRows(order []int) error {
	if !c.sort.Active() {
		return nil
	}
	col := c.columns[c.colIndex[c.sort.ColumnID]]

	keys := make(map[int]any, len(order))
	for _, i := range order {
		v, err := Resolve(col, c.rows[i])
		if err != nil {
			return err
		}
		keys[i] = v
	}

	compare := col.Compare
	if compare == nil {
		compare = CompareValues
	}
	desc := c.sort.Direction == SortDescending
	sort.SliceStable(order, func(a, b int) bool {
		r := compare(keys[order[a]], keys[order[b]])
		if desc {
			return r > 0
		}
		return r < 0
	})
	return nil
}

func (c *Controller) column(id string) (Column, error) {
	i, ok := c.colIndex[id]
	if !ok {
		return Column{}, fmt.Errorf("%w: %q", ErrUnknownColumn, id)
	}
	return c.columns[i], nil
}

// ---------------------------------------------------------------------------
// Sorting
// ---------------------------------------------------------------------------

// ToggleSort cycles the sort of column id: none -> ascending -> descending ->
// none. Activating a different column starts it at ascending and clears the
// previous one. The page index resets to 0.
func (c *Controller) ToggleSort(id string) error {
	next := SortState{ColumnID: id, Direction: SortAscending}
	if c.sort.ColumnID == id {
		next.Direction = c.sort.Direction.next()
	}
	return c.SetSort(id, next.Direction)
}

// SetSort sets the active sort directly. SortNone clears it.
func (c *Controller) SetSort(id string, dir Direction) error {
	if dir == SortNone {
		c.ClearSort()
		return nil
	}
	col, err := c.column(id)
	if err != nil {
		return err
	}
	if !col.Sortable() {
		return fmt.Errorf("%w: %q", ErrNotSortable, id)
	}

	prev := c.sort
	c.sort = SortState{ColumnID: id, Direction: dir}
	if err := c.recompute(); err != nil {
		c.sort = prev
		return err
	}
	c.pageIndex = 0
	return nil
}

// ClearSort restores the filtered rows to their loaded order.
func (c *Controller) ClearSort() {
	c.sort = SortState{}
	// Filtering preserves load order, so unsorted order is ascending index.
	sort.Ints(c.order)
	c.pageIndex = 0
}

// Sort returns the active sort.
func (c *Controller) Sort() SortState {
	return c.sort
}

// ---------------------------------------------------------------------------
// Filtering
// ---------------------------------------------------------------------------

// SetFilter sets the predicate value for column id. A blank value removes
// the filter. The page index resets to 0.
func (c *Controller) SetFilter(id, value string) error {
	col, err := c.column(id)
	if err != nil {
		return err
	}
	if !col.Filterable() {
		return fmt.Errorf("%w: %q", ErrNotFilterable, id)
	}

	prev, had := c.filters[id]
	if strings.TrimSpace(value) == "" {
		delete(c.filters, id)
	} else {
		c.filters[id] = value
	}

	if err := c.recompute(); err != nil {
		if had {
			c.filters[id] = prev
		} else {
			delete(c.filters, id)
		}
		return err
	}
	c.pageIndex = 0
	return nil
}

// ClearFilters removes every column filter.
func (c *Controller) ClearFilters() error {
	prev := c.filters
	c.filters = make(map[string]string)
	if err := c.recompute(); err != nil {
		c.filters = prev
		return err
	}
	c.pageIndex = 0
	return nil
}

// Filters returns a copy of the active filters keyed by column ID.
func (c *Controller) Filters() map[string]string {
	out := make(map[string]string, len(c.filters))
	for k, v := range c.filters {
		out[k] = v
	}
	return out
}

// ---------------------------------------------------------------------------
// Pagination
// ---------------------------------------------------------------------------

// FilteredCount returns the number of rows passing all filters.
func (c *Controller) FilteredCount() int {
	return len(c.order)
}

// PageCount returns ceil(FilteredCount / PageSize), or 0 with no rows.
func (c *Controller) PageCount() int {
	return (len(c.order) + c.pageSize - 1) / c.pageSize
}

// PageIndex returns the zero-based current page.
func (c *Controller) PageIndex() int { return c.pageIndex }

// PageSize returns the current page size.
func (c *Controller) PageSize() int { return c.pageSize }

func (c *Controller) clampPage() {
	last := c.PageCount() - 1
	if c.pageIndex > last {
		c.pageIndex = last
	}
	if c.pageIndex < 0 {
		c.pageIndex = 0
	}
}

// SetPageSize changes the page size; values below 1 become 1.
func (c *Controller) SetPageSize(n int) {
	if n < 1 {
		n = 1
	}
	c.pageSize = n
	c.clampPage()
}

// GotoPage moves to page n, clamped into range.
func (c *Controller) GotoPage(n int) {
	c.pageIndex = n
	c.clampPage()
}

func (c *Controller) FirstPage()    { c.GotoPage(0) }
func (c *Controller) PreviousPage() { c.GotoPage(c.pageIndex - 1) }
func (c *Controller) NextPage()     { c.GotoPage(c.pageIndex + 1) }
func (c *Controller) LastPage()     { c.GotoPage(c.PageCount() - 1) }

// HasPrevious reports whether a page precedes the current one.
func (c *Controller) HasPrevious() bool { return c.pageIndex > 0 }

// HasNext reports whether a page follows the current one.
func (c *Controller) HasNext() bool { return c.pageIndex < c.PageCount()-1 }

// PageInfo summarizes the pagination window.
func (c *Controller) PageInfo() PageInfo {
	return PageInfo{
		PageIndex:    c.pageIndex,
		PageSize:     c.pageSize,
		PageCount:    c.PageCount(),
		TotalRows:    len(c.rows),
		FilteredRows: len(c.order),
		HasPrevious:  c.HasPrevious(),
		HasNext:      c.HasNext(),
	}
}

// pageOrder returns the row indices of the current page.
func (c *Controller) pageOrder() []int {
	start := c.pageIndex * c.pageSize
	if start >= len(c.order) {
		return nil
	}
	end := min(start+c.pageSize, len(c.order))
	return c.order[start:end]
}

// PageRows returns the rows on the current page.
func (c *Controller) PageRows() []Row {
	return c.materialize(c.pageOrder())
}

// SortedRows returns every filtered row in sorted order, ignoring pagination.
// This is the row set exports operate on.
func (c *Controller) SortedRows() []Row {
	return c.materialize(c.order)
}

func (c *Controller) materialize(order []int) []Row {
	out := make([]Row, len(order))
	for i, idx := range order {
		out[i] = c.rows[idx]
	}
	return out
}

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

// OnSelectionChange registers fn to be called with the selected rows after
// every selection change. Passing nil removes the listener.
func (c *Controller) OnSelectionChange(fn func([]Row)) {
	c.onSelect = fn
}

func (c *Controller) notifySelection() {
	if c.onSelect != nil {
		c.onSelect(c.SelectedRows())
	}
}

// ToggleRow flips the selection of the row with the given identity.
func (c *Controller) ToggleRow(id RowID) error {
	if _, ok := c.idIndex[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRow, id)
	}
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
	} else {
		c.selected[id] = struct{}{}
	}
	c.notifySelection()
	return nil
}

// SelectRow sets the selection of one row explicitly.
func (c *Controller) SelectRow(id RowID, selected bool) error {
	if _, ok := c.idIndex[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRow, id)
	}
	_, was := c.selected[id]
	if was == selected {
		return nil
	}
	if selected {
		c.selected[id] = struct{}{}
	} else {
		delete(c.selected, id)
	}
	c.notifySelection()
	return nil
}

// IsSelected reports whether the row identity is selected.
func (c *Controller) IsSelected(id RowID) bool {
	_, ok := c.selected[id]
	return ok
}

// IsAllOnPageSelected reports whether the current page is non-empty and
// every row on it is selected.
func (c *Controller) IsAllOnPageSelected() bool {
	page := c.pageOrder()
	if len(page) == 0 {
		return false
	}
	for _, idx := range page {
		if _, ok := c.selected[c.ids[idx]]; !ok {
			return false
		}
	}
	return true
}

// ToggleAllOnPage selects every row on the current page, or deselects them
// all when they are already selected. Rows on other pages are untouched.
func (c *Controller) ToggleAllOnPage() {
	page := c.pageOrder()
	if len(page) == 0 {
		return
	}
	deselect := c.IsAllOnPageSelected()
	for _, idx := range page {
		if deselect {
			delete(c.selected, c.ids[idx])
		} else {
			c.selected[c.ids[idx]] = struct{}{}
		}
	}
	c.notifySelection()
}

// ClearSelection deselects every row.
func (c *Controller) ClearSelection() {
	if len(c.selected) == 0 {
		return
	}
	c.selected = make(map[RowID]struct{})
	c.notifySelection()
}

// SelectedIDs returns the selected identities in load order.
func (c *Controller) SelectedIDs() []RowID {
	var out []RowID
	seen := make(map[RowID]bool, len(c.selected))
	for _, id := range c.ids {
		if _, ok := c.selected[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// SelectedRows materializes the selected rows in load order.
func (c *Controller) SelectedRows() []Row {
	var out []Row
	for i, id := range c.ids {
		if _, ok := c.selected[id]; ok {
			out = append(out, c.rows[i])
		}
	}
	return out
}

// RowID returns the identity of row i in the loaded collection.
func (c *Controller) RowID(i int) RowID {
	return c.ids[i]
}

// ---------------------------------------------------------------------------
// Column visibility
// ---------------------------------------------------------------------------

// ToggleColumn flips the visibility of column id.
func (c *Controller) ToggleColumn(id string) error {
	if _, err := c.column(id); err != nil {
		return err
	}
	_, hidden := c.hidden[id]
	return c.SetColumnVisible(id, hidden)
}

// SetColumnVisible shows or hides column id. Hiding every column is allowed.
func (c *Controller) SetColumnVisible(id string, visible bool) error {
	if _, err := c.column(id); err != nil {
		return err
	}
	if visible {
		delete(c.hidden, id)
	} else {
		c.hidden[id] = struct{}{}
	}
	return nil
}

// IsColumnVisible reports whether column id is shown.
func (c *Controller) IsColumnVisible(id string) bool {
	_, hidden := c.hidden[id]
	return !hidden
}

// Columns returns every column in declaration order.
func (c *Controller) Columns() []Column {
	return append([]Column(nil), c.columns...)
}

// VisibleColumns returns the shown columns in declaration order.
func (c *Controller) VisibleColumns() []Column {
	out := make([]Column, 0, len(c.columns))
	for _, col := range c.columns {
		if c.IsColumnVisible(col.ID) {
			out = append(out, col)
		}
	}
	return out
}

// HiddenColumnIDs returns the hidden column IDs in declaration order. The
// result is never nil, so it can be passed to export options as is.
func (c *Controller) HiddenColumnIDs() []string {
	out := []string{}
	for _, col := range c.columns {
		if !c.IsColumnVisible(col.ID) {
			out = append(out, col.ID)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Derived views
// ---------------------------------------------------------------------------

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	return State{
		Sort:            c.sort,
		Filters:         c.Filters(),
		PageIndex:       c.pageIndex,
		PageSize:        c.pageSize,
		SelectedIDs:     c.SelectedIDs(),
		HiddenColumnIDs: c.HiddenColumnIDs(),
	}
}

// View derives the display subset: the current page of filtered, sorted rows
// restricted to the visible columns.
func (c *Controller) View() (View, error) {
	cols := c.VisibleColumns()
	page := c.pageOrder()

	v := View{
		Columns:            cols,
		Rows:               make([]Row, len(page)),
		RowIDs:             make([]RowID, len(page)),
		Cells:              make([][]string, len(page)),
		Page:               c.PageInfo(),
		Sort:               c.sort,
		Filters:            c.Filters(),
		SelectedRows:       c.SelectedRows(),
		PositionalIdentity: c.positional,
	}
	for i, idx := range page {
		row := c.rows[idx]
		cells := make([]string, len(cols))
		for j, col := range cols {
			val, err := Resolve(col, row)
			if err != nil {
				return View{}, err
			}
			cells[j] = Stringify(val)
		}
		v.Rows[i] = row
		v.RowIDs[i] = c.ids[idx]
		v.Cells[i] = cells
	}
	return v, nil
}
