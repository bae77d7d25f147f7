package table

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// ----------------------------------------------------------------------------
// Fixtures
// ----------------------------------------------------------------------------

func peopleColumns() []Column {
	return []Column{
		Col("name", "Name"),
		Col("age", "Age"),
	}
}

func peopleRows() []Row {
	return []Row{
		{"name": "Al,ice", "age": 30},
		{"name": "Bob", "age": 25},
	}
}

// employees returns n rows with explicit ids emp-0..emp-(n-1).
func employees(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			"id":   fmt.Sprintf("emp-%d", i),
			"name": fmt.Sprintf("Employee %02d", i),
			"dept": []string{"Sales", "Finance", "HR"}[i%3],
		}
	}
	return rows
}

func employeeColumns() []Column {
	return []Column{Col("id", "ID"), Col("name", "Name"), Col("dept", "Department")}
}

func names(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = fmt.Sprint(r["name"])
	}
	return out
}

func mustNew(t *testing.T, cols []Column, rows []Row, opts Options) *Controller {
	t.Helper()
	c, err := New(cols, rows, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func assertNames(t *testing.T, got []Row, want ...string) {
	t.Helper()
	if diff := cmp.Diff(want, names(got), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("row order mismatch (-want +got):\n%s", diff)
	}
}

// ----------------------------------------------------------------------------
// Sorting
// ----------------------------------------------------------------------------

func TestToggleSort_TriState(t *testing.T) {
	c := mustNew(t, peopleColumns(), peopleRows(), Options{})

	steps := []struct {
		wantDir   Direction
		wantNames []string
	}{
		{SortAscending, []string{"Bob", "Al,ice"}},
		{SortDescending, []string{"Al,ice", "Bob"}},
		{SortNone, []string{"Al,ice", "Bob"}},
	}

	for i, step := range steps {
		if err := c.ToggleSort("age"); err != nil {
			t.Fatalf("toggle %d: ToggleSort() error = %v", i+1, err)
		}
		if got := c.Sort().Direction; got != step.wantDir {
			t.Errorf("toggle %d: Direction = %v, want %v", i+1, got, step.wantDir)
		}
		assertNames(t, c.SortedRows(), step.wantNames...)
	}
	if c.Sort().Active() {
		t.Errorf("Sort().Active() = true after three toggles, want false")
	}
}

func TestToggleSort_ThreeTogglesRestoreOrder(t *testing.T) {
	rows := employees(9)
	for _, col := range employeeColumns() {
		t.Run(col.ID, func(t *testing.T) {
			c := mustNew(t, employeeColumns(), rows, Options{})
			if err := c.SetFilter("dept", "a"); err != nil {
				t.Fatalf("SetFilter() error = %v", err)
			}
			before := names(c.SortedRows())
			for i := 0; i < 3; i++ {
				if err := c.ToggleSort(col.ID); err != nil {
					t.Fatalf("ToggleSort() error = %v", err)
				}
			}
			assertNames(t, c.SortedRows(), before...)
		})
	}
}

func TestToggleSort_SwitchColumn(t *testing.T) {
	c := mustNew(t, peopleColumns(), peopleRows(), Options{})

	_ = c.ToggleSort("age")
	_ = c.ToggleSort("age") // age descending
	if err := c.ToggleSort("name"); err != nil {
		t.Fatalf("ToggleSort() error = %v", err)
	}

	want := SortState{ColumnID: "name", Direction: SortAscending}
	if got := c.Sort(); got != want {
		t.Errorf("Sort() = %+v, want %+v", got, want)
	}
	assertNames(t, c.SortedRows(), "Al,ice", "Bob")
}

func TestSort_IsStable(t *testing.T) {
	rows := []Row{
		{"id": "1", "name": "a", "dept": "HR"},
		{"id": "2", "name": "b", "dept": "Sales"},
		{"id": "3", "name": "c", "dept": "hr"},
		{"id": "4", "name": "d", "dept": "Sales"},
		{"id": "5", "name": "e", "dept": "HR"},
	}
	c := mustNew(t, employeeColumns(), rows, Options{})

	if err := c.ToggleSort("dept"); err != nil {
		t.Fatalf("ToggleSort() error = %v", err)
	}
	assertNames(t, c.SortedRows(), "a", "c", "e", "b", "d")

	if err := c.ToggleSort("dept"); err != nil {
		t.Fatalf("ToggleSort() error = %v", err)
	}
	assertNames(t, c.SortedRows(), "b", "d", "a", "c", "e")
}

func TestSort_Errors(t *testing.T) {
	cols := []Column{Col("name", "Name"), {ID: "notes", Accessor: FieldPath("notes"), DisableSort: true}}
	c := mustNew(t, cols, peopleRows(), Options{})

	if err := c.ToggleSort("missing"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("ToggleSort(missing) error = %v, want ErrUnknownColumn", err)
	}
	if err := c.ToggleSort("notes"); !errors.Is(err, ErrNotSortable) {
		t.Errorf("ToggleSort(notes) error = %v, want ErrNotSortable", err)
	}
}

func TestSort_CustomCompare(t *testing.T) {
	priority := map[string]int{"high": 0, "medium": 1, "low": 2}
	cols := []Column{
		Col("name", "Name"),
		{
			ID:       "priority",
			Header:   "Priority",
			Accessor: FieldPath("priority"),
			Compare: func(a, b any) int {
				return priority[a.(string)] - priority[b.(string)]
			},
		},
	}
	rows := []Row{
		{"name": "x", "priority": "low"},
		{"name": "y", "priority": "high"},
		{"name": "z", "priority": "medium"},
	}
	c := mustNew(t, cols, rows, Options{})
	if err := c.ToggleSort("priority"); err != nil {
		t.Fatalf("ToggleSort() error = %v", err)
	}
	assertNames(t, c.SortedRows(), "y", "z", "x")
}

func TestSort_DeriveFailureKeepsState(t *testing.T) {
	cols := []Column{
		Col("name", "Name"),
		{ID: "bad", Accessor: Derive(func(r Row) (any, error) {
			if r["name"] == "Bob" {
				return nil, errors.New("no data for Bob")
			}
			return 1, nil
		})},
	}
	c := mustNew(t, cols, peopleRows(), Options{})

	err := c.ToggleSort("bad")
	if !errors.Is(err, ErrAccessor) {
		t.Fatalf("ToggleSort() error = %v, want ErrAccessor", err)
	}
	if c.Sort().Active() {
		t.Errorf("Sort().Active() = true after failed sort, want false")
	}
	assertNames(t, c.SortedRows(), "Al,ice", "Bob")
}

// ----------------------------------------------------------------------------
// Filtering
// ----------------------------------------------------------------------------

func TestSetFilter(t *testing.T) {
	c := mustNew(t, peopleColumns(), peopleRows(), Options{})

	if err := c.SetFilter("name", "bo"); err != nil {
		t.Fatalf("SetFilter() error = %v", err)
	}
	v, err := c.View()
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	assertNames(t, v.Rows, "Bob")

	if err := c.SetFilter("name", ""); err != nil {
		t.Fatalf("SetFilter(clear) error = %v", err)
	}
	if _, ok := c.Filters()["name"]; ok {
		t.Errorf("Filters() still contains cleared column")
	}
	assertNames(t, c.SortedRows(), "Al,ice", "Bob")
}

func TestSetFilter_ANDComposition(t *testing.T) {
	c := mustNew(t, employeeColumns(), employees(9), Options{})

	if err := c.SetFilter("dept", "sales"); err != nil {
		t.Fatalf("SetFilter() error = %v", err)
	}
	if got := c.FilteredCount(); got != 3 {
		t.Fatalf("FilteredCount() = %d, want 3", got)
	}
	if err := c.SetFilter("name", "03"); err != nil {
		t.Fatalf("SetFilter() error = %v", err)
	}
	assertNames(t, c.SortedRows(), "Employee 03")
}

func TestSetFilter_Monotonic(t *testing.T) {
	rows := []Row{
		{"name": "Anna"}, {"name": "Annabel"}, {"name": "Ann"}, {"name": "Bo"},
		{"name": "Hannah"}, {"name": "Joanna"}, {"name": "ANNE"},
	}
	c := mustNew(t, []Column{Col("name", "Name")}, rows, Options{})

	query := "annabel"
	prev := len(rows)
	for i := 1; i <= len(query); i++ {
		if err := c.SetFilter("name", query[:i]); err != nil {
			t.Fatalf("SetFilter(%q) error = %v", query[:i], err)
		}
		got := c.FilteredCount()
		if got > prev {
			t.Errorf("SetFilter(%q) count = %d, grew from %d", query[:i], got, prev)
		}
		prev = got
	}
}

func TestSetFilter_ResetsPage(t *testing.T) {
	c := mustNew(t, employeeColumns(), employees(30), Options{PageSize: 5})
	c.GotoPage(4)

	if err := c.SetFilter("dept", "hr"); err != nil {
		t.Fatalf("SetFilter() error = %v", err)
	}
	if got := c.PageIndex(); got != 0 {
		t.Errorf("PageIndex() = %d after filter, want 0", got)
	}

	c.GotoPage(1)
	if err := c.ToggleSort("name"); err != nil {
		t.Fatalf("ToggleSort() error = %v", err)
	}
	if got := c.PageIndex(); got != 0 {
		t.Errorf("PageIndex() = %d after sort, want 0", got)
	}
}

func TestSetFilter_Errors(t *testing.T) {
	cols := []Column{Col("name", "Name"), {ID: "secret", Accessor: FieldPath("secret"), DisableFilter: true}}
	c := mustNew(t, cols, peopleRows(), Options{})

	if err := c.SetFilter("nope", "x"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("SetFilter(nope) error = %v, want ErrUnknownColumn", err)
	}
	if err := c.SetFilter("secret", "x"); !errors.Is(err, ErrNotFilterable) {
		t.Errorf("SetFilter(secret) error = %v, want ErrNotFilterable", err)
	}
}

func TestSetFilter_DerivedColumn(t *testing.T) {
	cols := []Column{
		Col("name", "Name"),
		{ID: "bracket", Header: "Bracket", Accessor: Derive(func(r Row) (any, error) {
			if r["age"].(int) >= 30 {
				return "Senior", nil
			}
			return "Junior", nil
		})},
	}
	c := mustNew(t, cols, peopleRows(), Options{})
	if err := c.SetFilter("bracket", "SEN"); err != nil {
		t.Fatalf("SetFilter() error = %v", err)
	}
	assertNames(t, c.SortedRows(), "Al,ice")
}

// ----------------------------------------------------------------------------
// Pagination
// ----------------------------------------------------------------------------

func TestPagination_GotoPage(t *testing.T) {
	c := mustNew(t, peopleColumns(), peopleRows(), Options{PageSize: 1})

	if got := c.PageCount(); got != 2 {
		t.Fatalf("PageCount() = %d, want 2", got)
	}
	c.GotoPage(1)
	v, err := c.View()
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	assertNames(t, v.Rows, "Bob")
	if v.Page.HasNext || !v.Page.HasPrevious {
		t.Errorf("Page = %+v, want HasPrevious only", v.Page)
	}
}

func TestPagination_Clamps(t *testing.T) {
	c := mustNew(t, employeeColumns(), employees(23), Options{PageSize: 5})

	tests := []struct {
		name string
		op   func()
		want int
	}{
		{"goto beyond end", func() { c.GotoPage(99) }, 4},
		{"next at end", c.NextPage, 4},
		{"goto negative", func() { c.GotoPage(-3) }, 0},
		{"previous at start", c.PreviousPage, 0},
		{"last", c.LastPage, 4},
		{"first", c.FirstPage, 0},
		{"next", c.NextPage, 1},
		{"grow page size", func() { c.GotoPage(4); c.SetPageSize(10) }, 2},
		{"page size below one", func() { c.SetPageSize(0) }, 2},
	}

	for _, tt := range tests {
		tt.op()
		if got := c.PageIndex(); got != tt.want {
			t.Errorf("%s: PageIndex() = %d, want %d", tt.name, got, tt.want)
		}
	}
	if got := c.PageSize(); got != 1 {
		t.Errorf("PageSize() = %d after SetPageSize(0), want 1", got)
	}
}

func TestPagination_Bound(t *testing.T) {
	for _, total := range []int{0, 1, 7, 10, 11} {
		for _, size := range []int{1, 3, 10} {
			c := mustNew(t, employeeColumns(), employees(total), Options{PageSize: size})
			for page := -1; page <= total+1; page++ {
				c.GotoPage(page)
				idx := c.PageIndex()
				if total == 0 {
					if idx != 0 || c.PageCount() != 0 {
						t.Errorf("total=0 size=%d: PageIndex=%d PageCount=%d, want 0/0", size, idx, c.PageCount())
					}
					continue
				}
				if idx*size >= total {
					t.Errorf("total=%d size=%d goto=%d: PageIndex=%d out of bounds", total, size, page, idx)
				}
			}
		}
	}
}

func TestPagination_EmptyFilterResult(t *testing.T) {
	c := mustNew(t, employeeColumns(), employees(12), Options{PageSize: 5})
	c.LastPage()
	if err := c.SetFilter("name", "no such employee"); err != nil {
		t.Fatalf("SetFilter() error = %v", err)
	}
	info := c.PageInfo()
	if info.PageIndex != 0 || info.PageCount != 0 || info.HasNext || info.HasPrevious {
		t.Errorf("PageInfo() = %+v, want empty window", info)
	}
	if rows := c.PageRows(); len(rows) != 0 {
		t.Errorf("PageRows() = %d rows, want 0", len(rows))
	}
}

// ----------------------------------------------------------------------------
// Selection
// ----------------------------------------------------------------------------

func TestSelection_PersistsAcrossPages(t *testing.T) {
	c := mustNew(t, employeeColumns(), employees(10), Options{PageSize: 4})

	var notified [][]Row
	c.OnSelectionChange(func(rows []Row) { notified = append(notified, rows) })

	c.ToggleAllOnPage()
	c.NextPage()
	if err := c.ToggleRow("emp-5"); err != nil {
		t.Fatalf("ToggleRow() error = %v", err)
	}

	want := []RowID{"emp-0", "emp-1", "emp-2", "emp-3", "emp-5"}
	if diff := cmp.Diff(want, c.SelectedIDs()); diff != "" {
		t.Errorf("SelectedIDs mismatch (-want +got):\n%s", diff)
	}
	if len(notified) != 2 {
		t.Fatalf("listener called %d times, want 2", len(notified))
	}
	if got := len(notified[1]); got != 5 {
		t.Errorf("last notification carried %d rows, want 5", got)
	}

	// Deselect-all only touches the current page.
	c.ToggleAllOnPage() // page 1 partially selected: selects all of it
	c.ToggleAllOnPage() // now deselects page 1 only
	want = []RowID{"emp-0", "emp-1", "emp-2", "emp-3"}
	if diff := cmp.Diff(want, c.SelectedIDs()); diff != "" {
		t.Errorf("SelectedIDs after page deselect (-want +got):\n%s", diff)
	}
}

func TestSelection_UnknownIdentity(t *testing.T) {
	c := mustNew(t, employeeColumns(), employees(3), Options{})

	if err := c.ToggleRow("emp-99"); !errors.Is(err, ErrUnknownRow) {
		t.Errorf("ToggleRow(emp-99) error = %v, want ErrUnknownRow", err)
	}
	if ids := c.SelectedIDs(); len(ids) != 0 {
		t.Errorf("SelectedIDs() = %v, want empty", ids)
	}
}

func TestSelection_PrunedOnReload(t *testing.T) {
	c := mustNew(t, employeeColumns(), employees(5), Options{})
	_ = c.ToggleRow("emp-1")
	_ = c.ToggleRow("emp-4")

	calls := 0
	c.OnSelectionChange(func([]Row) { calls++ })

	if err := c.SetRows(employees(3)); err != nil {
		t.Fatalf("SetRows() error = %v", err)
	}
	if diff := cmp.Diff([]RowID{"emp-1"}, c.SelectedIDs()); diff != "" {
		t.Errorf("SelectedIDs mismatch (-want +got):\n%s", diff)
	}
	if calls != 1 {
		t.Errorf("listener called %d times, want 1", calls)
	}
}

func TestSelection_PositionalIdentity(t *testing.T) {
	c := mustNew(t, peopleColumns(), peopleRows(), Options{})

	if !c.PositionalIdentity() {
		t.Fatalf("PositionalIdentity() = false for rows without id, want true")
	}
	if err := c.ToggleRow("1"); err != nil {
		t.Fatalf("ToggleRow(1) error = %v", err)
	}
	assertNames(t, c.SelectedRows(), "Bob")

	if err := c.SetRows(peopleRows()); err != nil {
		t.Fatalf("SetRows() error = %v", err)
	}
	if ids := c.SelectedIDs(); len(ids) != 0 {
		t.Errorf("SelectedIDs() = %v after positional reload, want empty", ids)
	}
}

func TestSelection_IdentitySafety(t *testing.T) {
	rows := employees(6)
	c := mustNew(t, employeeColumns(), rows, Options{PageSize: 2})

	known := make(map[RowID]bool)
	for _, r := range rows {
		known[RowID(r["id"].(string))] = true
	}

	ops := []func(){
		c.ToggleAllOnPage, c.NextPage, c.ToggleAllOnPage,
		func() { _ = c.ToggleRow("ghost") },
		func() { _ = c.SelectRow("emp-5", true) },
		c.LastPage, c.ToggleAllOnPage,
	}
	for _, op := range ops {
		op()
		for _, id := range c.SelectedIDs() {
			if !known[id] {
				t.Fatalf("SelectedIDs() contains unknown identity %q", id)
			}
		}
	}
}

// ----------------------------------------------------------------------------
// Column visibility & view
// ----------------------------------------------------------------------------

func TestColumnVisibility(t *testing.T) {
	cols := employeeColumns()
	cols[0].Hidden = true
	c := mustNew(t, cols, employees(2), Options{})

	if diff := cmp.Diff([]string{"id"}, c.HiddenColumnIDs()); diff != "" {
		t.Errorf("HiddenColumnIDs mismatch (-want +got):\n%s", diff)
	}
	if err := c.ToggleColumn("dept"); err != nil {
		t.Fatalf("ToggleColumn() error = %v", err)
	}
	if err := c.ToggleColumn("id"); err != nil {
		t.Fatalf("ToggleColumn() error = %v", err)
	}

	v, err := c.View()
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	var ids []string
	for _, col := range v.Columns {
		ids = append(ids, col.ID)
	}
	if diff := cmp.Diff([]string{"id", "name"}, ids); diff != "" {
		t.Errorf("visible columns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"emp-0", "Employee 00"}, v.Cells[0]); diff != "" {
		t.Errorf("cells mismatch (-want +got):\n%s", diff)
	}

	if err := c.ToggleColumn("unknown"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("ToggleColumn(unknown) error = %v, want ErrUnknownColumn", err)
	}
}

func TestColumnVisibility_HideAll(t *testing.T) {
	c := mustNew(t, peopleColumns(), peopleRows(), Options{})
	for _, col := range peopleColumns() {
		if err := c.SetColumnVisible(col.ID, false); err != nil {
			t.Fatalf("SetColumnVisible() error = %v", err)
		}
	}
	v, err := c.View()
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if len(v.Columns) != 0 || len(v.Rows) != 2 {
		t.Errorf("View() = %d columns, %d rows; want 0 columns, 2 rows", len(v.Columns), len(v.Rows))
	}
}

func TestView_DerivedCellsMatchStringify(t *testing.T) {
	cols := []Column{
		Col("name", "Name"),
		{ID: "shout", Header: "Shout", Accessor: Derive(func(r Row) (any, error) {
			return strings.ToUpper(r["name"].(string)), nil
		})},
		Col("age", "Age"),
	}
	c := mustNew(t, cols, peopleRows(), Options{})
	v, err := c.View()
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	want := [][]string{
		{"Al,ice", "AL,ICE", "30"},
		{"Bob", "BOB", "25"},
	}
	if diff := cmp.Diff(want, v.Cells); diff != "" {
		t.Errorf("Cells mismatch (-want +got):\n%s", diff)
	}
}

func TestState_Snapshot(t *testing.T) {
	c := mustNew(t, employeeColumns(), employees(12), Options{PageSize: 5})
	_ = c.SetFilter("dept", "s")
	_ = c.ToggleSort("name")
	c.NextPage()
	_ = c.ToggleRow("emp-0")
	_ = c.SetColumnVisible("dept", false)

	want := State{
		Sort:            SortState{ColumnID: "name", Direction: SortAscending},
		Filters:         map[string]string{"dept": "s"},
		PageIndex:       0,
		PageSize:        5,
		SelectedIDs:     []RowID{"emp-0"},
		HiddenColumnIDs: []string{"dept"},
	}
	// "s" matches Sales only (4 rows), which fits on one page.
	if diff := cmp.Diff(want, c.State()); diff != "" {
		t.Errorf("State mismatch (-want +got):\n%s", diff)
	}
}
