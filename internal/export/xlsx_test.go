package export

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/datatable/internal/table"
)

func openXLSX(t *testing.T, job Job) *excelize.File {
	t.Helper()
	data, err := XLSXEncoder{}.Encode(context.Background(), job)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func rawCell(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetCellValue(%s) error = %v", cell, err)
	}
	return v
}

func TestXLSXEncoder_SheetAndHeader(t *testing.T) {
	f := openXLSX(t, Job{
		Rows:    peopleRows(),
		Columns: peopleColumns(),
		Options: Options{SheetName: "People"},
	})

	if got := f.GetSheetList(); len(got) != 1 || got[0] != "People" {
		t.Fatalf("GetSheetList() = %v, want [People]", got)
	}

	cells := map[string]string{"A1": "Name", "B1": "Age", "A2": "Al,ice", "B2": "30", "A3": "Bob", "B3": "25"}
	for cell, want := range cells {
		if got := rawCell(t, f, "People", cell); got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}

	style, err := f.GetCellStyle("People", "A1")
	if err != nil {
		t.Fatal(err)
	}
	if style == 0 {
		t.Error("header cell has no style")
	}

	panes, err := f.GetPanes("People")
	if err != nil {
		t.Fatal(err)
	}
	if !panes.Freeze || panes.YSplit != 1 {
		t.Errorf("panes = %+v, want header row frozen", panes)
	}
}

func TestXLSXEncoder_TypedCells(t *testing.T) {
	rows := []table.Row{{
		"amount": decimal.RequireFromString("1234.5"),
		"paid":   true,
		"due":    time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		"count":  int32(7),
		"note":   nil,
		"code":   "007",
	}}
	cols := []table.Column{
		table.Col("amount", "Amount"),
		table.Col("paid", "Paid"),
		table.Col("due", "Due"),
		table.Col("count", "Count"),
		table.Col("note", "Note"),
		table.Col("code", "Code"),
	}
	f := openXLSX(t, Job{Rows: rows, Columns: cols, Options: Options{SheetName: "Data"}})

	tests := []struct {
		cell    string
		raw     string
		numeric bool
	}{
		{"A2", "1234.5", true},
		{"C2", "45366", true},
		{"D2", "7", true},
		{"E2", "", false},
		{"F2", "007", false},
	}
	for _, tt := range tests {
		if got := rawCell(t, f, "Data", tt.cell); got != tt.raw {
			t.Errorf("%s raw = %q, want %q", tt.cell, got, tt.raw)
		}
		typ, err := f.GetCellType("Data", tt.cell)
		if err != nil {
			t.Fatal(err)
		}
		isText := typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString
		if tt.numeric && isText {
			t.Errorf("%s stored as text, want a number", tt.cell)
		}
	}

	typ, err := f.GetCellType("Data", "B2")
	if err != nil {
		t.Fatal(err)
	}
	if typ != excelize.CellTypeBool {
		t.Errorf("B2 type = %v, want bool", typ)
	}
	if typ, _ := f.GetCellType("Data", "F2"); typ != excelize.CellTypeSharedString && typ != excelize.CellTypeInlineString {
		t.Errorf("F2 type = %v, want text", typ)
	}
}

func TestXLSXEncoder_ColumnWidths(t *testing.T) {
	rows := []table.Row{
		{"name": "Al,ice", "city": strings.Repeat("x", 300)},
		{"name": "Bob", "city": "Oslo"},
	}
	cols := []table.Column{table.Col("name", "Name"), table.Col("city", "City")}
	f := openXLSX(t, Job{Rows: rows, Columns: cols, Options: Options{SheetName: "Data"}})

	tests := []struct {
		col  string
		want float64
	}{
		{"A", 8},   // "Al,ice" plus padding
		{"B", 255}, // clamped
	}
	for _, tt := range tests {
		got, err := f.GetColWidth("Data", tt.col)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("width(%s) = %v, want %v", tt.col, got, tt.want)
		}
	}
}

func TestXLSXEncoder_WideRunes(t *testing.T) {
	rows := []table.Row{{"name": "東京タワー"}}
	f := openXLSX(t, Job{Rows: rows, Columns: []table.Column{table.Col("name", "Name")}, Options: Options{SheetName: "Data"}})

	got, err := f.GetColWidth("Data", "A")
	if err != nil {
		t.Fatal(err)
	}
	// Five double-width runes measure as ten columns.
	if got != 12 {
		t.Errorf("width = %v, want 12", got)
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Employees", "Employees"},
		{"", "Data"},
		{"   ", "Data"},
		{"Q1/Q2 [draft]", "Q1_Q2 _draft_"},
		{"a:b*c?d\\e", "a_b_c_d_e"},
		{"'quoted'", "quoted"},
		{strings.Repeat("n", 40), strings.Repeat("n", 31)},
	}
	for _, tt := range tests {
		if got := SheetName(tt.in); got != tt.want {
			t.Errorf("SheetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
