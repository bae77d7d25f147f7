package templates

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/JonMunkholm/datatable/internal/dataset"
	"github.com/JonMunkholm/datatable/internal/export"
	"github.com/JonMunkholm/datatable/internal/table"
)

func testPage(sort table.SortState) Page {
	return Page{
		Info: dataset.Info{Key: "people", Label: "People <all>"},
		View: table.View{
			Columns: []table.Column{
				table.Col("name", "Name"),
				{ID: "note", Header: "Note", DisableSort: true, Accessor: table.FieldPath("note")},
			},
			RowIDs: []table.RowID{"p1", "p2"},
			Cells:  [][]string{{"Alice", "a & b"}, {"Bob", "<script>"}},
			Page:   table.PageInfo{PageIndex: 1, PageSize: 2, PageCount: 3, TotalRows: 6, FilteredRows: 6, HasPrevious: true, HasNext: true},
			Sort:   sort,
		},
		Formats: []export.FormatInfo{{Format: export.FormatCSV, Label: "CSV", Extension: ".csv"}},
		Query:   url.Values{"filter[name]": {"a"}, "page": {"2"}},
	}
}

func TestPage_SortHref(t *testing.T) {
	tests := []struct {
		name string
		sort table.SortState
		want url.Values
	}{
		{"unsorted starts ascending", table.SortState{}, url.Values{"sort": {"name"}, "dir": {"asc"}}},
		{"ascending turns descending", table.SortState{ColumnID: "name", Direction: table.SortAscending}, url.Values{"sort": {"name"}, "dir": {"desc"}}},
		{"descending clears", table.SortState{ColumnID: "name", Direction: table.SortDescending}, url.Values{"sort": {""}, "dir": {""}}},
		{"other column starts ascending", table.SortState{ColumnID: "age", Direction: table.SortDescending}, url.Values{"sort": {"name"}, "dir": {"asc"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			href := testPage(tt.sort).SortHref("name")
			u, err := url.Parse(href)
			if err != nil {
				t.Fatalf("SortHref() = %q: %v", href, err)
			}
			q := u.Query()
			if u.Path != "/table/people" {
				t.Errorf("path = %q, want /table/people", u.Path)
			}
			for k := range tt.want {
				if q.Get(k) != tt.want.Get(k) {
					t.Errorf("%s = %q, want %q", k, q.Get(k), tt.want.Get(k))
				}
			}
			if q.Get("page") != "1" {
				t.Errorf("page = %q, want 1", q.Get("page"))
			}
			if q.Get("filter[name]") != "a" {
				t.Errorf("filter dropped from %q", href)
			}
		})
	}
}

func TestPage_Links(t *testing.T) {
	p := testPage(table.SortState{})

	if got := p.PageHref(2); !strings.Contains(got, "page=3") {
		t.Errorf("PageHref(2) = %q, want page=3", got)
	}
	if got := p.ExportHref(export.FormatCSV); !strings.HasPrefix(got, "/api/export/people?") || !strings.Contains(got, "format=csv") {
		t.Errorf("ExportHref() = %q", got)
	}
	if got, want := p.Summary(), "Page 2 of 3 (6 of 6 rows)"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	p := testPage(table.SortState{ColumnID: "name", Direction: table.SortDescending})
	if err := Table(p).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	body := buf.String()

	for _, want := range []string{
		"<h1>People &lt;all&gt;</h1>",
		"<td>a &amp; b</td>",
		"<td>&lt;script&gt;</td>",
		"Name ▼</a>",
		"<th>Note</th>",
		`<tr data-id="p2">`,
		">Previous</a>",
		">Next</a>",
		"Download CSV",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("rendered page does not contain %q", want)
		}
	}
	if strings.Contains(body, "<script>") {
		t.Error("cell text rendered unescaped")
	}
}
