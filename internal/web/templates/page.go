// Package templates holds the templ components of the HTML table view.
// Edit the .templ files and run `templ generate` to refresh *_templ.go.
package templates

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/datatable/internal/dataset"
	"github.com/JonMunkholm/datatable/internal/export"
	"github.com/JonMunkholm/datatable/internal/table"
)

// Page is the data behind the table view.
type Page struct {
	Info    dataset.Info
	View    table.View
	Formats []export.FormatInfo

	// Query is the request's query string; links keep it and change only
	// the parameters they are about.
	Query url.Values
}

// SortHref advances column id through the none -> asc -> desc -> none cycle.
func (p Page) SortHref(id string) string {
	next := table.SortAscending
	if p.View.Sort.ColumnID == id {
		switch p.View.Sort.Direction {
		case table.SortAscending:
			next = table.SortDescending
		case table.SortDescending:
			return p.tableHref(url.Values{"sort": {""}, "dir": {""}, "page": {"1"}})
		}
	}
	return p.tableHref(url.Values{"sort": {id}, "dir": {next.String()}, "page": {"1"}})
}

// SortMarker is the arrow shown next to the active sort column.
func (p Page) SortMarker(id string) string {
	if p.View.Sort.ColumnID != id {
		return ""
	}
	switch p.View.Sort.Direction {
	case table.SortAscending:
		return " ▲"
	case table.SortDescending:
		return " ▼"
	}
	return ""
}

// PageHref links to the 0-based page index.
func (p Page) PageHref(index int) string {
	return p.tableHref(url.Values{"page": {strconv.Itoa(index + 1)}})
}

// ExportHref links to a download of the current table state.
func (p Page) ExportHref(f export.Format) string {
	return "/api/export/" + url.PathEscape(p.Info.Key) + "?" + p.merged(url.Values{"format": {string(f)}}).Encode()
}

// Summary reads "Page 2 of 5 (42 of 120 rows)".
func (p Page) Summary() string {
	pg := p.View.Page
	return fmt.Sprintf("Page %d of %d (%d of %d rows)", pg.PageIndex+1, max(pg.PageCount, 1), pg.FilteredRows, pg.TotalRows)
}

func (p Page) tableHref(set url.Values) string {
	return "/table/" + url.PathEscape(p.Info.Key) + "?" + p.merged(set).Encode()
}

func (p Page) merged(set url.Values) url.Values {
	out := make(url.Values, len(p.Query)+len(set))
	for k, v := range p.Query {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range set {
		out[k] = v
	}
	return out
}
