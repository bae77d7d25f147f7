package web

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/JonMunkholm/datatable/internal/table"
)

// tableQuery is the table state carried in a request's query string.
//
//	sort=<column>&dir=asc|desc
//	filter[<column>]=<text>
//	page=<1-based page>&page_size=<n>
//	hidden=<column>,<column>   (absent: column defaults; empty: show all)
//	select=<row id>,<row id>
type tableQuery struct {
	SortColumn string
	SortDir    table.Direction
	Filters    map[string]string
	Page       int // 1-based
	PageSize   int
	Hidden     []string
	HiddenSet  bool
	Selected   []table.RowID
}

// parseTableQuery reads table state from r. maxPageSize caps page_size.
func parseTableQuery(r *http.Request, defaultPageSize, maxPageSize int) tableQuery {
	q := r.URL.Query()
	tq := tableQuery{
		SortColumn: strings.TrimSpace(q.Get("sort")),
		Filters:    parseFilters(r),
		Page:       parseIntParam(r, "page", 1),
		PageSize:   min(parseIntParam(r, "page_size", defaultPageSize), maxPageSize),
	}

	if tq.SortColumn != "" {
		tq.SortDir = table.ParseDirection(q.Get("dir"))
		if tq.SortDir == table.SortNone {
			tq.SortDir = table.SortAscending
		}
	}

	if _, ok := q["hidden"]; ok {
		tq.HiddenSet = true
		tq.Hidden = splitList(q.Get("hidden"))
	}
	for _, id := range splitList(q.Get("select")) {
		tq.Selected = append(tq.Selected, table.RowID(id))
	}
	return tq
}

// apply replays the query onto a freshly loaded controller.
func (tq tableQuery) apply(c *table.Controller) error {
	if tq.HiddenSet {
		hidden := make(map[string]bool, len(tq.Hidden))
		for _, id := range tq.Hidden {
			hidden[id] = true
		}
		for _, col := range c.Columns() {
			delete(hidden, col.ID)
			if err := c.SetColumnVisible(col.ID, !slices.Contains(tq.Hidden, col.ID)); err != nil {
				return err
			}
		}
		for id := range hidden {
			return fmt.Errorf("hidden %q: %w", id, table.ErrUnknownColumn)
		}
	}

	for id, value := range tq.Filters {
		if err := c.SetFilter(id, value); err != nil {
			return fmt.Errorf("filter %q: %w", id, err)
		}
	}
	if tq.SortColumn != "" {
		if err := c.SetSort(tq.SortColumn, tq.SortDir); err != nil {
			return fmt.Errorf("sort %q: %w", tq.SortColumn, err)
		}
	}
	for _, id := range tq.Selected {
		if err := c.SelectRow(id, true); err != nil {
			return fmt.Errorf("select %q: %w", id, err)
		}
	}

	c.SetPageSize(tq.PageSize)
	c.GotoPage(tq.Page - 1)
	return nil
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseBoolParam parses a boolean query parameter; anything unparseable is false.
func parseBoolParam(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

// parseFilters extracts filter[<column>]=<text> parameters.
func parseFilters(r *http.Request) map[string]string {
	filters := make(map[string]string)
	for key, values := range r.URL.Query() {
		if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") {
			continue
		}
		col := key[len("filter[") : len(key)-1]
		if col == "" || len(values) == 0 {
			continue
		}
		filters[col] = values[len(values)-1]
	}
	return filters
}

// splitList splits a comma-separated parameter, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
