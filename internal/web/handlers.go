package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datatable/internal/dataset"
	"github.com/JonMunkholm/datatable/internal/export"
	"github.com/JonMunkholm/datatable/internal/logging"
	"github.com/JonMunkholm/datatable/internal/table"
	"github.com/JonMunkholm/datatable/internal/web/templates"
)

// datasetGroup is one entry of the /api/datasets listing.
type datasetGroup struct {
	Group    string         `json:"group"`
	Datasets []dataset.Info `json:"datasets"`
}

// columnInfo describes a column and its current capabilities.
type columnInfo struct {
	ID         string `json:"id"`
	Header     string `json:"header"`
	Sortable   bool   `json:"sortable"`
	Filterable bool   `json:"filterable"`
	Visible    bool   `json:"visible"`
}

// rowCells is one displayed row. Cells follow VisibleColumns.
type rowCells struct {
	ID       table.RowID `json:"id"`
	Cells    []string    `json:"cells"`
	Selected bool        `json:"selected"`
}

type sortInfo struct {
	Column    string `json:"column,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// tableResponse is the JSON display subset of a dataset.
type tableResponse struct {
	Dataset            dataset.Info        `json:"dataset"`
	Columns            []columnInfo        `json:"columns"`
	VisibleColumns     []string            `json:"visible_columns"`
	Rows               []rowCells          `json:"rows"`
	Page               table.PageInfo      `json:"page"`
	Sort               sortInfo            `json:"sort"`
	Filters            map[string]string   `json:"filters"`
	Selected           []table.RowID       `json:"selected"`
	PositionalIdentity bool                `json:"positional_identity"`
	Formats            []export.FormatInfo `json:"formats"`
}

// exportStatus is the /api/export/{key}/status response.
type exportStatus struct {
	Exporting bool           `json:"exporting"`
	Last      *export.Result `json:"last,omitempty"`
}

// handleListDatasets returns the registered datasets grouped by business area.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	groups := make([]datasetGroup, 0)
	for _, g := range dataset.Groups() {
		defs := dataset.ByGroup(g)
		infos := make([]dataset.Info, len(defs))
		for i, def := range defs {
			infos[i] = def.Info
		}
		groups = append(groups, datasetGroup{Group: g, Datasets: infos})
	}
	writeJSON(w, groups)
}

// handleTableData returns the current page of a dataset as JSON.
func (s *Server) handleTableData(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	def, c, err := s.prepare(r, key)
	if err != nil {
		respondError(w, r, err)
		return
	}
	v, err := c.View()
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := tableResponse{
		Dataset:            def.Info,
		Columns:            make([]columnInfo, 0, len(def.Columns)),
		VisibleColumns:     make([]string, len(v.Columns)),
		Rows:               make([]rowCells, len(v.Rows)),
		Page:               v.Page,
		Sort:               sortInfo{Column: v.Sort.ColumnID, Direction: v.Sort.Direction.String()},
		Filters:            v.Filters,
		Selected:           c.SelectedIDs(),
		PositionalIdentity: v.PositionalIdentity,
		Formats:            s.tracker(key).coord.Formats(s.exportOptions(r, def, c)),
	}
	for _, col := range c.Columns() {
		resp.Columns = append(resp.Columns, columnInfo{
			ID:         col.ID,
			Header:     col.Label(),
			Sortable:   col.Sortable(),
			Filterable: col.Filterable(),
			Visible:    c.IsColumnVisible(col.ID),
		})
	}
	for i, col := range v.Columns {
		resp.VisibleColumns[i] = col.ID
	}
	for i, id := range v.RowIDs {
		resp.Rows[i] = rowCells{ID: id, Cells: v.Cells[i], Selected: c.IsSelected(id)}
	}
	if resp.Selected == nil {
		resp.Selected = []table.RowID{}
	}

	writeJSON(w, resp)
}

// handleTablePage renders the current page of a dataset as HTML.
func (s *Server) handleTablePage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	def, c, err := s.prepare(r, key)
	if err != nil {
		respondError(w, r, err)
		return
	}
	v, err := c.View()
	if err != nil {
		respondError(w, r, err)
		return
	}

	page := templates.Page{
		Info:    def.Info,
		View:    v,
		Formats: s.tracker(key).coord.Formats(s.exportOptions(r, def, c)),
		Query:   r.URL.Query(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Table(page).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render table page", "dataset", key, "error", err)
	}
}

// handleExport exports the filtered, sorted rows of a dataset. The table
// query parameters apply as for /api/table; pagination is ignored.
//
//	format=csv|xlsx|pdf      (default csv)
//	include_hidden=true      export hidden columns too
//	scope=selected           export only the selected rows
//	orientation=portrait     PDF page orientation
//	truncate=true            truncate PDF cells instead of wrapping
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	q := r.URL.Query()

	def, c, err := s.prepare(r, key)
	if err != nil {
		respondError(w, r, err)
		return
	}

	rows := c.SortedRows()
	if strings.EqualFold(q.Get("scope"), "selected") {
		rows = c.SelectedRows()
	}

	format := export.FormatCSV
	if f := q.Get("format"); f != "" {
		format = export.ParseFormat(f)
	}

	ctx := r.Context()
	if s.cfg.Export.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Export.Timeout)
		defer cancel()
	}

	res := s.tracker(key).coord.Export(ctx, rows, c.Columns(), format, s.exportOptions(r, def, c))
	if !res.Success {
		respondError(w, r, res.Err)
		return
	}

	data := res.Payload.Data
	w.Header().Set("Content-Type", res.Payload.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, res.Payload.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Export-ID", res.ID)
	if _, err := w.Write(data); err != nil {
		logging.FromContext(r.Context()).Warn("export write failed", "export_id", res.ID, "error", err)
	}
}

// handleExportStatus reports whether a dataset is exporting and the outcome
// of its last export.
func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if _, ok := dataset.Get(key); !ok {
		respondError(w, r, fmt.Errorf("%w: %s", ErrDatasetNotFound, key))
		return
	}

	t := s.tracker(key)
	writeJSON(w, exportStatus{
		Exporting: t.coord.IsExporting(),
		Last:      t.lastResult(),
	})
}

// prepare loads dataset key and applies the request's table query to it.
func (s *Server) prepare(r *http.Request, key string) (dataset.Definition, *table.Controller, error) {
	def, ok := dataset.Get(key)
	if !ok {
		return def, nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, key)
	}

	ctx := r.Context()
	if s.cfg.Database.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Database.LoadTimeout)
		defer cancel()
	}

	rows, err := def.Loader(s.db)(ctx)
	if err != nil {
		return def, nil, fmt.Errorf("%w: %s: %w", ErrDatasetLoad, key, err)
	}

	c, err := table.New(def.Columns, rows, table.Options{PageSize: s.cfg.Table.PageSize})
	if err != nil {
		return def, nil, fmt.Errorf("%w: %s: %w", ErrDatasetLoad, key, err)
	}

	tq := parseTableQuery(r, s.cfg.Table.PageSize, s.cfg.Table.MaxPageSize)
	if err := tq.apply(c); err != nil {
		return def, nil, err
	}

	logging.FromContext(r.Context()).Debug("dataset loaded",
		"dataset", key,
		"rows", len(rows),
		"filtered", c.FilteredCount(),
	)
	return def, c, nil
}

// exportOptions builds export options from the server defaults, the
// controller's visibility state and per-request overrides.
func (s *Server) exportOptions(r *http.Request, def dataset.Definition, c *table.Controller) export.Options {
	q := r.URL.Query()

	formats := make([]export.Format, 0, len(s.cfg.Export.Formats))
	for _, f := range s.cfg.Export.Formats {
		formats = append(formats, export.ParseFormat(f))
	}

	opts := export.Options{
		FilenameBase:     def.Info.Key,
		Formats:          formats,
		Title:            def.Info.Label,
		SheetName:        s.cfg.Export.SheetName,
		Orientation:      export.Orientation(s.cfg.Export.Orientation),
		FontSize:         s.cfg.Export.FontSize,
		IncludeTimestamp: s.cfg.Export.IncludeTimestamp,
		TruncateCells:    s.cfg.Export.TruncateCells,
		IncludeHidden:    parseBoolParam(r, "include_hidden"),
		HiddenColumnIDs:  c.HiddenColumnIDs(),
	}
	if o := q.Get("orientation"); o != "" {
		opts.Orientation = export.Orientation(strings.ToLower(o))
	}
	if q.Has("truncate") {
		opts.TruncateCells = parseBoolParam(r, "truncate")
	}
	return opts
}
