package export

import (
	"time"

	"github.com/JonMunkholm/datatable/internal/table"
)

// Orientation is the page orientation of paginated documents.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// Default option values.
const (
	DefaultSheetName = "Data"
	DefaultFontSize  = 8.0
	DefaultFilename  = "export"
)

// Options configures a single export.
type Options struct {
	// FilenameBase is timestamped to form the payload filename.
	FilenameBase string

	// Formats restricts which formats may be requested. Empty allows every
	// registered format.
	Formats []Format

	// Title is printed at the top of PDF exports (default: FilenameBase).
	Title string

	// SheetName names the spreadsheet tab (default: "Data").
	SheetName string

	// Orientation of PDF pages (default: landscape).
	Orientation Orientation

	// FontSize of PDF body text in points (default: 8).
	FontSize float64

	// IncludeTimestamp adds a "Generated ..." line under the PDF title.
	IncludeTimestamp bool

	// TruncateCells shortens overflowing PDF cells instead of wrapping them.
	TruncateCells bool

	// IncludeHidden exports every column regardless of visibility.
	IncludeHidden bool

	// HiddenColumnIDs is the caller's hidden-column set, usually
	// Controller.HiddenColumnIDs(). When nil, Column.Hidden decides.
	HiddenColumnIDs []string
}

// DefaultOptions returns options with every default filled in.
func DefaultOptions() Options {
	return Options{
		FilenameBase:     DefaultFilename,
		SheetName:        DefaultSheetName,
		Orientation:      Landscape,
		FontSize:         DefaultFontSize,
		IncludeTimestamp: true,
	}
}

// allows reports whether f is permitted by the Formats allow-list.
func (o Options) allows(f Format) bool {
	if len(o.Formats) == 0 {
		return true
	}
	for _, allowed := range o.Formats {
		if allowed == f {
			return true
		}
	}
	return false
}

// Columns returns the columns an export writes, in order.
func Columns(columns []table.Column, opts Options) []table.Column {
	if opts.IncludeHidden {
		return append([]table.Column(nil), columns...)
	}

	var hidden map[string]bool
	if opts.HiddenColumnIDs != nil {
		hidden = make(map[string]bool, len(opts.HiddenColumnIDs))
		for _, id := range opts.HiddenColumnIDs {
			hidden[id] = true
		}
	}

	out := make([]table.Column, 0, len(columns))
	for _, col := range columns {
		if hidden != nil {
			if hidden[col.ID] {
				continue
			}
		} else if col.Hidden {
			continue
		}
		out = append(out, col)
	}
	return out
}

// Job is the input handed to an Encoder.
type Job struct {
	Rows     []table.Row
	Columns  []table.Column
	Options  Options
	Filename string
	Now      time.Time
}
