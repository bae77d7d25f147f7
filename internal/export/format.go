// Package export turns a filtered, sorted row set into a named file payload.
//
// A [Coordinator] validates the request, guards against concurrent exports
// on the same table instance, dispatches to the [Encoder] registered for the
// requested [Format] and reports lifecycle events through [Hooks]. Encoders
// share column value resolution with the table package so that an exported
// file always contains what the table shows.
//
// Built-in formats:
//
//   - csv:  delimited text, RFC 4180 quoting, "\n" row separator
//   - xlsx: one-sheet workbook with typed cells (excelize)
//   - pdf:  paginated landscape document with repeated headers (fpdf)
package export

import (
	"context"
	"strings"
)

// Format is an export format tag.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

var formatLabels = map[Format]string{
	FormatCSV:  "CSV",
	FormatXLSX: "Excel",
	FormatPDF:  "PDF",
}

// Label returns the human-readable name of a format.
func Label(f Format) string {
	if l, ok := formatLabels[f]; ok {
		return l
	}
	return strings.ToUpper(string(f))
}

// ParseFormat normalizes a user-supplied format tag. It does not check that
// an encoder exists; the Coordinator does that.
func ParseFormat(s string) Format {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "excel", "xls":
		return FormatXLSX
	}
	return Format(s)
}

// Encoder serializes one export job into a file body.
type Encoder interface {
	// Encode renders the job. It must not retain or modify job.Rows.
	Encode(ctx context.Context, job Job) ([]byte, error)

	// FileExtension returns the extension including the dot (e.g. ".csv").
	FileExtension() string

	// MimeType returns the MIME type of the encoded payload.
	MimeType() string
}

// FormatInfo describes one format offered to the user.
type FormatInfo struct {
	Format    Format `json:"format"`
	Label     string `json:"label"`
	Extension string `json:"extension"`
}
