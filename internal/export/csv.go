package export

import (
	"bytes"
	"context"
	"strings"

	"github.com/JonMunkholm/datatable/internal/table"
)

// CSVEncoder writes delimited text: a header row of column labels followed
// by one row per record, fields separated by commas and rows by "\n".
//
// A field is quoted only when it contains a comma, a double quote, CR or LF,
// and interior quotes are doubled. encoding/csv is not used because it also
// quotes fields with leading spaces and terminates the final row.
type CSVEncoder struct{}

func (CSVEncoder) FileExtension() string { return ".csv" }
func (CSVEncoder) MimeType() string      { return "text/csv; charset=utf-8" }

// Encode implements Encoder.
func (CSVEncoder) Encode(ctx context.Context, job Job) ([]byte, error) {
	var buf bytes.Buffer

	header := make([]string, len(job.Columns))
	for i, col := range job.Columns {
		header[i] = col.Label()
	}
	writeCSVRecord(&buf, header)

	record := make([]string, len(job.Columns))
	for i, row := range job.Rows {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for j, col := range job.Columns {
			v, err := table.Resolve(col, row)
			if err != nil {
				return nil, err
			}
			record[j] = table.Stringify(v)
		}
		buf.WriteByte('\n')
		writeCSVRecord(&buf, record)
	}

	return buf.Bytes(), nil
}

func writeCSVRecord(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(EscapeCSVField(f))
	}
}

// EscapeCSVField quotes f when it contains a comma, quote or line break.
func EscapeCSVField(f string) string {
	if !strings.ContainsAny(f, ",\"\r\n") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}
