package export

import (
	"context"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/datatable/internal/table"
)

const (
	// widthSampleRows bounds how many data rows are measured for column widths.
	widthSampleRows = 100

	// maxColWidth is the widest column excelize accepts.
	maxColWidth = 255

	// maxSheetNameLen is Excel's sheet name limit.
	maxSheetNameLen = 31

	headerFill = "#D9E1F2"
)

// XLSXEncoder writes a single-sheet workbook. Cells keep their native types
// where the spreadsheet has one; everything else is written as text.
type XLSXEncoder struct{}

func (XLSXEncoder) FileExtension() string { return ".xlsx" }
func (XLSXEncoder) MimeType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Encode implements Encoder.
func (XLSXEncoder) Encode(ctx context.Context, job Job) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(job.Options.SheetName)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	widths := make([]int, len(job.Columns))
	header := make([]any, len(job.Columns))
	for i, col := range job.Columns {
		header[i] = col.Label()
		widths[i] = runewidth.StringWidth(col.Label())
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	values := make([]any, len(job.Columns))
	for r, row := range job.Rows {
		if r%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for i, col := range job.Columns {
			v, err := table.Resolve(col, row)
			if err != nil {
				return nil, err
			}
			values[i] = cellValue(v)
			if r < widthSampleRows {
				widths[i] = max(widths[i], runewidth.StringWidth(table.Stringify(v)))
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	if err := styleHeader(f, sheet, len(job.Columns)); err != nil {
		return nil, err
	}
	for i, w := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, name, name, colWidth(w)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func styleHeader(f *excelize.File, sheet string, ncols int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
	})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(ncols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// colWidth converts a display width in characters to a column width with
// a little padding.
func colWidth(chars int) float64 {
	return min(float64(chars)+2, maxColWidth)
}

// cellValue maps a resolved value to what excelize should store.
func cellValue(v any) any {
	switch x := table.Normalize(v).(type) {
	case nil:
		return nil
	case string, bool, int64, float64, time.Time:
		return x
	case decimal.Decimal:
		return x.InexactFloat64()
	default:
		return table.Stringify(x)
	}
}

// SheetName applies Excel's sheet naming rules to name.
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "'")

	if runes := []rune(name); len(runes) > maxSheetNameLen {
		name = string(runes[:maxSheetNameLen])
	}
	if name == "" {
		return DefaultSheetName
	}
	return name
}
