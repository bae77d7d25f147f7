package export

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"github.com/mattn/go-runewidth"

	"github.com/JonMunkholm/datatable/internal/table"
)

// Font size bounds accepted by the PDF encoder, in points.
const (
	MinFontSize = 4.0
	MaxFontSize = 24.0
)

const (
	pdfFont       = "Helvetica"
	pdfMargin     = 10.0 // mm
	pdfMinColumn  = 12.0 // mm
	pdfLineFactor = 0.5  // line height in mm per point of font size
	ellipsis      = "..."
)

// PDFEncoder writes a paginated table document: a title, an optional
// generation timestamp, the table header repeated on every page and a
// "Page X of Y" footer.
type PDFEncoder struct{}

func (PDFEncoder) FileExtension() string { return ".pdf" }
func (PDFEncoder) MimeType() string      { return "application/pdf" }

// Encode implements Encoder.
func (PDFEncoder) Encode(ctx context.Context, job Job) ([]byte, error) {
	pdf, err := renderPDF(ctx, job)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pdfTable holds the layout of one rendered document.
type pdfTable struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	header   []string
	widths   []float64
	lineH    float64
	truncate bool

	// atPageTop is set while nothing but the header is on the current page.
	atPageTop bool
}

func renderPDF(ctx context.Context, job Job) (*fpdf.Fpdf, error) {
	opts := job.Options
	size := opts.FontSize
	if size == 0 {
		size = DefaultFontSize
	}
	if size < MinFontSize || size > MaxFontSize {
		return nil, fmt.Errorf("%w: font size %.1f outside %.0f..%.0f", ErrInvalidOption, size, MinFontSize, MaxFontSize)
	}

	orientation := "L"
	switch opts.Orientation {
	case Landscape, "":
	case Portrait:
		orientation = "P"
	default:
		return nil, fmt.Errorf("%w: orientation %q", ErrInvalidOption, opts.Orientation)
	}

	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin)
		pdf.SetFont(pdfFont, "I", size)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	// Resolve every cell up front so accessor failures surface before layout.
	cells := make([][]string, len(job.Rows))
	for r, row := range job.Rows {
		if r%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		cells[r] = make([]string, len(job.Columns))
		for i, col := range job.Columns {
			v, err := table.Resolve(col, row)
			if err != nil {
				return nil, err
			}
			cells[r][i] = table.Stringify(v)
		}
	}

	t := &pdfTable{
		pdf:      pdf,
		tr:       tr,
		header:   make([]string, len(job.Columns)),
		lineH:    size * pdfLineFactor,
		truncate: opts.TruncateCells,
	}
	for i, col := range job.Columns {
		t.header[i] = col.Label()
	}

	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	t.widths = columnWidths(t.header, cells, pageW-2*pdfMargin)

	title := opts.Title
	if title == "" {
		title = opts.FilenameBase
	}
	pdf.SetFont(pdfFont, "B", size+6)
	pdf.CellFormat(0, (size+6)*pdfLineFactor+2, tr(title), "", 1, "L", false, 0, "")
	if opts.IncludeTimestamp && !job.Now.IsZero() {
		pdf.SetFont(pdfFont, "", size)
		pdf.CellFormat(0, t.lineH+1, tr("Generated "+job.Now.Format("2006-01-02 15:04:05 MST")), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	t.drawHeader(size)
	pdf.SetFont(pdfFont, "", size)
	for r, rec := range cells {
		if r%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		t.drawRecord(t.rowLines(rec), r%2 == 1, size)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return pdf, nil
}

// drawRecord draws one record, moving to a new page when it does not fit.
// A record taller than a whole page is split into page-sized chunks, each
// under a repeated header.
func (t *pdfTable) drawRecord(lines [][]string, shaded bool, size float64) {
	for {
		n := rowHeight(lines)
		if n > t.linesLeft() && !t.atPageTop {
			t.newPage(size)
		}
		room := max(t.linesLeft(), 1)
		if n <= room {
			t.drawRow(lines, float64(n)*t.lineH, shaded)
			return
		}
		var head [][]string
		head, lines = splitLines(lines, room)
		t.drawRow(head, float64(room)*t.lineH, shaded)
		t.newPage(size)
	}
}

// linesLeft is the number of body lines that fit above the bottom margin.
func (t *pdfTable) linesLeft() int {
	_, pageH := t.pdf.GetPageSize()
	return int(math.Floor((pageH-2*pdfMargin-t.pdf.GetY())/t.lineH + 1e-9))
}

func (t *pdfTable) newPage(size float64) {
	t.pdf.AddPage()
	t.drawHeader(size)
	t.pdf.SetFont(pdfFont, "", size)
}

func (t *pdfTable) drawHeader(size float64) {
	t.pdf.SetFont(pdfFont, "B", size)
	t.pdf.SetFillColor(217, 225, 242)
	lines := t.rowLines(t.header)
	t.drawCells(lines, float64(rowHeight(lines))*t.lineH, true)
	t.atPageTop = true
}

func (t *pdfTable) drawRow(lines [][]string, h float64, shaded bool) {
	t.pdf.SetFillColor(242, 242, 242)
	t.drawCells(lines, h, shaded)
	t.atPageTop = false
}

// splitLines cuts every cell after its first n lines.
func splitLines(lines [][]string, n int) (head, rest [][]string) {
	head = make([][]string, len(lines))
	rest = make([][]string, len(lines))
	for i, cell := range lines {
		k := min(n, len(cell))
		head[i], rest[i] = cell[:k], cell[k:]
	}
	return head, rest
}

func (t *pdfTable) drawCells(lines [][]string, h float64, fill bool) {
	pdf := t.pdf
	x, y := pdf.GetX(), pdf.GetY()
	style := "D"
	if fill {
		style = "FD"
	}
	for i, cell := range lines {
		pdf.Rect(x, y, t.widths[i], h, style)
		for j, line := range cell {
			pdf.SetXY(x, y+float64(j)*t.lineH)
			pdf.CellFormat(t.widths[i], t.lineH, line, "", 0, "L", false, 0, "")
		}
		x += t.widths[i]
	}
	pdf.SetXY(pdfMargin, y+h)
}

// rowLines translates and lays out each cell of a record.
func (t *pdfTable) rowLines(rec []string) [][]string {
	out := make([][]string, len(rec))
	for i, s := range rec {
		text := t.tr(strings.ReplaceAll(s, "\r\n", "\n"))
		// CellFormat pads each side by the cell margin.
		avail := t.widths[i] - 2*t.pdf.GetCellMargin()
		if t.truncate {
			out[i] = []string{t.fit(strings.ReplaceAll(text, "\n", " "), avail)}
		} else {
			out[i] = t.wrap(text, avail)
		}
	}
	return out
}

func rowHeight(lines [][]string) int {
	n := 1
	for _, l := range lines {
		n = max(n, len(l))
	}
	return n
}

// fit shortens s with an ellipsis until it fits in w.
func (t *pdfTable) fit(s string, w float64) string {
	if t.pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 {
		s = s[:len(s)-1]
		if t.pdf.GetStringWidth(s+ellipsis) <= w {
			return s + ellipsis
		}
	}
	return ""
}

// wrap breaks s into lines no wider than w, splitting on single spaces where
// possible so runs of spaces survive. s is already translated to the
// single-byte core font encoding.
func (t *pdfTable) wrap(s string, w float64) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		line, started := "", false
		for _, word := range strings.Split(para, " ") {
			candidate := word
			if started {
				candidate = line + " " + word
			}
			if t.pdf.GetStringWidth(candidate) <= w {
				line, started = candidate, true
				continue
			}
			if line != "" {
				lines = append(lines, line)
			}
			// Hard-break words wider than the column.
			for len(word) > 1 && t.pdf.GetStringWidth(word) > w {
				n := len(word) - 1
				for n > 1 && t.pdf.GetStringWidth(word[:n]) > w {
					n--
				}
				lines = append(lines, word[:n])
				word = word[n:]
			}
			line, started = word, true
		}
		lines = append(lines, line)
	}
	return lines
}

// columnWidths shares total between columns in proportion to their content
// width over the header and the first rows, with a floor of pdfMinColumn.
func columnWidths(header []string, cells [][]string, total float64) []float64 {
	weights := make([]float64, len(header))
	for i, h := range header {
		weights[i] = float64(runewidth.StringWidth(h))
	}
	for r, rec := range cells {
		if r >= widthSampleRows {
			break
		}
		for i, s := range rec {
			weights[i] = max(weights[i], float64(runewidth.StringWidth(s)))
		}
	}

	var sum float64
	for i := range weights {
		weights[i] = max(weights[i], 1)
		sum += weights[i]
	}

	floor := min(pdfMinColumn, total/float64(len(weights)))
	floored := make([]bool, len(weights))
	var fixed, flexible float64
	for i, wt := range weights {
		if total*wt/sum < floor {
			floored[i] = true
			fixed += floor
		} else {
			flexible += wt
		}
	}

	widths := make([]float64, len(weights))
	for i, wt := range weights {
		if floored[i] {
			widths[i] = floor
		} else {
			widths[i] = (total - fixed) * wt / flexible
		}
	}
	return widths
}
