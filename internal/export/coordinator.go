package export

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/datatable/internal/logging"
	"github.com/JonMunkholm/datatable/internal/table"
)

// checkEvery is how many rows an encoder writes between context checks.
const checkEvery = 256

// Hooks receive export lifecycle events. Nil hooks are skipped.
// Hooks run on the exporting goroutine and must not block.
type Hooks struct {
	OnStart    func(Format)
	OnComplete func(Format, Result)
	OnError    func(Format, error)
}

// Payload is a finished export file.
type Payload struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// Result is the outcome of one export request.
type Result struct {
	ID      string   `json:"id"`
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Format  Format   `json:"format"`
	Rows    int      `json:"rows"`
	Payload *Payload `json:"payload,omitempty"`

	// Err is the technical error behind a failed Result.
	Err error `json:"-"`
}

// Coordinator runs exports for one table instance. At most one export is in
// flight at a time; a second request is rejected, not queued.
//
// A Coordinator is safe for concurrent use.
type Coordinator struct {
	mu       sync.RWMutex
	encoders map[Format]Encoder

	hooks     Hooks
	exporting atomic.Bool
	now       func() time.Time
}

// NewCoordinator returns a Coordinator with the CSV, XLSX and PDF encoders
// registered.
func NewCoordinator(hooks Hooks) *Coordinator {
	return &Coordinator{
		encoders: map[Format]Encoder{
			FormatCSV:  CSVEncoder{},
			FormatXLSX: XLSXEncoder{},
			FormatPDF:  PDFEncoder{},
		},
		hooks: hooks,
		now:   time.Now,
	}
}

// Register adds or replaces the encoder for a format.
func (c *Coordinator) Register(f Format, enc Encoder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoders[f] = enc
}

func (c *Coordinator) encoder(f Format) (Encoder, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	enc, ok := c.encoders[f]
	return enc, ok
}

// Formats lists the formats offered under opts, sorted by tag.
func (c *Coordinator) Formats(opts Options) []FormatInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]FormatInfo, 0, len(c.encoders))
	for f, enc := range c.encoders {
		if !opts.allows(f) {
			continue
		}
		out = append(out, FormatInfo{Format: f, Label: Label(f), Extension: enc.FileExtension()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Format < out[j].Format })
	return out
}

// IsExporting reports whether an export is in flight.
func (c *Coordinator) IsExporting() bool {
	return c.exporting.Load()
}

// Export encodes rows in the requested format. It never panics and never
// returns an error directly; failures are reported in the Result and
// through Hooks.OnError.
func (c *Coordinator) Export(ctx context.Context, rows []table.Row, columns []table.Column, format Format, opts Options) Result {
	enc, res, ok := c.begin(ctx, rows, columns, format, opts)
	if !ok {
		return res
	}
	return c.runAndRelease(ctx, enc, rows, columns, format, opts, res)
}

// ExportAsync is Export on a new goroutine. The in-flight guard is claimed
// before it returns, so IsExporting is true as soon as the call completes
// for an accepted request. The channel receives exactly one Result.
func (c *Coordinator) ExportAsync(ctx context.Context, rows []table.Row, columns []table.Column, format Format, opts Options) <-chan Result {
	out := make(chan Result, 1)

	enc, res, ok := c.begin(ctx, rows, columns, format, opts)
	if !ok {
		out <- res
		close(out)
		return out
	}

	go func() {
		defer close(out)
		out <- c.runAndRelease(ctx, enc, rows, columns, format, opts, res)
	}()
	return out
}

// begin validates the request and claims the in-flight guard. When ok is
// false the returned Result is final.
func (c *Coordinator) begin(ctx context.Context, rows []table.Row, columns []table.Column, format Format, opts Options) (Encoder, Result, bool) {
	res := Result{ID: uuid.NewString(), Format: format}

	enc, registered := c.encoder(format)
	if !registered || !opts.allows(format) {
		return nil, c.reject(ctx, res, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)), false
	}
	if len(rows) == 0 {
		return nil, c.reject(ctx, res, ErrNoRows), false
	}
	if len(Columns(columns, opts)) == 0 {
		return nil, c.reject(ctx, res, ErrNoColumns), false
	}
	if !c.exporting.CompareAndSwap(false, true) {
		return nil, c.reject(ctx, res, ErrExportInProgress), false
	}
	return enc, res, true
}

// runAndRelease runs the export and clears the in-flight guard before the
// Result is handed back.
func (c *Coordinator) runAndRelease(ctx context.Context, enc Encoder, rows []table.Row, columns []table.Column, format Format, opts Options, res Result) Result {
	defer c.exporting.Store(false)
	return c.run(ctx, enc, rows, columns, format, opts, res)
}

func (c *Coordinator) run(ctx context.Context, enc Encoder, rows []table.Row, columns []table.Column, format Format, opts Options, res Result) Result {
	opts = withDefaults(opts)
	now := c.now()
	job := Job{
		Rows:     rows,
		Columns:  Columns(columns, opts),
		Options:  opts,
		Filename: Filename(opts.FilenameBase, now),
		Now:      now,
	}
	res.Rows = len(rows)

	logger := logging.WithFields(ctx, "export_id", res.ID, "format", string(format), "rows", len(rows))
	logger.Info("export started", "columns", len(job.Columns), "filename", job.Filename)
	if c.hooks.OnStart != nil {
		c.hooks.OnStart(format)
	}

	start := time.Now()
	data, err := encode(ctx, enc, job)
	if err != nil {
		logger.Error("export failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return c.fail(res, err)
	}

	res.Success = true
	res.Message = fmt.Sprintf("Exported %d rows to %s", len(rows), Label(format))
	res.Payload = &Payload{
		Filename: job.Filename + enc.FileExtension(),
		MIMEType: enc.MimeType(),
		Data:     data,
	}
	logger.Info("export completed",
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
		"filename", res.Payload.Filename,
	)

	if c.hooks.OnComplete != nil {
		c.hooks.OnComplete(format, res)
	}
	return res
}

// encode runs the encoder, converting panics into errors.
func encode(ctx context.Context, enc Encoder, job Job) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("%w: panic: %v", ErrEncode, r)
		}
	}()

	data, err = enc.Encode(ctx, job)
	if err != nil {
		var accessorErr *table.AccessorError
		switch {
		case errors.As(err, &accessorErr),
			errors.Is(err, context.Canceled),
			errors.Is(err, context.DeadlineExceeded),
			errors.Is(err, ErrInvalidOption),
			errors.Is(err, ErrEncode):
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return data, nil
}

func (c *Coordinator) reject(ctx context.Context, res Result, err error) Result {
	logging.WithFields(ctx, "export_id", res.ID, "format", string(res.Format)).
		Warn("export rejected", "error", err)
	return c.fail(res, err)
}

func (c *Coordinator) fail(res Result, err error) Result {
	res.Success = false
	res.Err = err
	res.Payload = nil
	res.Message = MapError(err).Message

	if c.hooks.OnError != nil {
		c.hooks.OnError(res.Format, err)
	}
	return res
}

// withDefaults fills zero-valued options from DefaultOptions. Booleans are
// taken as given.
func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.FilenameBase == "" {
		opts.FilenameBase = def.FilenameBase
	}
	if opts.Title == "" {
		opts.Title = opts.FilenameBase
	}
	if opts.SheetName == "" {
		opts.SheetName = def.SheetName
	}
	if opts.Orientation == "" {
		opts.Orientation = def.Orientation
	}
	if opts.FontSize == 0 {
		opts.FontSize = def.FontSize
	}
	return opts
}
