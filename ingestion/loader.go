package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/poiesic/jobvec/core"
)

// Format identifies the layout of a batch input file.
type Format string

const (
	// FormatCSV is a delimited file whose first row holds the column names.
	FormatCSV Format = "csv"

	// FormatJSONL is a stream of JSON objects, typically one per line.
	FormatJSONL Format = "jsonl"
)

const (
	// DefaultMaxSaved caps the number of records saved in one run.
	DefaultMaxSaved = 2000

	// DefaultIDPrefix prefixes fallback ids built from the row number.
	DefaultIDPrefix = "row"

	defaultReportInterval = 10
)

// FormatFromPath guesses the input format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// LoadStats summarizes a Load run.
type LoadStats struct {
	Rows    int
	Saved   int
	Skipped int
	Failed  int
	Elapsed time.Duration

	// Capped is true when the run stopped at the saved-record cap.
	Capped bool
}

// Loader streams batch files through a Pipeline.
type Loader struct {
	pipeline *Pipeline
	maxSaved int
	idPrefix string
	progress *ProgressTracker
	logger   *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithMaxSaved caps the number of saved records per run.
// Zero or negative disables the cap.
func WithMaxSaved(n int) LoaderOption {
	return func(l *Loader) {
		l.maxSaved = n
	}
}

// WithIDPrefix sets the prefix of fallback ids; row n gets "<prefix>-<n>".
func WithIDPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.idPrefix = prefix
	}
}

// WithProgress reports progress to w every interval rows.
func WithProgress(w io.Writer, interval int) LoaderOption {
	return func(l *Loader) {
		if w == nil {
			l.progress = nil
			return
		}
		l.progress = NewProgressTracker(w, interval)
	}
}

// WithLoaderLogger sets a custom logger.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger.With("component", "loader")
	}
}

// NewLoader creates a loader writing through pipeline.
func NewLoader(pipeline *Pipeline, opts ...LoaderOption) *Loader {
	l := &Loader{
		pipeline: pipeline,
		maxSaved: DefaultMaxSaved,
		idPrefix: DefaultIDPrefix,
		progress: NewProgressTracker(io.Discard, defaultReportInterval),
		logger:   slog.Default().With("component", "loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.progress == nil {
		l.progress = NewProgressTracker(io.Discard, defaultReportInterval)
	}
	return l
}

// Load reads records from r and processes them one by one. Rows without a
// title are skipped and rows that fail are logged; neither stops the run.
// The run stops early once the saved-record cap is reached, when ctx is
// cancelled, on a read error, or when the store becomes unreachable.
func (l *Loader) Load(ctx context.Context, r io.Reader, format Format) (*LoadStats, error) {
	next, err := l.reader(r, format)
	if err != nil {
		return nil, err
	}

	stats := &LoadStats{}
	l.progress.Start()
	defer func() {
		l.progress.Finish()
		stats.Elapsed = l.progress.Elapsed()
	}()

	for {
		if l.maxSaved > 0 && stats.Saved >= l.maxSaved {
			l.logger.Info("reached saved-record limit, stopping", "limit", l.maxSaved)
			stats.Capped = true
			return stats, nil
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		raw, err := next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if errors.Is(err, ErrMalformedRow) {
			stats.Rows++
			stats.Failed++
			l.progress.Failed()
			l.logger.Warn("failed to decode row", "row", stats.Rows, "err", err)
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("reading row %d: %w", stats.Rows+1, err)
		}

		stats.Rows++
		fallbackID := fmt.Sprintf("%s-%d", l.idPrefix, stats.Rows)

		_, err = l.pipeline.Process(ctx, raw, fallbackID)
		switch {
		case err == nil:
			stats.Saved++
			l.progress.Saved()
		case errors.Is(err, core.ErrMalformedInput):
			stats.Skipped++
			l.progress.Skipped()
			l.logger.Debug("skipping row", "row", stats.Rows, "reason", err)
		case errors.Is(err, core.ErrConnectivity), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			stats.Failed++
			l.progress.Failed()
			return stats, err
		default:
			stats.Failed++
			l.progress.Failed()
			l.logger.Warn("failed to process row", "row", stats.Rows, "err", err)
		}
	}
}

// reader returns a function yielding one record per call and io.EOF at the end.
func (l *Loader) reader(r io.Reader, format Format) (func() (core.RawRecord, error), error) {
	switch format {
	case FormatCSV:
		return csvReader(r), nil
	case FormatJSONL:
		return jsonlReader(r), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func csvReader(r io.Reader) func() (core.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var header []string
	return func() (core.RawRecord, error) {
		if header == nil {
			row, err := cr.Read()
			if err != nil {
				return nil, err
			}
			header = make([]string, len(row))
			for i, name := range row {
				header[i] = validUTF8(strings.TrimPrefix(name, "\ufeff"))
			}
		}

		row, err := cr.Read()
		if err != nil {
			return nil, err
		}
		rec := make(core.RawRecord, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = validUTF8(row[i])
			}
		}
		return rec, nil
	}
}

// jsonlReader decodes one JSON object per line. Blank lines are ignored and a
// line that fails to decode yields ErrMalformedRow without ending the stream.
func jsonlReader(r io.Reader) func() (core.RawRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxJSONLLine)
	return func() (core.RawRecord, error) {
		for sc.Scan() {
			line := bytes.TrimSpace(sc.Bytes())
			if len(line) == 0 {
				continue
			}
			var rec core.RawRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformedRow, err)
			}
			if rec == nil {
				rec = core.RawRecord{}
			}
			return rec, nil
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
}

// maxJSONLLine bounds a single JSONL record.
const maxJSONLLine = 16 << 20

func validUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "\ufffd")
}
