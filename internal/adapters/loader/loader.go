// Package loader reads CSV, Excel, and JSON files into datasets.
//
// Loading happens in three visible stages so callers can report progress:
// Check validates the name and size, Text resolves the character encoding,
// and Parse builds typed columns. Decode runs Text and Parse back to back.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

// Options configures the loader.
type Options struct {
	AllowedExtensions     []string
	MaxFileSize           int64
	EncodingSampleBytes   int
	EncodingMinConfidence float64
}

// DefaultOptions returns the limits used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		AllowedExtensions:     []string{"csv", "xlsx", "xls", "json"},
		MaxFileSize:           100 << 20,
		EncodingSampleBytes:   10000,
		EncodingMinConfidence: 0.5,
	}
}

// Loader turns files into datasets.
type Loader struct {
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Loader. Zero-valued options fall back to the defaults.
func New(opts Options, logger *slog.Logger) *Loader {
	def := DefaultOptions()

	if len(opts.AllowedExtensions) == 0 {
		opts.AllowedExtensions = def.AllowedExtensions
	}

	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = def.MaxFileSize
	}

	if opts.EncodingSampleBytes <= 0 {
		opts.EncodingSampleBytes = def.EncodingSampleBytes
	}

	if opts.EncodingMinConfidence <= 0 {
		opts.EncodingMinConfidence = def.EncodingMinConfidence
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{opts: opts, logger: logger, now: time.Now}
}

// AllowedExtensions returns the accepted extensions without dots.
func (l *Loader) AllowedExtensions() []string {
	return slices.Clone(l.opts.AllowedExtensions)
}

// Check validates a file name and size and returns its format.
func (l *Loader) Check(name string, size int64) (domain.Format, error) {
	if strings.TrimSpace(name) == "" {
		return "", domain.NewValidationError("file", "file name is required")
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if !slices.Contains(l.opts.AllowedExtensions, ext) {
		return "", &domain.UnsupportedFormatError{Extension: ext, Allowed: l.AllowedExtensions()}
	}

	if size > l.opts.MaxFileSize {
		return "", domain.NewValidationErrorWithValue("file",
			fmt.Sprintf("file exceeds %s", domain.FormatMemorySize(l.opts.MaxFileSize)), size)
	}

	switch ext {
	case "csv":
		return domain.FormatCSV, nil
	case "xlsx":
		return domain.FormatXLSX, nil
	case "xls":
		return domain.FormatXLS, nil
	case "json":
		return domain.FormatJSON, nil
	default:
		return "", &domain.UnsupportedFormatError{Extension: ext, Allowed: l.AllowedExtensions()}
	}
}

// Open validates path and reads the file.
func (l *Loader) Open(path string) (domain.RawFile, error) {
	if strings.TrimSpace(path) == "" {
		return domain.RawFile{}, domain.NewValidationError("path", "path is required")
	}

	if _, err := l.Check(filepath.Base(path), 0); err != nil {
		return domain.RawFile{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.RawFile{}, domain.NewNotFoundError("file", path)
		}

		return domain.RawFile{}, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		return domain.RawFile{}, domain.NewValidationErrorWithValue("path", "path is a directory", path)
	}

	format, err := l.Check(filepath.Base(path), info.Size())
	if err != nil {
		return domain.RawFile{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RawFile{}, fmt.Errorf("reading %s: %w", path, err)
	}

	return domain.RawFile{Name: filepath.Base(path), Path: path, Format: format, Data: data}, nil
}

// Load opens and decodes the file at path.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Dataset, error) {
	src, err := l.Open(path)
	if err != nil {
		return nil, err
	}

	return l.Decode(ctx, src)
}

// Decode resolves the encoding of src and parses it.
func (l *Loader) Decode(ctx context.Context, src domain.RawFile) (*domain.Dataset, error) {
	text, enc, err := l.Text(src)
	if err != nil {
		return nil, err
	}

	return l.Parse(ctx, src, text, enc)
}

// Text returns the content of a text format as UTF-8 and the name of the
// encoding it was decoded from. Excel sources return an empty text.
func (l *Loader) Text(src domain.RawFile) (text, encoding string, err error) {
	if src.Format == domain.FormatXLSX || src.Format == domain.FormatXLS {
		return "", "", nil
	}

	return l.decodeText(src.Data)
}

// Parse builds a dataset from src. text is the UTF-8 content returned by
// Text and is ignored for Excel sources.
func (l *Loader) Parse(ctx context.Context, src domain.RawFile, text, encoding string) (*domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		t   table
		err error
	)

	switch src.Format {
	case domain.FormatCSV:
		t, err = parseCSV(text)
	case domain.FormatJSON:
		t, err = parseJSON(text)
	case domain.FormatXLSX, domain.FormatXLS:
		t, err = parseExcel(src.Data)
	default:
		return nil, &domain.UnsupportedFormatError{Extension: string(src.Format), Allowed: l.AllowedExtensions()}
	}

	if err != nil {
		return nil, err
	}

	if len(t.header) == 0 || len(t.rows) == 0 {
		return nil, domain.ErrEmptyDataset
	}

	ds := &domain.Dataset{
		ID:       uuid.NewString(),
		Name:     src.Name,
		Source:   src.Path,
		Format:   src.Format,
		Encoding: encoding,
		Columns:  t.columns(),
		LoadedAt: l.now().UTC(),
	}

	l.logger.DebugContext(ctx, "dataset parsed",
		slog.String("file", src.Name),
		slog.Int("rows", ds.Rows()),
		slog.Int("columns", len(ds.Columns)),
	)

	return ds, nil
}
