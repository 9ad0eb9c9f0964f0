package fileio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"csv-sniffer/internal/csvreader"
	"csv-sniffer/internal/dialect"
	"csv-sniffer/internal/lines"
)

var ErrUnsupported = errors.New("unsupported file")

// RowIterator: общий интерфейс для CSV и таблиц Excel.
type RowIterator interface {
	Header() (dialect.Header, error)
	Next() (csvreader.Row, error)
	Close() error
}

// Options: настройки чтения; пустые значения означают автоопределение.
type Options struct {
	Encoding    string
	ForceHeader bool
	Separator   string // "" = определить; "none" = одна колонка
	Delimiter   string
	SampleSize  int
	Separators  []string
	Candidates  []string
	Logger      zerolog.Logger
}

// NoSeparator в Options.Separator: каждая строка одна колонка.
const NoSeparator = "none"

func (o Options) csvOptions() []csvreader.Option {
	opts := []csvreader.Option{
		csvreader.WithEncoding(o.Encoding),
		csvreader.WithForceHeader(o.ForceHeader),
		csvreader.WithSampleSize(o.SampleSize),
		csvreader.WithLogger(o.Logger),
	}
	switch o.Separator {
	case "":
	case NoSeparator:
		opts = append(opts, csvreader.WithSeparator(""))
	default:
		opts = append(opts, csvreader.WithSeparator(o.Separator))
	}
	if o.Delimiter != "" {
		opts = append(opts, csvreader.WithDelimiter(o.Delimiter))
	}
	if len(o.Separators) > 0 {
		opts = append(opts, csvreader.WithSeparators(o.Separators...))
	}
	if len(o.Candidates) > 0 {
		opts = append(opts, csvreader.WithCandidates(o.Candidates...))
	}
	return opts
}

// Open выберет парсер по расширению. CSV читается потоково, xls/xlsx целиком
// (так устроены библиотеки), но отдаются тем же итератором строк.
// Сжатые файлы (.gz, .zst, .xz) распаковываются на лету.
func Open(src lines.Source, filename string, opt Options) (RowIterator, error) {
	src, filename = lines.Decompress(src, filename)
	ext := strings.ToLower(filepath.Ext(filename))
	det := dialect.NewDetector(dialect.WithForceHeader(opt.ForceHeader))
	var (
		sh  *sheet
		err error
	)
	switch ext {
	case ".xlsx":
		sh, err = readXLSX(src, det)
	case ".xls":
		sh, err = readXLS(src, det)
	case ".csv", ".tsv", ".txt", "":
		return csvreader.New(src, opt.csvOptions()...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return sh, nil
}

// Collect читает до limit строк (limit <= 0: все).
func Collect(it RowIterator, limit int) ([]csvreader.Row, error) {
	var out []csvreader.Row
	for limit <= 0 || len(out) < limit {
		row, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, err
		}
		out = append(out, row)
	}
	return out, nil
}

func readAllSource(src lines.Source) ([]byte, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
