package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"csv-sniffer/internal/charset"
	"csv-sniffer/internal/columns"
	"csv-sniffer/internal/csvreader"
	"csv-sniffer/internal/dialect"
	"csv-sniffer/internal/fileio"
	"csv-sniffer/internal/lines"
	"csv-sniffer/internal/metrics"
	"csv-sniffer/internal/sniff/model"
	"csv-sniffer/internal/utils"
)

// ContextCheckInterval: сколько строк читаем между проверками ctx.
const ContextCheckInterval = 1000

const (
	DefaultPreviewRows = 10
	maxProblems        = 20
)

// dialectInfo: что CSV-источник знает помимо заголовка.
type dialectInfo interface {
	Encoding() string
	Delimiter() string
	Separator() (string, error)
	DetectEncoding() (string, error)
}

type counter interface {
	CountContext(ctx context.Context) (int, error)
}

type Service struct {
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func New(m *metrics.Metrics, log zerolog.Logger) *Service {
	return &Service{metrics: m, log: log}
}

func (s *Service) open(src lines.Source, filename string, opts model.Options) (fileio.RowIterator, error) {
	return fileio.Open(src, filename, fileio.Options{
		Encoding:    opts.Encoding,
		ForceHeader: opts.ForceHeader,
		Separator:   opts.Separator,
		Delimiter:   opts.Delimiter,
		SampleSize:  opts.SampleSize,
		Separators:  opts.Separators,
		Logger:      s.log,
	})
}

// Format: тип источника по имени файла.
func Format(filename string) string {
	switch ext := strings.ToLower(filepath.Ext(lines.BaseName(filename))); ext {
	case ".xlsx", ".xls":
		return ext[1:]
	default:
		return "csv"
	}
}

// Outcome: исход определения для метрик.
func Outcome(err error) string {
	var de *dialect.DetectionError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, charset.ErrInvalidCharset):
		return metrics.OutcomeCharset
	case errors.As(err, &de) && de.Op == "separator":
		return metrics.OutcomeSeparator
	case errors.As(err, &de):
		return metrics.OutcomeHeader
	default:
		return metrics.OutcomeError
	}
}

// Sniff читает источник один раз: определяет диалект, считает строки,
// сохраняет превью и по нему угадывает тип каждой колонки.
func (s *Service) Sniff(ctx context.Context, src lines.Source, filename string, opts model.Options) (rep model.Report, err error) {
	format := Format(filename)
	log := s.log.With().Str("source", src.Name()).Str("format", format).Logger()
	defer func() { s.metrics.Detection(Outcome(err)) }()

	it, err := s.open(src, filename, opts)
	if err != nil {
		return model.Report{}, err
	}
	defer it.Close()

	h, err := it.Header()
	if err != nil {
		return model.Report{}, err
	}
	rep = model.Report{
		Source:    src.Name(),
		Format:    format,
		HasHeader: !h.Positional(),
		Preview:   [][]string{},
	}
	if d, ok := it.(dialectInfo); ok {
		rep.Encoding = d.Encoding()
		rep.Delimiter = d.Delimiter()
		// уже определён при чтении заголовка
		if rep.Separator, err = d.Separator(); err != nil {
			return model.Report{}, err
		}
		if enc, derr := d.DetectEncoding(); derr == nil {
			rep.DetectedEncoding = enc
		}
	}

	limit := opts.PreviewRows
	if limit <= 0 {
		limit = DefaultPreviewRows
	}
	width := h.Width
	for n := 0; ; n++ {
		if n%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return model.Report{}, err
			}
		}
		row, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var re *csvreader.RowError
		if errors.As(err, &re) {
			rep.BadRows++
			if len(rep.Problems) < maxProblems {
				rep.Problems = append(rep.Problems, model.Problem{Line: re.Line, Error: re.Err.Error()})
			}
			continue
		}
		if err != nil {
			return model.Report{}, err
		}
		rep.Rows++
		if len(rep.Preview) < limit {
			rep.Preview = append(rep.Preview, row.Values)
			width = max(width, row.Len())
		}
	}

	names := h.Names
	if h.Positional() {
		names = dialect.Header{Width: width}.Keys()
	}
	rep.Columns = columnKinds(names, rep.Preview)

	s.metrics.AddRows(format, rep.Rows)
	log.Debug().
		Str("separator", rep.Separator).
		Bool("header", rep.HasHeader).
		Int("rows", rep.Rows).
		Int("bad_rows", rep.BadRows).
		Msg("sniffed")
	return rep, nil
}

// columnKinds: number, если все непустые значения числа; empty, если значений нет.
func columnKinds(names []string, preview [][]string) []model.Column {
	out := make([]model.Column, len(names))
	for i, name := range names {
		kind := model.KindEmpty
		for _, vals := range preview {
			if i >= len(vals) || strings.TrimSpace(vals[i]) == "" {
				continue
			}
			if _, ok := utils.ParseNumber(vals[i]); !ok {
				kind = model.KindText
				break
			}
			kind = model.KindNumber
		}
		out[i] = model.Column{Name: name, Kind: kind}
	}
	return out
}

// RowFunc получает каждую строку данных либо *csvreader.RowError для строки,
// которую не удалось прочитать. Ошибка из RowFunc останавливает поток.
type RowFunc func(row csvreader.Row, rowErr error) error

type Stats struct {
	Rows    int
	BadRows int
}

// Stream передаёт строки в fn по мере чтения. Если заданы wants, в строке
// остаются только найденные колонки, в запрошенном порядке.
func (s *Service) Stream(ctx context.Context, src lines.Source, filename string, opts model.Options, wants []string, fn RowFunc) (Stats, error) {
	var st Stats
	start := time.Now()
	format := Format(filename)

	it, err := s.open(src, filename, opts)
	if err != nil {
		return st, err
	}
	defer it.Close()

	h, err := it.Header()
	s.metrics.Detection(Outcome(err))
	if err != nil {
		return st, err
	}
	var matches []columns.Match
	if len(wants) > 0 {
		if matches, err = columns.NewResolver(h.Keys()).ResolveAll(wants); err != nil {
			return st, err
		}
		for _, m := range matches {
			s.log.Debug().Str("want", m.Want).Str("key", m.Key).Str("method", string(m.Method)).Msg("column resolved")
		}
	}

	defer func() { s.metrics.AddRows(format, st.Rows) }()
	for n := 0; ; n++ {
		if n%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return st, err
			}
		}
		row, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var re *csvreader.RowError
		switch {
		case errors.As(err, &re):
			st.BadRows++
			if err := fn(csvreader.Row{Line: re.Line}, re); err != nil {
				return st, err
			}
			continue
		case err != nil:
			return st, err
		}
		if matches != nil {
			row = columns.Project(row, matches)
		}
		st.Rows++
		if err := fn(row, nil); err != nil {
			return st, err
		}
	}
	s.log.Debug().Int("rows", st.Rows).Int("bad_rows", st.BadRows).Dur("elapsed", time.Since(start)).Msg("streamed")
	return st, nil
}

// Count возвращает число строк данных. CSV считает свежий Reader, таблицы
// считаем обходом; оба варианта останавливаются на первой битой строке и по
// ctx.
func (s *Service) Count(ctx context.Context, src lines.Source, filename string, opts model.Options) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	it, err := s.open(src, filename, opts)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	if c, ok := it.(counter); ok {
		return c.CountContext(ctx)
	}
	n := 0
	for {
		if n%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return n, err
			}
		}
		_, err := it.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("count %s: %w", src.Name(), err)
		}
		n++
	}
}
