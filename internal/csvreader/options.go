package csvreader

import (
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"csv-sniffer/internal/charset"
	"csv-sniffer/internal/dialect"
)

const (
	DefaultEncoding   = "UTF-8"
	DefaultSampleSize = 20
)

// Converter перекодирует поля и сравнивает имена кодировок.
type Converter interface {
	charset.Converter
	Canonical(name string) string
}

type Option func(*Reader)

// WithEncoding задаёт кодировку источника. Если она отличается от целевой,
// поля перекодируются.
func WithEncoding(name string) Option {
	return func(r *Reader) {
		if name != "" {
			r.encoding = name
		}
	}
}

func WithTargetEncoding(name string) Option {
	return func(r *Reader) {
		if name != "" {
			r.target = name
		}
	}
}

// WithForceHeader: без заголовка ошибка, а не позиционные ключи.
func WithForceHeader(force bool) Option {
	return func(r *Reader) { r.forceHeader = force }
}

// WithSeparator отключает определение разделителя. Пустой разделитель:
// каждая строка одна колонка.
func WithSeparator(sep string) Option {
	return func(r *Reader) {
		if err := singleChar(sep); err != nil {
			r.err = err
			return
		}
		r.separator.set(sep)
	}
}

func WithDelimiter(delim string) Option {
	return func(r *Reader) {
		if err := singleChar(delim); err != nil {
			r.err = err
			return
		}
		r.delimiter = delim
	}
}

// WithHeader задаёт имена колонок без определения. Первая строка файла
// всё равно считается заголовком и пропускается.
func WithHeader(names ...string) Option {
	return func(r *Reader) {
		if len(names) > 0 {
			r.header.set(dialect.Header{Names: append([]string(nil), names...), Width: len(names)})
		}
	}
}

func withResolvedHeader(h dialect.Header) Option {
	return func(r *Reader) { r.header.set(h) }
}

// WithSampleSize ограничивает выборку для определения. Меньше 2 не бывает.
func WithSampleSize(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.sampleSize = max(n, 2)
		}
	}
}

// WithSeparators заменяет кандидатов в разделители (по приоритету).
func WithSeparators(seps ...string) Option {
	return func(r *Reader) { r.separators = seps }
}

// WithCandidates: кодировки-кандидаты для выборки, которая не ASCII и не
// UTF-8.
func WithCandidates(names ...string) Option {
	return func(r *Reader) { r.candidates = names }
}

func WithConverter(c Converter) Option {
	return func(r *Reader) {
		if c != nil {
			r.conv = c
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Reader) { r.log = l }
}

func singleChar(s string) error {
	if utf8.RuneCountInString(s) > 1 {
		return fmt.Errorf("%w: %q", ErrMultiChar, s)
	}
	return nil
}
