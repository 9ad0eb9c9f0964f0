// Package csvreader потоково читает строки CSV, у которого заранее неизвестны
// разделитель, заголовок и кодировка.
//
// При первом запросе разделителя, заголовка или строки Reader смотрит на
// небольшую выборку, запоминает найденное и дальше читает файл построчно.
// В памяти держится только выборка.
package csvreader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/transform"

	"csv-sniffer/internal/charset"
	"csv-sniffer/internal/convert"
	"csv-sniffer/internal/dialect"
	"csv-sniffer/internal/lines"
)

// countCheckInterval: как часто CountContext проверяет ctx.
const countCheckInterval = 1000

type state int

const (
	stateNotStarted state = iota
	stateSampled
	stateDetected
	stateStreaming
	stateExhausted
)

func (s state) String() string {
	switch s {
	case stateNotStarted:
		return "not_started"
	case stateSampled:
		return "sampled"
	case stateDetected:
		return "detected"
	case stateStreaming:
		return "streaming"
	case stateExhausted:
		return "exhausted"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// cached: значение, которое вычисляется не более одного раза.
type cached[T any] struct {
	v  T
	ok bool
}

func (c *cached[T]) get() (T, bool) { return c.v, c.ok }
func (c *cached[T]) set(v T)        { c.v, c.ok = v, true }

type streamDecoder interface {
	StreamDecoder(name string) transform.Transformer
}

// Reader нельзя использовать из нескольких горутин.
type Reader struct {
	src  lines.Source
	opts []Option

	encoding    string
	target      string
	forceHeader bool
	delimiter   string
	sampleSize  int
	separators  []string
	candidates  []string
	conv        Converter
	log         zerolog.Logger
	err         error

	guard *charset.Guard
	det   *dialect.Detector

	sample      cached[[]string]
	separator   cached[string]
	header      cached[dialect.Header]
	sepDetected bool

	state      state
	sc         *lines.Scanner
	headerDone bool
	transcode  bool
	fieldsFrom string
	posKeys    []string
}

func New(src lines.Source, opts ...Option) *Reader {
	r := &Reader{
		src:        src,
		opts:       opts,
		encoding:   DefaultEncoding,
		target:     DefaultEncoding,
		delimiter:  dialect.DefaultDelimiter,
		sampleSize: DefaultSampleSize,
		conv:       convert.New(),
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	r.guard = charset.NewGuard(r.conv, charset.WithCandidates(r.candidates...))
	r.det = dialect.NewDetector(
		dialect.WithSeparators(r.separators...),
		dialect.WithForceHeader(r.forceHeader),
	)
	r.log = r.log.With().Str("source", src.Name()).Logger()
	return r
}

// Encoding: заявленная кодировка источника.
func (r *Reader) Encoding() string { return r.encoding }

// Delimiter: символ кавычки.
func (r *Reader) Delimiter() string { return r.delimiter }

func (r *Reader) locked() bool {
	return r.sepDetected || r.state >= stateDetected || r.sc != nil
}

// SetSeparator отменяет определение; после него вернёт ErrAlreadyStarted.
func (r *Reader) SetSeparator(sep string) error {
	if r.locked() {
		return ErrAlreadyStarted
	}
	if err := singleChar(sep); err != nil {
		return err
	}
	r.separator.set(sep)
	return nil
}

func (r *Reader) SetDelimiter(delim string) error {
	if r.locked() {
		return ErrAlreadyStarted
	}
	if err := singleChar(delim); err != nil {
		return err
	}
	r.delimiter = delim
	return nil
}

func (r *Reader) SetHeader(names ...string) error {
	if r.locked() {
		return ErrAlreadyStarted
	}
	WithHeader(names...)(r)
	return nil
}

func (r *Reader) open() (*lines.Scanner, error) {
	rc, err := r.src.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.src.Name(), err)
	}
	if sd, ok := r.conv.(streamDecoder); ok {
		if dec := sd.StreamDecoder(r.encoding); dec != nil {
			rc = readCloser{Reader: transform.NewReader(rc, dec), Closer: rc}
		}
	}
	return lines.NewScanner(rc), nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// wide: строки декодируются в UTF-8 прямо при чтении.
func (r *Reader) wide() bool {
	sd, ok := r.conv.(streamDecoder)
	return ok && sd.StreamDecoder(r.encoding) != nil
}

func (r *Reader) text(sc *lines.Scanner) string {
	if sc.Line() == 1 {
		return r.guard.WithoutBOM(sc.Text())
	}
	return sc.Text()
}

// Sample возвращает до SampleSize первых строк источника. Срез менять
// нельзя.
func (r *Reader) Sample() ([]string, error) {
	if s, ok := r.sample.get(); ok {
		return s, nil
	}
	if r.err != nil {
		return nil, r.err
	}
	sc, err := r.open()
	if err != nil {
		return nil, err
	}
	defer sc.Close()

	s := make([]string, 0, r.sampleSize)
	for len(s) < r.sampleSize && sc.Scan() {
		s = append(s, r.text(sc))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read sample of %s: %w", r.src.Name(), err)
	}
	r.sample.set(s)
	if r.state < stateSampled {
		r.state = stateSampled
	}
	r.log.Debug().Int("lines", len(s)).Msg("sample collected")
	return s, nil
}

// пустые строки о диалекте ничего не говорят
func (r *Reader) detectionSample() ([]string, error) {
	s, err := r.Sample()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(s))
	for _, l := range s {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out, nil
}

// Separator возвращает разделитель, при первом вызове определяет его.
func (r *Reader) Separator() (string, error) {
	if sep, ok := r.separator.get(); ok {
		return sep, nil
	}
	if r.err != nil {
		return "", r.err
	}
	sample, err := r.detectionSample()
	if err != nil {
		return "", err
	}
	sep, err := r.det.Separator(sample, r.delimiter)
	if err != nil {
		r.log.Debug().Err(err).Msg("separator detection failed")
		return "", err
	}
	r.separator.set(sep)
	r.sepDetected = true
	r.log.Debug().Str("separator", sep).Msg("separator detected")
	return sep, nil
}

// Header возвращает заголовок, при первом вызове определяет его. При
// ForceHeader ошибку определения заменяет ошибка кодировки, если выборка не
// в заявленной кодировке.
func (r *Reader) Header() (dialect.Header, error) {
	if h, ok := r.header.get(); ok {
		return h, nil
	}
	sep, err := r.Separator()
	if err != nil {
		return dialect.Header{}, err
	}
	sample, err := r.detectionSample()
	if err != nil {
		return dialect.Header{}, err
	}
	h, err := r.det.Header(sample, sep, r.delimiter)
	if err != nil {
		if r.forceHeader {
			if cerr := r.checkCharset(); cerr != nil {
				r.log.Debug().Err(err).Msg("header detection failed, reporting charset instead")
				return dialect.Header{}, cerr
			}
		}
		return dialect.Header{}, err
	}
	if !h.Positional() && r.needTranscode() {
		h.Names = r.convertNames(h.Names)
	}
	r.header.set(h)
	if r.state < stateDetected {
		r.state = stateDetected
	}
	r.log.Debug().
		Strs("names", h.Names).
		Int("width", h.Width).
		Bool("positional", h.Positional()).
		Msg("header detected")
	return h, nil
}

func (r *Reader) checkCharset() error {
	if r.wide() {
		return nil
	}
	s, _ := r.sample.get()
	raw := strings.Join(s, "\n")
	// чистый ASCII годится для любой кодировки, которую мы читаем
	if charset.IsASCII(raw) {
		return nil
	}
	return r.guard.ForceCharset(raw, r.encoding)
}

// DetectEncoding: что charset.Guard думает о кодировке выборки.
func (r *Reader) DetectEncoding() (string, error) {
	s, err := r.Sample()
	if err != nil {
		return "", err
	}
	return r.guard.Detect(strings.Join(s, "\n"), nil, false), nil
}

func (r *Reader) start() error {
	if _, err := r.Separator(); err != nil {
		return err
	}
	if _, err := r.Header(); err != nil {
		return err
	}
	sc, err := r.open()
	if err != nil {
		return err
	}
	r.sc = sc
	r.fieldsFrom = r.sourceEncoding()
	r.transcode = r.needTranscode()
	r.state = stateStreaming
	return nil
}

// sourceEncoding: кодировка разрезанных полей. Широкие кодировки уже
// декодированы в UTF-8 при чтении строк.
func (r *Reader) sourceEncoding() string {
	if r.wide() {
		return DefaultEncoding
	}
	return r.encoding
}

func (r *Reader) needTranscode() bool {
	return r.conv.Canonical(r.sourceEncoding()) != r.conv.Canonical(r.target)
}

// имена, которые не перекодировались, оставляем как есть
func (r *Reader) convertNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		v, err := r.conv.Convert(n, r.target, r.sourceEncoding())
		if err != nil {
			v = n
		}
		out[i] = v
	}
	return out
}

// Next возвращает следующую строку данных или io.EOF в конце. Заголовок и
// пустые строки не возвращаются никогда. После *RowError чтение можно
// продолжать.
func (r *Reader) Next() (Row, error) {
	if r.state == stateExhausted {
		return Row{}, io.EOF
	}
	if r.sc == nil {
		if err := r.start(); err != nil {
			return Row{}, err
		}
	}
	sep, _ := r.separator.get()
	h, _ := r.header.get()

	for {
		if !r.sc.Scan() {
			err := r.sc.Err()
			r.finish()
			if err != nil {
				return Row{}, fmt.Errorf("read %s: %w", r.src.Name(), err)
			}
			return Row{}, io.EOF
		}
		n := r.sc.Line()
		fields := dialect.Split(r.text(r.sc), sep, r.delimiter)
		if dialect.IsSkippable(fields) {
			r.log.Trace().Int("line", n).Msg("blank line skipped")
			continue
		}
		if !h.Positional() && !r.headerDone {
			r.headerDone = true
			continue
		}

		keys := h.Names
		if h.Positional() {
			keys = r.positionalKeys(len(fields))
		} else if len(fields) != len(h.Names) {
			return Row{}, &RowError{
				Line: n,
				Err:  fmt.Errorf("%w: want %d, got %d", ErrColumnCount, len(h.Names), len(fields)),
			}
		}
		if r.transcode {
			for i, f := range fields {
				v, err := r.conv.Convert(f, r.target, r.fieldsFrom)
				if err != nil {
					return Row{}, &RowError{Line: n, Err: err}
				}
				fields[i] = v
			}
		}
		return Row{Line: n, Keys: keys, Values: fields}, nil
	}
}

func (r *Reader) positionalKeys(n int) []string {
	for i := len(r.posKeys); i < n; i++ {
		r.posKeys = append(r.posKeys, strconv.Itoa(i))
	}
	return r.posKeys[:n:n]
}

func (r *Reader) finish() {
	if r.sc != nil {
		_ = r.sc.Close()
		r.sc = nil
	}
	r.state = stateExhausted
}

// All: range по оставшимся строкам. Останавливается на первой ошибке,
// которая не *RowError.
func (r *Reader) All() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for {
			row, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(row, err) {
				return
			}
			var re *RowError
			if err != nil && !errors.As(err, &re) {
				return
			}
		}
	}
}

// Rewind начинает чтение с первой строки. Результаты определения
// сохраняются.
func (r *Reader) Rewind() error {
	var err error
	if r.sc != nil {
		err = r.sc.Close()
		r.sc = nil
	}
	r.headerDone = false
	if r.state > stateDetected {
		r.state = stateDetected
	}
	return err
}

// Count вычитывает новый Reader поверх нового дескриптора того же
// источника. Уже определённое переиспользуется, позиция этого Reader не
// меняется.
func (r *Reader) Count() (int, error) {
	return r.CountContext(context.Background())
}

// CountContext: Count, который прерывается по ctx (проверка раз в
// countCheckInterval строк).
func (r *Reader) CountContext(ctx context.Context) (int, error) {
	opts := append([]Option(nil), r.opts...)
	// кавычка могла прийти через SetDelimiter, в opts её нет
	opts = append(opts, WithDelimiter(r.delimiter))
	if sep, ok := r.separator.get(); ok {
		opts = append(opts, WithSeparator(sep))
	}
	if h, ok := r.header.get(); ok {
		opts = append(opts, withResolvedHeader(h))
	}
	fresh := New(r.src, opts...)
	defer fresh.Close()

	n := 0
	for {
		if n%countCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return n, err
			}
		}
		_, err := fresh.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

// Close освобождает дескриптор. До Rewind Next возвращает io.EOF.
func (r *Reader) Close() error {
	if r.state >= stateStreaming {
		r.state = stateExhausted
	}
	if r.sc == nil {
		return nil
	}
	err := r.sc.Close()
	r.sc = nil
	return err
}
