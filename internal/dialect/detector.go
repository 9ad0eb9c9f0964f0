// Package dialect определяет разделитель колонок и строку заголовка
// по небольшой выборке строк файла.
package dialect

import (
	"regexp"
	"sort"
	"strconv"

	"csv-sniffer/internal/utils"
)

// DefaultSeparators пробуются по порядку; при равенстве побеждает первый.
var DefaultSeparators = []string{",", ";", "\t", "|", "^"}

const DefaultDelimiter = `"`

var rxLetter = regexp.MustCompile(`\p{L}`)

// Header описывает колонки файла. Пустой Names: строки заголовка нет,
// колонки нумеруются по позиции.
type Header struct {
	Names    []string
	Width    int
	Detected bool
}

func (h Header) Positional() bool { return len(h.Names) == 0 }

// Keys: Names, а для позиционного заголовка "0".."Width-1".
func (h Header) Keys() []string {
	if !h.Positional() {
		return h.Names
	}
	keys := make([]string, h.Width)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}
	return keys
}

type Detector struct {
	separators  []string
	forceHeader bool
}

type Option func(*Detector)

func WithSeparators(seps ...string) Option {
	return func(d *Detector) {
		if len(seps) > 0 {
			d.separators = append([]string(nil), seps...)
		}
	}
}

// WithForceHeader: если первая строка не похожа на заголовок, Header
// вернёт ошибку вместо позиционных ключей.
func WithForceHeader(force bool) Option {
	return func(d *Detector) { d.forceHeader = force }
}

func NewDetector(opts ...Option) *Detector {
	d := &Detector{separators: DefaultSeparators}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Separator выбирает кандидата, который режет первую строку на больше всего
// колонок и даёт столько же на каждой непустой строке выборки. Если ни один
// не даёт хотя бы двух колонок, вернёт "".
func (d *Detector) Separator(sample []string, delimiter string) (string, error) {
	if len(sample) < 2 {
		return "", newDetectionError("separator", "need at least 2 lines, got %d", len(sample)).
			WithDetail("lines", len(sample))
	}

	groups := make(map[int][]string)
	var counts []int
	for _, sep := range d.separators {
		n := len(Split(sample[0], sep, delimiter))
		if _, ok := groups[n]; !ok {
			counts = append(counts, n)
		}
		groups[n] = append(groups[n], sep)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))
	if counts[0] < 2 {
		return "", nil
	}

	badLine := 0
	for _, n := range counts {
		if n < 2 {
			break
		}
		for _, sep := range groups[n] {
			line, ok := consistent(sample, sep, delimiter, n)
			if ok {
				return sep, nil
			}
			if badLine == 0 {
				badLine = line
			}
		}
	}
	return "", newDetectionError("separator",
		"no candidate gives every line the same column count: first line has %d columns, line %d differs", counts[0], badLine).
		WithDetail("columns", counts[0]).
		WithDetail("line", badLine).
		WithDetail("candidates", groups[counts[0]])
}

// consistent сверяет строки после первой с want колонками; при расхождении
// вернёт номер (с 1) первой несогласной строки.
func consistent(sample []string, sep, delimiter string, want int) (int, bool) {
	for i := 1; i < len(sample); i++ {
		fields := Split(sample[i], sep, delimiter)
		if IsSkippable(fields) {
			continue
		}
		if len(fields) != want {
			return i + 1, false
		}
	}
	return 0, true
}

// Header решает, заголовок ли первая строка выборки, и проверяет, что
// остальные строки той же ширины.
func (d *Detector) Header(sample []string, separator, delimiter string) (Header, error) {
	if len(sample) == 0 {
		return Header{}, newDetectionError("header", "empty sample")
	}
	h, err := d.HeaderOf(Split(sample[0], separator, delimiter))
	if err != nil {
		return Header{}, err
	}
	if line, ok := consistent(sample, separator, delimiter, h.Width); !ok {
		return Header{}, newDetectionError("header", "expected %d columns, line %d differs", h.Width, line).
			WithDetail("columns", h.Width).
			WithDetail("line", line)
	}
	return h, nil
}

// HeaderOf разбирает уже разрезанную первую строку. Все поля должны быть
// словами (допустимо пустое последнее) и не повторяться; иначе заголовок
// позиционный, а при ForceHeader ошибка.
func (d *Detector) HeaderOf(fields []string) (Header, error) {
	var notWords []string
	last := len(fields) - 1
	for i, f := range fields {
		if f == "" && i == last && i > 0 {
			continue
		}
		if !IsWord(f) {
			notWords = append(notWords, f)
		}
	}
	dups := duplicates(fields)

	if len(notWords) == 0 && len(dups) == 0 {
		return Header{Names: append([]string(nil), fields...), Width: len(fields), Detected: true}, nil
	}
	if d.forceHeader {
		if len(notWords) > 0 {
			return Header{}, newDetectionError("header", "fields are not word-like: %s", quoteAll(notWords)).
				WithDetail("fields", notWords)
		}
		return Header{}, newDetectionError("header", "duplicate fields: %s", quoteAll(dups)).
			WithDetail("fields", dups)
	}
	return Header{Width: len(fields), Detected: true}, nil
}

// IsWord: поле не число и содержит хотя бы одну букву.
func IsWord(s string) bool {
	return !utils.IsNumeric(s) && rxLetter.MatchString(s)
}

func duplicates(fields []string) []string {
	seen := make(map[string]int, len(fields))
	var out []string
	for _, f := range fields {
		seen[f]++
		if seen[f] == 2 {
			out = append(out, f)
		}
	}
	return out
}

func quoteAll(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += strconv.Quote(s)
	}
	return out
}
