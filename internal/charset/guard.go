// Package charset угадывает и проверяет кодировку сырого текста.
//
// Определение не падает никогда: сначала BOM, затем чистый ASCII и строгий
// UTF-8, и только потом вероятностный детектор со списком кандидатов.
package charset

import (
	"sort"
	"strings"

	"github.com/saintfish/chardet"
)

const (
	ASCII   = "ASCII"
	UTF8    = "UTF-8"
	UTF16LE = "UTF-16LE"
	UTF16BE = "UTF-16BE"
	UTF32LE = "UTF-32LE"
	UTF32BE = "UTF-32BE"
)

// DefaultCandidates: кандидаты по умолчанию, если Detect их не получил.
var DefaultCandidates = []string{
	"UTF-8", "ISO-8859-1", "Windows-1252", "ISO-8859-15", "Windows-1251", "Windows-1250", "SJIS",
}

// Converter: от конвертера нужны проверка поддержки кодировки и сама
// перекодировка (ею проверяем, что текст декодируется чисто).
type Converter interface {
	Convert(text, to, from string) (string, error)
	CanConvert(name string) bool
}

type canonicalizer interface {
	Canonical(name string) string
}

func byteOrderMarks() map[string]string {
	return map[string]string{
		UTF8:    "\xef\xbb\xbf",
		UTF16LE: "\xff\xfe",
		UTF16BE: "\xfe\xff",
		UTF32LE: "\xff\xfe\x00\x00",
		UTF32BE: "\x00\x00\xfe\xff",
	}
}

type Guard struct {
	conv       Converter
	boms       map[string]string
	bomOrder   []string
	candidates []string
	detector   *chardet.Detector
}

type GuardOption func(*Guard)

// WithCandidates заменяет DefaultCandidates для этого guard.
func WithCandidates(names ...string) GuardOption {
	return func(g *Guard) {
		if len(names) > 0 {
			g.candidates = append([]string(nil), names...)
		}
	}
}

func NewGuard(conv Converter, opts ...GuardOption) *Guard {
	g := &Guard{
		conv:       conv,
		boms:       byteOrderMarks(),
		candidates: DefaultCandidates,
		detector:   chardet.NewTextDetector(),
	}
	for _, o := range opts {
		o(g)
	}
	for name := range g.boms {
		g.bomOrder = append(g.bomOrder, name)
	}
	// BOM UTF-32LE начинается с BOM UTF-16LE, поэтому длинные метки первыми
	sort.Slice(g.bomOrder, func(i, j int) bool {
		a, b := g.bomOrder[i], g.bomOrder[j]
		if len(g.boms[a]) != len(g.boms[b]) {
			return len(g.boms[a]) > len(g.boms[b])
		}
		return a < b
	})
	return g
}

func (g *Guard) bom(text string) (name, mark string, ok bool) {
	for _, n := range g.bomOrder {
		if m := g.boms[n]; strings.HasPrefix(text, m) {
			return n, m, true
		}
	}
	return "", "", false
}

// WithoutBOM отрезает известный BOM в начале текста.
func (g *Guard) WithoutBOM(text string) string {
	if _, mark, ok := g.bom(text); ok {
		return text[len(mark):]
	}
	return text
}

// Detect называет кодировку текста. candidates нужны только детектору
// (пустой список: DefaultCandidates); при strict годится лишь кандидат,
// из которого весь текст декодируется без потерь.
func (g *Guard) Detect(text string, candidates []string, strict bool) string {
	if name, _, ok := g.bom(text); ok {
		return name
	}
	if IsASCII(text) {
		return ASCII
	}
	if IsUTF8(text) {
		return UTF8
	}
	return g.guess(text, candidates, strict)
}

func (g *Guard) guess(text string, candidates []string, strict bool) string {
	if len(candidates) == 0 {
		candidates = g.candidates
	}
	cands := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if g.conv.CanConvert(c) {
			cands = append(cands, c)
		}
	}

	results, err := g.detector.DetectAll([]byte(text))
	if err == nil {
		for _, r := range results {
			for _, c := range cands {
				if g.same(r.Charset, c) && (!strict || g.decodes(text, c)) {
					return c
				}
			}
		}
		if !strict && len(results) > 0 && g.conv.CanConvert(results[0].Charset) {
			return results[0].Charset
		}
	}

	for _, c := range cands {
		if g.decodes(text, c) {
			return c
		}
	}
	if len(cands) > 0 {
		return cands[0]
	}
	return UTF8
}

func (g *Guard) decodes(text, name string) bool {
	_, err := g.conv.Convert(text, UTF8, name)
	return err == nil
}

func (g *Guard) same(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	if c, ok := g.conv.(canonicalizer); ok {
		return c.Canonical(a) == c.Canonical(b)
	}
	return false
}

// IsCharset: совпадает ли результат Detect с name (без учёта регистра).
func (g *Guard) IsCharset(text, name string) bool {
	return g.same(g.Detect(text, nil, false), name)
}

// ForceCharset вернёт *InvalidCharsetError, если текст определился не в
// ожидаемой кодировке.
func (g *Guard) ForceCharset(text, name string) error {
	if g.IsCharset(text, name) {
		return nil
	}
	return &InvalidCharsetError{Text: text, Awaited: name, guard: g}
}
