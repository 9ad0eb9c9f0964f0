// Package convert перекодирует текст между кодировками из реестра IANA
// (плюс несколько ходовых псевдонимов).
package convert

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

var (
	ErrUnknownCharset  = errors.New("convert: unknown charset")
	ErrInvalidInput    = errors.New("convert: input is not valid in source charset")
	ErrUnrepresentable = errors.New("convert: text is not representable in target charset")
)

// имена, которых нет в индексе IANA, но которые всё равно присылают
var aliases = map[string]string{
	"utf8":      "UTF-8",
	"ascii":     "US-ASCII",
	"sjis":      "Shift_JIS",
	"shift-jis": "Shift_JIS",
	"cp932":     "Shift_JIS",
	"cp1250":    "windows-1250",
	"cp1251":    "windows-1251",
	"cp1252":    "windows-1252",
	"win1251":   "windows-1251",
	"latin9":    "ISO-8859-15",
	"utf16le":   "UTF-16LE",
	"utf16be":   "UTF-16BE",
}

type wideEncoding struct {
	name string
	enc  encoding.Encoding
}

// UTF-32 в ianaindex зарегистрирован, но реализации нет.
var wide = map[string]wideEncoding{
	"utf-32":   {"UTF-32", utf32.UTF32(utf32.BigEndian, utf32.UseBOM)},
	"utf-32le": {"UTF-32LE", utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)},
	"utf-32be": {"UTF-32BE", utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)},
	"utf32le":  {"UTF-32LE", utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)},
	"utf32be":  {"UTF-32BE", utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)},
}

const replacement = "\uFFFD"

// Text: конвертер строк на x/text. Нулевое значение готово к работе.
type Text struct{}

func New() *Text { return &Text{} }

func lookup(name string) (encoding.Encoding, string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, "", fmt.Errorf("%w: empty name", ErrUnknownCharset)
	}
	if w, ok := wide[key]; ok {
		return w.enc, w.name, nil
	}
	if a, ok := aliases[key]; ok {
		key = a
	}
	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil || enc == nil {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownCharset, name)
	}
	canon, err := ianaindex.IANA.Name(enc)
	if err != nil {
		canon = key
	}
	return enc, canon, nil
}

// CanConvert: известна ли кодировка name. Ошибок не возвращает.
func (t *Text) CanConvert(name string) bool {
	_, _, err := lookup(name)
	return err == nil
}

// Canonical возвращает имя кодировки по реестру, для неизвестной сам name.
func (t *Text) Canonical(name string) string {
	_, canon, err := lookup(name)
	if err != nil {
		return name
	}
	return canon
}

// Convert перекодирует text из from в to.
func (t *Text) Convert(text, to, from string) (string, error) {
	src, srcName, err := lookup(from)
	if err != nil {
		return "", err
	}
	dst, dstName, err := lookup(to)
	if err != nil {
		return "", err
	}
	if srcName == "UTF-8" && !utf8.ValidString(text) {
		return "", fmt.Errorf("%w: %s", ErrInvalidInput, srcName)
	}
	if srcName == dstName {
		return text, nil
	}

	s := text
	if srcName != "UTF-8" {
		s, err = src.NewDecoder().String(text)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrInvalidInput, srcName, err)
		}
		// декодеры x/text не падают, а подставляют U+FFFD
		if strings.Contains(s, replacement) && !strings.Contains(text, replacement) {
			return "", fmt.Errorf("%w: %s", ErrInvalidInput, srcName)
		}
	}

	if dstName == "UTF-8" {
		return s, nil
	}
	out, err := dst.NewEncoder().String(s)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnrepresentable, dstName, err)
	}
	return out, nil
}

// StreamDecoder нужен для кодировок шире байта (UTF-16, UTF-32): отдаёт
// декодер в UTF-8 на уровне потока. Для ASCII-совместимых вернёт nil,
// разделители и кавычки в них видны и без декодирования.
func (t *Text) StreamDecoder(name string) transform.Transformer {
	enc, canon, err := lookup(name)
	if err != nil || !(strings.HasPrefix(canon, "UTF-16") || strings.HasPrefix(canon, "UTF-32")) {
		return nil
	}
	if canon == "UTF-16" {
		enc = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	}
	return enc.NewDecoder()
}
