package charset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csv-sniffer/internal/convert"
)

func newGuard(opts ...GuardOption) *Guard { return NewGuard(convert.New(), opts...) }

func TestDetectBOM(t *testing.T) {
	g := newGuard()
	tests := []struct {
		name string
		text string
		want string
	}{
		{"utf8", "\xef\xbb\xbfid,name", UTF8},
		{"utf16le", "\xff\xfei\x00d\x00", UTF16LE},
		{"utf16be", "\xfe\xff\x00i\x00d", UTF16BE},
		{"utf32le wins over utf16le", "\xff\xfe\x00\x00i\x00\x00\x00", UTF32LE},
		{"utf32be", "\x00\x00\xfe\xff\x00\x00\x00i", UTF32BE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Detect(tt.text, nil, false))
		})
	}
}

func TestWithoutBOM(t *testing.T) {
	g := newGuard()
	assert.Equal(t, "id,name", g.WithoutBOM("\xef\xbb\xbfid,name"))
	assert.Equal(t, "i\x00\x00\x00", g.WithoutBOM("\xff\xfe\x00\x00i\x00\x00\x00"))
	assert.Equal(t, "id,name", g.WithoutBOM("id,name"))
	assert.Equal(t, "", g.WithoutBOM(""))
}

func TestIsASCII(t *testing.T) {
	assert.True(t, IsASCII(""))
	assert.True(t, IsASCII("a,b\r\n1,2\t~"))
	assert.True(t, IsASCII("page 1\fpage 2\v"))
	assert.False(t, IsASCII("a\x00b"))
	assert.False(t, IsASCII("a\x7f"))
	assert.False(t, IsASCII("naïve"))
}

func TestIsUTF8(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"ascii", "id;name\r\n", true},
		{"two byte", "naïve", true},
		{"three byte", "€ and 日本", true},
		{"four byte", "😀", true},
		{"overlong slash", "\xc0\xaf", false},
		{"overlong three byte", "\xe0\x80\xaf", false},
		{"surrogate", "\xed\xa0\x80", false},
		{"above max code point", "\xf4\x90\x80\x80", false},
		{"truncated", "\xe2\x82", false},
		{"nul byte", "a\x00b", false},
		{"latin1", "caf\xe9", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUTF8(tt.text))
		})
	}
}

func TestDetectPlainText(t *testing.T) {
	g := newGuard()
	assert.Equal(t, ASCII, g.Detect("", nil, false))
	assert.Equal(t, ASCII, g.Detect("id,name\n1,foo\n", nil, false))
	assert.Equal(t, UTF8, g.Detect("id,name\n1,Zoë\n", nil, false))
	assert.Equal(t, ASCII, g.Detect("id,name\f\n1,foo\v\n", nil, false))
	assert.Equal(t, UTF8, g.Detect("id,name\f\n1,Zoë\n", nil, false))
}

func TestDetectFallback(t *testing.T) {
	g := newGuard()
	latin := "nom;pr\xe9nom;ville\nB\xe9atrice;Fran\xe7oise;Orl\xe9ans\nJ\xe9r\xf4me;Ga\xebl;Besan\xe7on\n"

	got := g.Detect(latin, nil, true)
	assert.Contains(t, []string{"ISO-8859-1", "Windows-1252", "ISO-8859-15", "Windows-1250", "Windows-1251"}, got)

	got = g.Detect(latin, []string{"klingon", "ISO-8859-1"}, true)
	assert.Equal(t, "ISO-8859-1", got)

	sjis := "\x93\xfa\x96\x7b\x8c\xea,\x93\xfa\x96\x7b\x8c\xea"
	assert.Equal(t, "SJIS", g.Detect(sjis, []string{"SJIS"}, true))
}

func TestDetectUsesGuardCandidates(t *testing.T) {
	g := newGuard(WithCandidates("ISO-8859-15"))
	assert.Equal(t, "ISO-8859-15", g.Detect("caf\xe9 cr\xe8me", nil, true))
}

func TestForceCharset(t *testing.T) {
	g := newGuard()

	require.NoError(t, g.ForceCharset("héllo", "UTF-8"))
	require.NoError(t, g.ForceCharset("hello", "ascii"))
	assert.True(t, g.IsCharset("hello", "US-ASCII"))

	err := g.ForceCharset("hello", "UTF-8")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCharset))

	var ice *InvalidCharsetError
	require.ErrorAs(t, err, &ice)
	assert.Equal(t, "UTF-8", ice.Awaited)
	assert.Nil(t, ice.suggested)
	assert.Equal(t, ASCII, ice.Suggestion())
	assert.Contains(t, ice.Error(), "awaited UTF-8")
	assert.Contains(t, ice.Error(), "ASCII")
}

func TestInvalidCharsetErrorWithoutGuard(t *testing.T) {
	e := &InvalidCharsetError{Text: "x", Awaited: "UTF-8"}
	assert.Equal(t, "", e.Suggestion())
	assert.Equal(t, "invalid charset: awaited UTF-8", e.Error())
}
