package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/transform"
)

func TestConvert(t *testing.T) {
	c := New()

	tests := []struct {
		name     string
		text     string
		to, from string
		want     string
	}{
		{"latin1 to utf8", "caf\xe9", "UTF-8", "ISO-8859-1", "café"},
		{"alias source", "caf\xe9", "utf8", "latin1", "café"},
		{"windows-1252 euro", "\x80 5", "UTF-8", "cp1252", "€ 5"},
		{"utf8 to windows-1251", "Да", "windows-1251", "UTF-8", "\xc4\xe0"},
		{"same charset is a no-op", "\xff\xfe", "ISO-8859-1", "latin1", "\xff\xfe"},
		{"sjis", "\x93\xfa\x96\x7b", "UTF-8", "SJIS", "日本"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Convert(tt.text, tt.to, tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertErrors(t *testing.T) {
	c := New()

	_, err := c.Convert("x", "UTF-8", "klingon")
	require.ErrorIs(t, err, ErrUnknownCharset)

	_, err = c.Convert("x", "", "UTF-8")
	require.ErrorIs(t, err, ErrUnknownCharset)

	_, err = c.Convert("caf\xe9", "ISO-8859-1", "UTF-8")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = c.Convert("caf\xe9", "UTF-8", "utf8")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = c.Convert("日本", "ISO-8859-1", "UTF-8")
	require.ErrorIs(t, err, ErrUnrepresentable)
}

func TestCanConvert(t *testing.T) {
	c := New()
	for _, name := range []string{"UTF-8", "utf8", "SJIS", "latin1", "Windows-1250", "ISO-8859-15", "UTF-16LE", "UTF-32LE", "ascii"} {
		assert.True(t, c.CanConvert(name), name)
	}
	for _, name := range []string{"", "klingon", "utf-9"} {
		assert.False(t, c.CanConvert(name), name)
	}
}

func TestCanonical(t *testing.T) {
	c := New()
	assert.Equal(t, "UTF-8", c.Canonical("utf8"))
	assert.Equal(t, "Shift_JIS", c.Canonical("sjis"))
	assert.Equal(t, "windows-1252", c.Canonical("CP1252"))
	assert.Equal(t, "UTF-32LE", c.Canonical("utf-32le"))
	assert.Equal(t, "klingon", c.Canonical("klingon"))
}

func TestStreamDecoder(t *testing.T) {
	c := New()
	assert.Nil(t, c.StreamDecoder("UTF-8"))
	assert.Nil(t, c.StreamDecoder("windows-1251"))
	assert.Nil(t, c.StreamDecoder("klingon"))

	dec := c.StreamDecoder("UTF-16LE")
	require.NotNil(t, dec)
	got, _, err := transform.String(dec, "a\x00,\x00b\x00")
	require.NoError(t, err)
	assert.Equal(t, "a,b", got)

	dec = c.StreamDecoder("UTF-32BE")
	require.NotNil(t, dec)
	got, _, err = transform.String(dec, "\x00\x00\x00a\x00\x00\x00;")
	require.NoError(t, err)
	assert.Equal(t, "a;", got)
}
