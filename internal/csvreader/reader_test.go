package csvreader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csv-sniffer/internal/charset"
	"csv-sniffer/internal/dialect"
	"csv-sniffer/internal/lines"
)

type countingSource struct {
	lines.Source
	opens int
}

func (c *countingSource) Open() (io.ReadCloser, error) {
	c.opens++
	return c.Source.Open()
}

func readAll(t *testing.T, r *Reader) []map[string]string {
	t.Helper()
	var out []map[string]string
	for row, err := range r.All() {
		require.NoError(t, err)
		out = append(out, row.Map())
	}
	return out
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		header dialect.Header
		sep    string
		want   []map[string]string
	}{
		{
			name:   "header and comma",
			in:     "id,name\n1,foo\n2,bar\n",
			header: dialect.Header{Names: []string{"id", "name"}, Width: 2, Detected: true},
			sep:    ",",
			want:   []map[string]string{{"id": "1", "name": "foo"}, {"id": "2", "name": "bar"}},
		},
		{
			name:   "numeric first line is data",
			in:     "42,35\n12,18\n",
			header: dialect.Header{Width: 2, Detected: true},
			sep:    ",",
			want:   []map[string]string{{"0": "42", "1": "35"}, {"0": "12", "1": "18"}},
		},
		{
			name:   "blank lines skipped",
			in:     "a;b\n\n1;2\n",
			header: dialect.Header{Names: []string{"a", "b"}, Width: 2, Detected: true},
			sep:    ";",
			want:   []map[string]string{{"a": "1", "b": "2"}},
		},
		{
			name:   "crlf and quotes",
			in:     "city\tnote\r\n\"Paris\"\t\"a \"\"b\"\"\"\r\n   \r\nOslo\tc\r\n",
			header: dialect.Header{Names: []string{"city", "note"}, Width: 2, Detected: true},
			sep:    "\t",
			want:   []map[string]string{{"city": "Paris", "note": `a "b"`}, {"city": "Oslo", "note": "c"}},
		},
		{
			name:   "utf8 bom",
			in:     "\xef\xbb\xbfid|name\n1|x\n",
			header: dialect.Header{Names: []string{"id", "name"}, Width: 2, Detected: true},
			sep:    "|",
			want:   []map[string]string{{"id": "1", "name": "x"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(lines.String(tt.in))
			sep, err := r.Separator()
			require.NoError(t, err)
			assert.Equal(t, tt.sep, sep)

			h, err := r.Header()
			require.NoError(t, err)
			assert.Equal(t, tt.header, h)

			assert.Equal(t, tt.want, readAll(t, r))
		})
	}
}

func TestForceHeaderFails(t *testing.T) {
	r := New(lines.String("1;2\n3;4\n"), WithForceHeader(true))

	_, err := r.Header()
	require.ErrorIs(t, err, dialect.ErrDetectionFailed)
	assert.Contains(t, err.Error(), `"1"`)
	assert.Contains(t, err.Error(), `"2"`)

	_, err = r.Next()
	require.ErrorIs(t, err, dialect.ErrDetectionFailed)
}

func TestForceHeaderReportsCharsetFirst(t *testing.T) {
	r := New(lines.String("1;2\n3;J\xe9r\xf4me\n"), WithForceHeader(true))

	_, err := r.Header()
	require.ErrorIs(t, err, charset.ErrInvalidCharset)
	var ice *charset.InvalidCharsetError
	require.ErrorAs(t, err, &ice)
	assert.Equal(t, "UTF-8", ice.Awaited)
	assert.NotEqual(t, "UTF-8", ice.Suggestion())
}

func TestForceHeaderValidCharsetKeepsDetectionError(t *testing.T) {
	r := New(lines.String("1;2\n3;Jérôme\n"), WithForceHeader(true))
	_, err := r.Header()
	require.ErrorIs(t, err, dialect.ErrDetectionFailed)
	assert.False(t, errors.Is(err, charset.ErrInvalidCharset))
}

func TestDetectionNeedsTwoLines(t *testing.T) {
	for _, in := range []string{"", "id,name\n", "id,name\n\n  \n"} {
		r := New(lines.String(in))
		_, err := r.Separator()
		require.ErrorIs(t, err, dialect.ErrDetectionFailed, "%q", in)
		_, err = r.Next()
		require.ErrorIs(t, err, dialect.ErrDetectionFailed, "%q", in)
	}
}

func TestDetectionIsMemoised(t *testing.T) {
	src := &countingSource{Source: lines.String("id,name\n1,a\n2,b\n")}
	r := New(src)

	sep1, err := r.Separator()
	require.NoError(t, err)
	h1, err := r.Header()
	require.NoError(t, err)
	sep2, err := r.Separator()
	require.NoError(t, err)
	h2, err := r.Header()
	require.NoError(t, err)

	assert.Equal(t, sep1, sep2)
	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, src.opens)
	assert.Equal(t, stateDetected, r.state)

	readAll(t, r)
	assert.Equal(t, 2, src.opens)
	assert.Equal(t, stateExhausted, r.state)
}

func TestSampleIsCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("n,sq\n")
	for i := 1; i <= 100; i++ {
		fmt.Fprintf(&b, "%d,%d\n", i, i*i)
	}
	r := New(lines.String(b.String()))

	s, err := r.Sample()
	require.NoError(t, err)
	assert.Len(t, s, DefaultSampleSize)

	r = New(lines.String(b.String()), WithSampleSize(5))
	s, err = r.Sample()
	require.NoError(t, err)
	assert.Len(t, s, 5)

	n, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, 100, n)
}

func TestCount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"header excluded", "id,name\n1,a\n2,b\n3,c\n", 3},
		{"no header", "1,2\n3,4\n5,6\n", 3},
		{"blank lines excluded", "id,name\n\n1,a\n , \n2,b\n\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := New(lines.String(tt.in)).Count()
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestCountKeepsDelimiter(t *testing.T) {
	const in = "a,b\n'x,y',z\n'p,q',r\n"

	r := New(lines.String(in))
	require.NoError(t, r.SetDelimiter("'"))
	n, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	r = New(lines.String(in))
	require.NoError(t, r.SetDelimiter("'"))
	rows := readAll(t, r)
	assert.Equal(t, map[string]string{"a": "x,y", "b": "z"}, rows[0])
	n, err = r.Count()
	require.NoError(t, err)
	assert.Equal(t, len(rows), n)
}

func TestCountContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := New(lines.String("a;b\n1;2\n3;4\n")).CountContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

func TestCountLeavesPositionAlone(t *testing.T) {
	src := &countingSource{Source: lines.String("id\tv\n1\ta\n2\tb\n3\tc\n")}
	r := New(src)

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "a"}, row.Values)

	n, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	row, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "b"}, row.Values)
	// sample, stream, count
	assert.Equal(t, 3, src.opens)
}

func TestRewind(t *testing.T) {
	r := New(lines.String("id,name\n1,a\n2,b\n"))

	rows := readAll(t, r)
	require.Len(t, rows, 2)
	_, err := r.Next()
	require.ErrorIs(t, err, io.EOF)

	require.NoError(t, r.Rewind())
	assert.Equal(t, stateDetected, r.state)
	assert.Equal(t, rows, readAll(t, r))
}

func TestRewindMidway(t *testing.T) {
	r := New(lines.String("1,2\n3,4\n5,6\n"))
	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, row.Line)

	require.NoError(t, r.Rewind())
	row, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, row.Line)
	assert.Equal(t, []string{"0", "1"}, row.Keys)
}

func TestExplicitOverrides(t *testing.T) {
	r := New(lines.String("a;b,c\n1;2,3\n"), WithSeparator(";"))
	h, err := r.Header()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b,c"}, h.Names)

	r = New(lines.String("x,y\n1,2\n"), WithHeader("left", "right"))
	h, err = r.Header()
	require.NoError(t, err)
	assert.False(t, h.Detected)
	assert.Equal(t, []map[string]string{{"left": "1", "right": "2"}}, readAll(t, r))

	r = New(lines.String("'a,b',c\n'1,2',3\n"), WithDelimiter("'"))
	assert.Equal(t, []map[string]string{{"a,b": "1,2", "c": "3"}}, readAll(t, r))
}

func TestSetters(t *testing.T) {
	r := New(lines.String("a;b\n1;2\n"))
	require.NoError(t, r.SetSeparator(";"))
	require.NoError(t, r.SetDelimiter("'"))
	require.NoError(t, r.SetHeader("x", "y"))

	assert.ErrorIs(t, r.SetSeparator(";;"), ErrMultiChar)

	_, err := r.Next()
	require.NoError(t, err)
	assert.ErrorIs(t, r.SetSeparator(","), ErrAlreadyStarted)
	assert.ErrorIs(t, r.SetHeader("z"), ErrAlreadyStarted)

	r = New(lines.String("a;b\n1;2\n"))
	_, err = r.Separator()
	require.NoError(t, err)
	assert.ErrorIs(t, r.SetDelimiter("'"), ErrAlreadyStarted)
}

func TestBadOption(t *testing.T) {
	r := New(lines.String("a;b\n1;2\n"), WithSeparator("::"))
	_, err := r.Separator()
	require.ErrorIs(t, err, ErrMultiChar)
	_, err = r.Next()
	require.ErrorIs(t, err, ErrMultiChar)
}

func TestColumnCountMismatch(t *testing.T) {
	var b strings.Builder
	b.WriteString("id,name\n")
	for i := 1; i <= 25; i++ {
		fmt.Fprintf(&b, "%d,n%d\n", i, i)
	}
	b.WriteString("26,a,b\n27,z\n")
	r := New(lines.String(b.String()))

	var rows int
	var rowErrs []*RowError
	for _, err := range r.All() {
		if err != nil {
			var re *RowError
			require.ErrorAs(t, err, &re)
			rowErrs = append(rowErrs, re)
			continue
		}
		rows++
	}
	assert.Equal(t, 26, rows)
	require.Len(t, rowErrs, 1)
	assert.Equal(t, 27, rowErrs[0].Line)
	assert.ErrorIs(t, rowErrs[0], ErrColumnCount)
}

func TestTranscodesFields(t *testing.T) {
	in := "nom;pr\xe9nom\nDupont;J\xe9r\xf4me\nMartin;Ga\xebl\n"
	r := New(lines.String(in), WithEncoding("ISO-8859-1"))

	h, err := r.Header()
	require.NoError(t, err)
	assert.Equal(t, []string{"nom", "prénom"}, h.Names)
	assert.Equal(t, []map[string]string{
		{"nom": "Dupont", "prénom": "Jérôme"},
		{"nom": "Martin", "prénom": "Gaël"},
	}, readAll(t, r))

	enc, err := r.DetectEncoding()
	require.NoError(t, err)
	assert.NotEqual(t, charset.UTF8, enc)
}

func TestNoTranscodeForSameCharset(t *testing.T) {
	r := New(lines.String("a,b\nx,\xff\n"), WithEncoding("utf8"))
	rows := readAll(t, r)
	assert.Equal(t, "\xff", rows[0]["b"])
}

func utf16le(s string) []byte {
	var buf bytes.Buffer
	buf.WriteString("\xff\xfe")
	for _, u := range utf16.Encode([]rune(s)) {
		buf.WriteByte(byte(u))
		buf.WriteByte(byte(u >> 8))
	}
	return buf.Bytes()
}

func TestWideEncoding(t *testing.T) {
	src := lines.Bytes{Label: "u16", Data: utf16le("id;ville\n1;Orléans\n2;Nîmes\n")}
	r := New(src, WithEncoding("UTF-16LE"))

	sep, err := r.Separator()
	require.NoError(t, err)
	assert.Equal(t, ";", sep)
	assert.Equal(t, []map[string]string{
		{"id": "1", "ville": "Orléans"},
		{"id": "2", "ville": "Nîmes"},
	}, readAll(t, r))
}

func TestRowAccessors(t *testing.T) {
	row := Row{Line: 3, Keys: []string{"a", "b"}, Values: []string{"1", "2"}}
	v, ok := row.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	_, ok = row.Get("c")
	assert.False(t, ok)
	assert.Equal(t, 2, row.Len())
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, row.Map())
}

func TestLogsDetection(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	r := New(lines.String("id,name\n1,a\n"), WithLogger(logger))
	_, err := r.Header()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "separator detected")
	assert.Contains(t, buf.String(), "header detected")
}

func TestCloseStopsIteration(t *testing.T) {
	r := New(lines.String("1,2\n3,4\n"))
	_, err := r.Next()
	require.NoError(t, err)
	require.NoError(t, r.Close())
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, r.Rewind())
	assert.Len(t, readAll(t, r), 2)
}
