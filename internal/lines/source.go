// Package lines отдаёт физические строки источника. Source можно открывать
// сколько угодно раз, каждый Open читает с начала.
package lines

import (
	"bytes"
	"io"
	"os"
)

type Source interface {
	Open() (io.ReadCloser, error)
	Name() string
}

// File: файл на диске.
type File string

func (f File) Open() (io.ReadCloser, error) { return os.Open(string(f)) }
func (f File) Name() string                 { return string(f) }

// Bytes: буфер в памяти.
type Bytes struct {
	Label string
	Data  []byte
}

func (b Bytes) Open() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(b.Data)), nil }
func (b Bytes) Name() string                 { return b.Label }

// String удобен в тестах и для маленьких входов.
func String(s string) Bytes { return Bytes{Label: "string", Data: []byte(s)} }

// Section: io.ReaderAt, например файл из multipart-формы.
type Section struct {
	Label string
	R     io.ReaderAt
	Size  int64
}

func (s Section) Open() (io.ReadCloser, error) {
	return io.NopCloser(io.NewSectionReader(s.R, 0, s.Size)), nil
}
func (s Section) Name() string { return s.Label }
