package lines

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Scanner отдаёт строки без LF/CRLF. В отличие от bufio.Scanner длина
// строки не ограничена.
type Scanner struct {
	br   *bufio.Reader
	c    io.Closer
	text string
	line int
	err  error
	done bool
}

func NewScanner(rc io.ReadCloser) *Scanner {
	return &Scanner{br: bufio.NewReaderSize(rc, 64*1024), c: rc}
}

// Open: то же, что NewScanner(src.Open()).
func Open(src Source) (*Scanner, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	return NewScanner(rc), nil
}

func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}
	text, err := s.br.ReadString('\n')
	if err != nil {
		s.done = true
		if !errors.Is(err, io.EOF) {
			s.err = err
			return false
		}
		// последняя строка без перевода строки
		if text == "" {
			return false
		}
	}
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	s.text = text
	s.line++
	return true
}

func (s *Scanner) Text() string { return s.text }

// Line: номер (с 1) строки, которую вернул Text.
func (s *Scanner) Line() int  { return s.line }
func (s *Scanner) Err() error { return s.err }

func (s *Scanner) Close() error {
	s.done = true
	if s.c == nil {
		return nil
	}
	err := s.c.Close()
	s.c = nil
	return err
}
