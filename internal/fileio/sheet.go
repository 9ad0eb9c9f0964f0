package fileio

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"csv-sniffer/internal/csvreader"
	"csv-sniffer/internal/dialect"
)

// sheet отдаёт уже прочитанную таблицу как поток строк, с той же логикой
// заголовка, что и у CSV.
type sheet struct {
	name string
	rows [][]string
	det  *dialect.Detector

	header   dialect.Header
	hdrErr   error
	hdrIdx   int
	detected bool
	pos      int
}

func newSheet(name string, rows [][]string, det *dialect.Detector) *sheet {
	return &sheet{name: name, rows: rows, det: det, hdrIdx: -1}
}

// trimRight убирает пустые ячейки справа (excelize/xls дополняют строки).
func trimRight(row []string) []string {
	n := len(row)
	for n > 0 && strings.TrimSpace(row[n-1]) == "" {
		n--
	}
	return row[:n]
}

func (s *sheet) Header() (dialect.Header, error) {
	if s.detected {
		return s.header, s.hdrErr
	}
	s.detected = true
	for i, r := range s.rows {
		if dialect.IsSkippable(r) {
			continue
		}
		s.hdrIdx = i
		s.header, s.hdrErr = s.det.HeaderOf(trimRight(r))
		return s.header, s.hdrErr
	}
	s.hdrErr = fmt.Errorf("%s: %w", s.name, &dialect.DetectionError{Op: "header", Message: "sheet is empty"})
	return s.header, s.hdrErr
}

func (s *sheet) Next() (csvreader.Row, error) {
	h, err := s.Header()
	if err != nil {
		return csvreader.Row{}, err
	}
	for s.pos < len(s.rows) {
		i := s.pos
		s.pos++
		r := s.rows[i]
		if dialect.IsSkippable(r) {
			continue
		}
		if !h.Positional() && i == s.hdrIdx {
			continue
		}

		if h.Positional() {
			vals := trimRight(r)
			keys := make([]string, len(vals))
			for k := range keys {
				keys[k] = strconv.Itoa(k)
			}
			return csvreader.Row{Line: i + 1, Keys: keys, Values: append([]string(nil), vals...)}, nil
		}

		vals := make([]string, len(h.Names))
		copy(vals, r)
		if extra := trimRight(r); len(extra) > len(h.Names) {
			return csvreader.Row{}, &csvreader.RowError{
				Line: i + 1,
				Err:  fmt.Errorf("%w: want %d, got %d", csvreader.ErrColumnCount, len(h.Names), len(extra)),
			}
		}
		return csvreader.Row{Line: i + 1, Keys: h.Names, Values: vals}, nil
	}
	return csvreader.Row{}, io.EOF
}

func (s *sheet) Close() error {
	s.pos = len(s.rows)
	return nil
}
