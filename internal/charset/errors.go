package charset

import (
	"errors"
	"fmt"
)

var ErrInvalidCharset = errors.New("invalid charset")

// InvalidCharsetError: текст не в ожидаемой кодировке. Подсказка
// определяется только при первом обращении.
type InvalidCharsetError struct {
	Text    string
	Awaited string

	guard     *Guard
	suggested *string
}

// Suggestion: в какой кодировке текст на самом деле.
func (e *InvalidCharsetError) Suggestion() string {
	if e.suggested == nil {
		s := ""
		if e.guard != nil {
			s = e.guard.Detect(e.Text, nil, false)
		}
		e.suggested = &s
	}
	return *e.suggested
}

func (e *InvalidCharsetError) Error() string {
	if s := e.Suggestion(); s != "" {
		return fmt.Sprintf("%s: awaited %s, text looks like %s", ErrInvalidCharset, e.Awaited, s)
	}
	return fmt.Sprintf("%s: awaited %s", ErrInvalidCharset, e.Awaited)
}

func (e *InvalidCharsetError) Is(target error) bool { return target == ErrInvalidCharset }
