package csvreader

import (
	"errors"
	"fmt"
)

var (
	ErrColumnCount    = errors.New("column count does not match header")
	ErrAlreadyStarted = errors.New("reader already detected its dialect")
	ErrMultiChar      = errors.New("separator and delimiter must be a single character")
)

// RowError: ошибка в одной строке данных, чтение можно продолжать.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e *RowError) Unwrap() error { return e.Err }
