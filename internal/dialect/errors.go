package dialect

import (
	"errors"
	"fmt"
)

var ErrDetectionFailed = errors.New("detection failed")

// DetectionError: разделитель или заголовок запрошены, но определить их не
// удалось. В Details числа колонок и поля, на которых споткнулись.
type DetectionError struct {
	Op      string
	Message string
	Details map[string]any
}

func newDetectionError(op, format string, args ...any) *DetectionError {
	return &DetectionError{Op: op, Message: fmt.Sprintf(format, args...), Details: map[string]any{}}
}

// WithDetail добавляет деталь и возвращает ту же ошибку.
func (e *DetectionError) WithDetail(key string, value any) *DetectionError {
	e.Details[key] = value
	return e
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, ErrDetectionFailed, e.Message)
}

func (e *DetectionError) Is(target error) bool { return target == ErrDetectionFailed }
