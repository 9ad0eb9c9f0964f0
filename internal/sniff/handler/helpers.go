package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"csv-sniffer/internal/charset"
	"csv-sniffer/internal/columns"
	"csv-sniffer/internal/config"
	"csv-sniffer/internal/csvreader"
	"csv-sniffer/internal/dialect"
	"csv-sniffer/internal/fileio"
	"csv-sniffer/internal/sniff/model"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	_ = writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

// classify: ошибки определения и кодировки дают 422, кривой запрос 400.
func classify(err error) (int, string) {
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, charset.ErrInvalidCharset):
		return http.StatusUnprocessableEntity, "invalid_charset"
	case errors.Is(err, dialect.ErrDetectionFailed):
		return http.StatusUnprocessableEntity, "detection_failed"
	case errors.Is(err, columns.ErrUnresolved):
		return http.StatusUnprocessableEntity, "unknown_column"
	case errors.Is(err, fileio.ErrUnsupported):
		return http.StatusBadRequest, "unsupported_file"
	case errors.Is(err, csvreader.ErrMultiChar):
		return http.StatusBadRequest, "bad_option"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// options: значения формы поверх умолчаний из конфигурации.
func options(r *http.Request, cfg config.Config) model.Options {
	return model.Options{
		Encoding:    firstNonEmpty(r.FormValue("encoding"), cfg.Encoding),
		ForceHeader: toBool(r.FormValue("force_header"), cfg.ForceHeader),
		Separator:   separator(r.FormValue("separator")),
		Delimiter:   r.FormValue("delimiter"),
		SampleSize:  atoi(r.FormValue("sample_size"), cfg.SampleSize),
		Separators:  cfg.Separators,
		PreviewRows: atoi(r.FormValue("preview_rows"), cfg.PreviewRows),
	}
}

// табуляцию в форме удобнее передавать словом
func separator(s string) string {
	switch strings.ToLower(s) {
	case `\t`, "tab":
		return "\t"
	}
	return s
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func toBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
