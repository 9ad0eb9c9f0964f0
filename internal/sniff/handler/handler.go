package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"csv-sniffer/internal/config"
	"csv-sniffer/internal/csvreader"
	"csv-sniffer/internal/lines"
	"csv-sniffer/internal/metrics"
	"csv-sniffer/internal/middleware"
	"csv-sniffer/internal/sniff/service"
)

const (
	multipartMemory = 32 << 20 // остальное multipart сбрасывает во временные файлы
	flushEvery      = 100
)

// Handler обслуживает /sniff и /rows.
type Handler struct {
	cfg     config.Config
	svc     *service.Service
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func New(cfg config.Config, svc *service.Service, m *metrics.Metrics, logger zerolog.Logger) *Handler {
	return &Handler{cfg: cfg, svc: svc, metrics: m, log: logger}
}

// upload достаёт файл из формы; закрыть его обязан вызывающий.
func upload(r *http.Request) (multipart.File, lines.Source, string, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, nil, "", err
		}
		return nil, nil, "", badRequest{fmt.Errorf("bad multipart form: %w", err)}
	}
	f, fh, err := r.FormFile("file")
	if err != nil {
		return nil, nil, "", badRequest{fmt.Errorf("missing file: %w", err)}
	}
	return f, lines.Section{Label: fh.Filename, R: f, Size: fh.Size}, fh.Filename, nil
}

type badRequest struct{ error }

func (e badRequest) Unwrap() error { return e.error }

func (h *Handler) fail(w http.ResponseWriter, log zerolog.Logger, err error) {
	var br badRequest
	if errors.As(err, &br) {
		_ = writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_form"})
		return
	}
	status, _ := classify(err)
	ev := log.Warn()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).Int("status", status).Msg("request failed")
	writeError(w, err)
}

// Sniff отвечает отчётом об определённом диалекте файла.
func (h *Handler) Sniff(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer h.metrics.ObserveSince("sniff", start)
	log := h.log.With().Str("req_id", middleware.GetRequestID(r)).Logger()

	f, src, name, err := upload(r)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	defer f.Close()

	rep, err := h.svc.Sniff(r.Context(), src, name, options(r, h.cfg))
	if err != nil {
		h.fail(w, log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, rep); err != nil {
		log.Error().Err(err).Msg("write json")
		return
	}
	log.Info().
		Str("file", name).
		Str("separator", rep.Separator).
		Int("rows", rep.Rows).
		Dur("elapsed", time.Since(start)).
		Msg("sniff done")
}

type rowLine struct {
	Line   int               `json:"line,omitempty"`
	Values map[string]string `json:"values,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Rows отдаёт строки файла потоком NDJSON, по объекту на строку.
// Колонки можно выбрать параметром columns=a,b (варианты через "|").
func (h *Handler) Rows(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer h.metrics.ObserveSince("rows", start)
	log := h.log.With().Str("req_id", middleware.GetRequestID(r)).Logger()

	f, src, name, err := upload(r)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	defer f.Close()

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	wrote := false
	st, err := h.svc.Stream(r.Context(), src, name, options(r, h.cfg), splitList(r.FormValue("columns")),
		func(row csvreader.Row, rowErr error) error {
			if !wrote {
				wrote = true
				w.Header().Set("Content-Type", "application/x-ndjson")
				w.WriteHeader(http.StatusOK)
			}
			line := rowLine{Line: row.Line}
			if rowErr != nil {
				line.Error = errors.Unwrap(rowErr).Error()
			} else {
				line.Values = row.Map()
			}
			if err := enc.Encode(line); err != nil {
				return err
			}
			if flusher != nil && row.Line%flushEvery == 0 {
				flusher.Flush()
			}
			return nil
		})
	if err != nil {
		if !wrote {
			h.fail(w, log, err)
			return
		}
		// статус уже ушёл: сообщаем об ошибке последней строкой
		log.Error().Err(err).Msg("rows stream aborted")
		_ = enc.Encode(rowLine{Error: err.Error()})
		return
	}
	if !wrote {
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
	}
	log.Info().
		Str("file", name).
		Int("rows", st.Rows).
		Int("bad_rows", st.BadRows).
		Dur("elapsed", time.Since(start)).
		Msg("rows done")
}
