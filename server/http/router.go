package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"csv-sniffer/internal/config"
	"csv-sniffer/internal/metrics"
	"csv-sniffer/internal/middleware"
	sniffHnd "csv-sniffer/internal/sniff/handler"
	sniffSvc "csv-sniffer/internal/sniff/service"
	"csv-sniffer/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, reg *prometheus.Registry) *chi.Mux {
	m := metrics.New(reg)
	h := sniffHnd.New(cfg, sniffSvc.New(m, logger), m, logger)

	r := chi.NewRouter()

	// порядок важен: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	// health-check и метрики
	r.Get("/health", handlers.Health)
	r.Method("GET", "/metrics", metrics.Handler(reg))

	// основные эндпоинты
	r.Post("/sniff", h.Sniff)
	r.Post("/rows", h.Rows)

	return r
}
