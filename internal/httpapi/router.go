package httpapi

import (
	"net/http"
	"time"

	"firesafe-engine/internal/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter 注册全部路由；live 为 WebSocket 镜像（可为 nil）
func NewRouter(review ReviewService, sensors SensorService, live http.Handler, verifier *auth.TokenVerifier, logger *zap.Logger) *chi.Mux {
	reviewHandler := NewReviewHandler(review, logger)
	sensorHandler := NewSensorHandler(sensors, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Success("ok"))
	})
	if live != nil {
		r.With(auth.Middleware(verifier), auth.RequireCapability(auth.CapabilityAdmin)).Get("/ws", live.ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(verifier))

		r.Route("/sensors", func(r chi.Router) {
			r.Use(auth.RequireCapability(auth.CapabilityAdmin))
			r.Post("/readings", sensorHandler.AddReading)
			r.Get("/readings", sensorHandler.ListReadings)
			r.Get("/alerts", sensorHandler.ListAlerts)
			r.Get("/series", sensorHandler.Series)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", reviewHandler.CreateProject)
			r.Get("/{id}/review", reviewHandler.Review)
			r.Get("/{id}/report", reviewHandler.Report)
			r.Get("/{id}/report.xlsx", reviewHandler.ReportXLSX)
			r.Get("/{id}/code-analysis", reviewHandler.CodeAnalysis)
			r.Get("/{id}/reports", reviewHandler.ListReports)
		})
	})

	return r
}

// accessLog 用 zap 记录访问日志
func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
