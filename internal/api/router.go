package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/horizon/backend/internal/api/handlers"
	"github.com/wonny/horizon/backend/pkg/logger"
)

// RouterConfig bundles the handlers and middleware dependencies
type RouterConfig struct {
	Health   *handlers.HealthHandler
	Datasets *handlers.DatasetHandler
	Analysis *handlers.AnalysisHandler
	KPI      *handlers.KPIHandler

	// 계산/업로드 엔드포인트 전용 레이트 리밋 (nil이면 제한 없음)
	AnalysisLimiter   Limiter
	SimulationLimiter Limiter
	UploadLimiter     Limiter

	Logger *logger.Logger
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(rc RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", rc.Health.Check).Methods("GET")

	// API v1
	api := r.PathPrefix("/api/v1").Subrouter()

	// Compute endpoints (rate limited)
	api.Handle("/risk-metrics",
		rateLimitMiddleware(rc.AnalysisLimiter, rc.Logger,
			http.HandlerFunc(rc.Analysis.RiskMetrics))).Methods("POST")
	api.Handle("/run-simulation",
		rateLimitMiddleware(rc.SimulationLimiter, rc.Logger,
			http.HandlerFunc(rc.Analysis.RunSimulation))).Methods("POST")
	api.HandleFunc("/kpi-report", rc.KPI.Generate).Methods("POST")

	// Persisted reports
	api.HandleFunc("/reports/risk/{dataset}", rc.Analysis.GetRiskReport).Methods("GET")
	api.HandleFunc("/reports/risk/{dataset}/history", rc.Analysis.GetRiskReportHistory).Methods("GET")
	api.HandleFunc("/reports/kpi/{dataset}", rc.KPI.GetReport).Methods("GET")

	// Dataset endpoints
	api.Handle("/datasets",
		rateLimitMiddleware(rc.UploadLimiter, rc.Logger,
			http.HandlerFunc(rc.Datasets.Upload))).Methods("POST")
	api.HandleFunc("/datasets", rc.Datasets.List).Methods("GET")
	api.HandleFunc("/datasets/{name}", rc.Datasets.Delete).Methods("DELETE")

	// Apply middleware
	r.Use(loggingMiddleware(rc.Logger))
	r.Use(recoveryMiddleware(rc.Logger))

	return r
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
