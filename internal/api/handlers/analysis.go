package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/horizon/backend/internal/dataset"
	"github.com/wonny/horizon/backend/internal/report"
	"github.com/wonny/horizon/backend/internal/risk"
	"github.com/wonny/horizon/backend/pkg/logger"
)

// AnalysisHandler handles the risk analysis compute endpoints
// ⭐ SSOT: 리스크 분석 API 핸들러는 이 구조체에서만
type AnalysisHandler struct {
	service  *report.Service
	datasets *dataset.Repository
	defaults report.AnalysisDefaults
	logger   *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service *report.Service, datasets *dataset.Repository, defaults report.AnalysisDefaults, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service:  service,
		datasets: datasets,
		defaults: defaults,
		logger:   log,
	}
}

// RiskMetricsRequest represents a risk report request
// series는 인라인 points 또는 저장된 데이터셋 참조의 혼합 허용
type RiskMetricsRequest struct {
	Series     []SeriesRef              `json:"series"`
	ReturnType string                   `json:"return_type,omitempty"`
	Config     *StatsConfigRequest      `json:"config,omitempty"`
	Simulation *SimulationConfigRequest `json:"simulation,omitempty"`
	StartValue float64                  `json:"start_value,omitempty"`
	Scenarios  []risk.Scenario          `json:"scenarios,omitempty"`
	Weights    map[string]float64       `json:"weights,omitempty"`
	Limits     *risk.RiskLimits         `json:"limits,omitempty"`
	Save       bool                     `json:"save,omitempty"`
}

// RiskMetrics assembles a full risk report
// POST /api/v1/risk-metrics
func (h *AnalysisHandler) RiskMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RiskMetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Series) == 0 {
		respondError(w, http.StatusBadRequest, "series must not be empty")
		return
	}

	returnType, err := parseReturnType(req.ReturnType, h.defaults.ReturnType)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	series := make([]risk.Series, 0, len(req.Series))
	for _, ref := range req.Series {
		s, err := resolveSeries(ctx, h.datasets, ref)
		if err != nil {
			respondDomainError(w, h.logger, err)
			return
		}
		series = append(series, s)
	}

	input := report.AssembleInput{
		Series:     series,
		ReturnType: returnType,
		Stats:      req.Config.resolve(h.defaults.Stats),
		StartValue: req.StartValue,
		Scenarios:  req.Scenarios,
		Weights:    req.Weights,
		Limits:     req.Limits,
	}
	if req.Simulation != nil {
		cfg := req.Simulation.resolve(h.defaults.Simulation)
		input.Simulation = &cfg
	}

	result, err := h.service.RiskReport(ctx, input, req.Save)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// RunSimulationRequest represents a standalone Monte Carlo request
// 분포 파라미터(input)를 직접 주거나, 시계열(dataset/series)에서 추정
type RunSimulationRequest struct {
	Dataset    string                   `json:"dataset,omitempty"`
	Series     *SeriesRef               `json:"series,omitempty"`
	ReturnType string                   `json:"return_type,omitempty"`
	StartValue float64                  `json:"start_value,omitempty"`
	Input      *risk.SimulationInput    `json:"input,omitempty"`
	Config     *SimulationConfigRequest `json:"config,omitempty"`
	Save       bool                     `json:"save,omitempty"`
}

// RunSimulation runs a Monte Carlo simulation
// POST /api/v1/run-simulation
func (h *AnalysisHandler) RunSimulation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RunSimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg := req.Config.resolve(h.defaults.Simulation)

	// 파라미터 직접 지정 모드
	if req.Input != nil {
		label := req.Dataset
		if label == "" {
			label = "params"
		}

		result, err := h.service.SimulationRunFromParams(ctx, label, *req.Input, cfg, req.Save)
		if err != nil {
			respondDomainError(w, h.logger, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
		return
	}

	// 시계열 추정 모드
	var ref SeriesRef
	switch {
	case req.Series != nil:
		ref = *req.Series
	case req.Dataset != "":
		ref = SeriesRef{Dataset: req.Dataset}
	default:
		respondError(w, http.StatusBadRequest, "simulation needs input params, a series, or a dataset")
		return
	}

	s, err := resolveSeries(ctx, h.datasets, ref)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	returnType, err := parseReturnType(req.ReturnType, h.defaults.ReturnType)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	returns, err := s.Returns(returnType)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	startValue := req.StartValue
	if startValue == 0 {
		startValue = s.Points[len(s.Points)-1].Value
	}

	result, err := h.service.SimulationRun(ctx, s.Name, returns, startValue, cfg, req.Save)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetRiskReport returns the latest persisted risk report for a dataset
// GET /api/v1/reports/risk/{dataset}
func (h *AnalysisHandler) GetRiskReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["dataset"]

	stored, err := h.service.LatestRiskReport(ctx, name)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get risk report")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve risk report")
		return
	}
	if stored == nil {
		respondError(w, http.StatusNotFound, "no risk report found for dataset "+name)
		return
	}

	respondJSON(w, http.StatusOK, stored)
}

// GetRiskReportHistory returns recent persisted report rows for a dataset
// GET /api/v1/reports/risk/{dataset}/history?limit=N (기본 30, 최대 365)
func (h *AnalysisHandler) GetRiskReportHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["dataset"]

	limit := 30
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > 365 {
		limit = 365
	}

	reports, err := h.service.RiskReportHistory(ctx, name, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get risk report history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve risk report history")
		return
	}
	if len(reports) == 0 {
		respondError(w, http.StatusNotFound, "no risk reports found for dataset "+name)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dataset": name,
		"count":   len(reports),
		"reports": reports,
	})
}
