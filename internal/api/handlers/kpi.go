package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/horizon/backend/internal/dataset"
	"github.com/wonny/horizon/backend/internal/report"
	"github.com/wonny/horizon/backend/internal/risk"
	"github.com/wonny/horizon/backend/pkg/logger"
)

// KPIHandler handles financial KPI endpoints
// ⭐ SSOT: KPI API 핸들러는 이 구조체에서만
type KPIHandler struct {
	service  *report.Service
	datasets *dataset.Repository
	defaults report.AnalysisDefaults
	logger   *logger.Logger
}

// NewKPIHandler creates a new KPI handler
func NewKPIHandler(service *report.Service, datasets *dataset.Repository, defaults report.AnalysisDefaults, log *logger.Logger) *KPIHandler {
	return &KPIHandler{
		service:  service,
		datasets: datasets,
		defaults: defaults,
		logger:   log,
	}
}

// KPIReportRequest represents a KPI report request
// dataset만 주면 revenue/expense 분류로 시계열을 찾고,
// 명시적 참조(revenue/operating_expense/...)가 있으면 그것을 우선한다
type KPIReportRequest struct {
	Dataset          string                `json:"dataset,omitempty"`
	Revenue          *SeriesRef            `json:"revenue,omitempty"`
	OperatingExpense *SeriesRef            `json:"operating_expense,omitempty"`
	TotalExpense     *SeriesRef            `json:"total_expense,omitempty"`
	Budget           *SeriesRef            `json:"budget,omitempty"`
	PeriodsPerYear   int                   `json:"periods_per_year,omitempty"`
	RiskFreeRate     *float64              `json:"risk_free_rate,omitempty"`
	ForecastPairs    []report.ForecastPair `json:"forecast_pairs,omitempty"`
	ModelVersion     string                `json:"model_version,omitempty"`
	Save             bool                  `json:"save,omitempty"`
}

// Generate computes a KPI report
// POST /api/v1/kpi-report
func (h *KPIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req KPIReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Dataset == "" && req.Revenue == nil {
		respondError(w, http.StatusBadRequest, "kpi report needs a dataset or a revenue series")
		return
	}

	input, err := h.buildKPIInput(ctx, &req)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	// 예측쌍이 오면 먼저 평가하고 보고서에 붙임
	if len(req.ForecastPairs) > 0 {
		modelVersion := req.ModelVersion
		if modelVersion == "" {
			modelVersion = "default"
		}

		accuracy, err := h.service.EvaluateForecasts(ctx, input.Dataset, modelVersion, req.ForecastPairs, req.Save)
		if err != nil {
			respondDomainError(w, h.logger, err)
			return
		}
		input.Accuracy = accuracy
	}

	result, err := h.service.KPIReport(ctx, input, req.Save)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// buildKPIInput resolves the request's series references
func (h *KPIHandler) buildKPIInput(ctx context.Context, req *KPIReportRequest) (report.KPIInput, error) {
	var input report.KPIInput
	var err error

	// Revenue: 명시적 참조 우선, 없으면 데이터셋의 revenue 분류
	if req.Revenue != nil {
		input.Revenue, err = resolveSeries(ctx, h.datasets, *req.Revenue)
	} else {
		input.Revenue, err = h.datasets.GetSeriesByCategory(ctx, req.Dataset, dataset.CategoryRevenue)
	}
	if err != nil {
		return report.KPIInput{}, err
	}

	if req.OperatingExpense != nil {
		input.OperatingExpense, err = resolveSeries(ctx, h.datasets, *req.OperatingExpense)
		if err != nil {
			return report.KPIInput{}, err
		}
	}

	// TotalExpense: 명시적 참조 우선, 없으면 데이터셋의 expense 분류 (없으면 생략)
	switch {
	case req.TotalExpense != nil:
		input.TotalExpense, err = resolveSeries(ctx, h.datasets, *req.TotalExpense)
		if err != nil {
			return report.KPIInput{}, err
		}
	case req.Dataset != "":
		expense, err := h.datasets.GetSeriesByCategory(ctx, req.Dataset, dataset.CategoryExpense)
		if err == nil {
			input.TotalExpense = expense
		} else if !errors.Is(err, risk.ErrInsufficientData) {
			return report.KPIInput{}, err
		}
	}

	if req.Budget != nil {
		input.Budget, err = resolveSeries(ctx, h.datasets, *req.Budget)
		if err != nil {
			return report.KPIInput{}, err
		}
	}

	input.Dataset = req.Dataset
	input.PeriodsPerYear = req.PeriodsPerYear
	input.RiskFreeRate = h.defaults.RiskFreeRate
	if req.RiskFreeRate != nil {
		input.RiskFreeRate = *req.RiskFreeRate
	}

	if input.Dataset == "" {
		input.Dataset = input.Revenue.Name
	}

	return input, nil
}

// GetReport returns the latest persisted KPI report for a dataset
// GET /api/v1/reports/kpi/{dataset}
func (h *KPIHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["dataset"]

	stored, err := h.service.LatestKPIReport(ctx, name)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get KPI report")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve KPI report")
		return
	}
	if stored == nil {
		respondError(w, http.StatusNotFound, "no KPI report found for dataset "+name)
		return
	}

	respondJSON(w, http.StatusOK, stored)
}
