package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/horizon/backend/internal/dataset"
	"github.com/wonny/horizon/backend/internal/risk"
	"github.com/wonny/horizon/backend/pkg/logger"
)

// DatasetHandler handles dataset upload/list/delete endpoints
// ⭐ SSOT: 데이터셋 API 핸들러는 이 구조체에서만
type DatasetHandler struct {
	repo   *dataset.Repository
	logger *logger.Logger
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(repo *dataset.Repository, log *logger.Logger) *DatasetHandler {
	return &DatasetHandler{
		repo:   repo,
		logger: log,
	}
}

// ObservationRequest 업로드 요청의 관측치 한 행
type ObservationRequest struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
	Category  string  `json:"category,omitempty"` // 생략 시 데이터셋 분류
}

// UploadDatasetRequest represents a dataset upload
type UploadDatasetRequest struct {
	Name           string               `json:"name"`
	Category       string               `json:"category,omitempty"`
	SourceFilename string               `json:"source_filename,omitempty"`
	Observations   []ObservationRequest `json:"observations"`
}

// Upload stores a dataset and replaces its observations
// POST /api/v1/datasets
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UploadDatasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Observations) == 0 {
		respondError(w, http.StatusBadRequest, "observations must not be empty")
		return
	}

	category, err := dataset.ParseCategory(req.Category)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	observations, err := parseObservations(req.Observations, category)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	d := &dataset.Dataset{
		Name:           req.Name,
		Category:       category,
		SourceFilename: req.SourceFilename,
	}
	if err := h.repo.SaveDataset(ctx, d); err != nil {
		h.logger.WithError(err).Error("Failed to save dataset")
		respondError(w, http.StatusInternalServerError, "Failed to save dataset")
		return
	}

	copied, err := h.repo.BulkInsertObservations(ctx, d.ID, category, observations)
	if err != nil {
		h.logger.WithError(err).Error("Failed to insert observations")
		respondError(w, http.StatusInternalServerError, "Failed to insert observations")
		return
	}
	d.RowCount = int(copied)

	h.logger.WithFields(map[string]interface{}{
		"dataset": d.Name,
		"rows":    copied,
	}).Info("Dataset uploaded")

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "created",
		"dataset": d,
	})
}

// parseObservations validates timestamps, categories and duplicates
// 업로드 전체가 원자적이므로 첫 오류에서 즉시 실패 (부분 적재 없음)
func parseObservations(rows []ObservationRequest, defaultCategory dataset.Category) ([]dataset.Observation, error) {
	type obsKey struct {
		ts       time.Time
		category dataset.Category
	}
	seen := make(map[obsKey]bool, len(rows))

	observations := make([]dataset.Observation, len(rows))
	for i, row := range rows {
		ts, err := dataset.ParseTimestamp(row.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: observation %d: %v", risk.ErrInvalidConfig, i, err)
		}

		category := defaultCategory
		if row.Category != "" {
			category, err = dataset.ParseCategory(row.Category)
			if err != nil {
				return nil, fmt.Errorf("observation %d: %w", i, err)
			}
		}

		key := obsKey{ts: ts, category: category}
		if seen[key] {
			return nil, fmt.Errorf("%w: observation %d duplicates timestamp %s (category %s)",
				risk.ErrInvalidConfig, i, row.Timestamp, category)
		}
		seen[key] = true

		observations[i] = dataset.Observation{
			Timestamp: ts,
			Value:     row.Value,
			Category:  category,
		}
	}

	return observations, nil
}

// List returns all dataset headers
// GET /api/v1/datasets
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	datasets, err := h.repo.ListDatasets(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list datasets")
		respondError(w, http.StatusInternalServerError, "Failed to list datasets")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(datasets),
		"datasets": datasets,
	})
}

// Delete removes a dataset and its observations
// DELETE /api/v1/datasets/{name}
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]

	if err := h.repo.DeleteDataset(ctx, name); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	h.logger.WithField("dataset", name).Info("Dataset deleted")

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"name":   name,
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondDomainError maps the analytics error taxonomy onto HTTP statuses
// 잘못된 입력 400, 표본 부족 422, 없는 데이터셋 404, 그 외 500
func respondDomainError(w http.ResponseWriter, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, risk.ErrInvalidConfig),
		errors.Is(err, risk.ErrDegenerateValue),
		errors.Is(err, risk.ErrAlignment):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, risk.ErrInsufficientData):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, dataset.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		log.WithError(err).Error("Request failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
