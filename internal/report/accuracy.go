package report

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/horizon/backend/internal/risk"
)

// =============================================================================
// Forecast Accuracy Evaluation
// =============================================================================

// ForecastPair 예측-실제 쌍 (백테스트 검증용)
type ForecastPair struct {
	Timestamp time.Time `json:"timestamp"`
	Predicted float64   `json:"predicted"`
	Actual    float64   `json:"actual"`
}

// AccuracyReport 예측 정확도 리포트
// ⭐ SSOT: 오차 = actual - predicted (MeanError 부호 = 편향 방향)
type AccuracyReport struct {
	ModelVersion string           `json:"model_version"`
	SampleCount  int              `json:"sample_count"`
	MAE          float64          `json:"mae"`
	RMSE         float64          `json:"rmse"`
	MAPE         float64          `json:"mape"`         // actual=0 쌍 제외 후 평균
	MAPESkipped  int              `json:"mape_skipped"` // actual=0으로 제외된 쌍 수
	R2           risk.RatioResult `json:"r2"`           // 실제값 분산 0이면 Defined=false
	HitRate      float64          `json:"hit_rate"`     // 방향성 적중률
	MeanError    float64          `json:"mean_error"`   // 편향 (bias)
	EvaluatedAt  time.Time        `json:"evaluated_at"`
}

// Evaluate 예측-실제 쌍에서 정확도 지표 계산
// 빈 입력은 ErrInsufficientData. MAPE는 actual=0인 쌍을 건너뛰고 개수를 보고한다.
// R²는 실제값 분산이 0이면 NaN 대신 Defined=false로 표시.
func Evaluate(modelVersion string, pairs []ForecastPair) (*AccuracyReport, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: no forecast pairs to evaluate", risk.ErrInsufficientData)
	}

	var sumAbsError, sumSqError, sumError float64
	var sumAbsPct float64
	var mapeCount, hitCount int

	actuals := make([]float64, len(pairs))
	for i, p := range pairs {
		err := p.Actual - p.Predicted
		sumError += err
		sumAbsError += math.Abs(err)
		sumSqError += err * err
		actuals[i] = p.Actual

		if p.Actual != 0 {
			sumAbsPct += math.Abs(err / p.Actual)
			mapeCount++
		}

		// 방향성 적중 (예측과 실제 부호 일치, 0은 양수 취급)
		if (p.Predicted >= 0 && p.Actual >= 0) || (p.Predicted < 0 && p.Actual < 0) {
			hitCount++
		}
	}

	n := float64(len(pairs))

	report := &AccuracyReport{
		ModelVersion: modelVersion,
		SampleCount:  len(pairs),
		MAE:          sumAbsError / n,
		RMSE:         math.Sqrt(sumSqError / n),
		MAPESkipped:  len(pairs) - mapeCount,
		HitRate:      float64(hitCount) / n,
		MeanError:    sumError / n,
		EvaluatedAt:  time.Now(),
	}

	if mapeCount > 0 {
		report.MAPE = sumAbsPct / float64(mapeCount)
	}

	// R² = 1 - SSres/SStot
	meanActual := risk.Mean(actuals)
	var ssTot float64
	for _, a := range actuals {
		d := a - meanActual
		ssTot += d * d
	}
	if ssTot == 0 {
		report.R2 = risk.Undefined()
	} else {
		report.R2 = risk.DefinedRatio(1 - sumSqError/ssTot)
	}

	return report, nil
}
