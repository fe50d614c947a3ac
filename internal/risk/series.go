package risk

import (
	"fmt"
	"math"
	"time"
)

// =============================================================================
// Time Series & Return Normalization
// =============================================================================

// Point 시계열 관측치 (타임스탬프, 값)
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series 이름 있는 시계열 (불변)
// ⭐ SSOT: 타임스탬프는 엄격히 증가, 중복 없음 (생성 시점에 검증)
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// NewSeries 시계열 생성 (타임스탬프 순서 검증)
// 정렬되지 않았거나 중복 타임스탬프가 있으면 ErrInvalidConfig 반환
// 재정렬하지 않는다 (호출자가 정렬된 데이터를 보장해야 함)
func NewSeries(name string, points []Point) (Series, error) {
	for i := 1; i < len(points); i++ {
		prev, curr := points[i-1].Timestamp, points[i].Timestamp
		if curr.Equal(prev) {
			return Series{}, fmt.Errorf("%w: series %q has duplicate timestamp %s",
				ErrInvalidConfig, name, curr.Format(time.RFC3339))
		}
		if curr.Before(prev) {
			return Series{}, fmt.Errorf("%w: series %q timestamps must be strictly increasing (index %d)",
				ErrInvalidConfig, name, i)
		}
	}

	return Series{Name: name, Points: points}, nil
}

// Len 관측치 수
func (s Series) Len() int {
	return len(s.Points)
}

// Values 값 배열 복사 반환
func (s Series) Values() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Value
	}
	return values
}

// Returns 주기별 수익률 계산 (길이 n-1, 원본 순서 유지)
// - 관측치 2개 미만: ErrInsufficientData
// - 분모(직전 값)가 0: ErrDegenerateValue
// - log 수익률은 양수 값만 허용
// 갭은 그대로 보존, 리샘플링/보간 없음
func (s Series) Returns(returnType ReturnType) ([]float64, error) {
	if len(s.Points) < 2 {
		return nil, fmt.Errorf("%w: series %q has %d observations, need at least 2",
			ErrInsufficientData, s.Name, len(s.Points))
	}

	returns := make([]float64, len(s.Points)-1)
	for i := 1; i < len(s.Points); i++ {
		prev := s.Points[i-1].Value
		curr := s.Points[i].Value

		switch returnType {
		case ReturnLog:
			if prev <= 0 || curr <= 0 {
				return nil, fmt.Errorf("%w: series %q has non-positive value at index %d (log returns require positive values)",
					ErrDegenerateValue, s.Name, i)
			}
			returns[i-1] = math.Log(curr / prev)
		case ReturnSimple:
			if prev == 0 {
				return nil, fmt.Errorf("%w: series %q has zero value at index %d",
					ErrDegenerateValue, s.Name, i-1)
			}
			returns[i-1] = (curr - prev) / prev
		default:
			return nil, fmt.Errorf("%w: unknown return type %q", ErrInvalidConfig, returnType)
		}
	}

	return returns, nil
}

// CheckAlignment 다변량 통계용 정렬 검증
// 모든 시계열의 길이와 타임스탬프가 일치해야 함 (불일치 시 ErrAlignment)
func CheckAlignment(series []Series) error {
	if len(series) < 2 {
		return nil
	}

	base := series[0]
	for _, s := range series[1:] {
		if s.Len() != base.Len() {
			return fmt.Errorf("%w: series %q has %d observations, series %q has %d",
				ErrAlignment, base.Name, base.Len(), s.Name, s.Len())
		}
		for i := range s.Points {
			if !s.Points[i].Timestamp.Equal(base.Points[i].Timestamp) {
				return fmt.Errorf("%w: series %q and %q differ at index %d (%s vs %s)",
					ErrAlignment, base.Name, s.Name, i,
					base.Points[i].Timestamp.Format(time.RFC3339),
					s.Points[i].Timestamp.Format(time.RFC3339))
			}
		}
	}

	return nil
}
