package risk

import (
	"fmt"
	"math"
)

// =============================================================================
// Correlation Matrix
// =============================================================================

// CorrelationMatrix 시리즈 간 Pearson 상관계수 행렬
// Matrix[i][j]는 Names[i]와 Names[j]의 상관계수, 대각선은 관례상 1.0
// 분산 0인 시리즈는 상관 정의 불가 → 해당 셀 0.0, Degenerate에 이름 기록 (NaN 금지)
type CorrelationMatrix struct {
	Names      []string    `json:"names"`
	Matrix     [][]float64 `json:"matrix"`
	Degenerate []string    `json:"degenerate,omitempty"`
}

// CalculateCorrelationMatrix 수익률 배열들의 상관계수 행렬 계산
// names[i]는 returnSeries[i]의 라벨, 두 슬라이스 길이가 다르면 호출자 버그
// 모든 수익률 배열은 같은 길이여야 함 (정렬된 관측치 전제)
func CalculateCorrelationMatrix(names []string, returnSeries [][]float64) (*CorrelationMatrix, error) {
	if len(names) != len(returnSeries) {
		return nil, fmt.Errorf("%w: %d names for %d return series",
			ErrAlignment, len(names), len(returnSeries))
	}

	n := len(returnSeries)
	if n == 0 {
		return &CorrelationMatrix{Names: []string{}, Matrix: [][]float64{}}, nil
	}

	// 길이 정합성 검사: 첫 시리즈 기준 전부 동일해야 함
	obsCount := len(returnSeries[0])
	for i := 1; i < n; i++ {
		if len(returnSeries[i]) != obsCount {
			return nil, fmt.Errorf("%w: series %q has %d observations, %q has %d",
				ErrAlignment, names[i], len(returnSeries[i]), names[0], obsCount)
		}
	}
	if obsCount < 2 {
		return nil, fmt.Errorf("%w: got %d observations, need at least 2 for correlation",
			ErrInsufficientData, obsCount)
	}

	// 분산 0 시리즈 선별 (셀 계산 전에 한 번만 판정)
	degenerateSet := make(map[int]bool)
	var degenerate []string
	for i := 0; i < n; i++ {
		if StdDev(returnSeries[i]) == 0 {
			degenerateSet[i] = true
			degenerate = append(degenerate, names[i])
		}
	}

	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1.0
	}

	// 상삼각 계산 후 대칭 채움
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var corr float64
			if degenerateSet[i] || degenerateSet[j] {
				corr = 0.0
			} else {
				corr = pearson(returnSeries[i], returnSeries[j])
			}
			matrix[i][j] = corr
			matrix[j][i] = corr
		}
	}

	matrixNames := make([]string, n)
	copy(matrixNames, names)

	return &CorrelationMatrix{
		Names:      matrixNames,
		Matrix:     matrix,
		Degenerate: degenerate,
	}, nil
}

// pearson 두 등길이 배열의 Pearson 상관계수
// 분모 0이면 0 반환, 호출자가 분산 0을 이미 걸러내는 전제의 방어선
func pearson(x, y []float64) float64 {
	meanX := Mean(x)
	meanY := Mean(y)

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	denom := math.Sqrt(varX * varY)
	if denom == 0 {
		return 0
	}

	corr := cov / denom
	// 부동소수점 오차로 인한 [-1, 1] 이탈 방지
	if corr > 1 {
		corr = 1
	}
	if corr < -1 {
		corr = -1
	}
	return corr
}
