package risk

import (
	"fmt"
	"math"
	"sort"
)

// =============================================================================
// VaR (Value at Risk) Calculation
// =============================================================================

// CalculateVaR 과거 수익률 기반 VaR/CVaR 계산 (Historical Simulation)
// returns: 일별 수익률 배열 (양수=이익, 음수=손실)
// confidence: 신뢰수준 (예: 0.95, 0.99)
// 반환값: VaR/CVaR는 손실을 양수로 표현 (예: 0.05 = 5% 손실 가능)
// CVaR tail이 비는 소표본이면 ErrInsufficientData (VaR만 필요하면 CalculateHistoricalVaR 사용)
func CalculateVaR(returns []float64, confidence float64) (VaRResult, error) {
	if confidence <= 0 || confidence >= 1 {
		return VaRResult{}, fmt.Errorf("%w: confidence level %.4f must be strictly between 0 and 1",
			ErrInvalidConfig, confidence)
	}
	if len(returns) == 0 {
		return VaRResult{}, fmt.Errorf("%w: no returns for historical VaR", ErrInsufficientData)
	}

	// 수익률 정렬 (오름차순: 손실이 앞에)
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	return calculateVaRSorted(sorted, confidence)
}

// CalculateHistoricalVaR 경험 분포 분위수 VaR만 계산 (CVaR 제외)
// CVaR tail이 비는 소표본에서도 VaR 자체는 정의됨
func CalculateHistoricalVaR(returns []float64, confidence float64) (float64, error) {
	if confidence <= 0 || confidence >= 1 {
		return 0, fmt.Errorf("%w: confidence level %.4f must be strictly between 0 and 1",
			ErrInvalidConfig, confidence)
	}
	if len(returns) == 0 {
		return 0, fmt.Errorf("%w: no returns for historical VaR", ErrInsufficientData)
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	return historicalVaRSorted(sorted, confidence), nil
}

// historicalVaRSorted 정렬된 수익률의 (1-c) 분위수 VaR
// 분위수는 인접 순서통계량 사이 선형 보간 (floor 인덱스 방식보다 소표본에서 안정적)
func historicalVaRSorted(sorted []float64, confidence float64) float64 {
	// VaR: (1-confidence) 백분위수, 선형 보간
	// 예: 95% VaR = 하위 5% 백분위수
	threshold := Percentile(sorted, (1.0-confidence)*100)

	// VaR = 손실을 양수로 표현, 손실 없으면 0
	if varValue := -threshold; varValue > 0 {
		return varValue
	}
	return 0
}

// CalculateCVaR 정렬된 수익률의 CVaR (Expected Shortfall) 계산
// 배타적 tail: 최악 floor((1-c)*n)개 관측치 평균, 손실 양수
// tail이 비면 해당 신뢰수준에서 CVaR 정의 불가 → 0으로 속이지 않고 거부
func CalculateCVaR(sorted []float64, confidence float64) (float64, int, error) {
	tailCount := int(math.Floor((1.0 - confidence) * float64(len(sorted))))
	if tailCount == 0 {
		return 0, 0, fmt.Errorf("%w: %d observations leave an empty tail at %.0f%% confidence",
			ErrInsufficientData, len(sorted), confidence*100)
	}

	var sum float64
	for i := 0; i < tailCount; i++ {
		sum += sorted[i]
	}
	avgTailReturn := sum / float64(tailCount)

	// CVaR = 손실을 양수로 표현
	cvar := -avgTailReturn
	if cvar < 0 {
		cvar = 0
	}
	return cvar, tailCount, nil
}

// calculateVaRSorted 정렬된 수익률에 대한 VaR/CVaR 통합 계산 (내부 공용)
// 호출자가 이미 정렬해둔 배열 재사용, 신뢰수준 여러 개를 한 번의 정렬로 처리
func calculateVaRSorted(sorted []float64, confidence float64) (VaRResult, error) {
	varValue := historicalVaRSorted(sorted, confidence)

	cvar, tailCount, err := CalculateCVaR(sorted, confidence)
	if err != nil {
		return VaRResult{}, err
	}

	return VaRResult{
		Confidence:  confidence,
		VaR:         varValue,
		CVaR:        cvar,
		TailSamples: tailCount,
	}, nil
}

// =============================================================================
// Parametric VaR (정규분포 가정)
// =============================================================================

// CalculateParametricVaR 정규분포 가정 VaR 계산
// mean: 평균 수익률
// stdDev: 표준편차
// confidence: 신뢰수준
// VaR = z*stdDev - mean, ES = stdDev*φ(z)/(1-c) - mean (둘 다 손실 양수, 0 하한)
func CalculateParametricVaR(mean, stdDev, confidence float64) (VaRResult, error) {
	if confidence <= 0 || confidence >= 1 {
		return VaRResult{}, fmt.Errorf("%w: confidence level %.4f must be strictly between 0 and 1",
			ErrInvalidConfig, confidence)
	}
	if stdDev < 0 {
		return VaRResult{}, fmt.Errorf("%w: negative standard deviation %.6f", ErrInvalidConfig, stdDev)
	}

	// Z-score for confidence level
	// 95%: 1.645, 99%: 2.326
	z := NormInv(confidence)

	varValue := z*stdDev - mean
	if varValue < 0 {
		varValue = 0
	}

	// Parametric Expected Shortfall
	// ES = stdDev * φ(z) / (1-confidence) - mean
	// φ(z) = 정규분포 pdf at z
	phi := NormPDF(z)
	cvar := stdDev*phi/(1-confidence) - mean
	if cvar < 0 {
		cvar = 0
	}

	return VaRResult{
		Confidence: confidence,
		VaR:        varValue,
		CVaR:       cvar,
	}, nil
}

// =============================================================================
// 정규분포 유틸리티
// =============================================================================

// NormInv 정규분포 역함수 (Quantile Function)
// Beasley-Springer-Moro approximation
func NormInv(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}

	// 일반적인 신뢰수준에 대한 빠른 반환
	switch {
	case p == 0.99:
		return 2.326
	case p == 0.95:
		return 1.645
	case p == 0.90:
		return 1.282
	case p == 0.975:
		return 1.96
	}

	// Beasley-Springer-Moro approximation
	a := []float64{
		-3.969683028665376e+01,
		2.209460984245205e+02,
		-2.759285104469687e+02,
		1.383577518672690e+02,
		-3.066479806614716e+01,
		2.506628277459239e+00,
	}
	b := []float64{
		-5.447609879822406e+01,
		1.615858368580409e+02,
		-1.556989798598866e+02,
		6.680131188771972e+01,
		-1.328068155288572e+01,
	}
	c := []float64{
		-7.784894002430293e-03,
		-3.223964580411365e-01,
		-2.400758277161838e+00,
		-2.549732539343734e+00,
		4.374664141464968e+00,
		2.938163982698783e+00,
	}
	d := []float64{
		7.784695709041462e-03,
		3.224671290700398e-01,
		2.445134137142996e+00,
		3.754408661907416e+00,
	}

	pLow := 0.02425
	pHigh := 1 - pLow

	var q, r float64

	if p < pLow {
		q = math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	} else if p <= pHigh {
		q = p - 0.5
		r = q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	} else {
		q = math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	}
}

// NormPDF 정규분포 확률밀도함수
func NormPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}
