package risk

import "errors"

// =============================================================================
// Error Taxonomy
// =============================================================================

// 모든 검증 오류는 수치 계산 전에 감지되어 그대로 호출자에게 전달된다.
// 잘못된 입력을 기본값으로 대체하지 않는다 (fail-closed).
// 호출자는 errors.Is로 분류한다. 래핑은 fmt.Errorf("%w: ...") 사용.
var (
	// ErrInsufficientData 요청한 통계에 비해 관측치가 부족함
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDegenerateValue 분모가 0이 되는 값이 포함됨 (수익률 계산 불가)
	ErrDegenerateValue = errors.New("degenerate value")

	// ErrAlignment 다변량 통계에서 시계열 길이/타임스탬프 불일치
	ErrAlignment = errors.New("series alignment mismatch")

	// ErrInvalidConfig 설정 오류 (신뢰수준 범위, 경로 수, 기간 등)
	ErrInvalidConfig = errors.New("invalid configuration")
)
