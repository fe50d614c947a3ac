package dataset

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/horizon/backend/internal/risk"
)

// ErrNotFound 요청한 데이터셋이 존재하지 않음
var ErrNotFound = errors.New("dataset not found")

// =============================================================================
// Dataset Types
// =============================================================================

// Category 시계열 분류
type Category string

const (
	CategoryRevenue  Category = "revenue"
	CategoryExpense  Category = "expense"
	CategoryCashFlow Category = "cash_flow"
	CategoryPrice    Category = "price"
	CategoryCustom   Category = "custom"
)

// ParseCategory 문자열을 Category로 검증 (대소문자 무시, 빈 문자열 → custom)
func ParseCategory(s string) (Category, error) {
	normalized := Category(strings.ToLower(strings.TrimSpace(s)))
	switch normalized {
	case CategoryRevenue, CategoryExpense, CategoryCashFlow, CategoryPrice, CategoryCustom:
		return normalized, nil
	case "":
		return CategoryCustom, nil
	default:
		return "", fmt.Errorf("%w: unknown category %q", risk.ErrInvalidConfig, s)
	}
}

// Dataset 업로드된 시계열 데이터셋 헤더
// ⭐ SSOT: 이름이 유일 키, 같은 이름 재업로드는 교체
type Dataset struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Category       Category  `json:"category"`
	SourceFilename string    `json:"source_filename,omitempty"`
	RowCount       int       `json:"row_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Observation 개별 관측치 (행 단위 분류 지원)
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Category  Category  `json:"category,omitempty"` // 빈 값이면 데이터셋 분류 사용
}

// =============================================================================
// Series Conversion
// =============================================================================

// SeriesFromObservations 관측치를 정렬해 risk.Series로 변환
// 타임스탬프 순서로 정렬한다. 중복 타임스탬프는 NewSeries에서 거부됨.
func SeriesFromObservations(name string, observations []Observation) (risk.Series, error) {
	if len(observations) == 0 {
		return risk.Series{}, fmt.Errorf("%w: dataset %q has no observations",
			risk.ErrInsufficientData, name)
	}

	points := make([]risk.Point, len(observations))
	for i, o := range observations {
		points[i] = risk.Point{Timestamp: o.Timestamp, Value: o.Value}
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return risk.NewSeries(name, points)
}
