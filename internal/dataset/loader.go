package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/horizon/backend/internal/risk"
)

// =============================================================================
// CSV Loading
// =============================================================================

// timestampFormats 지원 타임스탬프 형식 (RFC3339 또는 날짜만)
var timestampFormats = []string{time.RFC3339, "2006-01-02"}

// ParseTimestamp CSV/API 공용 타임스탬프 파서
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q (want RFC3339 or YYYY-MM-DD)", s)
}

// LoadCSV reads observations from CSV rows of timestamp,value[,category]
// 첫 행의 타임스탬프가 파싱되지 않으면 헤더로 보고 건너뛴다.
// 행 오류는 행 번호와 함께 즉시 실패 (fail-closed, 부분 적재 없음).
func LoadCSV(r io.Reader, defaultCategory Category) ([]Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // 2열(분류 생략)과 3열 모두 허용
	reader.TrimLeadingSpace = true

	var observations []Observation
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: csv line %d: %v", risk.ErrInvalidConfig, line, err)
		}

		if len(record) < 2 {
			return nil, fmt.Errorf("%w: csv line %d: expected timestamp,value[,category]",
				risk.ErrInvalidConfig, line)
		}

		ts, err := ParseTimestamp(strings.TrimSpace(record[0]))
		if err != nil {
			if line == 1 {
				continue // 헤더 행
			}
			return nil, fmt.Errorf("%w: csv line %d: %v", risk.ErrInvalidConfig, line, err)
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: csv line %d: invalid value %q",
				risk.ErrInvalidConfig, line, record[1])
		}

		category := defaultCategory
		if len(record) >= 3 && strings.TrimSpace(record[2]) != "" {
			category, err = ParseCategory(strings.TrimSpace(record[2]))
			if err != nil {
				return nil, fmt.Errorf("csv line %d: %w", line, err)
			}
		}

		observations = append(observations, Observation{
			Timestamp: ts,
			Value:     value,
			Category:  category,
		})
	}

	if len(observations) == 0 {
		return nil, fmt.Errorf("%w: csv contains no observations", risk.ErrInsufficientData)
	}

	return observations, nil
}

// LoadCSVFile opens a CSV file; the dataset name is the filename without extension
func LoadCSVFile(path string, defaultCategory Category) (string, []Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	observations, err := LoadCSV(f, defaultCategory)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return name, observations, nil
}
