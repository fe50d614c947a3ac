package dataset

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/horizon/backend/internal/risk"
)

// Repository handles dataset persistence
// ⭐ SSOT: 데이터셋 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new dataset repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// =============================================================================
// Schema
// =============================================================================

// schemaStatements 데이터셋 테이블 DDL (db init에서 실행, 멱등)
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS analytics`,

	`CREATE TABLE IF NOT EXISTS analytics.datasets (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		source_filename TEXT,
		row_count INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS analytics.observations (
		id UUID PRIMARY KEY,
		dataset_id UUID NOT NULL REFERENCES analytics.datasets(id) ON DELETE CASCADE,
		timestamp TIMESTAMPTZ NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		category TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_observations_dataset_ts_cat
		ON analytics.observations (dataset_id, timestamp, category)`,
}

// EnsureSchema creates the analytics schema and dataset tables
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply dataset schema: %w", err)
		}
	}
	return nil
}

// DropTables removes dataset tables (db reset용, observations는 CASCADE)
func (r *Repository) DropTables(ctx context.Context) error {
	for _, t := range []string{"analytics.observations", "analytics.datasets"} {
		if _, err := r.pool.Exec(ctx, "DROP TABLE IF EXISTS "+t); err != nil {
			return fmt.Errorf("failed to drop %s: %w", t, err)
		}
	}
	return nil
}

// =============================================================================
// Dataset Headers
// =============================================================================

// SaveDataset upserts a dataset header by name
// 충돌 시 기존 id를 유지해 관측치 FK가 살아있음 (RETURNING으로 역채움)
func (r *Repository) SaveDataset(ctx context.Context, d *Dataset) error {
	query := `
		INSERT INTO analytics.datasets (id, name, category, source_filename, row_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			category = EXCLUDED.category,
			source_filename = EXCLUDED.source_filename,
			updated_at = now()
		RETURNING id, row_count, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		uuid.New().String(), d.Name, string(d.Category), d.SourceFilename, d.RowCount,
	).Scan(&d.ID, &d.RowCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save dataset %s: %w", d.Name, err)
	}

	return nil
}

// GetDataset retrieves a dataset header by name
// 없으면 (nil, nil)
func (r *Repository) GetDataset(ctx context.Context, name string) (*Dataset, error) {
	query := `
		SELECT id, name, category, source_filename, row_count, created_at, updated_at
		FROM analytics.datasets
		WHERE name = $1
	`

	var d Dataset
	var sourceFilename *string
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&d.ID, &d.Name, &d.Category, &sourceFilename, &d.RowCount, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset %s: %w", name, err)
	}

	if sourceFilename != nil {
		d.SourceFilename = *sourceFilename
	}
	return &d, nil
}

// ListDatasets retrieves all dataset headers ordered by name
func (r *Repository) ListDatasets(ctx context.Context) ([]Dataset, error) {
	query := `
		SELECT id, name, category, source_filename, row_count, created_at, updated_at
		FROM analytics.datasets
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []Dataset
	for rows.Next() {
		var d Dataset
		var sourceFilename *string
		if err := rows.Scan(
			&d.ID, &d.Name, &d.Category, &sourceFilename, &d.RowCount, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		if sourceFilename != nil {
			d.SourceFilename = *sourceFilename
		}
		datasets = append(datasets, d)
	}
	return datasets, rows.Err()
}

// DeleteDataset removes a dataset and its observations (CASCADE)
func (r *Repository) DeleteDataset(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM analytics.datasets WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete dataset %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// =============================================================================
// Observations
// =============================================================================

// BulkInsertObservations replaces a dataset's observations via COPY
// 재업로드는 교체 의미: 기존 행 삭제 후 CopyFrom, row_count 갱신까지 한 트랜잭션
func (r *Repository) BulkInsertObservations(ctx context.Context, datasetID string, defaultCategory Category, observations []Observation) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM analytics.observations WHERE dataset_id = $1`, datasetID); err != nil {
		return 0, fmt.Errorf("failed to clear observations: %w", err)
	}

	now := time.Now()
	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"analytics", "observations"},
		[]string{"id", "dataset_id", "timestamp", "value", "category", "created_at"},
		pgx.CopyFromSlice(len(observations), func(i int) ([]any, error) {
			o := observations[i]
			category := o.Category
			if category == "" {
				category = defaultCategory
			}
			return []any{uuid.New().String(), datasetID, o.Timestamp, o.Value, string(category), now}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy observations: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE analytics.datasets SET row_count = $2, updated_at = now() WHERE id = $1`,
		datasetID, copied); err != nil {
		return 0, fmt.Errorf("failed to update row count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit observations: %w", err)
	}

	return copied, nil
}

// GetSeries retrieves all observations of a dataset as a risk.Series
// 타임스탬프 오름차순, NewSeries의 순서 검증을 그대로 통과해야 정상 데이터
// 분류가 2개 이상인 데이터셋은 GetSeriesByCategory로 분류를 지정해야 함
func (r *Repository) GetSeries(ctx context.Context, name string) (risk.Series, error) {
	return r.getSeries(ctx, name, "")
}

// GetSeriesByCategory retrieves observations of one category as a risk.Series
// 혼합 분류 데이터셋에서 KPI용 시계열 추출에 사용
func (r *Repository) GetSeriesByCategory(ctx context.Context, name string, category Category) (risk.Series, error) {
	return r.getSeries(ctx, name, category)
}

func (r *Repository) getSeries(ctx context.Context, name string, category Category) (risk.Series, error) {
	d, err := r.GetDataset(ctx, name)
	if err != nil {
		return risk.Series{}, err
	}
	if d == nil {
		return risk.Series{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	query := `
		SELECT timestamp, value, category
		FROM analytics.observations
		WHERE dataset_id = $1 AND ($2 = '' OR category = $2)
		ORDER BY timestamp ASC
	`

	rows, err := r.pool.Query(ctx, query, d.ID, string(category))
	if err != nil {
		return risk.Series{}, fmt.Errorf("failed to query observations for %s: %w", name, err)
	}
	defer rows.Close()

	var points []risk.Point
	seen := make(map[Category]struct{})
	for rows.Next() {
		var p risk.Point
		var rowCategory string
		if err := rows.Scan(&p.Timestamp, &p.Value, &rowCategory); err != nil {
			return risk.Series{}, fmt.Errorf("failed to scan observation: %w", err)
		}
		seen[Category(rowCategory)] = struct{}{}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return risk.Series{}, err
	}

	// 분류 혼합 데이터셋은 타임스탬프가 분류 간에 겹칠 수 있어
	// 단일 시계열로 읽을 수 없음: 분류 지정을 요구
	if category == "" && len(seen) > 1 {
		return risk.Series{}, mixedCategoryError(name, seen)
	}

	seriesName := name
	if category != "" {
		seriesName = fmt.Sprintf("%s:%s", name, category)
	}
	if len(points) == 0 {
		return risk.Series{}, fmt.Errorf("%w: dataset %q has no observations",
			risk.ErrInsufficientData, seriesName)
	}
	return risk.NewSeries(seriesName, points)
}

// mixedCategoryError 분류 필터 없이 혼합 데이터셋을 읽은 경우의 안내 오류
func mixedCategoryError(name string, seen map[Category]struct{}) error {
	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)

	return fmt.Errorf("%w: dataset %q mixes categories (%s); pass a category to select one series",
		risk.ErrInvalidConfig, name, strings.Join(categories, ", "))
}

// GetCategories lists the distinct observation categories of a dataset
func (r *Repository) GetCategories(ctx context.Context, name string) ([]Category, error) {
	query := `
		SELECT DISTINCT o.category
		FROM analytics.observations o
		JOIN analytics.datasets d ON d.id = o.dataset_id
		WHERE d.name = $1
		ORDER BY o.category
	`

	rows, err := r.pool.Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories for %s: %w", name, err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, Category(c))
	}
	return categories, rows.Err()
}
