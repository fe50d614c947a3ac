package commands

import (
	"fmt"

	"github.com/wonny/horizon/backend/internal/dataset"
	"github.com/wonny/horizon/backend/internal/report"
	"github.com/wonny/horizon/backend/internal/risk"
	"github.com/wonny/horizon/backend/pkg/config"
	"github.com/wonny/horizon/backend/pkg/database"
	"github.com/wonny/horizon/backend/pkg/logger"
	redispkg "github.com/wonny/horizon/backend/pkg/redis"
)

// services bundles the shared dependency graph of the CLI commands
// ⭐ SSOT: config → logger → db → redis → repos → service 조립은 여기서만
type services struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redispkg.Client
	datasets *dataset.Repository
	reports  *report.Repository
	service  *report.Service
	defaults report.AnalysisDefaults
}

// initServices wires the full dependency graph (db 연결 포함)
func initServices() (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redispkg.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	datasets := dataset.NewRepository(db.Pool)
	reports := report.NewRepository(db.Pool)

	engine := risk.NewEngine()
	assembler := report.NewAssembler(engine, log.Zerolog())
	cache := redispkg.NewCache(redisClient, "horizon")
	service := report.NewService(assembler, reports, cache, cfg.Redis.CacheTTL, log.Zerolog())

	return &services{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    redisClient,
		datasets: datasets,
		reports:  reports,
		service:  service,
		defaults: report.DefaultsFromConfig(cfg),
	}, nil
}

// Close releases the db and redis connections
func (s *services) Close() {
	if s.redis != nil {
		s.redis.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// initOffline wires only config + logger + a standalone assembler (db 없이)
// CSV 입력만 다루는 분석/시뮬레이션 경로에서 사용
func initOffline() (*config.Config, *logger.Logger, *report.Assembler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)
	assembler := report.NewAssembler(risk.NewEngine(), log.Zerolog())

	return cfg, log, assembler, nil
}
