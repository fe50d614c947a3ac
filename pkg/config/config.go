package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Host string
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Analytics
	Analysis   AnalysisConfig
	Simulation SimulationConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool

	// Report cache
	CacheTTL time.Duration
}

// AnalysisConfig holds risk statistics defaults
// 리스크 통계 기본값 (요청에서 생략 시 적용)
type AnalysisConfig struct {
	ConfidenceLevels []float64 // 보고서에 포함할 신뢰수준 (각각 (0,1))
	RiskFreeRate     float64   // 연간 무위험 수익률
	PeriodsPerYear   int       // 연환산 계수 (일간 데이터 = 252)
	Annualize        bool      // Sharpe 연환산 여부
	ReturnType       string    // simple, log
}

// SimulationConfig holds Monte Carlo defaults
// 몬테카를로 시뮬레이션 기본값
type SimulationConfig struct {
	NumPaths    int       // 시뮬레이션 경로 수
	Horizon     int       // 전방 스텝 수
	Seed        int64     // 0이면 시간 기반 (재현 불가)
	Method      string    // parametric_normal, parametric_t, historical_bootstrap
	StudentTDoF float64   // parametric_t 자유도
	MinSamples  int       // 파라미터 추정 최소 표본 수
	Bands       []float64 // 스텝별 백분위 밴드
	Workers     int       // 0이면 GOMAXPROCS

	// 시뮬레이션 엔드포인트 분당 한도 (0이면 프리셋 기본, 음수면 제한 없음)
	RateLimitPerMin int
}

// SchedulerConfig holds cron schedules (초 단위 표현식)
type SchedulerConfig struct {
	RiskReportSchedule  string
	KPIReportSchedule   string
	MaintenanceSchedule string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Host: getEnv("HOST", "0.0.0.0"),
		Port: getEnv("PORT", "8000"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "horizon"),
			User:            getEnv("DB_USER", "horizon"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", "15m"),
		},

		// Analytics
		Analysis: AnalysisConfig{
			ConfidenceLevels: getEnvAsFloatSlice("ANALYSIS_CONFIDENCE_LEVELS", []float64{0.95, 0.99}),
			RiskFreeRate:     getEnvAsFloat("ANALYSIS_RISK_FREE_RATE", 0.03),
			PeriodsPerYear:   getEnvAsInt("ANALYSIS_PERIODS_PER_YEAR", 252),
			Annualize:        getEnvAsBool("ANALYSIS_ANNUALIZE", true),
			ReturnType:       getEnv("ANALYSIS_RETURN_TYPE", "simple"),
		},

		Simulation: SimulationConfig{
			NumPaths:        getEnvAsInt("SIM_NUM_PATHS", 10000),
			Horizon:         getEnvAsInt("SIM_HORIZON", 21),
			Seed:            getEnvAsInt64("SIM_SEED", 0),
			Method:          getEnv("SIM_METHOD", "parametric_normal"),
			StudentTDoF:     getEnvAsFloat("SIM_STUDENT_T_DOF", 5),
			MinSamples:      getEnvAsInt("SIM_MIN_SAMPLES", 30),
			Bands:           getEnvAsFloatSlice("SIM_BANDS", []float64{5, 25, 50, 75, 95}),
			Workers:         getEnvAsInt("SIM_WORKERS", 0),
			RateLimitPerMin: getEnvAsInt("SIM_RATE_LIMIT_PER_MIN", 0),
		},

		// Scheduler
		Scheduler: SchedulerConfig{
			RiskReportSchedule:  getEnv("SCHED_RISK_REPORT", "0 30 19 * * MON-FRI"),
			KPIReportSchedule:   getEnv("SCHED_KPI_REPORT", "0 0 7 1 * *"),
			MaintenanceSchedule: getEnv("SCHED_MAINTENANCE", "0 0 3 * * *"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
// 잘못된 분석 설정은 요청 시점이 아니라 기동 시점에 실패시킴
func (c *Config) validate() error {
	// Database URL is required
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	// Confidence levels must be strictly inside (0,1), 범위 밖이면 보정하지 않고 거부
	for _, cl := range c.Analysis.ConfidenceLevels {
		if cl <= 0 || cl >= 1 {
			return fmt.Errorf("ANALYSIS_CONFIDENCE_LEVELS: %.4f is outside (0,1)", cl)
		}
	}
	if c.Analysis.PeriodsPerYear < 1 {
		return fmt.Errorf("ANALYSIS_PERIODS_PER_YEAR must be >= 1")
	}
	if rt := c.Analysis.ReturnType; rt != "simple" && rt != "log" {
		return fmt.Errorf("ANALYSIS_RETURN_TYPE must be simple or log")
	}

	if c.Simulation.NumPaths < 1 {
		return fmt.Errorf("SIM_NUM_PATHS must be >= 1")
	}
	if c.Simulation.Horizon < 1 {
		return fmt.Errorf("SIM_HORIZON must be >= 1")
	}
	if c.Simulation.MinSamples < 2 {
		return fmt.Errorf("SIM_MIN_SAMPLES must be >= 2")
	}
	for _, b := range c.Simulation.Bands {
		if b <= 0 || b >= 100 {
			return fmt.Errorf("SIM_BANDS: %.1f is outside (0,100)", b)
		}
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsFloatSlice parses a comma-separated float list (예: "0.95,0.99")
func getEnvAsFloatSlice(key string, defaultValue []float64) []float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return defaultValue
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return defaultValue
	}
	return values
}
