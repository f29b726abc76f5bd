// Package config 提供配置管理
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Engine   EngineConfig   `yaml:"engine"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig API配置
type APIConfig struct {
	RateLimit int           `yaml:"rate_limit"`
	Timeout   time.Duration `yaml:"timeout"`
	CORS      CORSConfig    `yaml:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Origins []string `yaml:"origins"`
}

// EngineConfig 排班引擎配置
type EngineConfig struct {
	// SolveBudget 单次求解尝试的时间预算
	SolveBudget time.Duration `yaml:"solve_budget"`

	// NodeLimit 求解器节点上限（0 为求解器默认值）
	NodeLimit int `yaml:"node_limit"`

	// ToleranceStep 第一档放宽的合同容差
	ToleranceStep float64 `yaml:"tolerance_step"`

	// CoverageWeight 第二档缺员罚权
	CoverageWeight float64 `yaml:"coverage_weight"`

	// SpilloverLimitMinutes 第三档可用性溢出上限（分钟）
	SpilloverLimitMinutes int `yaml:"spillover_limit_minutes"`

	// SpilloverWeight 溢出罚权
	SpilloverWeight float64 `yaml:"spillover_weight"`

	// 默认软约束权重
	FairnessWeight         float64 `yaml:"fairness_weight"`
	PreferenceWeight       float64 `yaml:"preference_weight"`
	ConsecutiveNightWeight float64 `yaml:"consecutive_night_weight"`
	ConsecutiveNightLimit  int     `yaml:"consecutive_night_limit"`

	// 部分排班阈值
	PartialPercentageThreshold int `yaml:"partial_percentage_threshold"`
	PartialExperienceThreshold int `yaml:"partial_experience_threshold"`

	// EnableFallback 约束求解失败后是否允许贪心兜底
	EnableFallback bool `yaml:"enable_fallback"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "zhipai"),
			Env:      getEnv("APP_ENV", "development"),
			Port:     getEnvInt("APP_PORT", 7012),
			LogLevel: getEnv("APP_LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "zhipai"),
			User:            getEnv("DB_USER", "zhipai"),
			Password:        getEnv("DB_PASSWORD", "zhipai123"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		API: APIConfig{
			RateLimit: getEnvInt("API_RATE_LIMIT", 100),
			Timeout:   getEnvDuration("API_TIMEOUT", 30*time.Second),
			CORS: CORSConfig{
				Enabled: getEnvBool("API_CORS_ENABLED", true),
				Origins: []string{"*"},
			},
		},
		Engine: EngineConfig{
			SolveBudget:                getEnvDuration("ENGINE_SOLVE_BUDGET", 10*time.Second),
			NodeLimit:                  getEnvInt("ENGINE_NODE_LIMIT", 0),
			ToleranceStep:              getEnvFloat("ENGINE_TOLERANCE_STEP", 0.05),
			CoverageWeight:             getEnvFloat("ENGINE_COVERAGE_WEIGHT", 100),
			SpilloverLimitMinutes:      getEnvInt("ENGINE_SPILLOVER_LIMIT_MINUTES", 60),
			SpilloverWeight:            getEnvFloat("ENGINE_SPILLOVER_WEIGHT", 10),
			FairnessWeight:             getEnvFloat("ENGINE_FAIRNESS_WEIGHT", 2),
			PreferenceWeight:           getEnvFloat("ENGINE_PREFERENCE_WEIGHT", 1),
			ConsecutiveNightWeight:     getEnvFloat("ENGINE_CONSECUTIVE_NIGHT_WEIGHT", 3),
			ConsecutiveNightLimit:      getEnvInt("ENGINE_CONSECUTIVE_NIGHT_LIMIT", 2),
			PartialPercentageThreshold: getEnvInt("ENGINE_PARTIAL_PERCENTAGE_THRESHOLD", 75),
			PartialExperienceThreshold: getEnvInt("ENGINE_PARTIAL_EXPERIENCE_THRESHOLD", 3),
			EnableFallback:             getEnvBool("ENGINE_ENABLE_FALLBACK", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	return cfg, nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsTest 检查是否为测试环境
func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
