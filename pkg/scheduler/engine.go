package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/logger"
	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/scheduler/solver"
)

// Method 排班方法（封闭枚举）
type Method string

const (
	// MethodBasicGreedy 只跑贪心，不做约束求解
	MethodBasicGreedy Method = "basic_greedy"

	// MethodOptimizedCP 约束求解 + 放宽阶梯 + 贪心兜底
	MethodOptimizedCP Method = "optimized_cp"

	// MethodPartialHighPercentage 只用高合同百分比员工做约束求解
	MethodPartialHighPercentage Method = "partial_high_percentage"

	// MethodPartialExperience 只用高经验员工做约束求解
	MethodPartialExperience Method = "partial_experience"
)

// ParseMethod 解析排班方法；未知取值返回 InvalidInput
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodBasicGreedy, MethodOptimizedCP, MethodPartialHighPercentage, MethodPartialExperience:
		return Method(s), nil
	default:
		return "", errors.InvalidInput("method", fmt.Sprintf("未知排班方法: %q", s))
	}
}

// Config 引擎配置
type Config struct {
	// SolveBudget 单次求解尝试的时间预算
	SolveBudget time.Duration

	// ToleranceStep 第一档放宽的合同容差
	ToleranceStep float64

	// CoverageWeight 第二档缺员罚权
	CoverageWeight float64

	// SpilloverLimitMinutes 第三档可用性溢出上限（分钟）
	SpilloverLimitMinutes int

	// SpilloverWeight 溢出罚权
	SpilloverWeight float64

	// Weights 默认软约束权重
	Weights model.DefaultWeights

	// ConsecutiveNightLimit 默认连续夜班上限
	ConsecutiveNightLimit int

	// PartialPercentageThreshold partial_high_percentage 的合同百分比下限
	PartialPercentageThreshold int

	// PartialExperienceThreshold partial_experience 的经验下限
	PartialExperienceThreshold int

	// EnableFallback 约束求解失败后是否允许贪心兜底
	EnableFallback bool

	// NodeLimit 求解器节点上限（<=0 使用求解器默认值）
	NodeLimit int
}

// DefaultConfig 返回默认引擎配置
func DefaultConfig() Config {
	return Config{
		SolveBudget:           10 * time.Second,
		ToleranceStep:         0.05,
		CoverageWeight:        100,
		SpilloverLimitMinutes: 60,
		SpilloverWeight:       10,
		Weights: model.DefaultWeights{
			Fairness:         2,
			Preference:       1,
			ConsecutiveNight: 3,
		},
		ConsecutiveNightLimit:      2,
		PartialPercentageThreshold: 75,
		PartialExperienceThreshold: 3,
		EnableFallback:             true,
	}
}

// Engine 排班引擎：验证 Schema 并按方法分派求解
type Engine struct {
	cfg    Config
	solver solver.Solver
	logger *logger.SchedulerLogger
}

// New 创建引擎；solver 为 nil 时所有约束求解方法都会走兜底或报错
func New(cfg Config, s solver.Solver) *Engine {
	return &Engine{
		cfg:    cfg,
		solver: s,
		logger: logger.NewSchedulerLogger(),
	}
}

// NewDefault 创建带默认配置和内置分支定界求解器的引擎
func NewDefault() *Engine {
	cfg := DefaultConfig()
	return New(cfg, &solver.BacktrackSolver{NodeLimit: cfg.NodeLimit})
}

// Generate 生成排班
// 验证失败返回 ValidationError；排班失败（缺员、无解）以结果状态表达
func (e *Engine) Generate(ctx context.Context, schema *model.Schema, method Method) (*model.ScheduleResult, error) {
	if schema == nil {
		return nil, errors.InvalidInput("schema", "不能为空")
	}
	if ve := schema.Validate(); ve != nil {
		return nil, ve.ToAppError()
	}

	working := schema
	if len(working.Declarations) == 0 {
		c := *schema
		c.Declarations = model.DefaultDeclarations(e.cfg.Weights, e.cfg.ConsecutiveNightLimit)
		working = &c
	}

	e.logger.StartSchedule(working.Company, len(working.Employees), len(working.Shifts))

	switch method {
	case MethodBasicGreedy:
		return e.runGreedy(working), nil
	case MethodOptimizedCP:
		return e.runOrchestrated(ctx, working)
	case MethodPartialHighPercentage:
		return e.runOrchestrated(ctx, PartialByPercentage(working, e.cfg.PartialPercentageThreshold))
	case MethodPartialExperience:
		return e.runOrchestrated(ctx, PartialByExperience(working, e.cfg.PartialExperienceThreshold))
	default:
		return nil, errors.InvalidInput("method", fmt.Sprintf("未知排班方法: %q", method))
	}
}

// runGreedy 直接贪心排班
func (e *Engine) runGreedy(schema *model.Schema) *model.ScheduleResult {
	start := time.Now()
	greedy := solver.NewGreedySolver().Solve(schema)
	result := &model.ScheduleResult{
		Status:        model.StatusGreedyFallback,
		Assignment:    greedy.Assignment,
		Uncovered:     greedy.Uncovered,
		SolveAttempts: 0,
		Duration:      time.Since(start),
	}
	e.logger.ScheduleComplete(schema.Company, string(result.Status), result.Duration, len(result.Uncovered))
	return result
}

// runOrchestrated 约束求解 + 放宽阶梯 + 可选兜底
func (e *Engine) runOrchestrated(ctx context.Context, schema *model.Schema) (*model.ScheduleResult, error) {
	ladder := DefaultLadder(LadderConfig{
		ToleranceStep:         e.cfg.ToleranceStep,
		CoverageWeight:        e.cfg.CoverageWeight,
		SpilloverLimitMinutes: e.cfg.SpilloverLimitMinutes,
		SpilloverWeight:       e.cfg.SpilloverWeight,
	})

	var fallback *solver.GreedySolver
	if e.cfg.EnableFallback {
		fallback = solver.NewGreedySolver()
	}

	return NewOrchestrator(e.solver, ladder, e.cfg.SolveBudget, fallback).Run(ctx, schema)
}
