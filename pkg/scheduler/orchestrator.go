package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/logger"
	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/scheduler/encoder"
	"github.com/zhipai/zhipai/pkg/scheduler/solver"
)

// State 编排器状态
type State string

const (
	StateInitial      State = "INITIAL"
	StateSolving      State = "SOLVING"
	StateRelaxedRetry State = "RELAXED_RETRY"
	StateExhausted    State = "EXHAUSTED"
	StateDone         State = "DONE"
)

// Orchestrator 放宽编排器
// 沿阶梯逐档放宽重试求解，阶梯耗尽后转贪心兜底；
// 求解次数严格不超过 Ladder.MaxSolves()
type Orchestrator struct {
	solver   solver.Solver
	ladder   Ladder
	budget   time.Duration        // 单次求解尝试的时间预算
	fallback *solver.GreedySolver // nil 表示禁用兜底
	logger   *logger.SchedulerLogger

	state State
}

// NewOrchestrator 创建编排器
func NewOrchestrator(s solver.Solver, ladder Ladder, budget time.Duration, fallback *solver.GreedySolver) *Orchestrator {
	return &Orchestrator{
		solver:   s,
		ladder:   ladder,
		budget:   budget,
		fallback: fallback,
		logger:   logger.NewSchedulerLogger(),
		state:    StateInitial,
	}
}

// State 返回当前状态（终态为 DONE）
func (o *Orchestrator) State() State {
	return o.state
}

// Run 执行 编码 -> 求解 -> 放宽重试 -> 兜底 的完整流程
// 编码失败和不可恢复的求解器故障以错误返回，排班失败以结果状态表达
func (o *Orchestrator) Run(ctx context.Context, schema *model.Schema) (*model.ScheduleResult, error) {
	start := time.Now()
	o.state = StateSolving

	if o.solver == nil {
		return o.solverUnavailable(schema, start, 0, "求解器未配置")
	}

	attempts := 0
	var lastUnsat []string

	for tier := 0; tier <= len(o.ladder); tier++ {
		if tier > 0 {
			o.state = StateRelaxedRetry
			o.logger.TierAdvance(tier-1, tier, o.ladder[tier-1].Description)
		}

		profile := o.ladder.ProfileAt(tier)
		m, err := encoder.Encode(schema, profile)
		if err != nil {
			o.state = StateDone
			return nil, err
		}

		o.logger.SolveAttempt(tier, len(m.Vars), len(m.Constraints))
		attemptStart := time.Now()
		out, err := o.solver.Solve(ctx, m, o.budget)
		attempts++
		if err != nil {
			return o.solverUnavailable(schema, start, attempts, err.Error())
		}
		o.logger.SolveOutcome(tier, string(out.Status), time.Since(attemptStart))

		if out.HasSolution() {
			o.state = StateDone
			return o.buildResult(schema, m, profile, out, attempts, start), nil
		}

		if out.Status == solver.StatusInfeasible && len(out.UnsatConstraints) > 0 {
			lastUnsat = out.UnsatConstraints
		}
	}

	o.state = StateExhausted
	return o.exhausted(schema, start, attempts, lastUnsat)
}

// buildResult 把求解器输出装配为排班结果
func (o *Orchestrator) buildResult(schema *model.Schema, m *encoder.Model, profile *model.RelaxationProfile, out *solver.Outcome, attempts int, start time.Time) *model.ScheduleResult {
	status := model.StatusFeasible
	if profile.Tier > 0 {
		status = model.StatusRelaxed
	} else if out.Status == solver.StatusOptimal {
		status = model.StatusOptimal
	}

	assignment := m.ToAssignment(out.Assignment)
	result := &model.ScheduleResult{
		Status:        status,
		Assignment:    assignment,
		Profile:       profile,
		Violations:    collectViolations(m, out.Assignment),
		Uncovered:     computeUncovered(schema, assignment),
		SolveAttempts: attempts,
		Duration:      time.Since(start),
	}
	if out.Status == solver.StatusTimeout {
		result.Message = "时间预算耗尽，返回现任解"
	}
	o.logger.ScheduleComplete(schema.Company, string(status), result.Duration, len(result.Uncovered))
	return result
}

// exhausted 阶梯耗尽：有兜底走贪心，否则以 INFEASIBLE 终结
func (o *Orchestrator) exhausted(schema *model.Schema, start time.Time, attempts int, unsat []string) (*model.ScheduleResult, error) {
	if o.fallback == nil {
		o.state = StateDone
		result := &model.ScheduleResult{
			Status:        model.StatusInfeasible,
			UnsatHard:     unsat,
			SolveAttempts: attempts,
			Duration:      time.Since(start),
			Message:       "放宽阶梯耗尽，硬约束无解",
		}
		o.logger.ScheduleComplete(schema.Company, string(result.Status), result.Duration, 0)
		return result, nil
	}
	return o.runFallback(schema, start, attempts, unsat, "放宽阶梯耗尽"), nil
}

// solverUnavailable 求解器不可用：有兜底直接走贪心，否则返回错误
func (o *Orchestrator) solverUnavailable(schema *model.Schema, start time.Time, attempts int, reason string) (*model.ScheduleResult, error) {
	if o.fallback == nil {
		o.state = StateDone
		return nil, errors.SolverUnavailable(reason)
	}
	o.state = StateExhausted
	return o.runFallback(schema, start, attempts, nil, fmt.Sprintf("求解器不可用: %s", reason)), nil
}

// runFallback 执行贪心兜底并终结状态机
func (o *Orchestrator) runFallback(schema *model.Schema, start time.Time, attempts int, unsat []string, reason string) *model.ScheduleResult {
	o.logger.GreedyFallback(reason)
	greedy := o.fallback.Solve(schema)
	o.state = StateDone
	result := &model.ScheduleResult{
		Status:        model.StatusGreedyFallback,
		Assignment:    greedy.Assignment,
		Uncovered:     greedy.Uncovered,
		UnsatHard:     unsat,
		SolveAttempts: attempts,
		Duration:      time.Since(start),
		Message:       "约束求解失败，贪心兜底",
	}
	o.logger.ScheduleComplete(schema.Company, string(result.Status), result.Duration, len(result.Uncovered))
	return result
}

// collectViolations 收集赋值下幅度为正的软约束违反
func collectViolations(m *encoder.Model, assign []bool) []model.SoftViolation {
	var violations []model.SoftViolation
	for _, p := range m.Penalties {
		mag := p.Magnitude(assign)
		if mag <= 0 {
			continue
		}
		violations = append(violations, model.SoftViolation{
			Kind:      p.Kind(),
			Scope:     p.Label(),
			Magnitude: mag,
			Penalty:   p.Weight() * mag,
		})
	}
	return violations
}

// sortedRoleNames 排序后的岗位名，保证缺员记录顺序稳定
func sortedRoleNames(roles map[string]int) []string {
	names := make([]string, 0, len(roles))
	for r := range roles {
		names = append(names, r)
	}
	sort.Strings(names)
	return names
}

// computeUncovered 按最终分配统计各班次岗位的缺员
func computeUncovered(schema *model.Schema, assignment model.Assignment) []model.UncoveredShift {
	var uncovered []model.UncoveredShift
	for _, sh := range schema.SortedShifts() {
		for _, role := range sortedRoleNames(sh.RequiredRoles) {
			required := sh.RequiredRoles[role]
			count := 0
			for _, emp := range schema.Employees {
				if emp.HasRole(role) && assignment.Assigned(emp.ID, sh.ID) {
					count++
				}
			}
			if count < required {
				uncovered = append(uncovered, model.UncoveredShift{
					ShiftID:  sh.ID,
					Role:     role,
					Required: required,
					Assigned: count,
				})
			}
		}
	}
	return uncovered
}
