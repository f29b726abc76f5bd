// Package solver 提供约束模型的求解器实现
package solver

import (
	"context"
	"time"

	"github.com/zhipai/zhipai/pkg/scheduler/encoder"
)

// Status 单次求解的终止状态
type Status string

const (
	// StatusOptimal 搜索完整结束，返回的解已被证明最优
	StatusOptimal Status = "OPTIMAL"

	// StatusFeasible 找到可行解但未证明最优（搜索被节点上限截断）
	StatusFeasible Status = "FEASIBLE"

	// StatusInfeasible 搜索完整结束，硬约束无解
	StatusInfeasible Status = "INFEASIBLE"

	// StatusTimeout 时间预算耗尽；Outcome 可能携带已找到的现任解
	StatusTimeout Status = "TIMEOUT"
)

// Outcome 一次求解的结果
type Outcome struct {
	Status Status `json:"status"`

	// Assignment 变量赋值，与模型变量下标对齐；无解时为 nil
	Assignment []bool `json:"assignment,omitempty"`

	// Objective 该赋值的软约束总罚分
	Objective float64 `json:"objective"`

	// Explored 搜索过的节点数
	Explored int `json:"explored"`

	// UnsatConstraints 无解时按剪枝次数排序的最阻塞约束名
	UnsatConstraints []string `json:"unsat_constraints,omitempty"`
}

// HasSolution 判断结果是否携带可用的赋值
func (o *Outcome) HasSolution() bool {
	return o.Assignment != nil
}

// Solver 求解器契约：在时间预算内求解约束模型
// 实现必须是确定性的：相同 (model, budget 充裕) 产生相同结果
type Solver interface {
	Solve(ctx context.Context, m *encoder.Model, budget time.Duration) (*Outcome, error)
}
