// Package encoder 将排班 Schema 编码为与求解器无关的约束模型
package encoder

import (
	"math"

	"github.com/zhipai/zhipai/pkg/model"
)

// PenaltyTerm 软约束惩罚项
// Magnitude 返回违反幅度（未加权），为输入赋值的纯函数
type PenaltyTerm interface {
	Kind() model.ConstraintKind
	Label() string
	Weight() float64
	Magnitude(assign []bool) float64
}

// basePenalty 惩罚项公共字段
type basePenalty struct {
	kind   model.ConstraintKind
	label  string
	weight float64
}

func (b basePenalty) Kind() model.ConstraintKind { return b.kind }
func (b basePenalty) Label() string              { return b.label }
func (b basePenalty) Weight() float64            { return b.weight }

// NotAssignedPenalty 变量未置位时计罚（偏好未满足）
type NotAssignedPenalty struct {
	basePenalty
	VarIdx int
}

// NewNotAssignedPenalty 创建未分配惩罚项
func NewNotAssignedPenalty(label string, weight float64, varIdx int) *NotAssignedPenalty {
	return &NotAssignedPenalty{
		basePenalty: basePenalty{label: label, weight: weight},
		VarIdx:      varIdx,
	}
}

// Magnitude 未分配时为 1
func (p *NotAssignedPenalty) Magnitude(assign []bool) float64 {
	if assign[p.VarIdx] {
		return 0
	}
	return 1
}

// AssignedPenalty 变量置位时计罚（放宽后的可用性溢出）
type AssignedPenalty struct {
	basePenalty
	VarIdx int
}

// NewAssignedPenalty 创建分配即罚的惩罚项
func NewAssignedPenalty(label string, weight float64, varIdx int) *AssignedPenalty {
	return &AssignedPenalty{
		basePenalty: basePenalty{label: label, weight: weight},
		VarIdx:      varIdx,
	}
}

// Magnitude 已分配时为 1
func (p *AssignedPenalty) Magnitude(assign []bool) float64 {
	if assign[p.VarIdx] {
		return 1
	}
	return 0
}

// ShortfallPenalty 线性和低于下界时按缺口计罚（放宽后的覆盖缺员）
type ShortfallPenalty struct {
	basePenalty
	Terms    []Term
	Required int
}

// Magnitude 缺口 = max(0, required - sum)
func (p *ShortfallPenalty) Magnitude(assign []bool) float64 {
	sum := 0
	for _, t := range p.Terms {
		if assign[t.Var] {
			sum += t.Coef
		}
	}
	if sum >= p.Required {
		return 0
	}
	return float64(p.Required - sum)
}

// ExcessPenalty 线性和超过上界时按超额计罚（软化的人数上限）
type ExcessPenalty struct {
	basePenalty
	Terms []Term
	Cap   int
}

// Magnitude 超额 = max(0, sum - cap)
func (p *ExcessPenalty) Magnitude(assign []bool) float64 {
	sum := 0
	for _, t := range p.Terms {
		if assign[t.Var] {
			sum += t.Coef
		}
	}
	if sum <= p.Cap {
		return 0
	}
	return float64(sum - p.Cap)
}

// RangePenalty 线性和偏离区间 [Lo, Hi] 时按偏离量计罚（软化的合同工时）
// Scale 用于把分钟折算成小时量级
type RangePenalty struct {
	basePenalty
	Terms []Term
	Lo    int
	Hi    int
	Scale float64
}

// Magnitude 偏离量 = max(0, Lo-sum, sum-Hi) * Scale
func (p *RangePenalty) Magnitude(assign []bool) float64 {
	sum := 0
	for _, t := range p.Terms {
		if assign[t.Var] {
			sum += t.Coef
		}
	}
	dev := 0
	if sum < p.Lo {
		dev = p.Lo - sum
	} else if sum > p.Hi {
		dev = sum - p.Hi
	}
	return float64(dev) * p.Scale
}

// BalancePenalty 班次数公平：各员工班次数对均值的绝对偏差之和
type BalancePenalty struct {
	basePenalty
	// Groups 每个员工的变量下标集合
	Groups [][]int
}

// Magnitude 偏差和 = Σ |count_e - mean|
func (p *BalancePenalty) Magnitude(assign []bool) float64 {
	if len(p.Groups) == 0 {
		return 0
	}
	counts := make([]int, len(p.Groups))
	total := 0
	for i, group := range p.Groups {
		for _, v := range group {
			if assign[v] {
				counts[i]++
			}
		}
		total += counts[i]
	}
	mean := float64(total) / float64(len(p.Groups))
	dev := 0.0
	for _, c := range counts {
		dev += math.Abs(float64(c) - mean)
	}
	return dev
}

// RunPenalty 连续夜班超限：按每段连续夜班的超出长度计罚
type RunPenalty struct {
	basePenalty
	// Days 该员工按周期顺序排列的每天夜班变量下标
	Days  [][]int
	Limit int
}

// Magnitude 超出量 = Σ_runs max(0, runLen - limit)
func (p *RunPenalty) Magnitude(assign []bool) float64 {
	excess := 0
	run := 0
	for _, dayVars := range p.Days {
		working := false
		for _, v := range dayVars {
			if assign[v] {
				working = true
				break
			}
		}
		if working {
			run++
		} else {
			if run > p.Limit {
				excess += run - p.Limit
			}
			run = 0
		}
	}
	if run > p.Limit {
		excess += run - p.Limit
	}
	return float64(excess)
}

// RelationPenalty 员工关系：同班偏好被拆开、或应避开却同班时计罚
type RelationPenalty struct {
	basePenalty
	VarA     int
	VarB     int
	Together bool
}

// Magnitude 违反时为 1
func (p *RelationPenalty) Magnitude(assign []bool) float64 {
	a, b := assign[p.VarA], assign[p.VarB]
	if p.Together {
		if a != b {
			return 1
		}
		return 0
	}
	if a && b {
		return 1
	}
	return 0
}
