// Package encoder 将排班 Schema 编码为与求解器无关的约束模型
package encoder

import (
	"fmt"

	"github.com/zhipai/zhipai/pkg/model"
)

// Var 布尔决策变量 x[员工, 班次]：员工是否上该班次
type Var struct {
	Index      int    `json:"index"`
	EmployeeID string `json:"employee_id"`
	ShiftID    string `json:"shift_id"`
}

// Relation 线性约束的比较关系
type Relation string

const (
	OpGE Relation = ">="
	OpLE Relation = "<="
	OpEQ Relation = "=="
)

// Term 线性项：系数 × 变量
type Term struct {
	Var  int `json:"var"`
	Coef int `json:"coef"`
}

// LinearConstraint 硬约束：sum(coef_i * x_i) <op> bound
type LinearConstraint struct {
	Name  string               `json:"name"`
	Kind  model.ConstraintKind `json:"kind"`
	Terms []Term               `json:"terms"`
	Op    Relation             `json:"op"`
	Bound int                  `json:"bound"`
}

// Satisfied 检查完整赋值是否满足该约束
func (c *LinearConstraint) Satisfied(assign []bool) bool {
	sum := 0
	for _, t := range c.Terms {
		if assign[t.Var] {
			sum += t.Coef
		}
	}
	switch c.Op {
	case OpGE:
		return sum >= c.Bound
	case OpLE:
		return sum <= c.Bound
	default:
		return sum == c.Bound
	}
}

// Model 编码后的求解模型：布尔变量、硬约束和加权软惩罚项
// 聚合量（工时、夜班数）折叠在惩罚项的求值逻辑内，不引入独立整型变量
type Model struct {
	Vars        []Var
	Constraints []LinearConstraint
	Penalties   []PenaltyTerm

	varIndex map[model.AssignKey]int
}

// VarIndex 返回 (员工, 班次) 对应的变量下标
func (m *Model) VarIndex(employeeID, shiftID string) (int, bool) {
	idx, ok := m.varIndex[model.AssignKey{EmployeeID: employeeID, ShiftID: shiftID}]
	return idx, ok
}

// Objective 计算完整赋值下的目标值（全部软惩罚的加权和）
func (m *Model) Objective(assign []bool) float64 {
	total := 0.0
	for _, p := range m.Penalties {
		total += p.Weight() * p.Magnitude(assign)
	}
	return total
}

// Feasible 检查完整赋值是否满足全部硬约束
func (m *Model) Feasible(assign []bool) bool {
	for i := range m.Constraints {
		if !m.Constraints[i].Satisfied(assign) {
			return false
		}
	}
	return true
}

// ToAssignment 将变量赋值还原为排班分配
func (m *Model) ToAssignment(assign []bool) model.Assignment {
	a := model.NewAssignment()
	for i, v := range m.Vars {
		if i < len(assign) && assign[i] {
			a.Assign(v.EmployeeID, v.ShiftID)
		}
	}
	return a
}

// Summary 返回模型摘要（用于日志）
func (m *Model) Summary() string {
	return fmt.Sprintf("vars=%d constraints=%d penalties=%d",
		len(m.Vars), len(m.Constraints), len(m.Penalties))
}
