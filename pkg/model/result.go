// Package model 定义排班引擎的核心数据模型
package model

import (
	"sort"
	"time"
)

// Status 排班结果状态
type Status string

const (
	StatusOptimal        Status = "OPTIMAL"
	StatusFeasible       Status = "FEASIBLE"
	StatusRelaxed        Status = "RELAXED"
	StatusGreedyFallback Status = "GREEDY_FALLBACK"
	StatusInfeasible     Status = "INFEASIBLE"
)

// AssignKey (员工, 班次) 对
type AssignKey struct {
	EmployeeID string `json:"employee_id"`
	ShiftID    string `json:"shift_id"`
}

// Assignment 排班分配：值为 true 的键构成最终排班
type Assignment map[AssignKey]bool

// NewAssignment 创建空分配
func NewAssignment() Assignment {
	return make(Assignment)
}

// Assign 记录一次分配
func (a Assignment) Assign(employeeID, shiftID string) {
	a[AssignKey{EmployeeID: employeeID, ShiftID: shiftID}] = true
}

// Assigned 检查员工是否被分配到班次
func (a Assignment) Assigned(employeeID, shiftID string) bool {
	return a[AssignKey{EmployeeID: employeeID, ShiftID: shiftID}]
}

// Pairs 返回全部已分配对（按员工 ID、班次 ID 排序，保证确定性输出）
func (a Assignment) Pairs() []AssignKey {
	pairs := make([]AssignKey, 0, len(a))
	for k, v := range a {
		if v {
			pairs = append(pairs, k)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].EmployeeID != pairs[j].EmployeeID {
			return pairs[i].EmployeeID < pairs[j].EmployeeID
		}
		return pairs[i].ShiftID < pairs[j].ShiftID
	})
	return pairs
}

// CountFor 返回员工被分配的班次数
func (a Assignment) CountFor(employeeID string) int {
	count := 0
	for k, v := range a {
		if v && k.EmployeeID == employeeID {
			count++
		}
	}
	return count
}

// SoftViolation 软约束违反报告
type SoftViolation struct {
	Kind      ConstraintKind `json:"kind"`
	Scope     string         `json:"scope"`
	Magnitude float64        `json:"magnitude"`
	Penalty   float64        `json:"penalty"`
	Message   string         `json:"message,omitempty"`
}

// UncoveredShift 未满足人数要求的班次
type UncoveredShift struct {
	ShiftID  string `json:"shift_id"`
	Role     string `json:"role"`
	Required int    `json:"required"`
	Assigned int    `json:"assigned"`
}

// Shortfall 返回缺口人数
func (u UncoveredShift) Shortfall() int {
	return u.Required - u.Assigned
}

// ScheduleResult 排班结果
// 每次顶层排班调用产生一次，交付后不再修改
type ScheduleResult struct {
	Status     Status             `json:"status"`
	Assignment Assignment         `json:"assignment"`
	Profile    *RelaxationProfile `json:"profile,omitempty"`

	// Violations 被违反的软约束（非 OPTIMAL 终态必须填充）
	Violations []SoftViolation `json:"violations,omitempty"`

	// Uncovered 未覆盖的班次岗位
	Uncovered []UncoveredShift `json:"uncovered,omitempty"`

	// UnsatHard 不可行时，最后一次失败尝试中无法联立满足的硬约束
	UnsatHard []string `json:"unsat_hard,omitempty"`

	SolveAttempts int           `json:"solve_attempts"`
	Duration      time.Duration `json:"duration"`
	Message       string        `json:"message,omitempty"`
}

// DaySchedule 某员工一天的班次
type DaySchedule struct {
	Day      string   `json:"day"`
	ShiftIDs []string `json:"shift_ids"`
}

// ByEmployee 按员工展开：员工 -> 每天按开始时间排序的班次 ID
// 该形式即存储协作方约定的持久化视图
func (r *ScheduleResult) ByEmployee(schema *Schema) map[string][]DaySchedule {
	byEmp := make(map[string][]*Shift)
	for _, k := range r.Assignment.Pairs() {
		if sh := schema.Shift(k.ShiftID); sh != nil {
			byEmp[k.EmployeeID] = append(byEmp[k.EmployeeID], sh)
		}
	}

	out := make(map[string][]DaySchedule, len(byEmp))
	for empID, shifts := range byEmp {
		byDay := make(map[string][]*Shift)
		for _, sh := range shifts {
			name := WeekdayName(sh.Day)
			byDay[name] = append(byDay[name], sh)
		}
		var days []DaySchedule
		for _, day := range schema.PeriodDays() {
			name := WeekdayName(day)
			group, ok := byDay[name]
			if !ok {
				continue
			}
			sort.Slice(group, func(i, j int) bool {
				wi, wj := group[i].Window(), group[j].Window()
				if wi.Start != wj.Start {
					return wi.Start < wj.Start
				}
				return group[i].ID < group[j].ID
			})
			ids := make([]string, len(group))
			for i, sh := range group {
				ids[i] = sh.ID
			}
			days = append(days, DaySchedule{Day: name, ShiftIDs: ids})
		}
		out[empID] = days
	}
	return out
}

// AssignedCount 返回某班次某岗位已分配的合格人数
func (r *ScheduleResult) AssignedCount(schema *Schema, shiftID, role string) int {
	count := 0
	for _, k := range r.Assignment.Pairs() {
		if k.ShiftID != shiftID {
			continue
		}
		emp := schema.Employee(k.EmployeeID)
		if emp != nil && (role == "" || emp.HasRole(role)) {
			count++
		}
	}
	return count
}

// TotalPenalty 返回全部软约束违反的加权罚分之和
func (r *ScheduleResult) TotalPenalty() float64 {
	total := 0.0
	for _, v := range r.Violations {
		total += v.Penalty
	}
	return total
}
