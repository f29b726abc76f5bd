package stats

import (
	"sort"

	"github.com/zhipai/zhipai/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	// FillRate 总体填充率：已满足的岗位人数需求 / 总需求
	FillRate float64 `json:"fill_rate"`

	TotalRequired int `json:"total_required"`
	TotalAssigned int `json:"total_assigned"`

	// FullyCoveredShifts 岗位需求全部满足的班次数
	FullyCoveredShifts int `json:"fully_covered_shifts"`
	TotalShifts        int `json:"total_shifts"`

	// ShiftCoverage 各班次的覆盖明细（规范班次顺序）
	ShiftCoverage []ShiftCoverage `json:"shift_coverage"`
}

// ShiftCoverage 单个班次的覆盖明细
type ShiftCoverage struct {
	ShiftID  string         `json:"shift_id"`
	Name     string         `json:"name"`
	Required int            `json:"required"`
	Assigned int            `json:"assigned"`
	ByRole   []RoleCoverage `json:"by_role"`
}

// RoleCoverage 单个岗位的覆盖明细
type RoleCoverage struct {
	Role     string `json:"role"`
	Required int    `json:"required"`
	Assigned int    `json:"assigned"`
}

// Covered 判断班次的岗位需求是否全部满足
func (sc *ShiftCoverage) Covered() bool {
	for _, rc := range sc.ByRole {
		if rc.Assigned < rc.Required {
			return false
		}
	}
	return true
}

// AnalyzeCoverage 计算排班结果的覆盖率指标
func AnalyzeCoverage(schema *model.Schema, result *model.ScheduleResult) *CoverageMetrics {
	metrics := &CoverageMetrics{TotalShifts: len(schema.Shifts)}

	for _, sh := range schema.SortedShifts() {
		sc := ShiftCoverage{ShiftID: sh.ID, Name: sh.Name}
		for _, role := range sortedRoles(sh.RequiredRoles) {
			required := sh.RequiredRoles[role]
			assigned := 0
			for _, emp := range schema.Employees {
				if emp.HasRole(role) && result != nil && result.Assignment.Assigned(emp.ID, sh.ID) {
					assigned++
				}
			}
			// 超配不抬高填充率
			counted := assigned
			if counted > required {
				counted = required
			}
			sc.Required += required
			sc.Assigned += assigned
			sc.ByRole = append(sc.ByRole, RoleCoverage{Role: role, Required: required, Assigned: assigned})
			metrics.TotalRequired += required
			metrics.TotalAssigned += counted
		}
		if sc.Covered() {
			metrics.FullyCoveredShifts++
		}
		metrics.ShiftCoverage = append(metrics.ShiftCoverage, sc)
	}

	if metrics.TotalRequired > 0 {
		metrics.FillRate = float64(metrics.TotalAssigned) / float64(metrics.TotalRequired)
	}
	return metrics
}

func sortedRoles(roles map[string]int) []string {
	names := make([]string, 0, len(roles))
	for r := range roles {
		names = append(names, r)
	}
	sort.Strings(names)
	return names
}
