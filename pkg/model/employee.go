// Package model 定义排班引擎的核心数据模型
package model

import "time"

// Employee 员工
type Employee struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Percentage 合同工时百分比（0-100，目标占总可排工时的比例）
	Percentage int `json:"percentage"`

	// Roles 可胜任的岗位
	Roles []string `json:"roles"`

	// Experience 经验等级（序数，通常为工作年限）
	Experience int `json:"experience"`

	// Availability 每日可用时间窗口（有序且互不重叠）
	// nil 表示全周全天可用；非 nil 时缺失的日期表示当天不可用，
	// 存在但为空的日期同样表示当天不可用
	Availability map[time.Weekday][]TimeWindow `json:"availability,omitempty"`

	// Flags 布尔标记（如 student、senior）
	Flags []string `json:"flags,omitempty"`

	// Preferences 对特定班次的偏好权重（shift ID -> 权重，正数表示偏好）
	Preferences map[string]float64 `json:"preferences,omitempty"`
}

const (
	// FlagSenior 资深员工标记
	FlagSenior = "senior"

	// SeniorExperienceYears 视为资深的最低经验年限
	SeniorExperienceYears = 3
)

// HasRole 检查员工是否可胜任某岗位
func (e *Employee) HasRole(role string) bool {
	for _, r := range e.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasFlag 检查员工是否带有某标记
func (e *Employee) HasFlag(flag string) bool {
	for _, f := range e.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// AvailableWindows 返回员工某天的可用窗口
// 完全未声明可用性时视为全天可用
func (e *Employee) AvailableWindows(day time.Weekday) []TimeWindow {
	if e.Availability == nil {
		return []TimeWindow{{Start: 0, End: 24 * 60}}
	}
	return e.Availability[day]
}

// CoverageGap 返回员工某天可用窗口对目标窗口的缺口（分钟）
// 0 表示窗口被完整覆盖
func (e *Employee) CoverageGap(day time.Weekday, target TimeWindow) int {
	covered := 0
	for _, w := range e.AvailableWindows(day) {
		covered += w.OverlapMinutes(target)
	}
	gap := target.Duration() - covered
	if gap < 0 {
		gap = 0
	}
	return gap
}

// CanWork 检查班次窗口是否完整落在员工当天的可用窗口内
func (e *Employee) CanWork(day time.Weekday, target TimeWindow) bool {
	return e.CoverageGap(day, target) == 0
}

// IsSenior 检查员工是否算资深（带 senior 标记或经验达标）
func (e *Employee) IsSenior() bool {
	return e.HasFlag(FlagSenior) || e.Experience >= SeniorExperienceYears
}

// TargetMinutes 按合同百分比计算目标工时（分钟）
func (e *Employee) TargetMinutes(totalScheduleMinutes int) int {
	return totalScheduleMinutes * e.Percentage / 100
}
