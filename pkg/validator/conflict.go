// Package validator 提供排班结果的冲突检测
package validator

import (
	"fmt"

	"github.com/zhipai/zhipai/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictOverlap      ConflictType = "overlap"      // 同日班次时间重叠
	ConflictAvailability ConflictType = "availability" // 排进不可用时段
	ConflictSkill        ConflictType = "skill"        // 岗位不匹配
	ConflictContract     ConflictType = "contract"     // 工时偏离合同目标
)

// Severity 冲突严重级别
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Conflict 单条冲突
type Conflict struct {
	Type       ConflictType `json:"type"`
	Severity   Severity     `json:"severity"`
	EmployeeID string       `json:"employee_id"`
	ShiftIDs   []string     `json:"shift_ids,omitempty"`
	Message    string       `json:"message"`
}

// DetectorConfig 检测器配置
type DetectorConfig struct {
	// ContractTolerance 合同工时容差（占总可排工时的比例），偏差在此范围内不告警
	ContractTolerance float64

	CheckAvailability bool
	CheckContract     bool
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		ContractTolerance: 0.05,
		CheckAvailability: true,
		CheckContract:     true,
	}
}

// ConflictDetector 对已生成的排班结果做事后冲突检测
// 放宽档位下求解器可以合法越过部分约束，这里把越界之处显式列出
type ConflictDetector struct {
	config *DetectorConfig
}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector(config *DetectorConfig) *ConflictDetector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &ConflictDetector{config: config}
}

// DetectAll 检测结果中的全部冲突，按员工顺序和检测类别有序返回
func (d *ConflictDetector) DetectAll(schema *model.Schema, result *model.ScheduleResult) []Conflict {
	if result == nil || result.Assignment == nil {
		return nil
	}

	var conflicts []Conflict
	for _, emp := range schema.Employees {
		assigned := d.assignedShifts(schema, result, emp.ID)
		conflicts = append(conflicts, d.detectOverlaps(emp.ID, assigned)...)
		if d.config.CheckAvailability {
			conflicts = append(conflicts, d.detectAvailability(emp, assigned)...)
		}
		conflicts = append(conflicts, d.detectSkill(emp, assigned)...)
		if d.config.CheckContract {
			conflicts = append(conflicts, d.detectContract(schema, emp, assigned)...)
		}
	}
	return conflicts
}

// assignedShifts 员工被分配的班次，规范顺序
func (d *ConflictDetector) assignedShifts(schema *model.Schema, result *model.ScheduleResult, employeeID string) []*model.Shift {
	var shifts []*model.Shift
	for _, sh := range schema.SortedShifts() {
		if result.Assignment.Assigned(employeeID, sh.ID) {
			shifts = append(shifts, sh)
		}
	}
	return shifts
}

func (d *ConflictDetector) detectOverlaps(employeeID string, assigned []*model.Shift) []Conflict {
	var conflicts []Conflict
	for i := 0; i < len(assigned); i++ {
		for j := i + 1; j < len(assigned); j++ {
			a, b := assigned[i], assigned[j]
			if a.Day != b.Day || !a.Window().Overlaps(b.Window()) {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Type:       ConflictOverlap,
				Severity:   SeverityError,
				EmployeeID: employeeID,
				ShiftIDs:   []string{a.ID, b.ID},
				Message:    fmt.Sprintf("%s 的班次 %s 与 %s 时间重叠", model.WeekdayName(a.Day), a.ID, b.ID),
			})
		}
	}
	return conflicts
}

func (d *ConflictDetector) detectAvailability(emp *model.Employee, assigned []*model.Shift) []Conflict {
	var conflicts []Conflict
	for _, sh := range assigned {
		gap := emp.CoverageGap(sh.Day, sh.Window())
		if gap == 0 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:       ConflictAvailability,
			Severity:   SeverityWarning,
			EmployeeID: emp.ID,
			ShiftIDs:   []string{sh.ID},
			Message:    fmt.Sprintf("班次 %s 超出可用时段 %d 分钟", sh.ID, gap),
		})
	}
	return conflicts
}

func (d *ConflictDetector) detectSkill(emp *model.Employee, assigned []*model.Shift) []Conflict {
	var conflicts []Conflict
	for _, sh := range assigned {
		qualified := false
		for role := range sh.RequiredRoles {
			if emp.HasRole(role) {
				qualified = true
				break
			}
		}
		if qualified || len(sh.RequiredRoles) == 0 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:       ConflictSkill,
			Severity:   SeverityError,
			EmployeeID: emp.ID,
			ShiftIDs:   []string{sh.ID},
			Message:    fmt.Sprintf("员工不具备班次 %s 要求的任何岗位", sh.ID),
		})
	}
	return conflicts
}

func (d *ConflictDetector) detectContract(schema *model.Schema, emp *model.Employee, assigned []*model.Shift) []Conflict {
	total := schema.TotalScheduleMinutes()
	target := emp.TargetMinutes(total)
	worked := 0
	for _, sh := range assigned {
		worked += sh.DurationMinutes()
	}

	slack := int(d.config.ContractTolerance * float64(total))
	if worked >= target-slack && worked <= target+slack {
		return nil
	}
	return []Conflict{{
		Type:       ConflictContract,
		Severity:   SeverityWarning,
		EmployeeID: emp.ID,
		Message: fmt.Sprintf("实际工时 %.1f 小时偏离合同目标 %.1f 小时超过容差",
			float64(worked)/60, float64(target)/60),
	}}
}
