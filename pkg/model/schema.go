// Package model 定义排班引擎的核心数据模型
package model

import (
	"sort"
	"time"

	"github.com/zhipai/zhipai/pkg/errors"
)

// Schema 排班请求的完整描述
// 一次排班请求构造一次，求解期间不可变；任何修改都应产生新的已验证快照
type Schema struct {
	Company string `json:"company"`

	// Days 排班周期内的天（有序），为空时取默认的周一到周日
	Days []time.Weekday `json:"days,omitempty"`

	Employees []*Employee `json:"employees"`
	Shifts    []*Shift    `json:"shifts"`

	// Declarations 约束声明，为空时由引擎注入默认约束集
	Declarations []*ConstraintDeclaration `json:"declarations,omitempty"`
}

// PeriodDays 返回排班周期的天序列
func (s *Schema) PeriodDays() []time.Weekday {
	if len(s.Days) == 0 {
		return DefaultDays()
	}
	return s.Days
}

// DayIndex 返回某天在排班周期中的位置，不在周期内时返回 -1
func (s *Schema) DayIndex(d time.Weekday) int {
	for i, day := range s.PeriodDays() {
		if day == d {
			return i
		}
	}
	return -1
}

// Employee 按 ID 查找员工
func (s *Schema) Employee(id string) *Employee {
	for _, e := range s.Employees {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Shift 按 ID 查找班次
func (s *Schema) Shift(id string) *Shift {
	for _, sh := range s.Shifts {
		if sh.ID == id {
			return sh
		}
	}
	return nil
}

// SortedShifts 返回按规范顺序排序的班次：天、开始时间、ID
func (s *Schema) SortedShifts() []*Shift {
	shifts := append([]*Shift(nil), s.Shifts...)
	sort.SliceStable(shifts, func(i, j int) bool {
		di, dj := s.DayIndex(shifts[i].Day), s.DayIndex(shifts[j].Day)
		if di != dj {
			return di < dj
		}
		wi, wj := shifts[i].Window(), shifts[j].Window()
		if wi.Start != wj.Start {
			return wi.Start < wj.Start
		}
		return shifts[i].ID < shifts[j].ID
	})
	return shifts
}

// TotalScheduleMinutes 返回周期内全部班次的总时长（分钟）
// 合同百分比以此为基数
func (s *Schema) TotalScheduleMinutes() int {
	total := 0
	for _, sh := range s.Shifts {
		total += sh.DurationMinutes()
	}
	return total
}

// WithEmployees 返回仅包含给定员工的新 Schema（其余字段共享）
// 部分排班策略使用；原 Schema 不被修改
func (s *Schema) WithEmployees(employees []*Employee) *Schema {
	c := *s
	c.Employees = employees
	return &c
}

// Validate 结构化验证，一次性收集全部问题
func (s *Schema) Validate() *errors.ValidationErrors {
	ve := &errors.ValidationErrors{}

	if len(s.Employees) == 0 {
		ve.Add("employees", "员工列表为空")
	}
	if len(s.Shifts) == 0 {
		ve.Add("shifts", "班次列表为空")
	}

	// 员工校验：ID 唯一、百分比范围、可用窗口合法
	seenEmp := make(map[string]bool)
	roleHolders := make(map[string]bool)
	for i, e := range s.Employees {
		field := "employees[" + e.ID + "]"
		if e.ID == "" {
			ve.Addf("employees", "第 %d 个员工缺少 ID", i)
			continue
		}
		if seenEmp[e.ID] {
			ve.Addf(field, "员工 ID 重复: %s", e.ID)
		}
		seenEmp[e.ID] = true

		if e.Percentage < 0 || e.Percentage > 100 {
			ve.Addf(field+".percentage", "合同百分比 %d 超出 [0,100]", e.Percentage)
		}
		for _, r := range e.Roles {
			roleHolders[r] = true
		}
		for day, windows := range e.Availability {
			for j, w := range windows {
				if w.Start < 0 || w.End > 24*60 || w.Start >= w.End {
					ve.Addf(field+".availability", "%s 第 %d 个窗口 %s 非法", WeekdayName(day), j, w)
				}
				if j > 0 && windows[j-1].End > w.Start {
					ve.Addf(field+".availability", "%s 的窗口 %s 与 %s 重叠或乱序", WeekdayName(day), windows[j-1], w)
				}
			}
		}
	}

	// 班次校验：ID 唯一、时间合法、时长为正、所需岗位有人胜任、所在天位于周期内
	seenShift := make(map[string]bool)
	for i, sh := range s.Shifts {
		field := "shifts[" + sh.ID + "]"
		if sh.ID == "" {
			ve.Addf("shifts", "第 %d 个班次缺少 ID", i)
			continue
		}
		if seenShift[sh.ID] {
			ve.Addf(field, "班次 ID 重复: %s", sh.ID)
		}
		seenShift[sh.ID] = true

		start, err1 := ParseClock(sh.StartTime)
		end, err2 := ParseClock(sh.EndTime)
		if err1 != nil {
			ve.Addf(field+".start_time", "%v", err1)
		}
		if err2 != nil {
			ve.Addf(field+".end_time", "%v", err2)
		}
		if err1 == nil && err2 == nil && end <= start {
			ve.Addf(field, "班次时长必须为正: %s-%s", sh.StartTime, sh.EndTime)
		}
		if s.DayIndex(sh.Day) < 0 {
			ve.Addf(field+".day", "%s 不在排班周期内", WeekdayName(sh.Day))
		}
		for role, count := range sh.RequiredRoles {
			if count <= 0 {
				ve.Addf(field+".required_roles", "岗位 %s 的人数 %d 非法", role, count)
			}
			if !roleHolders[role] {
				ve.Addf(field+".required_roles", "没有员工可胜任岗位 %s", role)
			}
		}
	}

	// 约束声明校验：作用域对象存在、关系约束员工存在
	for i, d := range s.Declarations {
		field := "declarations[" + string(d.Kind) + "]"
		switch d.Scope {
		case ScopeEmployee:
			if s.Employee(d.TargetID) == nil {
				ve.Addf(field, "第 %d 个声明引用了不存在的员工 %s", i, d.TargetID)
			}
		case ScopeShift:
			if s.Shift(d.TargetID) == nil {
				ve.Addf(field, "第 %d 个声明引用了不存在的班次 %s", i, d.TargetID)
			}
		}
		if d.Kind == KindRelation {
			if s.Employee(d.Params.EmployeeA) == nil {
				ve.Addf(field, "关系约束引用了不存在的员工 %s", d.Params.EmployeeA)
			}
			if s.Employee(d.Params.EmployeeB) == nil {
				ve.Addf(field, "关系约束引用了不存在的员工 %s", d.Params.EmployeeB)
			}
		}
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}
