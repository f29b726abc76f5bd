// Package model 定义排班引擎的核心数据模型
package model

import "time"

// 常用班次标签
const (
	TagNight = "night"
)

// Shift 班次（绑定到排班周期内某一天的具体时段）
type Shift struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Day  time.Weekday `json:"day"`

	// Date 可选的具体日期（YYYY-MM-DD），仅用于展示和持久化
	Date string `json:"date,omitempty"`

	StartTime string `json:"start_time"` // HH:MM
	EndTime   string `json:"end_time"`   // HH:MM

	// RequiredRoles 岗位 -> 最少人数
	RequiredRoles map[string]int `json:"required_roles"`

	// Tags 班次标签（如 night）
	Tags []string `json:"tags,omitempty"`
}

// Window 返回班次的时间窗口
// 依赖 Validate 已确认时间格式合法，解析失败时返回零窗口
func (s *Shift) Window() TimeWindow {
	start, err1 := ParseClock(s.StartTime)
	end, err2 := ParseClock(s.EndTime)
	if err1 != nil || err2 != nil {
		return TimeWindow{}
	}
	return TimeWindow{Start: start, End: end}
}

// DurationMinutes 返回班次时长（分钟）
func (s *Shift) DurationMinutes() int {
	return s.Window().Duration()
}

// HasTag 检查班次是否带有某标签
func (s *Shift) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsNight 检查是否为夜班
func (s *Shift) IsNight() bool {
	return s.HasTag(TagNight)
}

// TotalRequired 返回班次所需的总人数
func (s *Shift) TotalRequired() int {
	total := 0
	for _, n := range s.RequiredRoles {
		total += n
	}
	return total
}
