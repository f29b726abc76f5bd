// Package model 定义排班引擎的核心数据模型
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Hardness 约束硬度
type Hardness string

const (
	HardnessHard Hardness = "hard" // 硬约束（必须满足）
	HardnessSoft Hardness = "soft" // 软约束（尽量满足）
)

// TimeWindow 一天内的时间窗口（自零点起的分钟数，左闭右开）
type TimeWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Duration 返回窗口时长（分钟）
func (w TimeWindow) Duration() int {
	return w.End - w.Start
}

// Overlaps 检查两个窗口是否重叠
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start < other.End && other.Start < w.End
}

// Contains 检查窗口是否完整包含另一个窗口
func (w TimeWindow) Contains(other TimeWindow) bool {
	return w.Start <= other.Start && other.End <= w.End
}

// OverlapMinutes 返回两个窗口重叠的分钟数
func (w TimeWindow) OverlapMinutes(other TimeWindow) int {
	start := w.Start
	if other.Start > start {
		start = other.Start
	}
	end := w.End
	if other.End < end {
		end = other.End
	}
	if end <= start {
		return 0
	}
	return end - start
}

// String 返回 HH:MM-HH:MM 形式
func (w TimeWindow) String() string {
	return fmt.Sprintf("%s-%s", FormatClock(w.Start), FormatClock(w.End))
}

// ParseClock 解析 HH:MM 为自零点起的分钟数
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("时间格式无效: %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("时间格式无效: %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("时间格式无效: %q", s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("时间超出范围: %q", s)
	}
	return h*60 + m, nil
}

// FormatClock 将分钟数格式化为 HH:MM
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// WeekdayName 返回英文星期名（与输入层约定一致）
func WeekdayName(d time.Weekday) string {
	return d.String()
}

// ParseWeekday 解析英文星期名
func ParseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("星期名无效: %q", s)
}

// DefaultDays 默认排班周期：周一到周日
func DefaultDays() []time.Weekday {
	return []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
}
