// Package stats 提供排班结果的统计分析
package stats

import (
	"math"
	"sort"

	"github.com/zhipai/zhipai/pkg/model"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	// 工时公平性
	WorkloadGini        float64 `json:"workload_gini"`          // 工时基尼系数 (0=完全公平)
	WorkloadStdDev      float64 `json:"workload_std_dev"`       // 工时标准差（小时）
	AvgHoursPerEmployee float64 `json:"avg_hours_per_employee"` // 人均工时
	MaxHours            float64 `json:"max_hours"`
	MinHours            float64 `json:"min_hours"`

	// 夜班公平性
	NightShiftGini float64 `json:"night_shift_gini"`

	// 员工级别统计（按员工 ID 有序）
	EmployeeStats []EmployeeStat `json:"employee_stats"`

	// OverallFairnessScore 综合公平性评分 (0-100)
	OverallFairnessScore float64 `json:"overall_fairness_score"`
}

// EmployeeStat 单个员工的排班统计
type EmployeeStat struct {
	EmployeeID  string  `json:"employee_id"`
	Name        string  `json:"name"`
	TotalHours  float64 `json:"total_hours"`
	TargetHours float64 `json:"target_hours"` // 合同目标工时
	ShiftCount  int     `json:"shift_count"`
	NightShifts int     `json:"night_shifts"`

	// Deviation 实际工时对目标工时的偏差（小时，正数为超时）
	Deviation float64 `json:"deviation"`
}

// AnalyzeFairness 计算排班结果的公平性指标
// 空分配或空员工池返回零值指标
func AnalyzeFairness(schema *model.Schema, result *model.ScheduleResult) *FairnessMetrics {
	metrics := &FairnessMetrics{}
	if len(schema.Employees) == 0 {
		return metrics
	}

	total := schema.TotalScheduleMinutes()
	hours := make([]float64, 0, len(schema.Employees))
	nights := make([]float64, 0, len(schema.Employees))

	for _, emp := range schema.Employees {
		stat := EmployeeStat{
			EmployeeID:  emp.ID,
			Name:        emp.Name,
			TargetHours: float64(emp.TargetMinutes(total)) / 60,
		}
		for _, sh := range schema.Shifts {
			if result == nil || !result.Assignment.Assigned(emp.ID, sh.ID) {
				continue
			}
			stat.ShiftCount++
			stat.TotalHours += float64(sh.DurationMinutes()) / 60
			if sh.IsNight() {
				stat.NightShifts++
			}
		}
		stat.Deviation = stat.TotalHours - stat.TargetHours
		metrics.EmployeeStats = append(metrics.EmployeeStats, stat)
		hours = append(hours, stat.TotalHours)
		nights = append(nights, float64(stat.NightShifts))
	}
	sort.Slice(metrics.EmployeeStats, func(i, j int) bool {
		return metrics.EmployeeStats[i].EmployeeID < metrics.EmployeeStats[j].EmployeeID
	})

	metrics.AvgHoursPerEmployee = mean(hours)
	metrics.WorkloadStdDev = stdDev(hours)
	metrics.WorkloadGini = gini(hours)
	metrics.NightShiftGini = gini(nights)
	metrics.MaxHours, metrics.MinHours = minMax(hours)
	metrics.OverallFairnessScore = fairnessScore(metrics.WorkloadGini, metrics.NightShiftGini)
	return metrics
}

// gini 基尼系数；全零序列视为完全公平
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	weighted := 0.0
	for i, v := range sorted {
		sum += v
		weighted += float64(i+1) * v
	}
	if sum == 0 {
		return 0
	}
	return (2*weighted)/(float64(n)*sum) - float64(n+1)/float64(n)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	variance := 0.0
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	return math.Sqrt(variance / float64(len(values)))
}

func minMax(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return max, min
}

// fairnessScore 综合评分：工时基尼占 7 成，夜班基尼占 3 成
func fairnessScore(workloadGini, nightGini float64) float64 {
	score := 100 * (1 - 0.7*workloadGini - 0.3*nightGini)
	if score < 0 {
		return 0
	}
	return score
}
