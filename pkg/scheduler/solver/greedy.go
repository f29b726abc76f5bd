package solver

import (
	"fmt"
	"math"
	"sort"

	"github.com/zhipai/zhipai/pkg/logger"
	"github.com/zhipai/zhipai/pkg/model"
)

// GreedySolver 确定性贪心兜底求解器
// 约束求解彻底失败后使用：按规范班次顺序逐班填充，
// 绝不违反可用性、重叠限制，也不给已达合同目标的员工继续加班
type GreedySolver struct {
	logger *logger.SchedulerLogger
}

// NewGreedySolver 创建贪心求解器
func NewGreedySolver() *GreedySolver {
	return &GreedySolver{logger: logger.NewSchedulerLogger()}
}

// GreedyResult 贪心求解结果
type GreedyResult struct {
	Assignment model.Assignment       `json:"assignment"`
	Uncovered  []model.UncoveredShift `json:"uncovered,omitempty"`
}

// Covered 判断是否所有岗位需求都被填满
func (r *GreedyResult) Covered() bool {
	return len(r.Uncovered) == 0
}

// candidate 某岗位的候选员工及其排序指标
type candidate struct {
	emp   *model.Employee
	ratio float64 // 已排工时 / 目标工时
}

// Solve 贪心填充排班
// 班次按 天 -> 开始时间 -> ID 的规范顺序处理；
// 候选按 工时比升序 -> 经验降序 -> ID 升序 选取
func (g *GreedySolver) Solve(schema *model.Schema) *GreedyResult {
	result := &GreedyResult{Assignment: make(model.Assignment)}

	total := schema.TotalScheduleMinutes()
	assigned := make(map[string]int) // 员工 -> 已排分钟数

	for _, sh := range schema.SortedShifts() {
		window := sh.Window()
		for _, role := range sortedRoleNames(sh.RequiredRoles) {
			required := sh.RequiredRoles[role]
			filled := 0

			cands := g.eligible(schema, sh, role, result.Assignment, assigned, total)
			for i := range cands {
				cands[i].ratio = loadRatio(assigned[cands[i].emp.ID], cands[i].emp.TargetMinutes(total))
			}
			sort.SliceStable(cands, func(i, j int) bool {
				if cands[i].ratio != cands[j].ratio {
					return cands[i].ratio < cands[j].ratio
				}
				if cands[i].emp.Experience != cands[j].emp.Experience {
					return cands[i].emp.Experience > cands[j].emp.Experience
				}
				return cands[i].emp.ID < cands[j].emp.ID
			})

			for _, c := range cands {
				if filled >= required {
					break
				}
				result.Assignment.Assign(c.emp.ID, sh.ID)
				assigned[c.emp.ID] += window.Duration()
				filled++
			}

			if filled < required {
				result.Uncovered = append(result.Uncovered, model.UncoveredShift{
					ShiftID:  sh.ID,
					Role:     role,
					Required: required,
					Assigned: filled,
				})
				g.logger.ConstraintViolation(
					fmt.Sprintf("coverage[%s,%s]", sh.ID, role),
					fmt.Sprintf("缺员 %d/%d", filled, required),
				)
			}
		}
	}

	return result
}

// eligible 返回可承担某班次某岗位的候选员工
// 要求：持有岗位、当天整段可用、与已排班次不重叠、已排工时未达合同目标
func (g *GreedySolver) eligible(schema *model.Schema, sh *model.Shift, role string, current model.Assignment, assigned map[string]int, totalMinutes int) []candidate {
	window := sh.Window()
	var cands []candidate
	for _, emp := range schema.Employees {
		if !emp.HasRole(role) || !emp.CanWork(sh.Day, window) {
			continue
		}
		if assigned[emp.ID] >= emp.TargetMinutes(totalMinutes) {
			continue
		}
		if current.Assigned(emp.ID, sh.ID) || g.conflicts(schema, emp.ID, sh, current) {
			continue
		}
		cands = append(cands, candidate{emp: emp})
	}
	return cands
}

// conflicts 检查员工已排的同日班次是否与目标班次时段重叠
func (g *GreedySolver) conflicts(schema *model.Schema, employeeID string, sh *model.Shift, current model.Assignment) bool {
	window := sh.Window()
	for _, other := range schema.Shifts {
		if other.ID == sh.ID || other.Day != sh.Day {
			continue
		}
		if current.Assigned(employeeID, other.ID) && other.Window().Overlaps(window) {
			return true
		}
	}
	return false
}

// loadRatio 已排工时相对目标的比例；无目标工时的员工排在最后
func loadRatio(assignedMinutes, targetMinutes int) float64 {
	if targetMinutes <= 0 {
		return math.Inf(1)
	}
	return float64(assignedMinutes) / float64(targetMinutes)
}

func sortedRoleNames(roles map[string]int) []string {
	names := make([]string, 0, len(roles))
	for r := range roles {
		names = append(names, r)
	}
	sort.Strings(names)
	return names
}
