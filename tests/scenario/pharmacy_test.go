package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/scheduler"
)

// pharmacySchema 单人药房：一个班次、一名收银员
func pharmacySchema(availStart, availEnd int) *model.Schema {
	return &model.Schema{
		Company: "demo-pharmacy",
		Employees: []*model.Employee{
			{
				ID: "anna", Name: "安娜", Percentage: 100, Roles: []string{"cashier"}, Experience: 2,
				Availability: map[time.Weekday][]model.TimeWindow{
					time.Monday: {{Start: availStart, End: availEnd}},
				},
			},
		},
		Shifts: []*model.Shift{
			{ID: "mon_day", Name: "周一白班", Day: time.Monday, StartTime: "09:00", EndTime: "17:00",
				RequiredRoles: map[string]int{"cashier": 1}},
		},
	}
}

// TestPharmacySingleEmployeeOptimal 可用窗口覆盖班次时直接得到最优解
func TestPharmacySingleEmployeeOptimal(t *testing.T) {
	schema := pharmacySchema(8*60, 18*60) // 08:00-18:00
	engine := scheduler.NewDefault()

	result, err := engine.Generate(context.Background(), schema, scheduler.MethodOptimizedCP)
	if err != nil {
		t.Fatalf("排班执行失败: %v", err)
	}

	if result.Status != model.StatusOptimal {
		t.Fatalf("期望 OPTIMAL, 实际 %s", result.Status)
	}
	if !result.Assignment.Assigned("anna", "mon_day") {
		t.Error("安娜应被分配到周一白班")
	}
	if len(result.Uncovered) != 0 {
		t.Errorf("不应有缺员: %v", result.Uncovered)
	}
}

// TestPharmacyAvailabilityGapExhaustsLadder 可用窗口缺口超出溢出上限时，
// 阶梯全部失败，兜底结果必须把班次报为未覆盖
func TestPharmacyAvailabilityGapExhaustsLadder(t *testing.T) {
	schema := pharmacySchema(12*60, 18*60) // 12:00-18:00，缺 09:00-12:00 共 180 分钟
	engine := scheduler.NewDefault()

	result, err := engine.Generate(context.Background(), schema, scheduler.MethodOptimizedCP)
	if err != nil {
		t.Fatalf("排班执行失败: %v", err)
	}

	if result.Status != model.StatusGreedyFallback {
		t.Fatalf("期望 GREEDY_FALLBACK, 实际 %s", result.Status)
	}
	if len(result.Assignment.Pairs()) != 0 {
		t.Errorf("无人可用时不应有分配: %v", result.Assignment.Pairs())
	}
	if len(result.Uncovered) != 1 {
		t.Fatalf("应报告 1 个缺员岗位, 实际 %v", result.Uncovered)
	}
	u := result.Uncovered[0]
	if u.ShiftID != "mon_day" || u.Shortfall() != 1 {
		t.Errorf("缺员记录不正确: %+v", u)
	}
}
