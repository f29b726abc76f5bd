package scenario

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/scheduler"
)

// cafeSchema 人手不足的咖啡店：两个班次各需 2 人，但合同工时只够每人一个班
func cafeSchema() *model.Schema {
	return &model.Schema{
		Company: "demo-cafe",
		Employees: []*model.Employee{
			{ID: "b1", Name: "咖啡师甲", Percentage: 50, Roles: []string{"barista"}, Experience: 4},
			{ID: "b2", Name: "咖啡师乙", Percentage: 50, Roles: []string{"barista"}, Experience: 2},
		},
		Shifts: []*model.Shift{
			{ID: "mon_open", Name: "周一早班", Day: time.Monday, StartTime: "08:00", EndTime: "16:00", RequiredRoles: map[string]int{"barista": 2}},
			{ID: "tue_open", Name: "周二早班", Day: time.Tuesday, StartTime: "08:00", EndTime: "16:00", RequiredRoles: map[string]int{"barista": 2}},
		},
	}
}

// TestCafeCoverageRelaxed 合同工时与覆盖需求冲突时，阶梯应放宽到缺员计罚档
func TestCafeCoverageRelaxed(t *testing.T) {
	schema := cafeSchema()
	engine := scheduler.NewDefault()

	result, err := engine.Generate(context.Background(), schema, scheduler.MethodOptimizedCP)
	if err != nil {
		t.Fatalf("排班执行失败: %v", err)
	}

	t.Logf("状态: %s, 档位: %d, 求解次数: %d", result.Status, result.Profile.Tier, result.SolveAttempts)

	if result.Status != model.StatusRelaxed {
		t.Fatalf("期望 RELAXED, 实际 %s", result.Status)
	}
	// 档位 0（原始硬度）和档位 1（放宽容差）都无解，档位 2 放宽覆盖后可行
	if result.Profile.Tier != 2 {
		t.Errorf("期望档位 2, 实际 %d", result.Profile.Tier)
	}
	if result.SolveAttempts != 3 {
		t.Errorf("期望 3 次求解, 实际 %d", result.SolveAttempts)
	}

	// 合同约束仍然生效：每人恰好一个班
	if got := len(result.Assignment.Pairs()); got != 2 {
		t.Errorf("分配总数 = %d, 期望 2", got)
	}
	for _, empID := range []string{"b1", "b2"} {
		if got := result.Assignment.CountFor(empID); got != 1 {
			t.Errorf("员工 %s 班次数 = %d, 期望 1", empID, got)
		}
	}

	// 4 个岗位需求只能满足 2 个，缺口合计 2
	shortfall := 0
	for _, u := range result.Uncovered {
		shortfall += u.Shortfall()
	}
	if shortfall != 2 {
		t.Errorf("缺员总数 = %d, 期望 2", shortfall)
	}

	// 缺员必须以软约束违反的形式出现在结果里
	found := false
	for _, v := range result.Violations {
		if v.Kind == model.KindCoverage {
			found = true
		}
	}
	if !found {
		t.Error("结果应包含覆盖缺口的软约束违反记录")
	}
}

// TestCafeImpossibleContractFallsBack 阶梯全部耗尽后应走贪心兜底并携带未满足的硬约束
func TestCafeImpossibleContractFallsBack(t *testing.T) {
	// 单人 10% 合同 + 一个 8 小时班次：任何档位都无法同时满足合同与覆盖
	schema := &model.Schema{
		Company: "demo-cafe",
		Employees: []*model.Employee{
			{ID: "solo", Name: "独自营业", Percentage: 10, Roles: []string{"clerk"}, Experience: 1},
		},
		Shifts: []*model.Shift{
			{ID: "mon_full", Name: "周一全班", Day: time.Monday, StartTime: "09:00", EndTime: "17:00", RequiredRoles: map[string]int{"clerk": 1}},
		},
	}
	engine := scheduler.NewDefault()

	result, err := engine.Generate(context.Background(), schema, scheduler.MethodOptimizedCP)
	if err != nil {
		t.Fatalf("排班执行失败: %v", err)
	}

	if result.Status != model.StatusGreedyFallback {
		t.Fatalf("期望 GREEDY_FALLBACK, 实际 %s", result.Status)
	}
	// 阶梯 3 档 + 基线 = 4 次求解
	if result.SolveAttempts != 4 {
		t.Errorf("期望 4 次求解, 实际 %d", result.SolveAttempts)
	}

	// 目标工时还没排满，贪心应完成该班次的分配
	if !result.Assignment.Assigned("solo", "mon_full") {
		t.Error("贪心兜底应完成该班次的分配")
	}

	// 最后一次失败尝试的硬约束要能指认合同约束
	if len(result.UnsatHard) == 0 {
		t.Fatal("UnsatHard 不应为空")
	}
	matched := false
	for _, name := range result.UnsatHard {
		if strings.Contains(name, "contract_percentage") {
			matched = true
		}
	}
	if !matched {
		t.Errorf("UnsatHard 应包含合同约束, 实际 %v", result.UnsatHard)
	}
}
