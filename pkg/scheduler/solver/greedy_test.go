package solver

import (
	"testing"
	"time"

	"github.com/zhipai/zhipai/pkg/model"
)

func greedySchema() *model.Schema {
	return &model.Schema{
		Company: "测试门店",
		Days:    []time.Weekday{time.Monday, time.Tuesday},
		Employees: []*model.Employee{
			{ID: "e1", Name: "张三", Percentage: 100, Roles: []string{"cashier"}, Experience: 5},
			{ID: "e2", Name: "李四", Percentage: 50, Roles: []string{"cashier"}, Experience: 2},
		},
		Shifts: []*model.Shift{
			{ID: "mon", Name: "周一班", Day: time.Monday, StartTime: "08:00", EndTime: "16:00",
				RequiredRoles: map[string]int{"cashier": 1}},
			{ID: "tue", Name: "周二班", Day: time.Tuesday, StartTime: "08:00", EndTime: "16:00",
				RequiredRoles: map[string]int{"cashier": 1}},
		},
	}
}

func TestGreedy_LoadRatioOrder(t *testing.T) {
	result := NewGreedySolver().Solve(greedySchema())

	if !result.Covered() {
		t.Fatalf("两人两班应可全覆盖: %v", result.Uncovered)
	}
	// 周一两人工时比都是 0，经验高的 e1 先上；
	// 周二 e1 工时比 480/960=0.5 高于 e2 的 0，轮到 e2
	if !result.Assignment.Assigned("e1", "mon") {
		t.Errorf("周一应排 e1")
	}
	if !result.Assignment.Assigned("e2", "tue") {
		t.Errorf("周二应排 e2")
	}
}

func TestGreedy_AvailabilityFilter(t *testing.T) {
	schema := greedySchema()
	// e1 周二没空
	schema.Employees[0].Availability = map[time.Weekday][]model.TimeWindow{
		time.Monday: {{Start: 0, End: 24 * 60}},
	}
	// e2 全部没空
	schema.Employees[1].Availability = map[time.Weekday][]model.TimeWindow{}

	result := NewGreedySolver().Solve(schema)

	if !result.Assignment.Assigned("e1", "mon") {
		t.Errorf("周一应排 e1")
	}
	if len(result.Uncovered) != 1 {
		t.Fatalf("缺员记录数 = %d, 期望 1", len(result.Uncovered))
	}
	u := result.Uncovered[0]
	if u.ShiftID != "tue" || u.Role != "cashier" || u.Required != 1 || u.Assigned != 0 {
		t.Errorf("缺员记录 = %+v", u)
	}
}

func TestGreedy_OverlapExclusion(t *testing.T) {
	schema := greedySchema()
	schema.Shifts = []*model.Shift{
		{ID: "a", Name: "早班", Day: time.Monday, StartTime: "08:00", EndTime: "16:00",
			RequiredRoles: map[string]int{"cashier": 1}},
		{ID: "b", Name: "中班", Day: time.Monday, StartTime: "12:00", EndTime: "20:00",
			RequiredRoles: map[string]int{"cashier": 1}},
	}

	result := NewGreedySolver().Solve(schema)

	if !result.Covered() {
		t.Fatalf("两人两班应可全覆盖: %v", result.Uncovered)
	}
	for _, emp := range []string{"e1", "e2"} {
		if result.Assignment.Assigned(emp, "a") && result.Assignment.Assigned(emp, "b") {
			t.Errorf("%s 被排进重叠的两个班次", emp)
		}
	}
}

func TestGreedy_CanonicalShiftOrder(t *testing.T) {
	schema := greedySchema()
	// 晚的班次写在前面；两班重叠且只有一人，规范顺序下早班先被填充
	schema.Shifts = []*model.Shift{
		{ID: "late", Name: "中班", Day: time.Monday, StartTime: "12:00", EndTime: "20:00",
			RequiredRoles: map[string]int{"cashier": 1}},
		{ID: "early", Name: "早班", Day: time.Monday, StartTime: "08:00", EndTime: "16:00",
			RequiredRoles: map[string]int{"cashier": 1}},
	}
	schema.Employees = schema.Employees[:1]

	result := NewGreedySolver().Solve(schema)

	if !result.Assignment.Assigned("e1", "early") {
		t.Errorf("规范顺序下早班应先被填充")
	}
	if len(result.Uncovered) != 1 || result.Uncovered[0].ShiftID != "late" {
		t.Errorf("缺员记录 = %+v, 期望 late 缺员", result.Uncovered)
	}
}

func TestGreedy_ContractCapZeroTarget(t *testing.T) {
	schema := greedySchema()
	// 合同百分比为零的员工目标工时为零，一个班都不该排
	schema.Employees = []*model.Employee{
		{ID: "e1", Name: "张三", Percentage: 0, Roles: []string{"cashier"}, Experience: 5},
	}

	result := NewGreedySolver().Solve(schema)

	if len(result.Assignment.Pairs()) != 0 {
		t.Fatalf("零目标工时员工不应被排班: %v", result.Assignment.Pairs())
	}
	if len(result.Uncovered) != 2 {
		t.Fatalf("缺员记录数 = %d, 期望 2", len(result.Uncovered))
	}
	for _, u := range result.Uncovered {
		if u.Assigned != 0 || u.Required != 1 {
			t.Errorf("缺员记录 = %+v", u)
		}
	}
}

func TestGreedy_ContractCapStopsAtTarget(t *testing.T) {
	schema := greedySchema()
	// 50% 的员工目标工时恰好一个班，排满后即使缺人也不再加班
	schema.Employees = []*model.Employee{
		{ID: "e2", Name: "李四", Percentage: 50, Roles: []string{"cashier"}, Experience: 2},
	}

	result := NewGreedySolver().Solve(schema)

	if !result.Assignment.Assigned("e2", "mon") {
		t.Errorf("周一班应先被填充")
	}
	if result.Assignment.Assigned("e2", "tue") {
		t.Errorf("已达目标工时仍被继续排班")
	}
	if len(result.Uncovered) != 1 || result.Uncovered[0].ShiftID != "tue" {
		t.Errorf("缺员记录 = %+v, 期望 tue 缺员", result.Uncovered)
	}
}

func TestGreedy_Deterministic(t *testing.T) {
	schema := greedySchema()
	first := NewGreedySolver().Solve(schema)
	for i := 0; i < 3; i++ {
		again := NewGreedySolver().Solve(schema)
		if len(again.Assignment) != len(first.Assignment) {
			t.Fatalf("第 %d 次求解分配数漂移", i)
		}
		for key := range first.Assignment {
			if !again.Assignment[key] {
				t.Fatalf("第 %d 次求解缺少分配 %v", i, key)
			}
		}
	}
}
