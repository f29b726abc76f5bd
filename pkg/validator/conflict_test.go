package validator

import (
	"testing"
	"time"

	"github.com/zhipai/zhipai/pkg/model"
)

func detectorSchema() *model.Schema {
	return &model.Schema{
		Company: "测试门店",
		Days:    []time.Weekday{time.Monday},
		Employees: []*model.Employee{
			{ID: "e1", Name: "张三", Percentage: 50, Roles: []string{"cashier"}},
		},
		Shifts: []*model.Shift{
			{ID: "a", Day: time.Monday, StartTime: "08:00", EndTime: "16:00",
				RequiredRoles: map[string]int{"cashier": 1}},
			{ID: "b", Day: time.Monday, StartTime: "12:00", EndTime: "20:00",
				RequiredRoles: map[string]int{"cook": 1}},
		},
	}
}

func resultWith(pairs ...[2]string) *model.ScheduleResult {
	a := model.NewAssignment()
	for _, p := range pairs {
		a.Assign(p[0], p[1])
	}
	return &model.ScheduleResult{Assignment: a}
}

func countByType(conflicts []Conflict, typ ConflictType) int {
	n := 0
	for _, c := range conflicts {
		if c.Type == typ {
			n++
		}
	}
	return n
}

func TestDetect_Overlap(t *testing.T) {
	d := NewConflictDetector(nil)
	conflicts := d.DetectAll(detectorSchema(), resultWith([2]string{"e1", "a"}, [2]string{"e1", "b"}))

	if countByType(conflicts, ConflictOverlap) != 1 {
		t.Errorf("重叠冲突数 = %d, 期望 1", countByType(conflicts, ConflictOverlap))
	}
	// e1 不具备 cook 岗位
	if countByType(conflicts, ConflictSkill) != 1 {
		t.Errorf("岗位冲突数 = %d, 期望 1", countByType(conflicts, ConflictSkill))
	}
}

func TestDetect_AvailabilityBreach(t *testing.T) {
	schema := detectorSchema()
	schema.Employees[0].Availability = map[time.Weekday][]model.TimeWindow{
		time.Monday: {{Start: 8 * 60, End: 14 * 60}},
	}
	d := NewConflictDetector(nil)
	conflicts := d.DetectAll(schema, resultWith([2]string{"e1", "a"}))

	avail := 0
	for _, c := range conflicts {
		if c.Type == ConflictAvailability {
			avail++
			if c.Severity != SeverityWarning {
				t.Errorf("可用性冲突级别 = %s, 期望 warning", c.Severity)
			}
		}
	}
	if avail != 1 {
		t.Errorf("可用性冲突数 = %d, 期望 1", avail)
	}
}

func TestDetect_ContractDeviation(t *testing.T) {
	// 总可排 960 分钟，e1 目标 480；只排 a (480) 不越界，全排越上界
	d := NewConflictDetector(nil)

	conflicts := d.DetectAll(detectorSchema(), resultWith([2]string{"e1", "a"}))
	if countByType(conflicts, ConflictContract) != 0 {
		t.Errorf("工时在容差内不应告警")
	}

	conflicts = d.DetectAll(detectorSchema(), resultWith())
	if countByType(conflicts, ConflictContract) != 1 {
		t.Errorf("零工时应偏离目标而告警")
	}
}

func TestDetect_Disabled(t *testing.T) {
	cfg := DefaultDetectorConfig()
	cfg.CheckContract = false
	cfg.CheckAvailability = false
	d := NewConflictDetector(cfg)

	conflicts := d.DetectAll(detectorSchema(), resultWith())
	if len(conflicts) != 0 {
		t.Errorf("检测项全关后不应有冲突: %v", conflicts)
	}
}

func TestDetect_Empty(t *testing.T) {
	d := NewConflictDetector(nil)
	if got := d.DetectAll(detectorSchema(), nil); got != nil {
		t.Errorf("空结果应返回 nil, 实际 %v", got)
	}
}
