package encoder

import (
	"testing"
	"time"

	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/model"
)

// testSchema 两名员工、两天三个班次的最小排班场景
func testSchema() *model.Schema {
	return &model.Schema{
		Company: "测试门店",
		Days:    []time.Weekday{time.Monday, time.Tuesday},
		Employees: []*model.Employee{
			{
				ID:         "e1",
				Name:       "张三",
				Percentage: 100,
				Roles:      []string{"cashier"},
				Experience: 5,
			},
			{
				ID:         "e2",
				Name:       "李四",
				Percentage: 50,
				Roles:      []string{"cashier", "cook"},
				Experience: 2,
				Availability: map[time.Weekday][]model.TimeWindow{
					time.Monday: {{Start: 8 * 60, End: 16 * 60}},
				},
			},
		},
		Shifts: []*model.Shift{
			{ID: "s1", Name: "早班", Day: time.Monday, StartTime: "08:00", EndTime: "16:00",
				RequiredRoles: map[string]int{"cashier": 1}},
			{ID: "s2", Name: "晚班", Day: time.Monday, StartTime: "16:00", EndTime: "23:00",
				RequiredRoles: map[string]int{"cashier": 1}, Tags: []string{model.TagNight}},
			{ID: "s3", Name: "早班", Day: time.Tuesday, StartTime: "08:00", EndTime: "16:00",
				RequiredRoles: map[string]int{"cashier": 1}},
		},
		Declarations: model.DefaultDeclarations(model.DefaultWeights{
			Fairness:         2.0,
			Preference:       1.0,
			ConsecutiveNight: 3.0,
		}, 2),
	}
}

func TestEncode_Vars(t *testing.T) {
	m, err := Encode(testSchema(), nil)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}

	// 2 员工 × 3 班次
	if len(m.Vars) != 6 {
		t.Fatalf("变量数 = %d, 期望 6", len(m.Vars))
	}

	// 变量顺序：员工顺序 × 班次规范顺序（周一早、周一晚、周二早）
	want := []struct{ emp, shift string }{
		{"e1", "s1"}, {"e1", "s2"}, {"e1", "s3"},
		{"e2", "s1"}, {"e2", "s2"}, {"e2", "s3"},
	}
	for i, w := range want {
		v := m.Vars[i]
		if v.EmployeeID != w.emp || v.ShiftID != w.shift {
			t.Errorf("Vars[%d] = (%s,%s), 期望 (%s,%s)", i, v.EmployeeID, v.ShiftID, w.emp, w.shift)
		}
		if idx, ok := m.VarIndex(w.emp, w.shift); !ok || idx != i {
			t.Errorf("VarIndex(%s,%s) = (%d,%v), 期望 (%d,true)", w.emp, w.shift, idx, ok, i)
		}
	}
}

func TestEncode_Deterministic(t *testing.T) {
	schema := testSchema()
	m1, err := Encode(schema, nil)
	if err != nil {
		t.Fatalf("第一次编码失败: %v", err)
	}
	m2, err := Encode(schema, nil)
	if err != nil {
		t.Fatalf("第二次编码失败: %v", err)
	}

	if len(m1.Constraints) != len(m2.Constraints) {
		t.Fatalf("约束数不一致: %d vs %d", len(m1.Constraints), len(m2.Constraints))
	}
	for i := range m1.Constraints {
		a, b := m1.Constraints[i], m2.Constraints[i]
		if a.Name != b.Name || a.Op != b.Op || a.Bound != b.Bound || len(a.Terms) != len(b.Terms) {
			t.Errorf("约束 %d 不一致: %s vs %s", i, a.Name, b.Name)
		}
	}

	if len(m1.Penalties) != len(m2.Penalties) {
		t.Fatalf("惩罚项数不一致: %d vs %d", len(m1.Penalties), len(m2.Penalties))
	}
	for i := range m1.Penalties {
		if m1.Penalties[i].Label() != m2.Penalties[i].Label() {
			t.Errorf("惩罚项 %d 不一致: %s vs %s", i, m1.Penalties[i].Label(), m2.Penalties[i].Label())
		}
	}
}

func TestEncode_AvailabilityHard(t *testing.T) {
	m, err := Encode(testSchema(), nil)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}

	// e2 周一只到 16:00，周二完全没空：s2 和 s3 都应被强制为 0
	forbidden := map[string]bool{
		"availability[e2,s2]": false,
		"availability[e2,s3]": false,
	}
	for _, c := range m.Constraints {
		if _, ok := forbidden[c.Name]; ok {
			forbidden[c.Name] = true
			if c.Op != OpEQ || c.Bound != 0 || len(c.Terms) != 1 {
				t.Errorf("%s: 期望单变量 == 0, 实际 %v %d (%d 项)", c.Name, c.Op, c.Bound, len(c.Terms))
			}
		}
	}
	for name, found := range forbidden {
		if !found {
			t.Errorf("缺少禁止约束 %s", name)
		}
	}
}

func TestEncode_AvailabilitySpillover(t *testing.T) {
	schema := testSchema()
	// e2 周一 16:00 收工，晚班 16:00-23:00 缺口 7 小时，超出溢出上限，仍应硬禁止
	// 把其可用窗口延到 22:30 后缺口 30 分钟，可转为计罚
	schema.Employees[1].Availability[time.Monday] = []model.TimeWindow{{Start: 8 * 60, End: 22*60 + 30}}

	profile := &model.RelaxationProfile{
		Tier:                  3,
		SoftenAvailability:    true,
		SpilloverLimitMinutes: 60,
		SpilloverWeight:       10.0,
	}
	m, err := Encode(schema, profile)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}

	for _, c := range m.Constraints {
		if c.Name == "availability[e2,s2]" {
			t.Fatalf("溢出 30 分钟仍被硬禁止")
		}
	}

	found := false
	for _, p := range m.Penalties {
		if p.Label() == "availability[e2,s2]" {
			found = true
			// 权重 = 10 × 30/60
			if got := p.Weight(); got < 4.99 || got > 5.01 {
				t.Errorf("溢出惩罚权重 = %v, 期望 5.0", got)
			}
		}
	}
	if !found {
		t.Fatalf("缺少溢出惩罚项")
	}

	// 周二完全没空，缺口是整个班次，超出上限，仍应硬禁止
	hard := false
	for _, c := range m.Constraints {
		if c.Name == "availability[e2,s3]" {
			hard = true
		}
	}
	if !hard {
		t.Errorf("超出溢出上限的缺口未被硬禁止")
	}
}

func TestEncode_Coverage(t *testing.T) {
	m, err := Encode(testSchema(), nil)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}

	count := 0
	for _, c := range m.Constraints {
		if c.Kind != model.KindCoverage {
			continue
		}
		count++
		if c.Op != OpGE || c.Bound != 1 {
			t.Errorf("%s: 期望 >= 1, 实际 %v %d", c.Name, c.Op, c.Bound)
		}
		// cashier 两人都有资格
		if len(c.Terms) != 2 {
			t.Errorf("%s: 合格人数 = %d, 期望 2", c.Name, len(c.Terms))
		}
	}
	if count != 3 {
		t.Errorf("覆盖约束数 = %d, 期望 3", count)
	}
}

func TestEncode_CoverageSoftened(t *testing.T) {
	profile := &model.RelaxationProfile{Tier: 2, SoftenCoverage: true, CoverageWeight: 100}
	m, err := Encode(testSchema(), profile)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}

	for _, c := range m.Constraints {
		if c.Kind == model.KindCoverage {
			t.Fatalf("放宽后仍存在覆盖硬约束 %s", c.Name)
		}
	}
	count := 0
	for _, p := range m.Penalties {
		if p.Kind() == model.KindCoverage {
			count++
			if p.Weight() != 100 {
				t.Errorf("%s: 权重 = %v, 期望 100", p.Label(), p.Weight())
			}
		}
	}
	if count != 3 {
		t.Errorf("覆盖惩罚项数 = %d, 期望 3", count)
	}
}

func TestEncode_SeniorCoverage(t *testing.T) {
	schema := testSchema()
	// s1 需要 3 人，必须有资深员工在班；只有 e1 经验达标
	schema.Shifts[0].RequiredRoles = map[string]int{"cashier": 2, "cook": 1}

	m, err := Encode(schema, nil)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}

	found := false
	for _, c := range m.Constraints {
		switch c.Name {
		case "senior_coverage[s1]":
			found = true
			if c.Op != OpGE || c.Bound != 1 {
				t.Errorf("资深约束 = %v %d, 期望 >= 1", c.Op, c.Bound)
			}
			if len(c.Terms) != 1 {
				t.Errorf("资深候选数 = %d, 期望 1（仅 e1）", len(c.Terms))
			}
		case "senior_coverage[s2]", "senior_coverage[s3]":
			t.Errorf("需求不超过 2 人的班次不应有资深约束: %s", c.Name)
		}
	}
	if !found {
		t.Fatalf("缺少资深保障约束")
	}

	// senior 标记与经验年限同样生效
	schema.Employees[1].Flags = []string{model.FlagSenior}
	m, err = Encode(schema, nil)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}
	for _, c := range m.Constraints {
		if c.Name == "senior_coverage[s1]" && len(c.Terms) != 2 {
			t.Errorf("资深候选数 = %d, 期望 2", len(c.Terms))
		}
	}
}

func TestEncode_SeniorCoverageSoftened(t *testing.T) {
	schema := testSchema()
	schema.Shifts[0].RequiredRoles = map[string]int{"cashier": 2, "cook": 1}

	profile := &model.RelaxationProfile{Tier: 2, SoftenCoverage: true, CoverageWeight: 100}
	m, err := Encode(schema, profile)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}

	for _, c := range m.Constraints {
		if c.Name == "senior_coverage[s1]" {
			t.Fatalf("放宽后仍存在资深硬约束")
		}
	}
	found := false
	for _, p := range m.Penalties {
		if p.Label() == "senior_coverage[s1]" {
			found = true
			if p.Weight() != 100 {
				t.Errorf("权重 = %v, 期望 100", p.Weight())
			}
		}
	}
	if !found {
		t.Fatalf("缺少资深保障惩罚项")
	}
}

func TestEncode_RestPeriod(t *testing.T) {
	m, err := Encode(testSchema(), nil)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}

	// s1 16:00 收工与 s2 16:00 开工零间隔，两人都不得连上
	want := map[string]bool{
		"rest_period[e1,s1,s2]": false,
		"rest_period[e2,s1,s2]": false,
	}
	for _, c := range m.Constraints {
		if _, ok := want[c.Name]; ok {
			want[c.Name] = true
			if c.Op != OpLE || c.Bound != 1 || len(c.Terms) != 2 {
				t.Errorf("%s: 期望两变量之和 <= 1, 实际 %v %d (%d 项)", c.Name, c.Op, c.Bound, len(c.Terms))
			}
			continue
		}
		// s2 23:00 收工到 s3 次日 08:00 开工间隔 9 小时，足够休息
		if c.Name == "rest_period[e1,s2,s3]" || c.Name == "rest_period[e2,s2,s3]" {
			t.Errorf("间隔充足的两班不应受限: %s", c.Name)
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("缺少休息间隔约束 %s", name)
		}
	}
}

func TestEncode_RestPeriodCrossMidnight(t *testing.T) {
	schema := testSchema()
	schema.Shifts = []*model.Shift{
		{ID: "pm", Name: "晚班", Day: time.Monday, StartTime: "16:00", EndTime: "24:00",
			RequiredRoles: map[string]int{"cashier": 1}},
		{ID: "am", Name: "凌晨班", Day: time.Tuesday, StartTime: "00:00", EndTime: "08:00",
			RequiredRoles: map[string]int{"cashier": 1}},
	}

	m, err := Encode(schema, nil)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}

	// 周一 24:00 收工直接接周二 00:00 开工，跨天间隔为零
	found := false
	for _, c := range m.Constraints {
		if c.Name == "rest_period[e1,pm,am]" {
			found = true
		}
	}
	if !found {
		t.Fatalf("缺少跨天休息间隔约束")
	}
}

func TestEncode_ContractWindow(t *testing.T) {
	schema := testSchema()

	// 零容差：等式约束
	m, err := Encode(schema, nil)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}
	eqCount := 0
	for _, c := range m.Constraints {
		if c.Kind == model.KindContractPercentage && c.Op == OpEQ {
			eqCount++
		}
	}
	if eqCount != 2 {
		t.Errorf("零容差下等式约束数 = %d, 期望 2", eqCount)
	}

	// 放宽容差 5%：上下界成对出现
	profile := &model.RelaxationProfile{Tier: 1, ContractTolerance: 0.05}
	m, err = Encode(schema, profile)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}

	total := schema.TotalScheduleMinutes() // 8h+7h+8h = 1380
	slack := int(0.05 * float64(total))    // 69
	var lo, hi *LinearConstraint
	for i := range m.Constraints {
		c := &m.Constraints[i]
		switch c.Name {
		case "contract_percentage[e1].min":
			lo = c
		case "contract_percentage[e1].max":
			hi = c
		}
	}
	if lo == nil || hi == nil {
		t.Fatalf("缺少合同工时上下界约束")
	}
	target := 1380 // e1 为 100%
	if lo.Bound != target-slack || hi.Bound != target+slack {
		t.Errorf("区间 = [%d,%d], 期望 [%d,%d]", lo.Bound, hi.Bound, target-slack, target+slack)
	}
}

func TestEncode_Relations(t *testing.T) {
	tests := []struct {
		name     string
		together bool
		hardness model.Hardness
		wantOp   Relation
	}{
		{"硬约束同班", true, model.HardnessHard, OpEQ},
		{"硬约束避开", false, model.HardnessHard, OpLE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := testSchema()
			schema.Declarations = append(schema.Declarations, &model.ConstraintDeclaration{
				Kind:     model.KindRelation,
				Scope:    model.ScopeShift,
				TargetID: "s1",
				Hardness: tt.hardness,
				Params:   model.ConstraintParams{EmployeeA: "e1", EmployeeB: "e2", Together: tt.together},
			})
			m, err := Encode(schema, nil)
			if err != nil {
				t.Fatalf("编码失败: %v", err)
			}
			found := false
			for _, c := range m.Constraints {
				if c.Kind == model.KindRelation {
					found = true
					if c.Op != tt.wantOp {
						t.Errorf("关系约束算子 = %v, 期望 %v", c.Op, tt.wantOp)
					}
				}
			}
			if !found {
				t.Fatalf("缺少关系约束")
			}
		})
	}
}

func TestEncode_PreferenceAndNightPenalty(t *testing.T) {
	schema := testSchema()
	schema.Employees[0].Preferences = map[string]float64{"s1": 2.0, "s3": 1.0}

	m, err := Encode(schema, nil)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}

	prefCount, nightCount, fairCount := 0, 0, 0
	for _, p := range m.Penalties {
		switch p.Kind() {
		case model.KindPreferenceMatch:
			prefCount++
		case model.KindConsecutiveNightLimit:
			nightCount++
		case model.KindFairnessBalance:
			fairCount++
		}
	}
	if prefCount != 2 {
		t.Errorf("偏好惩罚项数 = %d, 期望 2", prefCount)
	}
	// 只有带夜班的员工计入，两人都可能排夜班
	if nightCount != 2 {
		t.Errorf("夜班惩罚项数 = %d, 期望 2", nightCount)
	}
	if fairCount != 1 {
		t.Errorf("公平惩罚项数 = %d, 期望 1", fairCount)
	}
}

func TestEncode_DeclarationParams(t *testing.T) {
	tests := []struct {
		name string
		decl *model.ConstraintDeclaration
	}{
		{"负容差", &model.ConstraintDeclaration{
			Kind: model.KindContractPercentage, Scope: model.ScopeGlobal,
			Hardness: model.HardnessHard, Params: model.ConstraintParams{Tolerance: -0.1},
		}},
		{"软约束零权重", &model.ConstraintDeclaration{
			Kind: model.KindFairnessBalance, Scope: model.ScopeGlobal,
			Hardness: model.HardnessSoft, Weight: 0,
		}},
		{"夜班上限为零", &model.ConstraintDeclaration{
			Kind: model.KindConsecutiveNightLimit, Scope: model.ScopeGlobal,
			Hardness: model.HardnessSoft, Weight: 1,
			Params: model.ConstraintParams{MaxConsecutive: 0},
		}},
		{"关系缺少员工", &model.ConstraintDeclaration{
			Kind: model.KindRelation, Scope: model.ScopeGlobal,
			Hardness: model.HardnessHard,
			Params:   model.ConstraintParams{EmployeeA: "e1"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := testSchema()
			schema.Declarations = append(schema.Declarations, tt.decl)
			_, err := Encode(schema, nil)
			if err == nil {
				t.Fatalf("期望编码错误")
			}
			if errors.GetCode(err) != errors.CodeEncodingError {
				t.Errorf("错误码 = %s, 期望 %s", errors.GetCode(err), errors.CodeEncodingError)
			}
		})
	}
}

func TestModel_FeasibilityAndObjective(t *testing.T) {
	schema := testSchema()
	// 去掉合同硬约束，避免手工解不满足工时等式
	var decls []*model.ConstraintDeclaration
	for _, d := range schema.Declarations {
		if d.Kind != model.KindContractPercentage {
			decls = append(decls, d)
		}
	}
	schema.Declarations = decls

	m, err := Encode(schema, nil)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}

	// e2 上周一早班，e1 上周一晚班和周二早班：
	// 覆盖满足，e2 的可用性满足，无人连上间隔不足的两班
	assign := make([]bool, len(m.Vars))
	for _, key := range []struct{ emp, shift string }{
		{"e2", "s1"}, {"e1", "s2"}, {"e1", "s3"},
	} {
		idx, _ := m.VarIndex(key.emp, key.shift)
		assign[idx] = true
	}
	if !m.Feasible(assign) {
		t.Fatalf("手工解应可行")
	}

	// e1 连上周一早晚两班：间隔为零，不可行
	backToBack := make([]bool, len(m.Vars))
	for _, sh := range []string{"s1", "s2", "s3"} {
		idx, _ := m.VarIndex("e1", sh)
		backToBack[idx] = true
	}
	if m.Feasible(backToBack) {
		t.Fatalf("零间隔连班不应可行")
	}

	// 全不排班：覆盖缺口，不可行
	empty := make([]bool, len(m.Vars))
	if m.Feasible(empty) {
		t.Fatalf("空解不应可行")
	}

	// 目标值：公平惩罚 |2-1.5|+|1-1.5| = 1, 权重 2 → 2；夜班单班不超限 0
	obj := m.Objective(assign)
	if obj < 1.99 || obj > 2.01 {
		t.Errorf("目标值 = %v, 期望 2.0", obj)
	}
}
