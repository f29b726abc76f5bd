// Package encoder 将排班 Schema 编码为与求解器无关的约束模型
package encoder

import (
	"fmt"
	"sort"

	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/model"
)

// Encode 按当前放宽档位把 Schema 编码为求解模型
// 纯函数：相同的 (schema, profile) 产生结构相同的模型
func Encode(schema *model.Schema, profile *model.RelaxationProfile) (*Model, error) {
	if profile == nil {
		profile = model.BaselineProfile()
	}
	if err := checkDeclarations(schema.Declarations); err != nil {
		return nil, err
	}

	shifts := schema.SortedShifts()
	m := &Model{varIndex: make(map[model.AssignKey]int)}

	// 决策变量：员工顺序 × 班次规范顺序
	for _, emp := range schema.Employees {
		for _, sh := range shifts {
			idx := len(m.Vars)
			m.Vars = append(m.Vars, Var{Index: idx, EmployeeID: emp.ID, ShiftID: sh.ID})
			m.varIndex[model.AssignKey{EmployeeID: emp.ID, ShiftID: sh.ID}] = idx
		}
	}

	decls := declIndex(schema.Declarations)

	encodeAvailability(m, schema, shifts, profile, decls)
	encodeCoverage(m, schema, shifts, profile, decls)
	encodeSeniorCoverage(m, schema, shifts, profile, decls)
	encodeNoOverlap(m, schema, shifts)
	encodeRest(m, schema, shifts)
	encodeContract(m, schema, shifts, profile, decls)
	encodeHeadcount(m, schema, shifts, decls)
	encodeRelations(m, schema, shifts, decls)
	encodePreferences(m, schema, decls)
	encodeFairness(m, schema, shifts, decls)
	encodeNightLimit(m, schema, shifts, decls)

	return m, nil
}

// checkDeclarations 检查声明参数的内部一致性
// Schema 层面的问题由 Validate 提前拦截，这里只管配置缺陷
func checkDeclarations(decls []*model.ConstraintDeclaration) error {
	for _, d := range decls {
		if d.Params.Tolerance < 0 {
			return errors.EncodingError(d.Label(), fmt.Sprintf("容差为负: %v", d.Params.Tolerance))
		}
		if d.Hardness == model.HardnessSoft && d.Weight <= 0 {
			return errors.EncodingError(d.Label(), "软约束权重必须为正")
		}
		if d.Kind == model.KindConsecutiveNightLimit && d.Params.MaxConsecutive < 1 {
			return errors.EncodingError(d.Label(), fmt.Sprintf("连续夜班上限 %d 非法", d.Params.MaxConsecutive))
		}
		if d.Kind == model.KindShiftHeadcount && d.Params.MaxHeadcount < 1 {
			return errors.EncodingError(d.Label(), fmt.Sprintf("人数上限 %d 非法", d.Params.MaxHeadcount))
		}
		if d.Kind == model.KindRelation && (d.Params.EmployeeA == "" || d.Params.EmployeeB == "") {
			return errors.EncodingError(d.Label(), "关系约束缺少员工")
		}
	}
	return nil
}

// declsByKind 按声明种类分组的索引
type declsByKind map[model.ConstraintKind][]*model.ConstraintDeclaration

func declIndex(decls []*model.ConstraintDeclaration) declsByKind {
	idx := make(declsByKind)
	for _, d := range decls {
		idx[d.Kind] = append(idx[d.Kind], d)
	}
	return idx
}

// globalDecl 返回某种类的全局声明（没有则为 nil）
func (idx declsByKind) globalDecl(kind model.ConstraintKind) *model.ConstraintDeclaration {
	for _, d := range idx[kind] {
		if d.Scope == model.ScopeGlobal {
			return d
		}
	}
	return nil
}

// scopedDecl 返回作用于特定对象的声明，退化到全局声明
func (idx declsByKind) scopedDecl(kind model.ConstraintKind, scope model.ConstraintScope, targetID string) *model.ConstraintDeclaration {
	for _, d := range idx[kind] {
		if d.Scope == scope && d.TargetID == targetID {
			return d
		}
	}
	return idx.globalDecl(kind)
}

// encodeAvailability 可用性：班次窗口未被员工当天可用窗口完整覆盖时禁止分配；
// 放宽档位下小于溢出上限的缺口转为按小时计罚
func encodeAvailability(m *Model, schema *model.Schema, shifts []*model.Shift, profile *model.RelaxationProfile, decls declsByKind) {
	decl := decls.globalDecl(model.KindAvailability)
	if decl == nil {
		return
	}

	for _, emp := range schema.Employees {
		for _, sh := range shifts {
			gap := emp.CoverageGap(sh.Day, sh.Window())
			if gap == 0 {
				continue
			}
			idx, _ := m.VarIndex(emp.ID, sh.ID)
			label := fmt.Sprintf("availability[%s,%s]", emp.ID, sh.ID)

			softened := decl.Hardness == model.HardnessSoft ||
				(profile.SoftenAvailability && gap <= profile.SpilloverLimitMinutes)
			if softened {
				weight := profile.SpilloverWeight
				if decl.Hardness == model.HardnessSoft {
					weight = decl.Weight
				}
				m.Penalties = append(m.Penalties, &AssignedPenalty{
					basePenalty: basePenalty{
						kind:   model.KindAvailability,
						label:  label,
						weight: weight * float64(gap) / 60.0,
					},
					VarIdx: idx,
				})
				continue
			}

			m.Constraints = append(m.Constraints, LinearConstraint{
				Name:  label,
				Kind:  model.KindAvailability,
				Terms: []Term{{Var: idx, Coef: 1}},
				Op:    OpEQ,
				Bound: 0,
			})
		}
	}
}

// encodeCoverage 覆盖：每个班次每个岗位的合格分配人数不少于要求
// 允许超配；放宽档位下缺口按人数计罚
func encodeCoverage(m *Model, schema *model.Schema, shifts []*model.Shift, profile *model.RelaxationProfile, decls declsByKind) {
	decl := decls.globalDecl(model.KindCoverage)
	if decl == nil {
		return
	}

	for _, sh := range shifts {
		for _, role := range sortedRoles(sh.RequiredRoles) {
			required := sh.RequiredRoles[role]
			var terms []Term
			for _, emp := range schema.Employees {
				if !emp.HasRole(role) {
					continue
				}
				idx, _ := m.VarIndex(emp.ID, sh.ID)
				terms = append(terms, Term{Var: idx, Coef: 1})
			}
			label := fmt.Sprintf("coverage[%s,%s]", sh.ID, role)

			if decl.Hardness == model.HardnessHard && !profile.SoftenCoverage {
				m.Constraints = append(m.Constraints, LinearConstraint{
					Name:  label,
					Kind:  model.KindCoverage,
					Terms: terms,
					Op:    OpGE,
					Bound: required,
				})
				continue
			}

			weight := profile.CoverageWeight
			if decl.Hardness == model.HardnessSoft {
				weight = decl.Weight
			}
			m.Penalties = append(m.Penalties, &ShortfallPenalty{
				basePenalty: basePenalty{kind: model.KindCoverage, label: label, weight: weight},
				Terms:       terms,
				Required:    required,
			})
		}
	}
}

// encodeSeniorCoverage 资深保障：需求超过 2 人的班次至少要有一名资深员工在班
// 覆盖放宽时同样转为按人数计罚
func encodeSeniorCoverage(m *Model, schema *model.Schema, shifts []*model.Shift, profile *model.RelaxationProfile, decls declsByKind) {
	decl := decls.globalDecl(model.KindCoverage)
	if decl == nil {
		return
	}

	for _, sh := range shifts {
		if sh.TotalRequired() <= 2 {
			continue
		}
		var terms []Term
		for _, emp := range schema.Employees {
			if !emp.IsSenior() {
				continue
			}
			idx, _ := m.VarIndex(emp.ID, sh.ID)
			terms = append(terms, Term{Var: idx, Coef: 1})
		}
		label := fmt.Sprintf("senior_coverage[%s]", sh.ID)

		if decl.Hardness == model.HardnessHard && !profile.SoftenCoverage {
			m.Constraints = append(m.Constraints, LinearConstraint{
				Name:  label,
				Kind:  model.KindCoverage,
				Terms: terms,
				Op:    OpGE,
				Bound: 1,
			})
			continue
		}

		weight := profile.CoverageWeight
		if decl.Hardness == model.HardnessSoft {
			weight = decl.Weight
		}
		m.Penalties = append(m.Penalties, &ShortfallPenalty{
			basePenalty: basePenalty{kind: model.KindCoverage, label: label, weight: weight},
			Terms:       terms,
			Required:    1,
		})
	}
}

// encodeNoOverlap 同一员工同一天的班次时段不得重叠（结构性硬约束，不参与放宽）
func encodeNoOverlap(m *Model, schema *model.Schema, shifts []*model.Shift) {
	for _, emp := range schema.Employees {
		for i := 0; i < len(shifts); i++ {
			for j := i + 1; j < len(shifts); j++ {
				a, b := shifts[i], shifts[j]
				if a.Day != b.Day || !a.Window().Overlaps(b.Window()) {
					continue
				}
				ia, _ := m.VarIndex(emp.ID, a.ID)
				ib, _ := m.VarIndex(emp.ID, b.ID)
				m.Constraints = append(m.Constraints, LinearConstraint{
					Name:  fmt.Sprintf("no_overlap[%s,%s,%s]", emp.ID, a.ID, b.ID),
					Kind:  model.KindAvailability,
					Terms: []Term{{Var: ia, Coef: 1}, {Var: ib, Coef: 1}},
					Op:    OpLE,
					Bound: 1,
				})
			}
		}
	}
}

// minRestMinutes 相邻两班之间的最短休息时间
const minRestMinutes = 8 * 60

// encodeRest 休息间隔：同一员工先后两班（含跨天衔接，如 16-24 接次日 00-08）
// 之间必须留足最短休息时间（结构性硬约束，不参与放宽）
func encodeRest(m *Model, schema *model.Schema, shifts []*model.Shift) {
	for _, emp := range schema.Employees {
		for i := 0; i < len(shifts); i++ {
			for j := i + 1; j < len(shifts); j++ {
				gap, ok := restGap(schema, shifts[i], shifts[j])
				if !ok || gap >= minRestMinutes {
					continue
				}
				ia, _ := m.VarIndex(emp.ID, shifts[i].ID)
				ib, _ := m.VarIndex(emp.ID, shifts[j].ID)
				m.Constraints = append(m.Constraints, LinearConstraint{
					Name:  fmt.Sprintf("rest_period[%s,%s,%s]", emp.ID, shifts[i].ID, shifts[j].ID),
					Kind:  model.KindAvailability,
					Terms: []Term{{Var: ia, Coef: 1}, {Var: ib, Coef: 1}},
					Op:    OpLE,
					Bound: 1,
				})
			}
		}
	}
}

// restGap 返回班次 b 紧随 a 时两班之间的休息分钟数
// b 不在 a 的当天之后或与 a 重叠（交给重叠约束）时返回 false
func restGap(schema *model.Schema, a, b *model.Shift) (int, bool) {
	da, db := schema.DayIndex(a.Day), schema.DayIndex(b.Day)
	switch db - da {
	case 0:
		if b.Window().Start < a.Window().End {
			return 0, false
		}
		return b.Window().Start - a.Window().End, true
	case 1:
		return (24*60 - a.Window().End) + b.Window().Start, true
	default:
		return 0, false
	}
}

// encodeContract 合同工时：员工总工时落在 目标 ± 容差×总可排工时 区间内
// 容差取声明与放宽档位中的较大者；声明为软约束时按偏离小时数计罚
func encodeContract(m *Model, schema *model.Schema, shifts []*model.Shift, profile *model.RelaxationProfile, decls declsByKind) {
	if decls.globalDecl(model.KindContractPercentage) == nil && len(decls[model.KindContractPercentage]) == 0 {
		return
	}
	total := schema.TotalScheduleMinutes()

	for _, emp := range schema.Employees {
		decl := decls.scopedDecl(model.KindContractPercentage, model.ScopeEmployee, emp.ID)
		if decl == nil {
			continue
		}
		target := emp.TargetMinutes(total)
		slack := int(profile.EffectiveTolerance(decl) * float64(total))

		var terms []Term
		for _, sh := range shifts {
			idx, _ := m.VarIndex(emp.ID, sh.ID)
			terms = append(terms, Term{Var: idx, Coef: sh.DurationMinutes()})
		}
		label := fmt.Sprintf("contract_percentage[%s]", emp.ID)

		if decl.Hardness == model.HardnessSoft {
			m.Penalties = append(m.Penalties, &RangePenalty{
				basePenalty: basePenalty{kind: model.KindContractPercentage, label: label, weight: decl.Weight},
				Terms:       terms,
				Lo:          target - slack,
				Hi:          target + slack,
				Scale:       1.0 / 60.0,
			})
			continue
		}

		if slack == 0 {
			m.Constraints = append(m.Constraints, LinearConstraint{
				Name: label, Kind: model.KindContractPercentage,
				Terms: terms, Op: OpEQ, Bound: target,
			})
			continue
		}
		lo := target - slack
		if lo < 0 {
			lo = 0
		}
		m.Constraints = append(m.Constraints,
			LinearConstraint{
				Name: label + ".min", Kind: model.KindContractPercentage,
				Terms: terms, Op: OpGE, Bound: lo,
			},
			LinearConstraint{
				Name: label + ".max", Kind: model.KindContractPercentage,
				Terms: terms, Op: OpLE, Bound: target + slack,
			},
		)
	}
}

// encodeHeadcount 单班次人数上限
func encodeHeadcount(m *Model, schema *model.Schema, shifts []*model.Shift, decls declsByKind) {
	for _, sh := range shifts {
		decl := decls.scopedDecl(model.KindShiftHeadcount, model.ScopeShift, sh.ID)
		if decl == nil {
			continue
		}
		cap := decl.Params.MaxHeadcount
		var terms []Term
		for _, emp := range schema.Employees {
			idx, _ := m.VarIndex(emp.ID, sh.ID)
			terms = append(terms, Term{Var: idx, Coef: 1})
		}
		label := fmt.Sprintf("shift_headcount[%s]", sh.ID)

		if decl.Hardness == model.HardnessHard {
			m.Constraints = append(m.Constraints, LinearConstraint{
				Name: label, Kind: model.KindShiftHeadcount,
				Terms: terms, Op: OpLE, Bound: cap,
			})
			continue
		}
		m.Penalties = append(m.Penalties, &ExcessPenalty{
			basePenalty: basePenalty{kind: model.KindShiftHeadcount, label: label, weight: decl.Weight},
			Terms:       terms,
			Cap:         cap,
		})
	}
}

// encodeRelations 员工关系：硬约束下同班强制相等、避开强制互斥；软约束下计罚
func encodeRelations(m *Model, schema *model.Schema, shifts []*model.Shift, decls declsByKind) {
	for _, decl := range decls[model.KindRelation] {
		targets := shifts
		if decl.Scope == model.ScopeShift {
			sh := schema.Shift(decl.TargetID)
			if sh == nil {
				continue
			}
			targets = []*model.Shift{sh}
		}
		for _, sh := range targets {
			ia, okA := m.VarIndex(decl.Params.EmployeeA, sh.ID)
			ib, okB := m.VarIndex(decl.Params.EmployeeB, sh.ID)
			if !okA || !okB {
				continue
			}
			label := fmt.Sprintf("relation[%s,%s,%s]", decl.Params.EmployeeA, decl.Params.EmployeeB, sh.ID)

			if decl.Hardness == model.HardnessHard {
				if decl.Params.Together {
					m.Constraints = append(m.Constraints, LinearConstraint{
						Name: label, Kind: model.KindRelation,
						Terms: []Term{{Var: ia, Coef: 1}, {Var: ib, Coef: -1}},
						Op:    OpEQ, Bound: 0,
					})
				} else {
					m.Constraints = append(m.Constraints, LinearConstraint{
						Name: label, Kind: model.KindRelation,
						Terms: []Term{{Var: ia, Coef: 1}, {Var: ib, Coef: 1}},
						Op:    OpLE, Bound: 1,
					})
				}
				continue
			}

			m.Penalties = append(m.Penalties, &RelationPenalty{
				basePenalty: basePenalty{kind: model.KindRelation, label: label, weight: decl.Weight},
				VarA:        ia,
				VarB:        ib,
				Together:    decl.Params.Together,
			})
		}
	}
}

// encodePreferences 偏好：偏好班次未分配时计罚，权重 = 声明权重 × 员工偏好权重
func encodePreferences(m *Model, schema *model.Schema, decls declsByKind) {
	decl := decls.globalDecl(model.KindPreferenceMatch)
	if decl == nil || decl.Hardness != model.HardnessSoft {
		return
	}

	for _, emp := range schema.Employees {
		for _, shiftID := range sortedKeys(emp.Preferences) {
			prefWeight := emp.Preferences[shiftID]
			if prefWeight <= 0 {
				continue
			}
			idx, ok := m.VarIndex(emp.ID, shiftID)
			if !ok {
				continue
			}
			m.Penalties = append(m.Penalties, &NotAssignedPenalty{
				basePenalty: basePenalty{
					kind:   model.KindPreferenceMatch,
					label:  fmt.Sprintf("preference_match[%s,%s]", emp.ID, shiftID),
					weight: decl.Weight * prefWeight,
				},
				VarIdx: idx,
			})
		}
	}
}

// encodeFairness 公平：各员工班次数对均值的偏差计罚
func encodeFairness(m *Model, schema *model.Schema, shifts []*model.Shift, decls declsByKind) {
	decl := decls.globalDecl(model.KindFairnessBalance)
	if decl == nil || decl.Hardness != model.HardnessSoft || len(schema.Employees) < 2 {
		return
	}

	groups := make([][]int, len(schema.Employees))
	for i, emp := range schema.Employees {
		for _, sh := range shifts {
			idx, _ := m.VarIndex(emp.ID, sh.ID)
			groups[i] = append(groups[i], idx)
		}
	}
	m.Penalties = append(m.Penalties, &BalancePenalty{
		basePenalty: basePenalty{kind: model.KindFairnessBalance, label: "fairness_balance", weight: decl.Weight},
		Groups:      groups,
	})
}

// encodeNightLimit 连续夜班：每段连续夜班超出上限的部分计罚
func encodeNightLimit(m *Model, schema *model.Schema, shifts []*model.Shift, decls declsByKind) {
	decl := decls.globalDecl(model.KindConsecutiveNightLimit)
	if decl == nil || decl.Hardness != model.HardnessSoft {
		return
	}

	days := schema.PeriodDays()
	for _, emp := range schema.Employees {
		dayGroups := make([][]int, len(days))
		hasNight := false
		for di, day := range days {
			for _, sh := range shifts {
				if sh.Day != day || !sh.IsNight() {
					continue
				}
				idx, _ := m.VarIndex(emp.ID, sh.ID)
				dayGroups[di] = append(dayGroups[di], idx)
				hasNight = true
			}
		}
		if !hasNight {
			continue
		}
		m.Penalties = append(m.Penalties, &RunPenalty{
			basePenalty: basePenalty{
				kind:   model.KindConsecutiveNightLimit,
				label:  fmt.Sprintf("consecutive_night_limit[%s]", emp.ID),
				weight: decl.Weight,
			},
			Days:  dayGroups,
			Limit: decl.Params.MaxConsecutive,
		})
	}
}

// sortedRoles 返回排序后的岗位名（保证编码确定性）
func sortedRoles(roles map[string]int) []string {
	names := make([]string, 0, len(roles))
	for r := range roles {
		names = append(names, r)
	}
	sort.Strings(names)
	return names
}

// sortedKeys 返回排序后的键（保证编码确定性）
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
