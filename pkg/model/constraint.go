// Package model 定义排班引擎的核心数据模型
package model

import "fmt"

// ConstraintKind 约束种类（封闭集合）
type ConstraintKind string

const (
	KindCoverage              ConstraintKind = "coverage"                // 岗位覆盖
	KindAvailability          ConstraintKind = "availability"            // 可用性
	KindContractPercentage    ConstraintKind = "contract_percentage"     // 合同工时百分比
	KindShiftHeadcount        ConstraintKind = "shift_headcount"         // 单班次人数上限
	KindFairnessBalance       ConstraintKind = "fairness_balance"        // 班次数公平
	KindConsecutiveNightLimit ConstraintKind = "consecutive_night_limit" // 连续夜班上限
	KindPreferenceMatch       ConstraintKind = "preference_match"        // 偏好满足
	KindRelation              ConstraintKind = "relation"                // 员工关系（同班/避开）
)

// ConstraintScope 约束作用域
type ConstraintScope string

const (
	ScopeGlobal   ConstraintScope = "global"
	ScopeEmployee ConstraintScope = "employee"
	ScopeShift    ConstraintScope = "shift"
)

// ConstraintParams 各约束种类的专有参数
type ConstraintParams struct {
	// Tolerance 合同百分比容差（占总可排工时的比例，0-1）
	Tolerance float64 `json:"tolerance,omitempty"`

	// MaxConsecutive 连续夜班上限
	MaxConsecutive int `json:"max_consecutive,omitempty"`

	// MaxHeadcount 单班次人数上限
	MaxHeadcount int `json:"max_headcount,omitempty"`

	// EmployeeA/EmployeeB 关系约束涉及的两名员工
	EmployeeA string `json:"employee_a,omitempty"`
	EmployeeB string `json:"employee_b,omitempty"`

	// Together true: 两人应同班；false: 两人应避开同班
	Together bool `json:"together,omitempty"`
}

// ConstraintDeclaration 约束声明
type ConstraintDeclaration struct {
	Kind     ConstraintKind  `json:"kind"`
	Scope    ConstraintScope `json:"scope"`
	TargetID string          `json:"target_id,omitempty"` // scope 为 employee/shift 时的对象 ID
	Hardness Hardness        `json:"hardness"`

	// Weight 惩罚权重，仅在软约束下有意义（必须为正）
	Weight float64 `json:"weight,omitempty"`

	Params ConstraintParams `json:"params,omitempty"`
}

// Label 返回约束的可读标识
func (d *ConstraintDeclaration) Label() string {
	if d.TargetID != "" {
		return fmt.Sprintf("%s[%s]", d.Kind, d.TargetID)
	}
	return string(d.Kind)
}

// IsHard 检查声明本身是否为硬约束
func (d *ConstraintDeclaration) IsHard() bool {
	return d.Hardness == HardnessHard
}

// DefaultWeights 默认软约束权重
type DefaultWeights struct {
	Fairness         float64
	Preference       float64
	ConsecutiveNight float64
}

// DefaultDeclarations 返回标准约束集：
// 覆盖/可用性/合同百分比为硬约束，公平、偏好、连续夜班为软约束
func DefaultDeclarations(w DefaultWeights, consecutiveNightLimit int) []*ConstraintDeclaration {
	return []*ConstraintDeclaration{
		{Kind: KindCoverage, Scope: ScopeGlobal, Hardness: HardnessHard},
		{Kind: KindAvailability, Scope: ScopeGlobal, Hardness: HardnessHard},
		{Kind: KindContractPercentage, Scope: ScopeGlobal, Hardness: HardnessHard, Params: ConstraintParams{Tolerance: 0}},
		{Kind: KindFairnessBalance, Scope: ScopeGlobal, Hardness: HardnessSoft, Weight: w.Fairness},
		{Kind: KindPreferenceMatch, Scope: ScopeGlobal, Hardness: HardnessSoft, Weight: w.Preference},
		{Kind: KindConsecutiveNightLimit, Scope: ScopeGlobal, Hardness: HardnessSoft, Weight: w.ConsecutiveNight,
			Params: ConstraintParams{MaxConsecutive: consecutiveNightLimit}},
	}
}

// RelaxationProfile 当前求解尝试生效的放宽档位
// 由编排器按阶梯逐档构造，单次求解期间不可变
type RelaxationProfile struct {
	// Tier 当前档位（0 = 按声明硬度，不放宽）
	Tier int `json:"tier"`

	// Applied 已生效的放宽描述（有序，档位累积）
	Applied []string `json:"applied,omitempty"`

	// ContractTolerance 合同百分比容差（覆盖声明中更小的容差）
	ContractTolerance float64 `json:"contract_tolerance"`

	// SoftenCoverage 允许缺员，缺口按 CoverageWeight 计罚
	SoftenCoverage bool    `json:"soften_coverage"`
	CoverageWeight float64 `json:"coverage_weight,omitempty"`

	// SoftenAvailability 允许不超过 SpilloverLimitMinutes 的可用性溢出，按 SpilloverWeight 计罚
	SoftenAvailability    bool    `json:"soften_availability"`
	SpilloverLimitMinutes int     `json:"spillover_limit_minutes,omitempty"`
	SpilloverWeight       float64 `json:"spillover_weight,omitempty"`
}

// BaselineProfile 返回零档位（全部按声明硬度）
func BaselineProfile() *RelaxationProfile {
	return &RelaxationProfile{Tier: 0}
}

// Clone 复制放宽档位
func (p *RelaxationProfile) Clone() *RelaxationProfile {
	c := *p
	c.Applied = append([]string(nil), p.Applied...)
	return &c
}

// EffectiveTolerance 返回某合同声明在本档位下的实际容差
func (p *RelaxationProfile) EffectiveTolerance(d *ConstraintDeclaration) float64 {
	if p.ContractTolerance > d.Params.Tolerance {
		return p.ContractTolerance
	}
	return d.Params.Tolerance
}
