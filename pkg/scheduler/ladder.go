// Package scheduler 组装编码、求解、放宽与兜底，对外提供排班引擎
package scheduler

import (
	"fmt"

	"github.com/zhipai/zhipai/pkg/model"
)

// RelaxationStep 放宽阶梯上的一个档位
type RelaxationStep struct {
	// Description 人类可读的放宽描述，记入结果档案
	Description string

	// Apply 把该档位的放宽叠加到档案上
	Apply func(p *model.RelaxationProfile)
}

// Ladder 有限放宽阶梯；档位严格有序且逐档累积
type Ladder []RelaxationStep

// LadderConfig 阶梯各档位的参数
type LadderConfig struct {
	// ToleranceStep 第一档放宽的合同百分比容差
	ToleranceStep float64

	// CoverageWeight 第二档允许缺员后的缺口罚权
	CoverageWeight float64

	// SpilloverLimitMinutes 第三档允许的可用性溢出上限（分钟）
	SpilloverLimitMinutes int

	// SpilloverWeight 溢出罚权（按小时折算前的基准）
	SpilloverWeight float64
}

// DefaultLadder 构造标准三档阶梯：
// 放宽合同容差 -> 允许缺员计罚 -> 允许短时可用性溢出计罚
func DefaultLadder(cfg LadderConfig) Ladder {
	return Ladder{
		{
			Description: fmt.Sprintf("合同工时容差放宽至 ±%.0f%%", cfg.ToleranceStep*100),
			Apply: func(p *model.RelaxationProfile) {
				p.ContractTolerance = cfg.ToleranceStep
			},
		},
		{
			Description: "允许班次缺员，缺口计罚",
			Apply: func(p *model.RelaxationProfile) {
				p.SoftenCoverage = true
				p.CoverageWeight = cfg.CoverageWeight
			},
		},
		{
			Description: fmt.Sprintf("允许不超过 %d 分钟的可用性溢出，按时长计罚", cfg.SpilloverLimitMinutes),
			Apply: func(p *model.RelaxationProfile) {
				p.SoftenAvailability = true
				p.SpilloverLimitMinutes = cfg.SpilloverLimitMinutes
				p.SpilloverWeight = cfg.SpilloverWeight
			},
		},
	}
}

// ProfileAt 返回第 tier 档的累积档案（0 档为不放宽的基线）
func (l Ladder) ProfileAt(tier int) *model.RelaxationProfile {
	p := model.BaselineProfile()
	for i := 0; i < tier && i < len(l); i++ {
		l[i].Apply(p)
		p.Applied = append(p.Applied, l[i].Description)
	}
	p.Tier = tier
	return p
}

// MaxSolves 返回阶梯允许的最大求解次数（基线 + 每档一次）
func (l Ladder) MaxSolves() int {
	return len(l) + 1
}
