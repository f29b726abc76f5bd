package solver

import (
	"context"
	"sort"
	"time"

	"github.com/zhipai/zhipai/pkg/scheduler/encoder"
)

const (
	// defaultNodeLimit 搜索节点上限，超出后返回现任解（FEASIBLE）
	defaultNodeLimit = 2_000_000

	// deadlineCheckInterval 每隔多少节点检查一次时间预算
	deadlineCheckInterval = 1024
)

// BacktrackSolver 确定性分支定界求解器
// 按变量下标顺序分支，先试 1 再试 0，逐约束区间传播剪枝；
// 叶子处评估软约束罚分并用现任解剪界
type BacktrackSolver struct {
	// NodeLimit 覆盖默认节点上限（<=0 使用默认值）
	NodeLimit int
}

// NewBacktrackSolver 创建分支定界求解器
func NewBacktrackSolver() *BacktrackSolver {
	return &BacktrackSolver{}
}

// conState 单条约束的传播状态
type conState struct {
	sum    int // 已赋值为 1 的项的系数和
	posRem int // 未赋值项的正系数和
	negRem int // 未赋值项的负系数和
	prunes int // 该约束触发的剪枝次数
}

// feasibleWindow 判断区间 [sum+negRem, sum+posRem] 是否仍可能满足约束
func (s *conState) feasibleWindow(c *encoder.LinearConstraint) bool {
	lo, hi := s.sum+s.negRem, s.sum+s.posRem
	switch c.Op {
	case encoder.OpGE:
		return hi >= c.Bound
	case encoder.OpLE:
		return lo <= c.Bound
	default: // OpEQ
		return lo <= c.Bound && c.Bound <= hi
	}
}

// varLink 变量在某条约束中的出现
type varLink struct {
	con  int
	coef int
}

type search struct {
	m      *encoder.Model
	states []conState
	links  [][]varLink // 变量下标 -> 所在约束
	assign []bool

	best    []bool
	bestObj float64

	explored  int
	nodeLimit int
	deadline  time.Time
	ctx       context.Context
	stopped   bool // 预算或节点上限触发，搜索不完整
	timedOut  bool
}

// Solve 实现 Solver 契约
// 预算耗尽返回 TIMEOUT（携带现任解），节点上限截断返回 FEASIBLE，
// 搜索完整结束返回 OPTIMAL 或 INFEASIBLE
func (b *BacktrackSolver) Solve(ctx context.Context, m *encoder.Model, budget time.Duration) (*Outcome, error) {
	if budget <= 0 {
		return &Outcome{Status: StatusTimeout}, nil
	}

	limit := b.NodeLimit
	if limit <= 0 {
		limit = defaultNodeLimit
	}

	s := &search{
		m:         m,
		states:    make([]conState, len(m.Constraints)),
		links:     make([][]varLink, len(m.Vars)),
		assign:    make([]bool, len(m.Vars)),
		bestObj:   -1,
		nodeLimit: limit,
		deadline:  time.Now().Add(budget),
		ctx:       ctx,
	}
	for ci := range m.Constraints {
		st := &s.states[ci]
		for _, t := range m.Constraints[ci].Terms {
			s.links[t.Var] = append(s.links[t.Var], varLink{con: ci, coef: t.Coef})
			if t.Coef > 0 {
				st.posRem += t.Coef
			} else {
				st.negRem += t.Coef
			}
		}
	}

	// 搜索前检查初始区间：界不在 [negRem, posRem] 内的约束任何赋值都无法满足
	// （含零项约束，逐变量传播永远不会触碰它们）
	if names := s.unsatisfiableAtRoot(); len(names) > 0 {
		return &Outcome{
			Status:           StatusInfeasible,
			UnsatConstraints: names,
		}, nil
	}

	// 空模型退化：无约束也无变量时空赋值即最优
	s.dfs(0)

	if s.best != nil {
		out := &Outcome{
			Assignment: s.best,
			Objective:  s.bestObj,
			Explored:   s.explored,
		}
		switch {
		case s.timedOut:
			out.Status = StatusTimeout
		case s.stopped:
			out.Status = StatusFeasible
		default:
			out.Status = StatusOptimal
		}
		return out, nil
	}

	// 搜索不完整且无现任解：不能断言无解
	if s.stopped {
		return &Outcome{Status: StatusTimeout, Explored: s.explored}, nil
	}
	return &Outcome{
		Status:           StatusInfeasible,
		Explored:         s.explored,
		UnsatConstraints: s.blockingConstraints(),
	}, nil
}

// dfs 从变量 v 起深度优先搜索
func (s *search) dfs(v int) {
	if s.stopped {
		return
	}
	s.explored++
	if s.explored%deadlineCheckInterval == 0 {
		if time.Now().After(s.deadline) || s.ctx.Err() != nil {
			s.stopped, s.timedOut = true, true
			return
		}
	}
	if s.explored >= s.nodeLimit {
		s.stopped = true
		return
	}

	if v == len(s.m.Vars) {
		obj := s.m.Objective(s.assign)
		if s.best == nil || obj < s.bestObj {
			s.best = append([]bool(nil), s.assign...)
			s.bestObj = obj
		}
		return
	}

	// 先试 1 再试 0，保证确定性并优先产出有分配的解
	for _, val := range [2]bool{true, false} {
		if s.propagate(v, val) {
			s.assign[v] = val
			s.dfs(v + 1)
			s.assign[v] = false
		}
		s.undo(v, val)
		if s.stopped {
			return
		}
	}
}

// propagate 把变量 v 固定为 val 并检查所有相关约束的可行区间
// 返回 false 表示剪枝；无论结果如何状态都已更新，由 undo 回滚
func (s *search) propagate(v int, val bool) bool {
	ok := true
	for _, l := range s.links[v] {
		st := &s.states[l.con]
		if l.coef > 0 {
			st.posRem -= l.coef
		} else {
			st.negRem -= l.coef
		}
		if val {
			st.sum += l.coef
		}
		if ok && !st.feasibleWindow(&s.m.Constraints[l.con]) {
			st.prunes++
			ok = false
		}
	}
	return ok
}

// undo 回滚 propagate 对约束状态的修改
func (s *search) undo(v int, val bool) {
	for _, l := range s.links[v] {
		st := &s.states[l.con]
		if l.coef > 0 {
			st.posRem += l.coef
		} else {
			st.negRem += l.coef
		}
		if val {
			st.sum -= l.coef
		}
	}
}

// unsatisfiableAtRoot 返回初始区间就已排除界的约束名（字典序，最多 5 条）
func (s *search) unsatisfiableAtRoot() []string {
	var names []string
	for ci := range s.states {
		if !s.states[ci].feasibleWindow(&s.m.Constraints[ci]) {
			names = append(names, s.m.Constraints[ci].Name)
		}
	}
	sort.Strings(names)
	if len(names) > 5 {
		names = names[:5]
	}
	return names
}

// blockingConstraints 返回按剪枝次数排序的最阻塞约束名（最多 5 条）
func (s *search) blockingConstraints() []string {
	type ranked struct {
		name   string
		prunes int
	}
	var rs []ranked
	for ci := range s.states {
		if s.states[ci].prunes > 0 {
			rs = append(rs, ranked{s.m.Constraints[ci].Name, s.states[ci].prunes})
		}
	}
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].prunes != rs[j].prunes {
			return rs[i].prunes > rs[j].prunes
		}
		return rs[i].name < rs[j].name
	})
	if len(rs) > 5 {
		rs = rs[:5]
	}
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.name
	}
	return names
}
