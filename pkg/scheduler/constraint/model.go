package constraint

import (
	sat "github.com/crillab/gophersat/solver"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/index"
)

// CostTerm 目标函数项：文字为真时计入 Weight
type CostTerm struct {
	Lit    int
	Weight int
	Source Type
}

// Model 伪布尔模型
// 变量 1..Index.Len() 为决策变量，之后为辅助变量
type Model struct {
	Problem *Problem

	constrs []sat.PBConstr
	costs   []CostTerm
	costPos map[int]int // 文字 -> costs 下标，每个变量至多一项
	offset  int
	nextVar int

	unsat       bool
	unsatReason string
}

// NewModel 创建模型
func NewModel(p *Problem) *Model {
	return &Model{
		Problem: p,
		costPos: make(map[int]int),
		nextVar: p.Index.Len(),
	}
}

// NewVar 分配辅助变量
func (m *Model) NewVar() int {
	m.nextVar++
	return m.nextVar
}

// NumVars 返回变量总数（含辅助变量）
func (m *Model) NumVars() int {
	return m.nextVar
}

// Clause 添加子句：至少一个文字为真
func (m *Model) Clause(lits ...int) {
	if len(lits) == 0 {
		m.markUnsat("空子句")
		return
	}
	m.constrs = append(m.constrs, sat.PropClause(clone(lits)...))
}

// AtLeast 至少 n 个文字为真
func (m *Model) AtLeast(lits []int, n int) {
	if n <= 0 {
		return
	}
	if n > len(lits) {
		m.markUnsat("候选变量不足")
		return
	}
	m.constrs = append(m.constrs, sat.AtLeast(clone(lits), n))
}

// AtMost 至多 n 个文字为真
func (m *Model) AtMost(lits []int, n int) {
	if n >= len(lits) {
		return
	}
	if n < 0 {
		m.markUnsat("上界为负")
		return
	}
	m.constrs = append(m.constrs, sat.AtMost(clone(lits), n))
}

// Exactly 恰好 n 个文字为真
func (m *Model) Exactly(lits []int, n int) {
	m.AtLeast(lits, n)
	m.AtMost(lits, n)
}

// LessEq 加权和不超过 n：Σ weights[i]*lits[i] <= n
// 权重必须为正
func (m *Model) LessEq(lits []int, weights []int, n int) {
	sum := 0
	for _, w := range weights {
		sum += w
	}
	if n >= sum {
		return
	}
	if n < 0 {
		m.markUnsat("上界为负")
		return
	}
	// Σ w*l <= n  <=>  Σ w*¬l >= Σw - n
	neg := make([]int, len(lits))
	for i, l := range lits {
		neg[i] = -l
	}
	m.constrs = append(m.constrs, sat.PBConstr{
		Lits:    neg,
		Weights: clone(weights),
		AtLeast: sum - n,
	})
}

// AddCost 添加代价项。
// 同一文字的代价累加；文字与其否定同时带代价时，
// 利用 a·l + b·¬l = min(a,b) + |a-b|·(较重的一侧) 折算为固定代价加一项，
// 保证每个变量在目标函数中至多出现一次
func (m *Model) AddCost(lit, weight int, src Type) {
	if weight <= 0 {
		return
	}
	if i, ok := m.costPos[lit]; ok {
		m.costs[i].Weight += weight
		return
	}
	i, ok := m.costPos[-lit]
	if !ok {
		m.costPos[lit] = len(m.costs)
		m.costs = append(m.costs, CostTerm{Lit: lit, Weight: weight, Source: src})
		return
	}

	t := &m.costs[i]
	switch {
	case t.Weight > weight:
		m.offset += weight
		t.Weight -= weight
	case t.Weight < weight:
		m.offset += t.Weight
		delete(m.costPos, -lit)
		m.costPos[lit] = i
		*t = CostTerm{Lit: lit, Weight: weight - t.Weight, Source: src}
	default:
		m.offset += weight
		m.removeCost(i)
	}
}

func (m *Model) removeCost(i int) {
	delete(m.costPos, m.costs[i].Lit)
	m.costs = append(m.costs[:i], m.costs[i+1:]...)
	for j := i; j < len(m.costs); j++ {
		m.costPos[m.costs[j].Lit] = j
	}
}

// AddConstantCost 添加与赋值无关的固定代价
func (m *Model) AddConstantCost(weight int) {
	m.offset += weight
}

// Constraints 返回硬约束副本
func (m *Model) Constraints() []sat.PBConstr {
	out := make([]sat.PBConstr, len(m.constrs))
	for i, c := range m.constrs {
		out[i] = sat.PBConstr{Lits: clone(c.Lits), Weights: clone(c.Weights), AtLeast: c.AtLeast}
	}
	return out
}

// NumConstraints 返回约束数量
func (m *Model) NumConstraints() int {
	return len(m.constrs)
}

// CostTerms 返回代价项
func (m *Model) CostTerms() []CostTerm {
	return m.costs
}

// Offset 返回固定代价
func (m *Model) Offset() int {
	return m.offset
}

// Cost 计算赋值的目标函数值（不含固定代价）
func (m *Model) Cost(assign []bool) int {
	cost := 0
	for _, t := range m.costs {
		if IsTrue(assign, t.Lit) {
			cost += t.Weight
		}
	}
	return cost
}

// Unsat 模型在构建阶段即可判定无解
func (m *Model) Unsat() (bool, string) {
	return m.unsat, m.unsatReason
}

func (m *Model) markUnsat(reason string) {
	if !m.unsat {
		m.unsat = true
		m.unsatReason = reason
	}
}

// Lits 将变量转换为文字
func Lits(vars []index.Var) []int {
	lits := make([]int, len(vars))
	for i, v := range vars {
		lits[i] = int(v)
	}
	return lits
}

// IsTrue 判断文字在赋值中是否为真，assign[i] 对应变量 i+1
func IsTrue(assign []bool, lit int) bool {
	v := lit
	if v < 0 {
		v = -v
	}
	val := v >= 1 && v <= len(assign) && assign[v-1]
	if lit < 0 {
		return !val
	}
	return val
}

func clone(s []int) []int {
	if s == nil {
		return nil
	}
	out := make([]int, len(s))
	copy(out, s)
	return out
}
