package builtin

import (
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint"
)

// WorkloadBalanceConstraint 工作量均衡约束
// 最小化所有人员中的最大加权工作量
type WorkloadBalanceConstraint struct {
	*base
}

// NewWorkloadBalanceConstraint 创建工作量均衡约束
func NewWorkloadBalanceConstraint(weight int) *WorkloadBalanceConstraint {
	return &WorkloadBalanceConstraint{
		base: newBase(
			"工作量均衡",
			constraint.TypeWorkloadBalance,
			constraint.CategorySoft,
			weight,
		),
	}
}

// LoadBounds 返回最大工作量的下界和上界
// 下界为平均需求向上取整，上界为单人可达到的最大工作量
func LoadBounds(p *constraint.Problem) (lower, upper int) {
	n := len(p.Workers)
	if n == 0 {
		return 0, 0
	}
	total := p.TotalDemand()
	lower = (total + n - 1) / n

	for w := range p.Workers {
		load := 0
		for d := 0; d < p.Days(); d++ {
			best := 0
			for s, shift := range p.Shifts {
				if _, ok := p.Index.Lookup(w, d, s); ok && shift.Weight() > best {
					best = shift.Weight()
				}
			}
			load += best
		}
		if load > upper {
			upper = load
		}
	}
	if upper > total {
		upper = total
	}
	return lower, upper
}

// Encode 一元编码最大工作量
// y[k] 为真表示最大工作量 >= lower+k+1，每个 y 计一次代价
func (c *WorkloadBalanceConstraint) Encode(m *constraint.Model) error {
	p := m.Problem
	lower, upper := LoadBounds(p)
	if upper <= lower {
		return nil
	}

	ys := make([]int, upper-lower)
	for k := range ys {
		ys[k] = m.NewVar()
	}
	for k := 1; k < len(ys); k++ {
		m.Clause(-ys[k], ys[k-1])
	}

	// Σ load(w) + Σ ¬y <= upper  <=>  load(w) <= lower + #y
	for w := range p.Workers {
		var lits, weights []int
		for d := 0; d < p.Days(); d++ {
			for s, shift := range p.Shifts {
				if v, ok := p.Index.Lookup(w, d, s); ok {
					lits = append(lits, int(v))
					weights = append(weights, shift.Weight())
				}
			}
		}
		for _, y := range ys {
			lits = append(lits, -y)
			weights = append(weights, 1)
		}
		m.LessEq(lits, weights, upper)
	}

	for _, y := range ys {
		m.AddCost(y, c.Weight(), c.Type())
	}
	return nil
}

// Evaluate 评估整个排班
// 惩罚为 (最大工作量 - 下界) * 权重，与模型中的代价一致
func (c *WorkloadBalanceConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	p := ctx.Problem
	if len(p.Workers) == 0 {
		return true, 0, nil
	}

	loads := make([]int, len(p.Workers))
	maxLoad, total := 0, 0
	for i, w := range p.Workers {
		loads[i] = ctx.WorkerLoad(w.ID)
		total += loads[i]
		if loads[i] > maxLoad {
			maxLoad = loads[i]
		}
	}

	lower := (total + len(p.Workers) - 1) / len(p.Workers)
	if maxLoad <= lower {
		return true, 0, nil
	}

	mean := float64(total) / float64(len(p.Workers))
	penalty := (maxLoad - lower) * c.Weight()
	var violations []constraint.ViolationDetail
	for i, w := range p.Workers {
		if loads[i] == maxLoad {
			violations = append(violations, c.violationf(w.ID, "", penalty,
				"%s 工作量 %d，平均 %.2f", w.Name, loads[i], mean))
		}
	}

	return false, penalty, violations
}
