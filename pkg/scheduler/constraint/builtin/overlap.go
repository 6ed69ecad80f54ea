package builtin

import (
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint"
)

// NonOverlapConstraint 同一人同一天至多一个班次
type NonOverlapConstraint struct {
	*base
}

// NewNonOverlapConstraint 创建同日不重叠约束
func NewNonOverlapConstraint() *NonOverlapConstraint {
	return &NonOverlapConstraint{
		base: newBase(
			"同日不重叠",
			constraint.TypeNonOverlap,
			constraint.CategoryHard,
			100,
		),
	}
}

// Encode 写入模型
func (c *NonOverlapConstraint) Encode(m *constraint.Model) error {
	p := m.Problem
	for w := range p.Workers {
		for d := 0; d < p.Days(); d++ {
			m.AtMost(constraint.Lits(p.Index.WorkerDay(w, d)), 1)
		}
	}
	return nil
}

// Evaluate 评估整个排班
func (c *NonOverlapConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, w := range ctx.Problem.Workers {
		perDate := make(map[string]int)
		for _, a := range ctx.GetWorkerAssignments(w.ID) {
			perDate[a.Date]++
		}
		for d := 0; d < ctx.Problem.Days(); d++ {
			date := ctx.Problem.Window.DateString(d)
			if n := perDate[date]; n > 1 {
				penalty := c.Weight() * (n - 1)
				totalPenalty += penalty
				violations = append(violations, c.violationf(w.ID, date, penalty,
					"%s 当天被安排了 %d 个班次", w.Name, n))
			}
		}
	}

	return len(violations) == 0, totalPenalty, violations
}
