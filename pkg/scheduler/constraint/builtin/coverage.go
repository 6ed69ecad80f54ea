package builtin

import (
	"github.com/google/uuid"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint"
)

// CoverageConstraint 班次覆盖约束：每天每个班次恰好安排所需人数
type CoverageConstraint struct {
	*base
}

// NewCoverageConstraint 创建班次覆盖约束
func NewCoverageConstraint() *CoverageConstraint {
	return &CoverageConstraint{
		base: newBase(
			"班次覆盖",
			constraint.TypeCoverage,
			constraint.CategoryHard,
			100,
		),
	}
}

// Encode 写入模型
func (c *CoverageConstraint) Encode(m *constraint.Model) error {
	p := m.Problem
	for d := 0; d < p.Days(); d++ {
		for s := range p.Shifts {
			m.Exactly(constraint.Lits(p.Index.Slot(d, s)), p.Seats(s))
		}
	}
	return nil
}

// Evaluate 评估整个排班
func (c *CoverageConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	p := ctx.Problem

	for d := 0; d < p.Days(); d++ {
		date := p.Window.DateString(d)
		counts := make(map[uuid.UUID]int)
		for _, a := range ctx.GetDateAssignments(date) {
			counts[a.ShiftTypeID]++
		}

		for s, shift := range p.Shifts {
			required := p.Seats(s)
			got := counts[shift.ID]
			if got == required {
				continue
			}
			diff := got - required
			if diff < 0 {
				diff = -diff
			}
			penalty := c.Weight() * diff
			totalPenalty += penalty
			violations = append(violations, c.violationf(uuid.Nil, date, penalty,
				"班次 %s 需要 %d 人，实际安排 %d 人", shift.Name, required, got))
		}
	}

	return len(violations) == 0, totalPenalty, violations
}
