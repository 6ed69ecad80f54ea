package builtin

import (
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint"
)

// PreferenceConstraint 个人偏好约束
// 每条未被满足的偏好计一次权重
type PreferenceConstraint struct {
	*base
}

// NewPreferenceConstraint 创建个人偏好约束
func NewPreferenceConstraint(weight int) *PreferenceConstraint {
	return &PreferenceConstraint{
		base: newBase(
			"个人偏好",
			constraint.TypeWorkerPreference,
			constraint.CategorySoft,
			weight,
		),
	}
}

// Encode 写入代价项
func (c *PreferenceConstraint) Encode(m *constraint.Model) error {
	p := m.Problem
	for _, pref := range p.Preferences {
		w, ok := p.WorkerPos(pref.WorkerID)
		if !ok {
			continue
		}
		d, ok := p.Window.Offset(pref.Date)
		if !ok {
			continue
		}

		var vars []int
		if pref.ShiftTypeID != nil {
			s, ok := p.ShiftPos(*pref.ShiftTypeID)
			if !ok {
				continue
			}
			if v, ok := p.Index.Lookup(w, d, s); ok {
				vars = append(vars, int(v))
			}
		} else {
			vars = constraint.Lits(p.Index.WorkerDay(w, d))
		}

		switch pref.Type {
		case model.PreferenceAvoid:
			for _, v := range vars {
				m.AddCost(v, c.Weight(), c.Type())
			}
		case model.PreferenceDesire:
			switch len(vars) {
			case 0:
				// 不可能被满足
				m.AddConstantCost(c.Weight())
			case 1:
				m.AddCost(-vars[0], c.Weight(), c.Type())
			default:
				// z -> x1 ∨ ... ∨ xn
				z := m.NewVar()
				m.Clause(append([]int{-z}, vars...)...)
				m.AddCost(-z, c.Weight(), c.Type())
			}
		}
	}
	return nil
}

// Evaluate 评估整个排班
func (c *PreferenceConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	p := ctx.Problem

	for _, pref := range p.Preferences {
		worker := ctx.GetWorker(pref.WorkerID)
		if worker == nil || !p.Window.Contains(pref.Date) {
			continue
		}

		matched := 0
		for _, a := range ctx.GetWorkerAssignments(pref.WorkerID) {
			if a.Date == pref.Date && pref.AppliesTo(a.ShiftTypeID) {
				matched++
			}
		}

		switch pref.Type {
		case model.PreferenceAvoid:
			if matched > 0 {
				penalty := matched * c.Weight()
				totalPenalty += penalty
				violations = append(violations, c.violationf(worker.ID, pref.Date, penalty,
					"%s 希望避开的班次被安排", worker.Name))
			}
		case model.PreferenceDesire:
			if matched == 0 {
				totalPenalty += c.Weight()
				violations = append(violations, c.violationf(worker.ID, pref.Date, c.Weight(),
					"%s 希望上的班次未被安排", worker.Name))
			}
		}
	}

	return len(violations) == 0, totalPenalty, violations
}
