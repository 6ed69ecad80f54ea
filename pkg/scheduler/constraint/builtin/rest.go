package builtin

import (
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint"
)

// RestConstraint 相邻两天的班次类别禁止组合
// 规则表由调用方提供，例如 {night -> *}：夜班次日不排任何班
type RestConstraint struct {
	*base
	rules []model.RestRule
}

// NewRestConstraint 创建休息规则约束
func NewRestConstraint(rules []model.RestRule) *RestConstraint {
	return &RestConstraint{
		base: newBase(
			"班次间休息",
			constraint.TypeRestAfterCategory,
			constraint.CategoryHard,
			100,
		),
		rules: rules,
	}
}

// Rules 返回规则表
func (c *RestConstraint) Rules() []model.RestRule {
	return c.rules
}

// forbidden 检查 today -> tomorrow 是否被规则禁止
func (c *RestConstraint) forbidden(today, tomorrow model.Category) bool {
	for _, r := range c.rules {
		if today.Matches(r.From) && tomorrow.Matches(r.To) {
			return true
		}
	}
	return false
}

// Encode 写入模型：¬x(w,d,s) ∨ ¬x(w,d+1,t)
func (c *RestConstraint) Encode(m *constraint.Model) error {
	p := m.Problem
	for s, today := range p.Shifts {
		for t, tomorrow := range p.Shifts {
			if !c.forbidden(today.Category, tomorrow.Category) {
				continue
			}
			for w := range p.Workers {
				for d := 0; d+1 < p.Days(); d++ {
					vs, ok1 := p.Index.Lookup(w, d, s)
					vt, ok2 := p.Index.Lookup(w, d+1, t)
					if ok1 && ok2 {
						m.Clause(-int(vs), -int(vt))
					}
				}
			}
		}
	}
	return nil
}

// Evaluate 评估整个排班
func (c *RestConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	window := ctx.Problem.Window

	for _, w := range ctx.Problem.Workers {
		byOffset := make(map[int][]*model.ShiftType)
		for _, a := range ctx.GetWorkerAssignments(w.ID) {
			d, ok := window.Offset(a.Date)
			shift := ctx.GetShift(a.ShiftTypeID)
			if ok && shift != nil {
				byOffset[d] = append(byOffset[d], shift)
			}
		}

		for d := 0; d+1 < window.Days; d++ {
			for _, today := range byOffset[d] {
				for _, tomorrow := range byOffset[d+1] {
					if !c.forbidden(today.Category, tomorrow.Category) {
						continue
					}
					penalty := c.Weight()
					totalPenalty += penalty
					violations = append(violations, c.violationf(w.ID, window.DateString(d+1), penalty,
						"%s 前一天上 %s，次日不能上 %s", w.Name, today.Name, tomorrow.Name))
				}
			}
		}
	}

	return len(violations) == 0, totalPenalty, violations
}
