// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint"
)

// base 内置约束共用的元信息
type base struct {
	name     string
	typ      constraint.Type
	category constraint.Category
	weight   int
}

func newBase(name string, typ constraint.Type, cat constraint.Category, weight int) *base {
	return &base{
		name:     name,
		typ:      typ,
		category: cat,
		weight:   weight,
	}
}

func (c *base) Name() string { return c.name }

func (c *base) Type() constraint.Type { return c.typ }

func (c *base) Category() constraint.Category { return c.category }

// Weight 硬约束的权重只影响编码顺序
func (c *base) Weight() int { return c.weight }

// violationf 生成违反详情，硬约束为 error，软约束为 warning。
// 与具体人员无关的违反传 uuid.Nil，与具体日期无关的传空串
func (c *base) violationf(workerID uuid.UUID, date string, penalty int, format string, args ...any) constraint.ViolationDetail {
	severity := model.SeverityWarning
	if c.category == constraint.CategoryHard {
		severity = model.SeverityError
	}

	return constraint.ViolationDetail{
		ConstraintType: c.typ,
		ConstraintName: c.name,
		WorkerID:       workerID,
		Date:           date,
		Message:        fmt.Sprintf(format, args...),
		Severity:       severity,
		Penalty:        penalty,
	}
}
