package constraint

import (
	"fmt"
	"sort"
)

// EncodeStat 单个约束写入模型的规模
type EncodeStat struct {
	Type        Type     `json:"type"`
	Category    Category `json:"category"`
	Variables   int      `json:"variables"`
	Constraints int      `json:"constraints"`
	CostTerms   int      `json:"cost_terms"`
}

// Manager 约束管理器
// 每次排班调用独立持有，不做并发保护
type Manager struct {
	constraints []Constraint
}

// NewManager 创建约束管理器
func NewManager() *Manager {
	return &Manager{}
}

// Register 注册约束，同类型约束会被替换。
// 编码顺序为硬约束在前，同类别内权重高的在前
func (m *Manager) Register(c Constraint) {
	for i, existing := range m.constraints {
		if existing.Type() == c.Type() {
			m.constraints[i] = c
			return
		}
	}

	m.constraints = append(m.constraints, c)
	sort.SliceStable(m.constraints, func(i, j int) bool {
		ci, cj := m.constraints[i], m.constraints[j]
		if ci.Category() != cj.Category() {
			return ci.Category() == CategoryHard
		}
		return ci.Weight() > cj.Weight()
	})
}

// GetConstraint 按类型查找，未注册返回 nil
func (m *Manager) GetConstraint(t Type) Constraint {
	for _, c := range m.constraints {
		if c.Type() == t {
			return c
		}
	}
	return nil
}

// GetAll 按编码顺序返回副本
func (m *Manager) GetAll() []Constraint {
	result := make([]Constraint, len(m.constraints))
	copy(result, m.constraints)
	return result
}

// Count 返回约束数量
func (m *Manager) Count() int {
	return len(m.constraints)
}

// Encode 依次将所有约束写入模型，返回每个约束新增的变量、约束和代价项数。
// 某个约束使模型直接不可满足时仍继续编码，由求解阶段统一处理
func (m *Manager) Encode(model *Model) ([]EncodeStat, error) {
	stats := make([]EncodeStat, 0, len(m.constraints))
	for _, c := range m.constraints {
		vars, cons, costs := model.NumVars(), model.NumConstraints(), len(model.CostTerms())
		if err := c.Encode(model); err != nil {
			return stats, fmt.Errorf("编码约束 %s 失败: %w", c.Name(), err)
		}
		stats = append(stats, EncodeStat{
			Type:        c.Type(),
			Category:    c.Category(),
			Variables:   model.NumVars() - vars,
			Constraints: model.NumConstraints() - cons,
			CostTerms:   len(model.CostTerms()) - costs,
		})
	}
	return stats, nil
}

// Evaluate 复核已生成的排班。
// 硬约束不满足时 IsValid 为 false，软约束的违反详情全部保留
func (m *Manager) Evaluate(ctx *Context) *Result {
	result := &Result{
		IsValid:        true,
		HardViolations: make([]ViolationDetail, 0),
		SoftViolations: make([]ViolationDetail, 0),
	}

	for _, c := range m.constraints {
		valid, penalty, details := c.Evaluate(ctx)
		result.TotalPenalty += penalty
		if c.Category() == CategoryHard {
			if !valid {
				result.IsValid = false
				result.HardViolations = append(result.HardViolations, details...)
			}
			continue
		}
		result.SoftViolations = append(result.SoftViolations, details...)
	}

	return result
}
