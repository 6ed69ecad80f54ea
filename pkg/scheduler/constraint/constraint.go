// Package constraint 定义约束接口、伪布尔模型和管理器
package constraint

import (
	"github.com/google/uuid"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
)

// Type 约束类型标识
type Type string

const (
	// 硬约束类型
	TypeCoverage          Type = "coverage"
	TypeNonOverlap        Type = "non_overlap"
	TypeRestAfterCategory Type = "rest_after_category"

	// 软约束类型
	TypeWorkloadBalance  Type = "workload_balance"
	TypeWorkerPreference Type = "worker_preference"
)

// Category 约束类别
type Category string

const (
	CategoryHard Category = "hard" // 硬约束（必须满足）
	CategorySoft Category = "soft" // 软约束（进入目标函数）
)

// Constraint 约束接口
type Constraint interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// Category 返回约束类别
	Category() Category

	// Weight 返回约束权重；软约束为目标函数中的整数系数
	Weight() int

	// Encode 向伪布尔模型写入子句或代价项
	Encode(m *Model) error

	// Evaluate 评估已生成的排班
	// 返回：是否满足、惩罚值、违反详情
	Evaluate(ctx *Context) (valid bool, penalty int, details []ViolationDetail)
}

// ViolationDetail 约束违反详情
type ViolationDetail struct {
	ConstraintType Type           `json:"constraint_type"`
	ConstraintName string         `json:"constraint_name"`
	WorkerID       uuid.UUID      `json:"worker_id,omitempty"`
	Date           string         `json:"date,omitempty"`
	Message        string         `json:"message"`
	Severity       model.Severity `json:"severity"`
	Penalty        int            `json:"penalty"`
}

// Result 约束评估结果
type Result struct {
	IsValid        bool              `json:"is_valid"`
	TotalPenalty   int               `json:"total_penalty"`
	HardViolations []ViolationDetail `json:"hard_violations"`
	SoftViolations []ViolationDetail `json:"soft_violations"`
}
