// Package constraints 描述引擎支持的约束及其可调参数，供前端展示
package constraints

import (
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint"
)

// ConstraintParam 约束参数定义
type ConstraintParam struct {
	Name        string `json:"name"` // 对应 options 中的字段名
	Type        string `json:"type"` // int, float, array
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// ConstraintDefinition 约束定义
type ConstraintDefinition struct {
	Name        constraint.Type     `json:"name"`
	DisplayName string              `json:"display_name"`
	Type        constraint.Category `json:"type"` // hard 硬约束, soft 软约束
	Description string              `json:"description"`
	Params      []ConstraintParam   `json:"params"`
}

// LibraryResponse 约束库响应
type LibraryResponse struct {
	Library  []ConstraintDefinition `json:"library"`
	Defaults scheduler.Options      `json:"defaults"`
}

// GetLibrary 获取完整的约束库
func GetLibrary() []ConstraintDefinition {
	return []ConstraintDefinition{
		{
			Name:        constraint.TypeCoverage,
			DisplayName: "班次覆盖",
			Type:        constraint.CategoryHard,
			Description: "每天每个班次恰好安排规定人数。班次设置了 seats 时以其为准。",
			Params: []ConstraintParam{
				{Name: "coverage_count_per_shift", Type: "int", Description: "每班默认人数", Default: "1", Min: "1"},
			},
		},
		{
			Name:        constraint.TypeNonOverlap,
			DisplayName: "同日不重叠",
			Type:        constraint.CategoryHard,
			Description: "同一医生每天最多上一个班次。",
		},
		{
			Name:        constraint.TypeRestAfterCategory,
			DisplayName: "班次间休息",
			Type:        constraint.CategoryHard,
			Description: "前一天上了 from 类别的班次，第二天不能上 to 类别的班次，默认夜班后次日不排班。",
			Params: []ConstraintParam{
				{Name: "rest_rules", Type: "array", Description: "休息规则列表，元素为 {from, to}，* 匹配任意类别", Default: `[{"from":"night","to":"*"}]`},
			},
		},
		{
			Name:        constraint.TypeWorkloadBalance,
			DisplayName: "工作量均衡",
			Type:        constraint.CategorySoft,
			Description: "按班次公平权重累计工作量，尽量压低最忙医生的工作量。",
			Params: []ConstraintParam{
				{Name: "balance_weight", Type: "float", Description: "目标函数权重，0 表示不考虑", Default: "1.0", Min: "0"},
			},
		},
		{
			Name:        constraint.TypeWorkerPreference,
			DisplayName: "个人偏好",
			Type:        constraint.CategorySoft,
			Description: "尽量满足医生的 desire/avoid 偏好，每违反一次计一次代价。",
			Params: []ConstraintParam{
				{Name: "preference_weight", Type: "float", Description: "目标函数权重，0 表示不考虑", Default: "1.0", Min: "0"},
			},
		},
	}
}

// GetByType 按约束类型查找定义
func GetByType(t constraint.Type) (ConstraintDefinition, bool) {
	for _, def := range GetLibrary() {
		if def.Name == t {
			return def, true
		}
	}
	return ConstraintDefinition{}, false
}

// Library 约束库及默认配置
func Library() LibraryResponse {
	return LibraryResponse{
		Library:  GetLibrary(),
		Defaults: scheduler.DefaultOptions(),
	}
}
