// Package model 定义排班引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// Category 班次类别，供休息规则等使用
type Category string

const (
	CategoryDay     Category = "day"     // 白班
	CategoryNight   Category = "night"   // 夜班
	CategoryOnCall  Category = "oncall"  // 值班
	CategoryBackup  Category = "backup"  // 备班
	CategoryHoliday Category = "holiday" // 节假日班

	// AnyCategory 仅用于休息规则，匹配任意类别
	AnyCategory Category = "*"
)

// Matches 检查类别是否匹配规则中的类别
func (c Category) Matches(rule Category) bool {
	return rule == AnyCategory || c == rule
}

// ShiftType 班次模板
type ShiftType struct {
	ID                    uuid.UUID `json:"id" db:"id"`
	Name                  string    `json:"name" db:"name"`
	StartTime             string    `json:"start_time" db:"start_time"` // HH:MM
	EndTime               string    `json:"end_time" db:"end_time"`     // HH:MM
	Category              Category  `json:"category" db:"shift_category"`
	FairnessWeight        int       `json:"fairness_weight" db:"weight"`                                    // 0 视为 1
	RequiredQualification string    `json:"required_qualification,omitempty" db:"required_qualification"` // 为空表示无要求
	Seats                 int       `json:"seats,omitempty" db:"seats"`                                     // 0 表示使用全局默认人数
}

// Weight 返回公平性权重
func (s *ShiftType) Weight() int {
	if s.FairnessWeight <= 0 {
		return 1
	}
	return s.FairnessWeight
}

// DurationHours 返回班次时长（小时），支持跨日
func (s *ShiftType) DurationHours() float64 {
	start, err1 := time.Parse("15:04", s.StartTime)
	end, err2 := time.Parse("15:04", s.EndTime)
	if err1 != nil || err2 != nil {
		return 0
	}
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return end.Sub(start).Hours()
}

// IsNightShift 检查是否为夜班（按类别判断，不看名称）
func (s *ShiftType) IsNightShift() bool {
	return s.Category == CategoryNight
}

// RestRule 相邻两天禁止的类别组合：今天上 From 类班次，则明天不能上 To 类班次
type RestRule struct {
	From Category `json:"from"`
	To   Category `json:"to"`
}

// DefaultRestRules 默认休息规则：夜班次日不排任何班
func DefaultRestRules() []RestRule {
	return []RestRule{{From: CategoryNight, To: AnyCategory}}
}

// Assignment 排班结果记录
// 引擎不关心草稿/发布状态，由调用方维护
type Assignment struct {
	Date        string    `json:"date"` // YYYY-MM-DD
	WorkerID    uuid.UUID `json:"worker_id"`
	ShiftTypeID uuid.UUID `json:"shift_type_id"`
}
