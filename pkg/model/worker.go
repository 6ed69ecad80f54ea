// Package model 定义排班引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// Worker 排班人员（医生）
// 一次引擎调用期间不可变
type Worker struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"full_name"`
	DepartmentID   uuid.UUID `json:"department_id" db:"department_id"`
	Title          string    `json:"title,omitempty" db:"title"`
	Qualifications []string  `json:"qualifications,omitempty" db:"qualifications"`
}

// HasQualification 检查是否具备某资质，空要求视为满足
func (w *Worker) HasQualification(q string) bool {
	if q == "" {
		return true
	}
	for _, have := range w.Qualifications {
		if have == q {
			return true
		}
	}
	return false
}

// PreferenceType 偏好类型
type PreferenceType string

const (
	PreferenceDesire PreferenceType = "desire" // 希望上班
	PreferenceAvoid  PreferenceType = "avoid"  // 希望避开
)

// IsValid 检查偏好类型是否合法
func (p PreferenceType) IsValid() bool {
	return p == PreferenceDesire || p == PreferenceAvoid
}

// Preference 排班偏好
// ShiftTypeID 为空表示对当天所有班次生效
type Preference struct {
	WorkerID    uuid.UUID      `json:"worker_id" db:"user_id"`
	Date        string         `json:"date" db:"date"` // YYYY-MM-DD
	ShiftTypeID *uuid.UUID     `json:"shift_type_id,omitempty" db:"shift_type_id"`
	Type        PreferenceType `json:"type" db:"type"`
	Reason      string         `json:"reason,omitempty" db:"reason"`
}

// AppliesTo 检查偏好是否作用于某班次
func (p *Preference) AppliesTo(shiftID uuid.UUID) bool {
	return p.ShiftTypeID == nil || *p.ShiftTypeID == shiftID
}

// Unavailability 不可排班日期（请假、外出进修等）
type Unavailability struct {
	WorkerID uuid.UUID `json:"worker_id" db:"user_id"`
	Date     string    `json:"date" db:"date"` // YYYY-MM-DD
	Reason   string    `json:"reason,omitempty" db:"reason"`
}
