// Package model 定义排班引擎的核心数据模型
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ParseDate 解析 YYYY-MM-DD 日期
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("日期格式错误 %q: %w", s, err)
	}
	return t, nil
}

// PlanningWindow 排班周期：起始日期 + 连续天数
// 日偏移量为 0..Days-1
type PlanningWindow struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	Days      int    `json:"days"`
}

// Start 返回起始日期
func (w PlanningWindow) Start() (time.Time, error) {
	return ParseDate(w.StartDate)
}

// Date 返回日偏移量对应的日期
func (w PlanningWindow) Date(offset int) time.Time {
	start, err := w.Start()
	if err != nil {
		return time.Time{}
	}
	return start.AddDate(0, 0, offset)
}

// DateString 返回日偏移量对应的日期字符串
func (w PlanningWindow) DateString(offset int) string {
	return w.Date(offset).Format(DateLayout)
}

// EndDate 返回周期最后一天
func (w PlanningWindow) EndDate() string {
	if w.Days <= 0 {
		return w.StartDate
	}
	return w.DateString(w.Days - 1)
}

// Offset 返回日期在周期内的偏移量，不在周期内返回 false
func (w PlanningWindow) Offset(date string) (int, bool) {
	start, err := w.Start()
	if err != nil {
		return 0, false
	}
	t, err := ParseDate(date)
	if err != nil {
		return 0, false
	}
	offset := int(t.Sub(start).Hours() / 24)
	if offset < 0 || offset >= w.Days {
		return 0, false
	}
	return offset, true
}

// Contains 检查日期是否在周期内
func (w PlanningWindow) Contains(date string) bool {
	_, ok := w.Offset(date)
	return ok
}

// Severity 违反或冲突的严重程度
type Severity string

const (
	SeverityError   Severity = "error"   // 违反硬性规则
	SeverityWarning Severity = "warning" // 可接受但需关注
)
