// Package validator 检查已有排班（例如人工调整后的排班）中的冲突
package validator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictOverlap      ConflictType = "overlap"      // 同一天多个班次
	ConflictRestRule     ConflictType = "rest_rule"    // 违反班次间休息规则
	ConflictMaxHours     ConflictType = "max_hours"    // 每周工时超限
	ConflictConsecutive  ConflictType = "consecutive"  // 连续天数过多
	ConflictSkill        ConflictType = "skill"        // 资质不符
	ConflictAvailability ConflictType = "availability" // 不可排班日期
	ConflictUnknownRef   ConflictType = "unknown_ref"  // 引用了不存在的医生或班次
)

// Conflict 冲突信息
type Conflict struct {
	Type     ConflictType   `json:"type"`
	Severity model.Severity `json:"severity"`
	WorkerID uuid.UUID      `json:"worker_id"`
	Date     string         `json:"date,omitempty"`
	Message  string         `json:"message"`
}

// DetectorConfig 检测器配置
type DetectorConfig struct {
	RestRules          []model.RestRule
	MaxConsecutiveDays int     // 0 表示不检查
	MaxHoursPerWeek    float64 // 0 表示不检查，按周一至周日统计
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		RestRules:          model.DefaultRestRules(),
		MaxConsecutiveDays: 6,
		MaxHoursPerWeek:    60,
	}
}

// Roster 待检查的排班
type Roster struct {
	Workers        []*model.Worker
	ShiftTypes     []*model.ShiftType
	Unavailability []*model.Unavailability
	Assignments    []*model.Assignment
}

// ConflictDetector 冲突检测器
type ConflictDetector struct {
	config *DetectorConfig
}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector(config *DetectorConfig) *ConflictDetector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &ConflictDetector{config: config}
}

type shiftOnDate struct {
	date  string
	shift *model.ShiftType
}

// DetectAll 检测所有冲突，按医生输入顺序和日期排列
// 硬约束类冲突为 error，工时和连续天数为 warning
func (d *ConflictDetector) DetectAll(r Roster) []Conflict {
	var conflicts []Conflict

	shifts := make(map[uuid.UUID]*model.ShiftType, len(r.ShiftTypes))
	for _, s := range r.ShiftTypes {
		if s != nil {
			shifts[s.ID] = s
		}
	}
	known := make(map[uuid.UUID]bool, len(r.Workers))
	for _, w := range r.Workers {
		if w != nil {
			known[w.ID] = true
		}
	}
	off := make(map[uuid.UUID]map[string]bool)
	for _, u := range r.Unavailability {
		if u == nil {
			continue
		}
		if off[u.WorkerID] == nil {
			off[u.WorkerID] = make(map[string]bool)
		}
		off[u.WorkerID][u.Date] = true
	}

	byWorker := make(map[uuid.UUID][]shiftOnDate)
	for _, a := range r.Assignments {
		if a == nil {
			continue
		}
		s, ok := shifts[a.ShiftTypeID]
		if !known[a.WorkerID] || !ok {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictUnknownRef,
				Severity: model.SeverityError,
				WorkerID: a.WorkerID,
				Date:     a.Date,
				Message:  fmt.Sprintf("排班引用了不存在的医生或班次 (班次 %s)", a.ShiftTypeID),
			})
			continue
		}
		byWorker[a.WorkerID] = append(byWorker[a.WorkerID], shiftOnDate{date: a.Date, shift: s})
	}

	for _, w := range r.Workers {
		if w == nil {
			continue
		}
		list := byWorker[w.ID]
		sort.SliceStable(list, func(i, j int) bool { return list[i].date < list[j].date })

		conflicts = append(conflicts, d.detectEligibility(w, list, off[w.ID])...)
		conflicts = append(conflicts, d.detectOverlaps(w, list)...)
		conflicts = append(conflicts, d.detectRestRules(w, list)...)
		conflicts = append(conflicts, d.detectConsecutiveDays(w, list)...)
		conflicts = append(conflicts, d.detectWeeklyHours(w, list)...)
	}

	return conflicts
}

// HasErrors 是否存在 error 级别的冲突
func HasErrors(conflicts []Conflict) bool {
	for _, c := range conflicts {
		if c.Severity == model.SeverityError {
			return true
		}
	}
	return false
}

func (d *ConflictDetector) detectEligibility(w *model.Worker, list []shiftOnDate, off map[string]bool) []Conflict {
	var conflicts []Conflict
	for _, item := range list {
		if !w.HasQualification(item.shift.RequiredQualification) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictSkill,
				Severity: model.SeverityError,
				WorkerID: w.ID,
				Date:     item.date,
				Message:  fmt.Sprintf("%s 不具备%s要求的资质 %s", w.Name, item.shift.Name, item.shift.RequiredQualification),
			})
		}
		if off[item.date] {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictAvailability,
				Severity: model.SeverityError,
				WorkerID: w.ID,
				Date:     item.date,
				Message:  fmt.Sprintf("%s 在 %s 不可排班", w.Name, item.date),
			})
		}
	}
	return conflicts
}

// detectOverlaps 每天最多一个班次
func (d *ConflictDetector) detectOverlaps(w *model.Worker, list []shiftOnDate) []Conflict {
	var conflicts []Conflict
	for i := 1; i < len(list); i++ {
		if list[i].date == list[i-1].date {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictOverlap,
				Severity: model.SeverityError,
				WorkerID: w.ID,
				Date:     list[i].date,
				Message:  fmt.Sprintf("%s 在 %s 同时排了%s和%s", w.Name, list[i].date, list[i-1].shift.Name, list[i].shift.Name),
			})
		}
	}
	return conflicts
}

// detectRestRules 相邻两天的班次类别不能命中休息规则
func (d *ConflictDetector) detectRestRules(w *model.Worker, list []shiftOnDate) []Conflict {
	var conflicts []Conflict
	if len(d.config.RestRules) == 0 {
		return conflicts
	}

	for i := range list {
		today, err := model.ParseDate(list[i].date)
		if err != nil {
			continue
		}
		next := today.AddDate(0, 0, 1).Format(model.DateLayout)

		for j := i + 1; j < len(list) && list[j].date <= next; j++ {
			if list[j].date != next {
				continue
			}
			for _, rule := range d.config.RestRules {
				if list[i].shift.Category.Matches(rule.From) && list[j].shift.Category.Matches(rule.To) {
					conflicts = append(conflicts, Conflict{
						Type:     ConflictRestRule,
						Severity: model.SeverityError,
						WorkerID: w.ID,
						Date:     next,
						Message:  fmt.Sprintf("%s 在 %s 上%s后次日又上%s", w.Name, list[i].date, list[i].shift.Name, list[j].shift.Name),
					})
					break
				}
			}
		}
	}
	return conflicts
}

// detectConsecutiveDays 连续工作天数
func (d *ConflictDetector) detectConsecutiveDays(w *model.Worker, list []shiftOnDate) []Conflict {
	var conflicts []Conflict
	if d.config.MaxConsecutiveDays <= 0 {
		return conflicts
	}

	run := 0
	var prev string
	for _, item := range list {
		if item.date == prev {
			continue
		}
		if prev != "" && isNextDay(prev, item.date) {
			run++
		} else {
			run = 1
		}
		prev = item.date

		// 每段只在首次超限时报告
		if run == d.config.MaxConsecutiveDays+1 {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictConsecutive,
				Severity: model.SeverityWarning,
				WorkerID: w.ID,
				Date:     item.date,
				Message:  fmt.Sprintf("%s 截至 %s 已连续工作超过 %d 天", w.Name, item.date, d.config.MaxConsecutiveDays),
			})
		}
	}
	return conflicts
}

// detectWeeklyHours 按自然周统计工时
func (d *ConflictDetector) detectWeeklyHours(w *model.Worker, list []shiftOnDate) []Conflict {
	var conflicts []Conflict
	if d.config.MaxHoursPerWeek <= 0 {
		return conflicts
	}

	hours := make(map[string]float64)
	var weeks []string
	for _, item := range list {
		t, err := model.ParseDate(item.date)
		if err != nil {
			continue
		}
		weekday := (int(t.Weekday()) + 6) % 7
		monday := t.AddDate(0, 0, -weekday).Format(model.DateLayout)
		if _, ok := hours[monday]; !ok {
			weeks = append(weeks, monday)
		}
		hours[monday] += item.shift.DurationHours()
	}

	for _, monday := range weeks {
		if hours[monday] > d.config.MaxHoursPerWeek {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictMaxHours,
				Severity: model.SeverityWarning,
				WorkerID: w.ID,
				Date:     monday,
				Message:  fmt.Sprintf("%s 在 %s 起的一周工作 %.1f 小时，超过 %.0f 小时", w.Name, monday, hours[monday], d.config.MaxHoursPerWeek),
			})
		}
	}
	return conflicts
}

func isNextDay(prev, cur string) bool {
	p, err := model.ParseDate(prev)
	if err != nil {
		return false
	}
	return p.AddDate(0, 0, 1).Format(model.DateLayout) == cur
}
