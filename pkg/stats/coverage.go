package stats

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	// 整体覆盖率
	RequiredSeats   int     `json:"required_seats"`   // 需要的人次
	FilledSeats     int     `json:"filled_seats"`     // 已安排人次（不超过需要人次）
	OverallCoverage float64 `json:"overall_coverage"` // 整体覆盖率 (%)

	// 按日期统计
	DailyCoverage map[string]DayCoverage `json:"daily_coverage"`

	// 按班次统计
	ShiftTypeCoverage map[string]float64 `json:"shift_type_coverage"`

	// 按小时统计的在岗人数，按天平均
	HourlyStaffing map[int]float64 `json:"hourly_staffing"`

	// 问题识别
	Understaffed []UnderstaffedSlot `json:"understaffed"`
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	Required     int     `json:"required"`
	Assigned     int     `json:"assigned"`
	CoverageRate float64 `json:"coverage_rate"`
	TotalHours   float64 `json:"total_hours"`
}

// UnderstaffedSlot 人手不足的班位
type UnderstaffedSlot struct {
	Date      string    `json:"date"`
	ShiftID   uuid.UUID `json:"shift_id"`
	ShiftName string    `json:"shift_name"`
	Required  int       `json:"required"`
	Assigned  int       `json:"assigned"`
	Shortage  int       `json:"shortage"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 分析覆盖率，seats[i] 为 shifts[i] 每天需要的人数
func (c *CoverageAnalyzer) Analyze(window model.PlanningWindow, shifts []*model.ShiftType, seats []int, assignments []*model.Assignment) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DailyCoverage:     make(map[string]DayCoverage),
		ShiftTypeCoverage: make(map[string]float64),
		HourlyStaffing:    make(map[int]float64),
		OverallCoverage:   100,
	}
	if len(shifts) == 0 || window.Days <= 0 {
		return metrics
	}

	type slotKey struct {
		date  string
		shift uuid.UUID
	}
	counts := make(map[slotKey]int)
	for _, a := range assignments {
		counts[slotKey{a.Date, a.ShiftTypeID}]++
	}

	shiftRequired := make(map[string]int)
	shiftFilled := make(map[string]int)
	hourly := make(map[int]int)

	for d := 0; d < window.Days; d++ {
		date := window.DateString(d)
		day := DayCoverage{Date: date}

		for i, shift := range shifts {
			required := seats[i]
			assigned := counts[slotKey{date, shift.ID}]
			filled := min(assigned, required)

			day.Required += required
			day.Assigned += assigned
			day.TotalHours += float64(assigned) * shift.DurationHours()
			metrics.RequiredSeats += required
			metrics.FilledSeats += filled
			shiftRequired[shift.Name] += required
			shiftFilled[shift.Name] += filled

			for _, h := range shiftHours(shift) {
				hourly[h] += assigned
			}

			if assigned < required {
				metrics.Understaffed = append(metrics.Understaffed, UnderstaffedSlot{
					Date:      date,
					ShiftID:   shift.ID,
					ShiftName: shift.Name,
					Required:  required,
					Assigned:  assigned,
					Shortage:  required - assigned,
				})
			}
		}

		day.CoverageRate = 100
		if day.Required > 0 {
			day.CoverageRate = float64(min(day.Assigned, day.Required)) / float64(day.Required) * 100
		}
		metrics.DailyCoverage[date] = day
	}

	if metrics.RequiredSeats > 0 {
		metrics.OverallCoverage = float64(metrics.FilledSeats) / float64(metrics.RequiredSeats) * 100
	}
	for name, total := range shiftRequired {
		if total > 0 {
			metrics.ShiftTypeCoverage[name] = float64(shiftFilled[name]) / float64(total) * 100
		}
	}
	for hour := 0; hour < 24; hour++ {
		metrics.HourlyStaffing[hour] = float64(hourly[hour]) / float64(window.Days)
	}

	return metrics
}

// shiftHours 返回班次覆盖的整点小时 (0-23)
func shiftHours(shift *model.ShiftType) []int {
	var start, end int
	if _, err := fmt.Sscanf(shift.StartTime, "%d:", &start); err != nil {
		return nil
	}
	if _, err := fmt.Sscanf(shift.EndTime, "%d:", &end); err != nil {
		return nil
	}
	if end <= start {
		end += 24
	}

	hours := make([]int, 0, end-start)
	for h := start; h < end; h++ {
		hours = append(hours, h%24)
	}
	return hours
}

// GenerateCoverageReport 生成覆盖率报告
func (c *CoverageAnalyzer) GenerateCoverageReport(metrics *CoverageMetrics) string {
	var b strings.Builder

	b.WriteString("=== 覆盖率分析报告 ===\n\n")
	b.WriteString("【整体覆盖情况】\n")
	fmt.Fprintf(&b, "  需要人次: %d\n", metrics.RequiredSeats)
	fmt.Fprintf(&b, "  已安排人次: %d\n", metrics.FilledSeats)
	fmt.Fprintf(&b, "  覆盖率: %.1f%%\n", metrics.OverallCoverage)

	if len(metrics.Understaffed) > 0 {
		b.WriteString("\n【人手不足班次】\n")
		for _, slot := range metrics.Understaffed {
			fmt.Fprintf(&b, "  - %s %s (需要%d人，仅有%d人，缺%d人)\n",
				slot.Date, slot.ShiftName, slot.Required, slot.Assigned, slot.Shortage)
		}
	}

	return b.String()
}
