// Package stats 提供排班统计分析功能
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
)

// FairnessMetrics 公平性指标
// 工作量均按班次的公平权重累加
type FairnessMetrics struct {
	// 工作量公平性
	TotalLoad     int     `json:"total_load"`
	MeanLoad      float64 `json:"mean_load"`      // 人均工作量
	MaxLoad       int     `json:"max_load"`       // 最大工作量
	MinLoad       int     `json:"min_load"`       // 最小工作量
	LoadRange     int     `json:"load_range"`     // 极差
	PeakDeviation float64 `json:"peak_deviation"` // 最大工作量 - 人均工作量
	LoadVariance  float64 `json:"load_variance"`
	LoadStdDev    float64 `json:"load_std_dev"`
	LoadGini      float64 `json:"load_gini"` // 0=完全公平, 1=完全不公平

	// 班次类型公平性
	CategoryDistribution map[string]float64 `json:"category_distribution"` // 各类别占比 (%)
	NightShiftGini       float64            `json:"night_shift_gini"`
	WeekendShiftGini     float64            `json:"weekend_shift_gini"`

	WorkerStats []WorkerStat `json:"worker_stats"`

	// 综合评分 (0-100)
	OverallFairnessScore float64 `json:"overall_fairness_score"`
}

// WorkerStat 人员统计
type WorkerStat struct {
	WorkerID      uuid.UUID `json:"worker_id"`
	WorkerName    string    `json:"worker_name"`
	Load          int       `json:"load"`
	ShiftCount    int       `json:"shift_count"`
	NightShifts   int       `json:"night_shifts"`
	WeekendShifts int       `json:"weekend_shifts"`
	TotalHours    float64   `json:"total_hours"`
	Deviation     float64   `json:"deviation"` // 与平均值的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze 分析排班公平性
// 没有排班的人员同样计入平均值，统计顺序与 workers 一致
func (f *FairnessAnalyzer) Analyze(assignments []*model.Assignment, workers []*model.Worker, shifts []*model.ShiftType) *FairnessMetrics {
	if len(workers) == 0 {
		return &FairnessMetrics{
			CategoryDistribution: make(map[string]float64),
			OverallFairnessScore: 100,
		}
	}

	workerStats := f.calculateWorkerStats(assignments, workers, shifts)

	loads := make([]float64, len(workerStats))
	nightShifts := make([]float64, len(workerStats))
	weekendShifts := make([]float64, len(workerStats))
	total := 0
	for i, stat := range workerStats {
		loads[i] = float64(stat.Load)
		nightShifts[i] = float64(stat.NightShifts)
		weekendShifts[i] = float64(stat.WeekendShifts)
		total += stat.Load
	}

	mean := calculateMean(loads)
	variance := calculateVariance(loads, mean)
	stdDev := math.Sqrt(variance)
	maxLoad, minLoad := calculateRange(loads)

	for i := range workerStats {
		if mean > 0 {
			workerStats[i].Deviation = (float64(workerStats[i].Load) - mean) / mean * 100
		}
	}

	loadGini := calculateGini(loads)
	nightGini := calculateGini(nightShifts)
	weekendGini := calculateGini(weekendShifts)

	return &FairnessMetrics{
		TotalLoad:            total,
		MeanLoad:             mean,
		MaxLoad:              int(maxLoad),
		MinLoad:              int(minLoad),
		LoadRange:            int(maxLoad - minLoad),
		PeakDeviation:        maxLoad - mean,
		LoadVariance:         variance,
		LoadStdDev:           stdDev,
		LoadGini:             loadGini,
		CategoryDistribution: f.calculateCategoryDistribution(assignments, shifts),
		NightShiftGini:       nightGini,
		WeekendShiftGini:     weekendGini,
		WorkerStats:          workerStats,
		OverallFairnessScore: f.calculateOverallScore(loadGini, nightGini, weekendGini, stdDev, mean),
	}
}

// calculateWorkerStats 计算人员统计数据
func (f *FairnessAnalyzer) calculateWorkerStats(assignments []*model.Assignment, workers []*model.Worker, shifts []*model.ShiftType) []WorkerStat {
	shiftMap := make(map[uuid.UUID]*model.ShiftType, len(shifts))
	for _, s := range shifts {
		shiftMap[s.ID] = s
	}

	result := make([]WorkerStat, len(workers))
	pos := make(map[uuid.UUID]int, len(workers))
	for i, w := range workers {
		pos[w.ID] = i
		result[i] = WorkerStat{WorkerID: w.ID, WorkerName: w.Name}
	}

	for _, a := range assignments {
		i, ok := pos[a.WorkerID]
		shift := shiftMap[a.ShiftTypeID]
		if !ok || shift == nil {
			continue
		}

		stat := &result[i]
		stat.Load += shift.Weight()
		stat.ShiftCount++
		stat.TotalHours += shift.DurationHours()
		if shift.IsNightShift() {
			stat.NightShifts++
		}
		if isWeekend(a.Date) {
			stat.WeekendShifts++
		}
	}

	return result
}

// isWeekend 判断是否是周末
func isWeekend(dateStr string) bool {
	date, err := model.ParseDate(dateStr)
	if err != nil {
		return false
	}
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// calculateMean 计算平均值
func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateVariance 计算方差
func calculateVariance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// calculateRange 计算极值
func calculateRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// calculateGini 计算基尼系数
func calculateGini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}

	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}

// calculateCategoryDistribution 计算班次类别分布
func (f *FairnessAnalyzer) calculateCategoryDistribution(assignments []*model.Assignment, shifts []*model.ShiftType) map[string]float64 {
	categories := make(map[uuid.UUID]model.Category, len(shifts))
	for _, s := range shifts {
		categories[s.ID] = s.Category
	}

	counts := make(map[string]int)
	for _, a := range assignments {
		if c, ok := categories[a.ShiftTypeID]; ok {
			counts[string(c)]++
		}
	}

	distribution := make(map[string]float64)
	if len(assignments) > 0 {
		for c, count := range counts {
			distribution[c] = float64(count) / float64(len(assignments)) * 100
		}
	}
	return distribution
}

// calculateOverallScore 计算综合公平性评分
func (f *FairnessAnalyzer) calculateOverallScore(loadGini, nightGini, weekendGini, stdDev, mean float64) float64 {
	const (
		loadWeight    = 0.4
		nightWeight   = 0.25
		weekendWeight = 0.25
		stdDevWeight  = 0.1
	)

	// 基尼系数转换为分数 (0=100分, 1=0分)
	loadScore := (1 - loadGini) * 100
	nightScore := (1 - nightGini) * 100
	weekendScore := (1 - weekendGini) * 100

	// 变异系数越低分数越高
	cvScore := 100.0
	if mean > 0 {
		cvScore = math.Max(0, 100-stdDev/mean*200)
	}

	score := loadWeight*loadScore +
		nightWeight*nightScore +
		weekendWeight*weekendScore +
		stdDevWeight*cvScore

	return math.Max(0, math.Min(100, score))
}

// CompareSchedules 比较两个排班方案的公平性
func (f *FairnessAnalyzer) CompareSchedules(schedule1, schedule2 []*model.Assignment, workers []*model.Worker, shifts []*model.ShiftType) map[string]float64 {
	metrics1 := f.Analyze(schedule1, workers, shifts)
	metrics2 := f.Analyze(schedule2, workers, shifts)

	return map[string]float64{
		"load_gini_diff":          metrics2.LoadGini - metrics1.LoadGini,
		"night_gini_diff":         metrics2.NightShiftGini - metrics1.NightShiftGini,
		"weekend_gini_diff":       metrics2.WeekendShiftGini - metrics1.WeekendShiftGini,
		"peak_deviation_diff":     metrics2.PeakDeviation - metrics1.PeakDeviation,
		"overall_score_diff":      metrics2.OverallFairnessScore - metrics1.OverallFairnessScore,
		"schedule1_overall_score": metrics1.OverallFairnessScore,
		"schedule2_overall_score": metrics2.OverallFairnessScore,
	}
}
