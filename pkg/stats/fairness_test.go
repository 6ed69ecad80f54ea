package stats

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
)

func fixtures() ([]*model.Worker, *model.ShiftType, *model.ShiftType) {
	workers := []*model.Worker{
		{ID: uuid.New(), Name: "张医生"},
		{ID: uuid.New(), Name: "李医生"},
	}
	day := &model.ShiftType{ID: uuid.New(), Name: "白班", StartTime: "08:00", EndTime: "16:00", Category: model.CategoryDay}
	night := &model.ShiftType{ID: uuid.New(), Name: "夜班", StartTime: "20:00", EndTime: "08:00", Category: model.CategoryNight, FairnessWeight: 2}
	return workers, day, night
}

func TestFairnessAnalyzer_Analyze(t *testing.T) {
	analyzer := NewFairnessAnalyzer()
	workers, day, night := fixtures()

	// 2026-01-10 为周六
	assignments := []*model.Assignment{
		{Date: "2026-01-10", WorkerID: workers[0].ID, ShiftTypeID: night.ID},
		{Date: "2026-01-11", WorkerID: workers[1].ID, ShiftTypeID: day.ID},
		{Date: "2026-01-12", WorkerID: workers[1].ID, ShiftTypeID: day.ID},
	}

	metrics := analyzer.Analyze(assignments, workers, []*model.ShiftType{day, night})
	require.NotNil(t, metrics)
	require.Len(t, metrics.WorkerStats, 2)

	first := metrics.WorkerStats[0]
	assert.Equal(t, workers[0].ID, first.WorkerID)
	assert.Equal(t, 2, first.Load)
	assert.Equal(t, 1, first.ShiftCount)
	assert.Equal(t, 1, first.NightShifts)
	assert.Equal(t, 1, first.WeekendShifts)
	assert.InDelta(t, 12.0, first.TotalHours, 1e-9)

	second := metrics.WorkerStats[1]
	assert.Equal(t, 2, second.Load)
	assert.Equal(t, 1, second.WeekendShifts)

	assert.Equal(t, 4, metrics.TotalLoad)
	assert.InDelta(t, 2.0, metrics.MeanLoad, 1e-9)
	assert.Zero(t, metrics.PeakDeviation)
	assert.Zero(t, metrics.LoadGini)
	assert.InDelta(t, 100.0/3, metrics.CategoryDistribution["night"], 1e-9)
}

func TestFairnessAnalyzer_IdleWorkerCounts(t *testing.T) {
	analyzer := NewFairnessAnalyzer()
	workers, day, _ := fixtures()

	assignments := []*model.Assignment{
		{Date: "2026-01-12", WorkerID: workers[0].ID, ShiftTypeID: day.ID},
		{Date: "2026-01-13", WorkerID: workers[0].ID, ShiftTypeID: day.ID},
	}

	metrics := analyzer.Analyze(assignments, workers, []*model.ShiftType{day})
	assert.Equal(t, 2, metrics.MaxLoad)
	assert.Equal(t, 0, metrics.MinLoad)
	assert.Equal(t, 2, metrics.LoadRange)
	assert.InDelta(t, 1.0, metrics.PeakDeviation, 1e-9)
	assert.InDelta(t, 0.5, metrics.LoadGini, 1e-9)
	assert.InDelta(t, 100.0, metrics.WorkerStats[0].Deviation, 1e-9)
	assert.Less(t, metrics.OverallFairnessScore, 100.0)
}

func TestFairnessAnalyzer_EmptyInput(t *testing.T) {
	metrics := NewFairnessAnalyzer().Analyze(nil, nil, nil)
	require.NotNil(t, metrics)
	assert.Equal(t, 100.0, metrics.OverallFairnessScore)
}

func TestCalculateGini(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"完全平均", []float64{10, 10, 10, 10}, 0},
		{"全为零", []float64{0, 0, 0}, 0},
		{"一人承担", []float64{0, 0, 0, 10}, 0.75},
		{"空", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calculateGini(tt.values), 1e-9)
		})
	}
}

func TestCompareSchedules(t *testing.T) {
	analyzer := NewFairnessAnalyzer()
	workers, day, _ := fixtures()
	shifts := []*model.ShiftType{day}

	uneven := []*model.Assignment{
		{Date: "2026-01-12", WorkerID: workers[0].ID, ShiftTypeID: day.ID},
		{Date: "2026-01-13", WorkerID: workers[0].ID, ShiftTypeID: day.ID},
	}
	even := []*model.Assignment{
		{Date: "2026-01-12", WorkerID: workers[0].ID, ShiftTypeID: day.ID},
		{Date: "2026-01-13", WorkerID: workers[1].ID, ShiftTypeID: day.ID},
	}

	diff := analyzer.CompareSchedules(uneven, even, workers, shifts)
	assert.Less(t, diff["load_gini_diff"], 0.0)
	assert.Less(t, diff["peak_deviation_diff"], 0.0)
	assert.Greater(t, diff["overall_score_diff"], 0.0)
}
