package handler

import (
	"net/http"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/stats"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/validator"
)

// StatsRequest 统计已有排班
type StatsRequest struct {
	StartDate             string                  `json:"start_date" validate:"required,datetime=2006-01-02"`
	Days                  int                     `json:"days" validate:"min=1,max=366"`
	Workers               []*model.Worker         `json:"workers" validate:"required,min=1"`
	ShiftTypes            []*model.ShiftType      `json:"shift_types" validate:"required,min=1"`
	Assignments           []*model.Assignment     `json:"assignments"`
	Baseline              []*model.Assignment     `json:"baseline,omitempty"` // 对比用的原排班
	Unavailability        []*model.Unavailability `json:"unavailability,omitempty"`
	CoverageCountPerShift int                     `json:"coverage_count_per_shift,omitempty" validate:"omitempty,min=1"`
}

// StatsResponse 统计响应
type StatsResponse struct {
	Success  bool                   `json:"success"`
	Fairness *stats.FairnessMetrics `json:"fairness"`
	Coverage *stats.CoverageMetrics `json:"coverage"`
	Report   string                 `json:"report"`

	Valid     bool                 `json:"valid"` // 没有 error 级别的冲突
	Conflicts []validator.Conflict `json:"conflicts"`

	Comparison map[string]float64 `json:"comparison,omitempty"` // 本次排班减去 baseline 的差值
}

// AnalyzeStats 计算已有排班的公平性、覆盖率和冲突，例如人工调整后的排班
func (h *Handler) AnalyzeStats(w http.ResponseWriter, r *http.Request) {
	var req StatsRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	perShift := req.CoverageCountPerShift
	if perShift == 0 {
		perShift = h.config.Scheduler.CoveragePerShift
	}

	var shifts []*model.ShiftType
	var seats []int
	for _, s := range req.ShiftTypes {
		if s == nil {
			continue
		}
		n := s.Seats
		if n <= 0 {
			n = perShift
		}
		shifts = append(shifts, s)
		seats = append(seats, n)
	}

	var workers []*model.Worker
	for _, wk := range req.Workers {
		if wk != nil {
			workers = append(workers, wk)
		}
	}
	assignments := compact(req.Assignments)

	window := model.PlanningWindow{StartDate: req.StartDate, Days: req.Days}
	coverageAnalyzer := stats.NewCoverageAnalyzer()
	fairnessAnalyzer := stats.NewFairnessAnalyzer()
	coverage := coverageAnalyzer.Analyze(window, shifts, seats, assignments)

	resp := StatsResponse{
		Success:  true,
		Fairness: fairnessAnalyzer.Analyze(assignments, workers, shifts),
		Coverage: coverage,
		Report:   coverageAnalyzer.GenerateCoverageReport(coverage),
	}

	detector := validator.NewConflictDetector(detectorConfig(h.config.SchedulerOptions().RestRules))
	resp.Conflicts = detector.DetectAll(validator.Roster{
		Workers:        workers,
		ShiftTypes:     shifts,
		Unavailability: req.Unavailability,
		Assignments:    assignments,
	})
	if resp.Conflicts == nil {
		resp.Conflicts = []validator.Conflict{}
	}
	resp.Valid = !validator.HasErrors(resp.Conflicts)
	if req.Baseline != nil {
		resp.Comparison = fairnessAnalyzer.CompareSchedules(compact(req.Baseline), assignments, workers, shifts)
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// detectorConfig 连续天数和每周工时沿用默认阈值
func detectorConfig(rules []model.RestRule) *validator.DetectorConfig {
	cfg := validator.DefaultDetectorConfig()
	cfg.RestRules = rules
	return cfg
}

func compact(assignments []*model.Assignment) []*model.Assignment {
	out := make([]*model.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}
