package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/logger"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/swap"
)

// SwapRoster 换班所在排班周期的完整数据
type SwapRoster struct {
	StartDate      string                  `json:"start_date" validate:"required,datetime=2006-01-02"`
	Days           int                     `json:"days" validate:"min=1,max=366"`
	Workers        []*model.Worker         `json:"workers" validate:"required,min=1"`
	ShiftTypes     []*model.ShiftType      `json:"shift_types" validate:"required,min=1"`
	Preferences    []*model.Preference     `json:"preferences,omitempty"`
	Unavailability []*model.Unavailability `json:"unavailability,omitempty"`
	Assignments    []*model.Assignment     `json:"assignments" validate:"required,min=1"`
	Options        *OptionsOverride        `json:"options,omitempty"`
}

func (r *SwapRoster) roster() swap.Roster {
	return swap.Roster{
		Window:         model.PlanningWindow{StartDate: r.StartDate, Days: r.Days},
		Workers:        r.Workers,
		ShiftTypes:     r.ShiftTypes,
		Preferences:    r.Preferences,
		Unavailability: r.Unavailability,
		Assignments:    r.Assignments,
	}
}

// SwapEvaluateRequest 换班评估请求
// 不提供 target_assignment 时为让班
type SwapEvaluateRequest struct {
	SwapRoster
	Source           model.Assignment  `json:"source"`
	TargetWorkerID   uuid.UUID         `json:"target_worker_id"`
	TargetAssignment *model.Assignment `json:"target_assignment,omitempty"`
}

// SwapEvaluateResponse 换班评估响应
type SwapEvaluateResponse struct {
	Success    bool             `json:"success"`
	Evaluation *swap.Evaluation `json:"evaluation"`
}

// SwapRecommendRequest 换班推荐请求
type SwapRecommendRequest struct {
	SwapRoster
	Source        model.Assignment `json:"source"`
	MaxCandidates int              `json:"max_candidates,omitempty" validate:"omitempty,min=1,max=50"`
	AllowExchange *bool            `json:"allow_exchange,omitempty"` // 默认 true
	Exclude       []uuid.UUID      `json:"exclude,omitempty"`
}

// SwapRecommendResponse 换班推荐响应
type SwapRecommendResponse struct {
	Success    bool             `json:"success"`
	Candidates []swap.Candidate `json:"candidates"`
}

// swapEvaluator 使用与排班生成相同的约束和权重
func (h *Handler) swapEvaluator(o *OptionsOverride) (*swap.Evaluator, error) {
	opts, err := h.options(o)
	if err != nil {
		return nil, err
	}
	return swap.NewEvaluator(swap.Config{
		Constraints:           opts.ConstraintConfig(),
		CoverageCountPerShift: opts.CoverageCountPerShift,
		Detector:              detectorConfig(opts.RestRules),
	}), nil
}

// EvaluateSwap 评估一次让班或互换，存在新增硬约束冲突时 feasible 为 false
func (h *Handler) EvaluateSwap(w http.ResponseWriter, r *http.Request) {
	var req SwapEvaluateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	evaluator, err := h.swapEvaluator(req.Options)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	eval, err := evaluator.Evaluate(req.roster(), swap.Request{
		Source:           req.Source,
		TargetWorkerID:   req.TargetWorkerID,
		TargetAssignment: req.TargetAssignment,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	logger.WithContext(r.Context()).Info().
		Str("kind", string(eval.Kind)).
		Bool("feasible", eval.Feasible).
		Int("penalty_change", eval.PenaltyChange).
		Msg("换班评估完成")
	respondJSON(w, r, http.StatusOK, SwapEvaluateResponse{Success: true, Evaluation: eval})
}

// RecommendSwap 为一个班次推荐可行的换班对象
func (h *Handler) RecommendSwap(w http.ResponseWriter, r *http.Request) {
	var req SwapRecommendRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	evaluator, err := h.swapEvaluator(req.Options)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	opts := swap.DefaultRecommendOptions()
	if req.MaxCandidates > 0 {
		opts.MaxCandidates = req.MaxCandidates
	}
	if req.AllowExchange != nil {
		opts.AllowExchange = *req.AllowExchange
	}
	opts.Exclude = req.Exclude

	candidates, err := swap.NewRecommender(evaluator).Recommend(req.roster(), req.Source, opts)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if candidates == nil {
		candidates = []swap.Candidate{}
	}
	respondJSON(w, r, http.StatusOK, SwapRecommendResponse{Success: true, Candidates: candidates})
}
