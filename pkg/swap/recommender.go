package swap

import (
	"sort"

	"github.com/google/uuid"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
)

// Candidate 换班推荐
type Candidate struct {
	Rank             int               `json:"rank"`
	TargetWorkerID   uuid.UUID         `json:"target_worker_id"`
	TargetName       string            `json:"target_name"`
	TargetAssignment *model.Assignment `json:"target_assignment,omitempty"` // 互换时对方让出的班次
	Evaluation       *Evaluation       `json:"evaluation"`
}

// RecommendOptions 推荐选项
type RecommendOptions struct {
	MaxCandidates int         // 最多返回的候选数
	AllowExchange bool        // 是否考虑互换
	Exclude       []uuid.UUID // 不考虑的人员
}

// DefaultRecommendOptions 返回默认选项
func DefaultRecommendOptions() RecommendOptions {
	return RecommendOptions{
		MaxCandidates: 5,
		AllowExchange: true,
	}
}

// Recommender 换班推荐器
type Recommender struct {
	evaluator *Evaluator
}

// NewRecommender 创建换班推荐器
func NewRecommender(e *Evaluator) *Recommender {
	return &Recommender{evaluator: e}
}

// Recommend 为 source 推荐换班对象。
// 只返回可行的方案，按软约束代价变化升序，其次让班优先于互换，
// 再按对方当前工作量升序，最后保持人员输入顺序
func (r *Recommender) Recommend(roster Roster, source model.Assignment, opts RecommendOptions) ([]Candidate, error) {
	if opts.MaxCandidates < 1 {
		opts.MaxCandidates = DefaultRecommendOptions().MaxCandidates
	}

	b, err := r.evaluator.baseline(roster)
	if err != nil {
		return nil, err
	}

	excluded := make(map[uuid.UUID]bool, len(opts.Exclude)+1)
	excluded[source.WorkerID] = true
	for _, id := range opts.Exclude {
		excluded[id] = true
	}

	current := compactAssignments(roster.Assignments)
	load := make(map[uuid.UUID]int)
	for _, a := range current {
		if s := b.shifts[a.ShiftTypeID]; s != nil {
			load[a.WorkerID] += s.Weight()
		}
	}

	type scored struct {
		Candidate
		load int
	}
	var candidates []scored
	consider := func(req Request, w *model.Worker) error {
		eval, err := b.evaluate(req)
		if err != nil {
			return err
		}
		if !eval.Feasible {
			return nil
		}
		candidates = append(candidates, scored{
			Candidate: Candidate{
				TargetWorkerID:   w.ID,
				TargetName:       w.Name,
				TargetAssignment: req.TargetAssignment,
				Evaluation:       eval,
			},
			load: load[w.ID],
		})
		return nil
	}

	for _, w := range b.problem.Workers {
		if excluded[w.ID] {
			continue
		}
		if err := consider(Request{Source: source, TargetWorkerID: w.ID}, w); err != nil {
			return nil, err
		}
		if !opts.AllowExchange {
			continue
		}
		for _, a := range current {
			if a.WorkerID != w.ID || (a.Date == source.Date && a.ShiftTypeID == source.ShiftTypeID) {
				continue
			}
			if _, ok := b.shifts[a.ShiftTypeID]; !ok {
				continue
			}
			if err := consider(Request{Source: source, TargetWorkerID: w.ID, TargetAssignment: a}, w); err != nil {
				return nil, err
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if ci.Evaluation.PenaltyChange != cj.Evaluation.PenaltyChange {
			return ci.Evaluation.PenaltyChange < cj.Evaluation.PenaltyChange
		}
		if ci.Evaluation.Kind != cj.Evaluation.Kind {
			return ci.Evaluation.Kind == KindGiveAway
		}
		return ci.load < cj.load
	})

	if len(candidates) > opts.MaxCandidates {
		candidates = candidates[:opts.MaxCandidates]
	}
	out := make([]Candidate, len(candidates))
	for i, c := range candidates {
		out[i] = c.Candidate
		out[i].Rank = i + 1
	}
	return out, nil
}
