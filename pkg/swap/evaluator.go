// Package swap 评估医生之间的换班（让班或互换）并推荐换班对象
package swap

import (
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/Simon6088/Doctor-Scheduling-System/pkg/errors"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint/builtin"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/validator"
)

// Kind 换班方式
type Kind string

const (
	KindGiveAway Kind = "give_away" // 把班次让给对方
	KindExchange Kind = "exchange"  // 双方各让出一个班次
)

// Roster 换班所在的排班周期
type Roster struct {
	Window         model.PlanningWindow
	Workers        []*model.Worker
	ShiftTypes     []*model.ShiftType
	Preferences    []*model.Preference
	Unavailability []*model.Unavailability
	Assignments    []*model.Assignment
}

// Request 换班请求
type Request struct {
	Source           model.Assignment  `json:"source"`
	TargetWorkerID   uuid.UUID         `json:"target_worker_id"`
	TargetAssignment *model.Assignment `json:"target_assignment,omitempty"` // 为空表示让班
}

// Kind 返回换班方式
func (r Request) Kind() Kind {
	if r.TargetAssignment != nil {
		return KindExchange
	}
	return KindGiveAway
}

// Issue 换班后新出现的问题
type Issue struct {
	Type     string         `json:"type"`
	Severity model.Severity `json:"severity"`
	WorkerID uuid.UUID      `json:"worker_id"`
	Date     string         `json:"date,omitempty"`
	Message  string         `json:"message"`
}

// Evaluation 换班评估结果
type Evaluation struct {
	Kind     Kind    `json:"kind"`
	Feasible bool    `json:"feasible"` // 没有新增 error 级别的问题
	Issues   []Issue `json:"issues"`

	// 软约束代价，与求解器目标使用同一套整数系数
	PenaltyBefore int `json:"penalty_before"`
	PenaltyAfter  int `json:"penalty_after"`
	PenaltyChange int `json:"penalty_change"`

	SourceLoadChange int `json:"source_load_change"` // 加权工作量变化
	TargetLoadChange int `json:"target_load_change"`

	Recommendation string `json:"recommendation"`
}

// Config 评估器配置
type Config struct {
	Constraints           builtin.Config
	CoverageCountPerShift int                        // 班次未设置 Seats 时每天需要的人数
	Detector              *validator.DetectorConfig // 为空时使用默认值并沿用 Constraints.RestRules
}

// Evaluator 换班评估器
type Evaluator struct {
	manager  *constraint.Manager
	detector *validator.ConflictDetector
	rules    []model.RestRule
	seats    int
}

// NewEvaluator 创建换班评估器
func NewEvaluator(cfg Config) *Evaluator {
	detectorCfg := cfg.Detector
	if detectorCfg == nil {
		detectorCfg = validator.DefaultDetectorConfig()
		detectorCfg.RestRules = cfg.Constraints.RestRules
	}
	seats := cfg.CoverageCountPerShift
	if seats < 1 {
		seats = 1
	}
	return &Evaluator{
		manager:  builtin.NewDefaultManager(cfg.Constraints),
		detector: validator.NewConflictDetector(detectorCfg),
		rules:    cfg.Constraints.RestRules,
		seats:    seats,
	}
}

// Evaluate 评估一次换班。
// 请求引用的排班或人员不存在时返回 INVALID_INPUT 错误
func (e *Evaluator) Evaluate(roster Roster, req Request) (*Evaluation, error) {
	b, err := e.baseline(roster)
	if err != nil {
		return nil, err
	}
	return b.evaluate(req)
}

type issueKey struct {
	typ      string
	workerID uuid.UUID
	date     string
	message  string
}

// baseline 换班前的排班状态，推荐时对所有候选复用
type baseline struct {
	e       *Evaluator
	roster  Roster
	problem *constraint.Problem
	workers map[uuid.UUID]*model.Worker
	shifts  map[uuid.UUID]*model.ShiftType

	conflicts map[issueKey]int
	soft      map[issueKey]int
	penalty   int
}

func (e *Evaluator) baseline(roster Roster) (*baseline, error) {
	if roster.Window.Days < 1 {
		return nil, apperrors.InvalidInput("days", "必须大于 0")
	}
	if _, err := roster.Window.Start(); err != nil {
		return nil, apperrors.InvalidInput("start_date", "日期格式应为 YYYY-MM-DD")
	}

	b := &baseline{
		e:       e,
		roster:  roster,
		workers: make(map[uuid.UUID]*model.Worker, len(roster.Workers)),
		shifts:  make(map[uuid.UUID]*model.ShiftType, len(roster.ShiftTypes)),
	}
	for _, w := range roster.Workers {
		if w != nil {
			b.workers[w.ID] = w
		}
	}
	for _, s := range roster.ShiftTypes {
		if s != nil {
			b.shifts[s.ID] = s
		}
	}

	var prefs []*model.Preference
	for _, p := range roster.Preferences {
		if p != nil && roster.Window.Contains(p.Date) {
			prefs = append(prefs, p)
		}
	}
	b.problem = constraint.NewProblem(
		compactWorkers(roster.Workers),
		compactShifts(roster.ShiftTypes),
		roster.Window,
		prefs,
		e.rules,
		nil,
		e.seats,
	)

	current := compactAssignments(roster.Assignments)
	b.conflicts = countConflicts(e.detector.DetectAll(b.validatorRoster(current)))
	checked := e.manager.Evaluate(constraint.NewContext(b.problem, current))
	b.soft = countViolations(checked.SoftViolations)
	b.penalty = softPenalty(checked)
	return b, nil
}

func (b *baseline) validatorRoster(assignments []*model.Assignment) validator.Roster {
	return validator.Roster{
		Workers:        b.problem.Workers,
		ShiftTypes:     b.problem.Shifts,
		Unavailability: b.roster.Unavailability,
		Assignments:    assignments,
	}
}

func (b *baseline) evaluate(req Request) (*Evaluation, error) {
	after, err := b.apply(req)
	if err != nil {
		return nil, err
	}

	result := &Evaluation{
		Kind:     req.Kind(),
		Feasible: true,
		Issues:   make([]Issue, 0),
	}
	involved := map[uuid.UUID]bool{req.Source.WorkerID: true, req.TargetWorkerID: true}

	// 只报告换班后新增的冲突，原排班已有的问题不计入
	seen := make(map[issueKey]int)
	for _, c := range b.e.detector.DetectAll(b.validatorRoster(after)) {
		k := issueKey{string(c.Type), c.WorkerID, c.Date, c.Message}
		seen[k]++
		if !involved[c.WorkerID] || seen[k] <= b.conflicts[k] {
			continue
		}
		if c.Severity == model.SeverityError {
			result.Feasible = false
		}
		result.Issues = append(result.Issues, Issue{
			Type:     string(c.Type),
			Severity: c.Severity,
			WorkerID: c.WorkerID,
			Date:     c.Date,
			Message:  c.Message,
		})
	}

	checked := b.e.manager.Evaluate(constraint.NewContext(b.problem, after))
	seen = make(map[issueKey]int)
	for _, v := range checked.SoftViolations {
		k := issueKey{string(v.ConstraintType), v.WorkerID, v.Date, v.Message}
		seen[k]++
		if !involved[v.WorkerID] || seen[k] <= b.soft[k] {
			continue
		}
		result.Issues = append(result.Issues, Issue{
			Type:     string(v.ConstraintType),
			Severity: model.SeverityWarning,
			WorkerID: v.WorkerID,
			Date:     v.Date,
			Message:  v.Message,
		})
	}

	result.PenaltyBefore = b.penalty
	result.PenaltyAfter = softPenalty(checked)
	result.PenaltyChange = result.PenaltyAfter - b.penalty

	given := b.shifts[req.Source.ShiftTypeID].Weight()
	taken := 0
	if req.TargetAssignment != nil {
		taken = b.shifts[req.TargetAssignment.ShiftTypeID].Weight()
	}
	result.SourceLoadChange = taken - given
	result.TargetLoadChange = given - taken

	result.Recommendation = recommendation(result)
	return result, nil
}

// apply 检查请求并返回换班后的排班，原排班不被修改
func (b *baseline) apply(req Request) ([]*model.Assignment, error) {
	if _, ok := b.workers[req.Source.WorkerID]; !ok {
		return nil, apperrors.InvalidInput("source.worker_id", fmt.Sprintf("未知人员 %s", req.Source.WorkerID))
	}
	if _, ok := b.shifts[req.Source.ShiftTypeID]; !ok {
		return nil, apperrors.InvalidInput("source.shift_type_id", fmt.Sprintf("未知班次 %s", req.Source.ShiftTypeID))
	}
	if !b.roster.Window.Contains(req.Source.Date) {
		return nil, apperrors.InvalidInput("source.date", "不在排班周期内")
	}
	if _, ok := b.workers[req.TargetWorkerID]; !ok {
		return nil, apperrors.InvalidInput("target_worker_id", fmt.Sprintf("未知人员 %s", req.TargetWorkerID))
	}
	if req.TargetWorkerID == req.Source.WorkerID {
		return nil, apperrors.InvalidInput("target_worker_id", "不能与换出班次的人员相同")
	}

	current := compactAssignments(b.roster.Assignments)
	src := find(current, req.Source)
	if src < 0 {
		return nil, apperrors.InvalidInput("source", "排班中没有这条记录")
	}
	dst := -1
	if t := req.TargetAssignment; t != nil {
		if t.WorkerID != req.TargetWorkerID {
			return nil, apperrors.InvalidInput("target_assignment", "必须是换班对象自己的班次")
		}
		if _, ok := b.shifts[t.ShiftTypeID]; !ok {
			return nil, apperrors.InvalidInput("target_assignment.shift_type_id", fmt.Sprintf("未知班次 %s", t.ShiftTypeID))
		}
		if dst = find(current, *t); dst < 0 {
			return nil, apperrors.InvalidInput("target_assignment", "排班中没有这条记录")
		}
	}

	after := make([]*model.Assignment, len(current))
	copy(after, current)
	moved := *current[src]
	moved.WorkerID = req.TargetWorkerID
	after[src] = &moved
	if dst >= 0 {
		back := *current[dst]
		back.WorkerID = req.Source.WorkerID
		after[dst] = &back
	}
	return after, nil
}

func find(assignments []*model.Assignment, a model.Assignment) int {
	for i, cur := range assignments {
		if *cur == a {
			return i
		}
	}
	return -1
}

// softPenalty 去掉硬约束部分后的代价
func softPenalty(r *constraint.Result) int {
	p := r.TotalPenalty
	for _, v := range r.HardViolations {
		p -= v.Penalty
	}
	return p
}

func countConflicts(conflicts []validator.Conflict) map[issueKey]int {
	out := make(map[issueKey]int, len(conflicts))
	for _, c := range conflicts {
		out[issueKey{string(c.Type), c.WorkerID, c.Date, c.Message}]++
	}
	return out
}

func countViolations(details []constraint.ViolationDetail) map[issueKey]int {
	out := make(map[issueKey]int, len(details))
	for _, v := range details {
		out[issueKey{string(v.ConstraintType), v.WorkerID, v.Date, v.Message}]++
	}
	return out
}

func recommendation(e *Evaluation) string {
	switch {
	case !e.Feasible:
		return "换班后存在硬约束冲突，不可执行"
	case e.PenaltyChange < 0:
		return "建议换班，排班质量提升"
	case e.PenaltyChange > 0:
		return "可以换班，但均衡或偏好满足度下降"
	default:
		return "可以换班"
	}
}

func compactWorkers(in []*model.Worker) []*model.Worker {
	out := make([]*model.Worker, 0, len(in))
	for _, w := range in {
		if w != nil {
			out = append(out, w)
		}
	}
	return out
}

func compactShifts(in []*model.ShiftType) []*model.ShiftType {
	out := make([]*model.ShiftType, 0, len(in))
	for _, s := range in {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func compactAssignments(in []*model.Assignment) []*model.Assignment {
	out := make([]*model.Assignment, 0, len(in))
	for _, a := range in {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}
