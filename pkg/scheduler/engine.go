// Package scheduler 排班引擎入口
// 把人员、班次、排班周期和偏好转换为伪布尔模型，求解后返回排班结果
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Simon6088/Doctor-Scheduling-System/pkg/errors"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/logger"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint/builtin"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/index"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/solver"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/stats"
)

// Outcome 排班结果标签
type Outcome string

const (
	OutcomeOptimal      Outcome = "OPTIMAL"       // 已证明最优
	OutcomeFeasible     Outcome = "FEASIBLE"      // 有效排班，未证明最优
	OutcomeInfeasible   Outcome = "INFEASIBLE"    // 已证明无解
	OutcomeTimeout      Outcome = "TIMEOUT"       // 时间用尽，未找到解也未证明无解
	OutcomeInvalidInput Outcome = "INVALID_INPUT" // 输入不满足前置条件，未求解
)

// State 引擎状态
type State int

const (
	StateBuilt State = iota
	StateSolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateSolved:
		return "solved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Input 单次排班的输入
type Input struct {
	Workers        []*model.Worker         `json:"workers"`
	ShiftTypes     []*model.ShiftType      `json:"shift_types"`
	Window         model.PlanningWindow    `json:"window"`
	Preferences    []*model.Preference     `json:"preferences,omitempty"`
	Unavailability []*model.Unavailability `json:"unavailability,omitempty"`
}

// Result 排班结果
// 无解、超时、输入无效时 Assignments 为空切片，由 Outcome 区分
type Result struct {
	Outcome     Outcome                      `json:"outcome"`
	Assignments []*model.Assignment          `json:"assignments"`
	Objective   float64                      `json:"objective"`
	Reason      string                       `json:"reason,omitempty"`
	Statistics  *stats.FairnessMetrics       `json:"statistics,omitempty"`
	Coverage    *stats.CoverageMetrics       `json:"coverage,omitempty"`
	Violations  []constraint.ViolationDetail `json:"violations,omitempty"` // 软约束违反
	Iterations  int                          `json:"iterations"`
	Duration    time.Duration                `json:"duration"`
}

// HasSolution 是否带有可用排班
func (r *Result) HasSolution() bool {
	return r.Outcome == OutcomeOptimal || r.Outcome == OutcomeFeasible
}

// Err 将无排班的结果转换为错误，供调用方统一处理
func (r *Result) Err() error {
	switch r.Outcome {
	case OutcomeInfeasible:
		return apperrors.NoFeasibleSolution(r.Reason)
	case OutcomeTimeout:
		return apperrors.New(apperrors.CodeTimeout, r.Reason)
	case OutcomeInvalidInput:
		return apperrors.New(apperrors.CodeInvalidInput, r.Reason)
	default:
		return nil
	}
}

// Engine 单次使用的排班引擎
// Built -> Solved 或 Failed，状态不可回退
type Engine struct {
	state   State
	opts    Options
	input   Input
	problem *constraint.Problem
	model   *constraint.Model
	manager *constraint.Manager
	solver  solver.Solver
	logger  *logger.SchedulerLogger
	result  *Result
}

// New 创建引擎并完成建模
// 仅当配置无效时返回错误；输入不满足前置条件时引擎进入 Failed 状态
func New(in Input, opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		opts:   opts,
		input:  in,
		logger: logger.NewSchedulerLogger(),
		solver: solver.NewPBSolver(solver.Config{
			TimeLimit:       opts.TimeLimit(),
			MaxImprovements: opts.MaxImprovements,
			Limiter:         opts.Limiter,
		}),
	}

	if reason := validateInput(in); reason != "" {
		e.fail(reason)
		return e, nil
	}

	ix := index.Build(len(in.Workers), in.Window.Days, len(in.ShiftTypes), eligibility(in))
	e.problem = constraint.NewProblem(
		in.Workers,
		in.ShiftTypes,
		in.Window,
		compactPreferences(in),
		opts.RestRules,
		ix,
		opts.CoverageCountPerShift,
	)

	if reason := checkEligibility(in, e.problem.Seats, ix.Eligible); reason != "" {
		e.fail(reason)
		return e, nil
	}

	e.manager = builtin.NewDefaultManager(opts.ConstraintConfig())
	e.model = constraint.NewModel(e.problem)
	encoded, err := e.manager.Encode(e.model)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "构建模型失败")
	}
	for _, st := range encoded {
		e.logger.ConstraintEncoded(string(st.Type), st.Variables, st.Constraints, st.CostTerms)
	}

	e.state = StateBuilt
	e.logger.ModelBuilt(len(in.Workers), in.Window.Days, len(in.ShiftTypes),
		e.model.NumVars(), e.model.NumConstraints(), len(e.model.CostTerms()))
	return e, nil
}

// eligibility 资质和不可排班日期决定哪些三元组有变量
func eligibility(in Input) index.EligibleFunc {
	off := make(map[uuid.UUID]map[int]bool)
	for _, u := range in.Unavailability {
		if u == nil {
			continue
		}
		d, ok := in.Window.Offset(u.Date)
		if !ok {
			continue
		}
		if off[u.WorkerID] == nil {
			off[u.WorkerID] = make(map[int]bool)
		}
		off[u.WorkerID][d] = true
	}

	return func(w, d, s int) bool {
		worker := in.Workers[w]
		if off[worker.ID][d] {
			return false
		}
		return worker.HasQualification(in.ShiftTypes[s].RequiredQualification)
	}
}

func (e *Engine) fail(reason string) {
	e.state = StateFailed
	e.result = &Result{
		Outcome:     OutcomeInvalidInput,
		Assignments: []*model.Assignment{},
		Reason:      reason,
	}
	e.logger.InvalidInput(reason)
}

// State 返回当前状态
func (e *Engine) State() State {
	return e.state
}

// Model 返回伪布尔模型，Failed 状态下为 nil
func (e *Engine) Model() *constraint.Model {
	return e.model
}

// Solve 求解并返回结果
// 对已处于终态的引擎直接返回已有结果，不会再次求解
func (e *Engine) Solve(ctx context.Context) *Result {
	if e.state != StateBuilt {
		return e.result
	}

	log := e.logger.WithContext(ctx)
	result := &Result{Assignments: []*model.Assignment{}}

	sol, err := e.solver.Solve(ctx, e.model)
	switch {
	case err != nil:
		logger.WithContext(ctx).Error().Err(err).Msg("求解器异常")
		result.Outcome = OutcomeTimeout
		result.Reason = fmt.Sprintf("求解器未能给出结果: %v", err)
	case sol.Status == solver.StatusInfeasible:
		result.Outcome = OutcomeInfeasible
		result.Reason = "硬约束无法同时满足"
		if unsat, why := e.model.Unsat(); unsat {
			result.Reason += ": " + why
		}
	case sol.Status == solver.StatusTimeout:
		result.Outcome = OutcomeTimeout
		result.Reason = fmt.Sprintf("%.1f 秒内未找到可行解", e.opts.TimeLimitSeconds)
	default:
		result.Outcome = OutcomeOptimal
		if sol.Status == solver.StatusFeasible {
			result.Outcome = OutcomeFeasible
		}
		result.Assignments = extract(e.problem, sol.Model)
		e.evaluate(log, result)
	}

	if sol != nil {
		result.Iterations = sol.Iterations
		result.Duration = sol.Duration
	}

	e.state = StateSolved
	e.result = result
	log.ScheduleComplete(string(result.Outcome), len(result.Assignments), result.Objective, result.Duration)
	return result
}

// evaluate 复核硬约束并计算统计与目标值
func (e *Engine) evaluate(log *logger.SchedulerLogger, result *Result) {
	ctx := constraint.NewContext(e.problem, result.Assignments)

	checked := e.manager.Evaluate(ctx)
	for _, v := range checked.HardViolations {
		log.ConstraintViolation(v.ConstraintName, v.Message)
	}
	result.Violations = checked.SoftViolations

	seats := make([]int, len(e.problem.Shifts))
	for s := range seats {
		seats[s] = e.problem.Seats(s)
	}
	result.Statistics = stats.NewFairnessAnalyzer().Analyze(result.Assignments, e.problem.Workers, e.problem.Shifts)
	result.Coverage = stats.NewCoverageAnalyzer().Analyze(e.problem.Window, e.problem.Shifts, seats, result.Assignments)

	// 偏好违反次数与权重无关，按单位权重评估
	_, violations, _ := builtin.NewPreferenceConstraint(1).Evaluate(ctx)
	result.Objective = e.opts.BalanceWeight*result.Statistics.PeakDeviation +
		e.opts.PreferenceWeight*float64(violations)
}
