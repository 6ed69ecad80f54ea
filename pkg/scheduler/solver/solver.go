// Package solver 提供伪布尔模型求解器
package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	sat "github.com/crillab/gophersat/solver"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/logger"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint"
)

// Status 求解状态
type Status int

const (
	StatusUnknown    Status = iota
	StatusOptimal           // 已证明最优
	StatusFeasible          // 有解，未证明最优
	StatusInfeasible        // 已证明无解
	StatusTimeout           // 时间用尽且无解
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Config 求解器配置
type Config struct {
	TimeLimit       time.Duration // 整个求解过程的墙钟时间
	MaxImprovements int           // 最多改进次数，达到后返回当前最好解
	Limiter         *Limiter      // 为空时使用 DefaultLimiter
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		TimeLimit:       30 * time.Second,
		MaxImprovements: 1000,
		Limiter:         DefaultLimiter(),
	}
}

// Solution 求解结果
// Model[i] 为变量 i+1 的取值
type Solution struct {
	Status     Status        `json:"status"`
	Model      []bool        `json:"-"`
	Cost       int           `json:"cost"`
	Iterations int           `json:"iterations"`
	Duration   time.Duration `json:"duration"`
}

// HasModel 是否带有可用赋值
func (s *Solution) HasModel() bool {
	return s.Status == StatusOptimal || s.Status == StatusFeasible
}

// Solver 求解器接口
type Solver interface {
	// Solve 求解模型
	Solve(ctx context.Context, m *constraint.Model) (*Solution, error)

	// Name 返回求解器名称
	Name() string
}

var errDeadline = errors.New("deadline exceeded")

// PBSolver 基于 gophersat 的伪布尔求解器
// 先求可行解，再不断加入 cost <= best-1 的约束，直到无解或时间用尽
type PBSolver struct {
	config Config
	logger *logger.SchedulerLogger
}

// NewPBSolver 创建求解器
func NewPBSolver(cfg Config) *PBSolver {
	def := DefaultConfig()
	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = def.TimeLimit
	}
	if cfg.MaxImprovements <= 0 {
		cfg.MaxImprovements = def.MaxImprovements
	}
	if cfg.Limiter == nil {
		cfg.Limiter = DefaultLimiter()
	}
	return &PBSolver{
		config: cfg,
		logger: logger.NewSchedulerLogger(),
	}
}

// Name 返回求解器名称
func (s *PBSolver) Name() string {
	return "PBSolver"
}

// Config 返回配置
func (s *PBSolver) Config() Config {
	return s.config
}

// Solve 求解模型
// ctx 只用于日志；求解时间由 TimeLimit 控制
func (s *PBSolver) Solve(ctx context.Context, m *constraint.Model) (*Solution, error) {
	startTime := time.Now()
	deadline := startTime.Add(s.config.TimeLimit)
	log := s.logger.WithContext(ctx)
	log.StartSolve(s.Name(), s.config.TimeLimit)

	result := &Solution{Status: StatusUnknown}
	finish := func(st Status) (*Solution, error) {
		result.Status = st
		result.Duration = time.Since(startTime)
		return result, nil
	}

	if unsat, _ := m.Unsat(); unsat {
		return finish(StatusInfeasible)
	}

	costs := m.CostTerms()
	improvements := 0

	for {
		constrs := m.Constraints()
		if result.Model != nil {
			constrs = append(constrs, boundConstr(costs, result.Cost-m.Offset()-1))
		}

		result.Iterations++
		st, model, err := solveOnce(s.config.Limiter, constrs, deadline)
		if errors.Is(err, errDeadline) {
			if result.Model == nil {
				return finish(StatusTimeout)
			}
			return finish(StatusFeasible)
		}
		if err != nil {
			return nil, err
		}

		switch st {
		case sat.Unsat:
			if result.Model == nil {
				return finish(StatusInfeasible)
			}
			return finish(StatusOptimal)
		case sat.Sat:
			cost := m.Cost(model)
			result.Model = model
			result.Cost = cost + m.Offset()
			improvements++
			log.Improved(improvements, result.Cost, time.Since(startTime))

			if cost == 0 || len(costs) == 0 {
				return finish(StatusOptimal)
			}
			if improvements >= s.config.MaxImprovements {
				return finish(StatusFeasible)
			}
		default:
			return nil, fmt.Errorf("求解器返回未知状态: %v", st)
		}
	}
}

// boundConstr 构造 Σ cost <= n，其中 n >= 0
func boundConstr(costs []constraint.CostTerm, n int) sat.PBConstr {
	lits := make([]int, len(costs))
	weights := make([]int, len(costs))
	sum := 0
	for i, t := range costs {
		lits[i] = -t.Lit
		weights[i] = t.Weight
		sum += t.Weight
	}
	return sat.PBConstr{Lits: lits, Weights: weights, AtLeast: sum - n}
}

type outcome struct {
	status sat.Status
	model  []bool
	err    error
}

// solveOnce 在独立协程中求解一次，超过截止时间即返回 errDeadline。
// gophersat 无法中断，超时后协程在后台结束，结束前一直占用 limiter 的名额；
// 截止前拿不到名额同样视为超时
func solveOnce(limiter *Limiter, constrs []sat.PBConstr, deadline time.Time) (sat.Status, []bool, error) {
	if !limiter.acquire(deadline) {
		return sat.Indet, nil, errDeadline
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		limiter.Release()
		return sat.Indet, nil, errDeadline
	}

	ch := make(chan outcome, 1)
	go func() {
		defer limiter.Release()
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("求解器异常: %v", r)}
			}
		}()

		sv := sat.New(sat.ParsePBConstrs(constrs))
		st := sv.Solve()
		var model []bool
		if st == sat.Sat {
			model = sv.Model()
		}
		ch <- outcome{status: st, model: model}
	}()

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case o := <-ch:
		return o.status, o.model, o.err
	case <-timer.C:
		return sat.Indet, nil, errDeadline
	}
}
