package solver

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/index"
)

// newModel 创建含 n 个决策变量的空模型（1 人 × n 天 × 1 班次）
func newModel(n int) *constraint.Model {
	ws := []*model.Worker{{ID: uuid.New()}}
	ss := []*model.ShiftType{{ID: uuid.New(), Category: model.CategoryDay}}
	ix := index.Build(1, n, 1, nil)
	p := constraint.NewProblem(ws, ss, model.PlanningWindow{StartDate: "2026-05-04", Days: n}, nil, nil, ix, 1)
	return constraint.NewModel(p)
}

func newSolver() *PBSolver {
	return NewPBSolver(Config{TimeLimit: 10 * time.Second})
}

func TestPBSolver_NoCost(t *testing.T) {
	m := newModel(2)
	m.Clause(1, 2)

	sol, err := newSolver().Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.True(t, sol.HasModel())
	assert.True(t, constraint.IsTrue(sol.Model, 1) || constraint.IsTrue(sol.Model, 2))
	assert.Equal(t, 1, sol.Iterations)
}

func TestPBSolver_Infeasible(t *testing.T) {
	m := newModel(1)
	m.Clause(1)
	m.Clause(-1)

	sol, err := newSolver().Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.False(t, sol.HasModel())
}

func TestPBSolver_UnsatAtBuild(t *testing.T) {
	m := newModel(2)
	m.AtLeast([]int{1, 2}, 3)

	sol, err := newSolver().Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.Zero(t, sol.Iterations)
}

func TestPBSolver_Optimize(t *testing.T) {
	m := newModel(3)
	m.AtLeast([]int{1, 2, 3}, 1)
	m.AddCost(1, 5, constraint.TypeWorkerPreference)
	m.AddCost(2, 3, constraint.TypeWorkerPreference)
	m.AddCost(3, 4, constraint.TypeWorkerPreference)

	sol, err := newSolver().Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, 3, sol.Cost)
	assert.True(t, constraint.IsTrue(sol.Model, 2))
	assert.False(t, constraint.IsTrue(sol.Model, 1))
	assert.False(t, constraint.IsTrue(sol.Model, 3))
}

func TestPBSolver_NegativeLiteralCost(t *testing.T) {
	m := newModel(2)
	m.AtMost([]int{1, 2}, 1)
	m.AddCost(-1, 10, constraint.TypeWorkerPreference)
	m.AddCost(-2, 1, constraint.TypeWorkerPreference)

	sol, err := newSolver().Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, 1, sol.Cost)
	assert.True(t, constraint.IsTrue(sol.Model, 1))
}

func TestPBSolver_Offset(t *testing.T) {
	m := newModel(1)
	m.Clause(1)
	m.AddConstantCost(7)

	sol, err := newSolver().Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, 7, sol.Cost)
}

func TestPBSolver_MaxImprovements(t *testing.T) {
	m := newModel(2)
	m.Clause(1, 2)
	m.AddCost(1, 2, constraint.TypeWorkloadBalance)
	m.AddCost(2, 2, constraint.TypeWorkloadBalance)

	s := NewPBSolver(Config{TimeLimit: 10 * time.Second, MaxImprovements: 1})
	sol, err := s.Solve(context.Background(), m)
	require.NoError(t, err)
	// 任何解的代价都大于 0，只允许一次改进
	assert.Equal(t, StatusFeasible, sol.Status)
	assert.True(t, sol.HasModel())
	assert.GreaterOrEqual(t, sol.Cost, 2)
}

func TestNewPBSolver_Defaults(t *testing.T) {
	s := NewPBSolver(Config{})
	assert.Equal(t, DefaultConfig(), s.Config())
	assert.Equal(t, "PBSolver", s.Name())
}

func TestSolveOnce_PastDeadline(t *testing.T) {
	l := NewLimiter(1)
	_, _, err := solveOnce(l, nil, time.Now().Add(-time.Second))
	assert.ErrorIs(t, err, errDeadline)
	assert.Zero(t, l.InUse())
}

func TestLimiter(t *testing.T) {
	assert.Equal(t, 1, NewLimiter(0).Limit())

	l := NewLimiter(2)
	soon := time.Now().Add(time.Second)
	require.True(t, l.acquire(soon))
	assert.False(t, l.Full())
	require.True(t, l.acquire(soon))
	assert.True(t, l.Full())
	assert.Equal(t, 2, l.InUse())

	assert.False(t, l.acquire(time.Now().Add(20*time.Millisecond)))

	l.Release()
	assert.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire())
}

func TestPBSolver_LimiterFull(t *testing.T) {
	l := NewLimiter(1)
	require.True(t, l.acquire(time.Now().Add(time.Second)))

	m := newModel(1)
	m.Clause(1)
	s := NewPBSolver(Config{TimeLimit: 50 * time.Millisecond, Limiter: l})

	// 名额被后台求解占满时按超时处理
	sol, err := s.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, sol.Status)
	assert.Equal(t, 1, l.InUse())

	l.Release()
	sol, err = s.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Eventually(t, func() bool { return l.InUse() == 0 }, time.Second, 5*time.Millisecond)
}

func TestDefaultLimiter(t *testing.T) {
	assert.Positive(t, DefaultLimiter().Limit())
	assert.Same(t, DefaultLimiter(), NewPBSolver(Config{}).Config().Limiter)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "OPTIMAL", StatusOptimal.String())
	assert.Equal(t, "FEASIBLE", StatusFeasible.String())
	assert.Equal(t, "INFEASIBLE", StatusInfeasible.String())
	assert.Equal(t, "TIMEOUT", StatusTimeout.String())
	assert.Equal(t, "UNKNOWN", StatusUnknown.String())
}
