package builtin

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/index"
)

const testStart = "2026-03-02"

func newProblem(workers int, days int, shifts []*model.ShiftType, prefs []*model.Preference, rules []model.RestRule) *constraint.Problem {
	ws := make([]*model.Worker, workers)
	for i := range ws {
		ws[i] = &model.Worker{ID: uuid.New(), Name: string(rune('A' + i))}
	}
	ix := index.Build(workers, days, len(shifts), nil)
	return constraint.NewProblem(ws, shifts, model.PlanningWindow{StartDate: testStart, Days: days}, prefs, rules, ix, 1)
}

func dayShift() *model.ShiftType {
	return &model.ShiftType{ID: uuid.New(), Name: "白班", Category: model.CategoryDay, StartTime: "08:00", EndTime: "17:00"}
}

func nightShift() *model.ShiftType {
	return &model.ShiftType{ID: uuid.New(), Name: "夜班", Category: model.CategoryNight, StartTime: "20:00", EndTime: "08:00"}
}

func assign(p *constraint.Problem, w, d, s int) *model.Assignment {
	return &model.Assignment{
		Date:        p.Window.DateString(d),
		WorkerID:    p.Workers[w].ID,
		ShiftTypeID: p.Shifts[s].ID,
	}
}

func TestCoverageConstraint(t *testing.T) {
	p := newProblem(2, 2, []*model.ShiftType{dayShift()}, nil, nil)
	c := NewCoverageConstraint()

	m := constraint.NewModel(p)
	require.NoError(t, c.Encode(m))
	// 每个班位一条 AtLeast 与一条 AtMost
	assert.Equal(t, 4, m.NumConstraints())

	valid, penalty, details := c.Evaluate(constraint.NewContext(p, []*model.Assignment{
		assign(p, 0, 0, 0),
		assign(p, 1, 1, 0),
	}))
	assert.True(t, valid)
	assert.Zero(t, penalty)
	assert.Empty(t, details)

	valid, _, details = c.Evaluate(constraint.NewContext(p, []*model.Assignment{
		assign(p, 0, 0, 0),
		assign(p, 1, 0, 0),
	}))
	assert.False(t, valid)
	require.Len(t, details, 2)
	assert.Equal(t, model.SeverityError, details[0].Severity)
}

func TestCoverageConstraint_NotEnoughCandidates(t *testing.T) {
	shift := dayShift()
	shift.Seats = 3
	p := newProblem(2, 1, []*model.ShiftType{shift}, nil, nil)

	m := constraint.NewModel(p)
	require.NoError(t, NewCoverageConstraint().Encode(m))
	unsat, reason := m.Unsat()
	assert.True(t, unsat)
	assert.NotEmpty(t, reason)
}

func TestNonOverlapConstraint(t *testing.T) {
	p := newProblem(1, 1, []*model.ShiftType{dayShift(), nightShift()}, nil, nil)
	c := NewNonOverlapConstraint()

	m := constraint.NewModel(p)
	require.NoError(t, c.Encode(m))
	assert.Equal(t, 1, m.NumConstraints())

	valid, penalty, details := c.Evaluate(constraint.NewContext(p, []*model.Assignment{
		assign(p, 0, 0, 0),
		assign(p, 0, 0, 1),
	}))
	assert.False(t, valid)
	assert.Equal(t, 100, penalty)
	require.Len(t, details, 1)
	assert.Equal(t, p.Workers[0].ID, details[0].WorkerID)
}

func TestRestConstraint(t *testing.T) {
	shifts := []*model.ShiftType{dayShift(), nightShift()}
	p := newProblem(2, 3, shifts, nil, model.DefaultRestRules())
	c := NewRestConstraint(model.DefaultRestRules())

	m := constraint.NewModel(p)
	require.NoError(t, c.Encode(m))
	// 夜班 -> 白班/夜班，2 人 × 2 组相邻日 × 2 个后续班次
	assert.Equal(t, 8, m.NumConstraints())

	t.Run("夜班次日休息", func(t *testing.T) {
		valid, _, details := c.Evaluate(constraint.NewContext(p, []*model.Assignment{
			assign(p, 0, 0, 1),
			assign(p, 0, 2, 0),
		}))
		assert.True(t, valid)
		assert.Empty(t, details)
	})

	t.Run("夜班次日上白班", func(t *testing.T) {
		valid, penalty, details := c.Evaluate(constraint.NewContext(p, []*model.Assignment{
			assign(p, 0, 0, 1),
			assign(p, 0, 1, 0),
		}))
		assert.False(t, valid)
		assert.Equal(t, 100, penalty)
		require.Len(t, details, 1)
		assert.Equal(t, p.Window.DateString(1), details[0].Date)
	})

	t.Run("白班次日上夜班", func(t *testing.T) {
		valid, _, _ := c.Evaluate(constraint.NewContext(p, []*model.Assignment{
			assign(p, 0, 0, 0),
			assign(p, 0, 1, 1),
		}))
		assert.True(t, valid)
	})
}

func TestRestConstraint_SpecificTarget(t *testing.T) {
	shifts := []*model.ShiftType{dayShift(), nightShift()}
	rules := []model.RestRule{{From: model.CategoryNight, To: model.CategoryNight}}
	p := newProblem(1, 2, shifts, nil, rules)
	c := NewRestConstraint(rules)

	m := constraint.NewModel(p)
	require.NoError(t, c.Encode(m))
	assert.Equal(t, 1, m.NumConstraints())

	valid, _, _ := c.Evaluate(constraint.NewContext(p, []*model.Assignment{
		assign(p, 0, 0, 1),
		assign(p, 0, 1, 0),
	}))
	assert.True(t, valid)
}

func TestWorkloadBalanceConstraint(t *testing.T) {
	p := newProblem(2, 2, []*model.ShiftType{dayShift()}, nil, nil)
	c := NewWorkloadBalanceConstraint(100)

	lower, upper := LoadBounds(p)
	assert.Equal(t, 1, lower)
	assert.Equal(t, 2, upper)

	m := constraint.NewModel(p)
	require.NoError(t, c.Encode(m))
	// 一个辅助变量，每人一条上界约束
	assert.Equal(t, p.Index.Len()+1, m.NumVars())
	assert.Equal(t, 2, m.NumConstraints())
	require.Len(t, m.CostTerms(), 1)
	assert.Equal(t, 100, m.CostTerms()[0].Weight)

	valid, penalty, _ := c.Evaluate(constraint.NewContext(p, []*model.Assignment{
		assign(p, 0, 0, 0),
		assign(p, 1, 1, 0),
	}))
	assert.True(t, valid)
	assert.Zero(t, penalty)

	valid, penalty, details := c.Evaluate(constraint.NewContext(p, []*model.Assignment{
		assign(p, 0, 0, 0),
		assign(p, 0, 1, 0),
	}))
	assert.False(t, valid)
	assert.Equal(t, 100, penalty)
	require.Len(t, details, 1)
	assert.Equal(t, model.SeverityWarning, details[0].Severity)
}

func TestWorkloadBalanceConstraint_NothingToBalance(t *testing.T) {
	// 单人单日：上下界相同
	p := newProblem(1, 1, []*model.ShiftType{dayShift()}, nil, nil)
	m := constraint.NewModel(p)
	require.NoError(t, NewWorkloadBalanceConstraint(100).Encode(m))
	assert.Zero(t, m.NumConstraints())
	assert.Empty(t, m.CostTerms())
}

func TestWorkloadBalanceConstraint_FairnessWeight(t *testing.T) {
	night := nightShift()
	night.FairnessWeight = 2
	p := newProblem(2, 1, []*model.ShiftType{dayShift(), night}, nil, nil)

	lower, upper := LoadBounds(p)
	// 总需求 3，两人
	assert.Equal(t, 2, lower)
	assert.Equal(t, 2, upper)

	_, penalty, _ := NewWorkloadBalanceConstraint(100).Evaluate(constraint.NewContext(p, []*model.Assignment{
		assign(p, 0, 0, 0),
		assign(p, 1, 0, 1),
	}))
	assert.Zero(t, penalty)
}

func TestPreferenceConstraint(t *testing.T) {
	day, night := dayShift(), nightShift()
	shifts := []*model.ShiftType{day, night}

	ws := []*model.Worker{{ID: uuid.New(), Name: "张医生"}}
	prefs := []*model.Preference{
		{WorkerID: ws[0].ID, Date: "2026-03-02", ShiftTypeID: &night.ID, Type: model.PreferenceAvoid},
		{WorkerID: ws[0].ID, Date: "2026-03-03", Type: model.PreferenceDesire},
		{WorkerID: ws[0].ID, Date: "2026-04-01", Type: model.PreferenceDesire}, // 超出周期，忽略
	}
	ix := index.Build(1, 2, 2, nil)
	p := constraint.NewProblem(ws, shifts, model.PlanningWindow{StartDate: testStart, Days: 2}, prefs, nil, ix, 1)
	c := NewPreferenceConstraint(100)

	m := constraint.NewModel(p)
	require.NoError(t, c.Encode(m))
	// avoid 一项；desire 整天两个候选，新增一个辅助变量
	assert.Len(t, m.CostTerms(), 2)
	assert.Equal(t, ix.Len()+1, m.NumVars())
	assert.Equal(t, 1, m.NumConstraints())
	assert.Zero(t, m.Offset())

	valid, penalty, details := c.Evaluate(constraint.NewContext(p, []*model.Assignment{
		assign(p, 0, 0, 1),
	}))
	assert.False(t, valid)
	assert.Equal(t, 200, penalty)
	assert.Len(t, details, 2)

	valid, penalty, _ = c.Evaluate(constraint.NewContext(p, []*model.Assignment{
		assign(p, 0, 0, 0),
		assign(p, 0, 1, 1),
	}))
	assert.True(t, valid)
	assert.Zero(t, penalty)
}

func TestPreferenceConstraint_UnreachableDesire(t *testing.T) {
	day := dayShift()
	ws := []*model.Worker{{ID: uuid.New()}}
	prefs := []*model.Preference{
		{WorkerID: ws[0].ID, Date: testStart, ShiftTypeID: &day.ID, Type: model.PreferenceDesire},
	}
	// 该人员当天不可排班
	ix := index.Build(1, 1, 1, func(w, d, s int) bool { return false })
	p := constraint.NewProblem(ws, []*model.ShiftType{day}, model.PlanningWindow{StartDate: testStart, Days: 1}, prefs, nil, ix, 1)

	m := constraint.NewModel(p)
	require.NoError(t, NewPreferenceConstraint(50).Encode(m))
	assert.Equal(t, 50, m.Offset())
	assert.Empty(t, m.CostTerms())
}

func TestRegisterDefaultConstraints(t *testing.T) {
	manager := NewDefaultManager(Config{
		BalanceWeight:    1,
		PreferenceWeight: 0.5,
		RestRules:        model.DefaultRestRules(),
	})
	assert.Equal(t, 5, manager.Count())
	assert.Equal(t, 100, manager.GetConstraint(constraint.TypeWorkloadBalance).Weight())
	assert.Equal(t, 50, manager.GetConstraint(constraint.TypeWorkerPreference).Weight())

	manager = NewDefaultManager(Config{})
	assert.Equal(t, 2, manager.Count())
	assert.Nil(t, manager.GetConstraint(constraint.TypeWorkloadBalance))
}

func TestScaleWeight(t *testing.T) {
	assert.Equal(t, 0, ScaleWeight(0))
	assert.Equal(t, 0, ScaleWeight(-1))
	assert.Equal(t, 100, ScaleWeight(1))
	assert.Equal(t, 33, ScaleWeight(0.333))
	assert.Equal(t, 150, ScaleWeight(1.5))
}
