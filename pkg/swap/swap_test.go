package swap

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Simon6088/Doctor-Scheduling-System/pkg/errors"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint/builtin"
)

const (
	d1 = "2026-06-01"
	d2 = "2026-06-02"
	d3 = "2026-06-03"
)

// fixture 三天白班夜班各一人，夜班次日休息：
//
//	      06-01  06-02  06-03
//	白班  张     王     李
//	夜班  李     张     王
//
// 赵医生没有排班
type fixture struct {
	zhang, li, wang, zhao *model.Worker
	day, night            *model.ShiftType
	roster                Roster
}

func newFixture() *fixture {
	f := &fixture{
		zhang: &model.Worker{ID: uuid.New(), Name: "张医生"},
		li:    &model.Worker{ID: uuid.New(), Name: "李医生"},
		wang:  &model.Worker{ID: uuid.New(), Name: "王医生"},
		zhao:  &model.Worker{ID: uuid.New(), Name: "赵医生"},
		day:   &model.ShiftType{ID: uuid.New(), Name: "白班", StartTime: "08:00", EndTime: "17:00", Category: model.CategoryDay},
		night: &model.ShiftType{ID: uuid.New(), Name: "夜班", StartTime: "20:00", EndTime: "08:00", Category: model.CategoryNight},
	}
	f.roster = Roster{
		Window:     model.PlanningWindow{StartDate: d1, Days: 3},
		Workers:    []*model.Worker{f.zhang, f.li, f.wang},
		ShiftTypes: []*model.ShiftType{f.day, f.night},
		Assignments: []*model.Assignment{
			f.on(f.zhang, d1, f.day), f.on(f.li, d1, f.night),
			f.on(f.wang, d2, f.day), f.on(f.zhang, d2, f.night),
			f.on(f.li, d3, f.day), f.on(f.wang, d3, f.night),
		},
	}
	return f
}

func (f *fixture) on(w *model.Worker, date string, s *model.ShiftType) *model.Assignment {
	return &model.Assignment{Date: date, WorkerID: w.ID, ShiftTypeID: s.ID}
}

func (f *fixture) withZhao() *fixture {
	f.roster.Workers = append(f.roster.Workers, f.zhao)
	return f
}

func newEvaluator() *Evaluator {
	return NewEvaluator(Config{
		Constraints: builtin.Config{
			BalanceWeight:    1,
			PreferenceWeight: 1,
			RestRules:        model.DefaultRestRules(),
		},
		CoverageCountPerShift: 1,
	})
}

func issueTypes(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Type
	}
	return out
}

func TestEvaluate_GiveAway(t *testing.T) {
	f := newFixture()
	e := newEvaluator()

	t.Run("同日已有班次", func(t *testing.T) {
		eval, err := e.Evaluate(f.roster, Request{Source: *f.on(f.zhang, d1, f.day), TargetWorkerID: f.li.ID})
		require.NoError(t, err)
		assert.Equal(t, KindGiveAway, eval.Kind)
		assert.False(t, eval.Feasible)
		assert.Contains(t, issueTypes(eval.Issues), "overlap")
		assert.Equal(t, "换班后存在硬约束冲突，不可执行", eval.Recommendation)
	})

	t.Run("夜班次日", func(t *testing.T) {
		eval, err := e.Evaluate(f.roster, Request{Source: *f.on(f.zhang, d2, f.night), TargetWorkerID: f.li.ID})
		require.NoError(t, err)
		assert.False(t, eval.Feasible)
		assert.Contains(t, issueTypes(eval.Issues), "rest_rule")
	})

	t.Run("可行但工作量失衡", func(t *testing.T) {
		eval, err := e.Evaluate(f.roster, Request{Source: *f.on(f.zhang, d1, f.day), TargetWorkerID: f.wang.ID})
		require.NoError(t, err)
		assert.True(t, eval.Feasible)
		assert.Equal(t, -1, eval.SourceLoadChange)
		assert.Equal(t, 1, eval.TargetLoadChange)
		assert.Equal(t, 0, eval.PenaltyBefore)
		assert.Equal(t, builtin.CostScale, eval.PenaltyChange)

		require.Len(t, eval.Issues, 1)
		assert.Equal(t, "workload_balance", eval.Issues[0].Type)
		assert.Equal(t, model.SeverityWarning, eval.Issues[0].Severity)
		assert.Equal(t, f.wang.ID, eval.Issues[0].WorkerID)
	})

	t.Run("原排班不变", func(t *testing.T) {
		before := *f.roster.Assignments[0]
		_, err := e.Evaluate(f.roster, Request{Source: before, TargetWorkerID: f.wang.ID})
		require.NoError(t, err)
		assert.Equal(t, before, *f.roster.Assignments[0])
	})
}

func TestEvaluate_Eligibility(t *testing.T) {
	t.Run("资质不符", func(t *testing.T) {
		f := newFixture().withZhao()
		icu := &model.ShiftType{ID: uuid.New(), Name: "ICU", StartTime: "08:00", EndTime: "17:00",
			Category: model.CategoryDay, RequiredQualification: "ICU"}
		f.wang.Qualifications = []string{"ICU"}
		f.roster.ShiftTypes = append(f.roster.ShiftTypes, icu)
		f.roster.Assignments = append(f.roster.Assignments, f.on(f.wang, d1, icu))

		eval, err := newEvaluator().Evaluate(f.roster, Request{Source: *f.on(f.wang, d1, icu), TargetWorkerID: f.zhao.ID})
		require.NoError(t, err)
		assert.False(t, eval.Feasible)
		assert.Equal(t, []string{"skill"}, issueTypes(eval.Issues))
	})

	t.Run("对方当天不可排班", func(t *testing.T) {
		f := newFixture()
		f.roster.Unavailability = []*model.Unavailability{{WorkerID: f.wang.ID, Date: d1, Reason: "进修"}}

		eval, err := newEvaluator().Evaluate(f.roster, Request{Source: *f.on(f.zhang, d1, f.day), TargetWorkerID: f.wang.ID})
		require.NoError(t, err)
		assert.False(t, eval.Feasible)
		assert.Contains(t, issueTypes(eval.Issues), "availability")
	})
}

func TestEvaluate_Exchange(t *testing.T) {
	f := newFixture()
	eval, err := newEvaluator().Evaluate(f.roster, Request{
		Source:           *f.on(f.li, d1, f.night),
		TargetWorkerID:   f.wang.ID,
		TargetAssignment: f.on(f.wang, d2, f.day),
	})
	require.NoError(t, err)

	assert.Equal(t, KindExchange, eval.Kind)
	assert.True(t, eval.Feasible)
	assert.Empty(t, eval.Issues)
	assert.Equal(t, 0, eval.SourceLoadChange)
	assert.Equal(t, 0, eval.TargetLoadChange)
	assert.Equal(t, 0, eval.PenaltyChange)
	assert.Equal(t, "可以换班", eval.Recommendation)
}

func TestEvaluate_ExistingConflictsIgnored(t *testing.T) {
	f := newFixture()
	// 张医生 06-02 原本就同时有白班和夜班
	f.roster.Assignments = append(f.roster.Assignments, f.on(f.zhang, d2, f.day))

	eval, err := newEvaluator().Evaluate(f.roster, Request{Source: *f.on(f.zhang, d1, f.day), TargetWorkerID: f.wang.ID})
	require.NoError(t, err)
	assert.True(t, eval.Feasible)
	assert.NotContains(t, issueTypes(eval.Issues), "overlap")
}

func TestEvaluate_PreferenceImproves(t *testing.T) {
	f := newFixture().withZhao()
	f.roster.Preferences = []*model.Preference{{WorkerID: f.li.ID, Date: d3, Type: model.PreferenceAvoid}}

	eval, err := newEvaluator().Evaluate(f.roster, Request{Source: *f.on(f.li, d3, f.day), TargetWorkerID: f.zhao.ID})
	require.NoError(t, err)
	assert.True(t, eval.Feasible)
	assert.Equal(t, builtin.CostScale, eval.PenaltyBefore)
	assert.Equal(t, 0, eval.PenaltyAfter)
	assert.Equal(t, -builtin.CostScale, eval.PenaltyChange)
	assert.Equal(t, "建议换班，排班质量提升", eval.Recommendation)
}

func TestEvaluate_InvalidRequest(t *testing.T) {
	f := newFixture()
	e := newEvaluator()

	tests := []struct {
		name   string
		roster func() Roster
		req    Request
		field  string
	}{
		{
			name:  "排班中没有该记录",
			req:   Request{Source: *f.on(f.zhang, d3, f.day), TargetWorkerID: f.wang.ID},
			field: "source",
		},
		{
			name:  "换给自己",
			req:   Request{Source: *f.on(f.zhang, d1, f.day), TargetWorkerID: f.zhang.ID},
			field: "target_worker_id",
		},
		{
			name:  "未知换班对象",
			req:   Request{Source: *f.on(f.zhang, d1, f.day), TargetWorkerID: uuid.New()},
			field: "target_worker_id",
		},
		{
			name: "互换班次不属于对方",
			req: Request{
				Source:           *f.on(f.zhang, d1, f.day),
				TargetWorkerID:   f.wang.ID,
				TargetAssignment: f.on(f.li, d3, f.day),
			},
			field: "target_assignment",
		},
		{
			name:  "日期超出周期",
			req:   Request{Source: model.Assignment{Date: "2026-07-01", WorkerID: f.zhang.ID, ShiftTypeID: f.day.ID}, TargetWorkerID: f.wang.ID},
			field: "source.date",
		},
		{
			name: "周期天数为 0",
			roster: func() Roster {
				r := f.roster
				r.Window.Days = 0
				return r
			},
			req:   Request{Source: *f.on(f.zhang, d1, f.day), TargetWorkerID: f.wang.ID},
			field: "days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roster := f.roster
			if tt.roster != nil {
				roster = tt.roster()
			}
			eval, err := e.Evaluate(roster, tt.req)
			require.Error(t, err)
			assert.Nil(t, eval)
			assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.field, appErr.Fields["field"])
		})
	}
}

func TestRecommend(t *testing.T) {
	t.Run("让班按代价排序", func(t *testing.T) {
		f := newFixture().withZhao()
		r := NewRecommender(newEvaluator())

		got, err := r.Recommend(f.roster, *f.on(f.zhang, d1, f.day), DefaultRecommendOptions())
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, 1, got[0].Rank)
		assert.Equal(t, f.zhao.ID, got[0].TargetWorkerID)
		assert.Equal(t, "赵医生", got[0].TargetName)
		assert.Equal(t, 0, got[0].Evaluation.PenaltyChange)

		assert.Equal(t, 2, got[1].Rank)
		assert.Equal(t, f.wang.ID, got[1].TargetWorkerID)
		assert.Equal(t, builtin.CostScale, got[1].Evaluation.PenaltyChange)
	})

	t.Run("数量上限和排除", func(t *testing.T) {
		f := newFixture().withZhao()
		r := NewRecommender(newEvaluator())
		source := *f.on(f.zhang, d1, f.day)

		got, err := r.Recommend(f.roster, source, RecommendOptions{MaxCandidates: 1, AllowExchange: true})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, f.zhao.ID, got[0].TargetWorkerID)

		got, err = r.Recommend(f.roster, source, RecommendOptions{AllowExchange: true, Exclude: []uuid.UUID{f.zhao.ID}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, f.wang.ID, got[0].TargetWorkerID)
	})

	t.Run("互换排在让班之后", func(t *testing.T) {
		f := newFixture().withZhao()
		r := NewRecommender(newEvaluator())

		got, err := r.Recommend(f.roster, *f.on(f.li, d1, f.night), DefaultRecommendOptions())
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, f.zhao.ID, got[0].TargetWorkerID)
		assert.Equal(t, KindGiveAway, got[0].Evaluation.Kind)
		assert.Nil(t, got[0].TargetAssignment)

		assert.Equal(t, f.wang.ID, got[1].TargetWorkerID)
		assert.Equal(t, KindExchange, got[1].Evaluation.Kind)
		require.NotNil(t, got[1].TargetAssignment)
		assert.Equal(t, *f.on(f.wang, d2, f.day), *got[1].TargetAssignment)

		got, err = r.Recommend(f.roster, *f.on(f.li, d1, f.night), RecommendOptions{MaxCandidates: 5})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, KindGiveAway, got[0].Evaluation.Kind)
	})

	t.Run("来源不在排班中", func(t *testing.T) {
		f := newFixture()
		_, err := NewRecommender(newEvaluator()).Recommend(f.roster, *f.on(f.zhang, d3, f.day), DefaultRecommendOptions())
		assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
	})
}
