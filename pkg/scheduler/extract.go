package scheduler

import (
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/index"
)

// extract 读取为真的决策变量，辅助变量忽略
// 变量按 日 -> 班次 -> 人员 分配，遍历顺序即输出顺序
func extract(p *constraint.Problem, assign []bool) []*model.Assignment {
	out := make([]*model.Assignment, 0, p.Days()*len(p.Shifts))
	p.Index.Each(func(v index.Var, k index.Key) {
		if !constraint.IsTrue(assign, int(v)) {
			return
		}
		out = append(out, &model.Assignment{
			Date:        p.Window.DateString(k.Day),
			WorkerID:    p.Workers[k.Worker].ID,
			ShiftTypeID: p.Shifts[k.Shift].ID,
		})
	})
	return out
}
