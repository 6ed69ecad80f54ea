package constraint

import (
	"github.com/google/uuid"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/index"
)

// Problem 单次排班调用的只读输入
type Problem struct {
	Workers     []*model.Worker
	Shifts      []*model.ShiftType
	Window      model.PlanningWindow
	Preferences []*model.Preference
	RestRules   []model.RestRule
	Index       *index.Index

	seats     []int
	workerPos map[uuid.UUID]int
	shiftPos  map[uuid.UUID]int
}

// NewProblem 创建排班问题，defaultSeats 用于未设置 Seats 的班次
func NewProblem(
	workers []*model.Worker,
	shifts []*model.ShiftType,
	window model.PlanningWindow,
	prefs []*model.Preference,
	rules []model.RestRule,
	ix *index.Index,
	defaultSeats int,
) *Problem {
	p := &Problem{
		Workers:     workers,
		Shifts:      shifts,
		Window:      window,
		Preferences: prefs,
		RestRules:   rules,
		Index:       ix,
		seats:       make([]int, len(shifts)),
		workerPos:   make(map[uuid.UUID]int, len(workers)),
		shiftPos:    make(map[uuid.UUID]int, len(shifts)),
	}
	for i, w := range workers {
		p.workerPos[w.ID] = i
	}
	for i, s := range shifts {
		p.shiftPos[s.ID] = i
		p.seats[i] = s.Seats
		if p.seats[i] == 0 {
			p.seats[i] = defaultSeats
		}
	}
	return p
}

// Seats 返回班次每天需要的人数
func (p *Problem) Seats(s int) int {
	return p.seats[s]
}

// WorkerPos 返回人员下标
func (p *Problem) WorkerPos(id uuid.UUID) (int, bool) {
	i, ok := p.workerPos[id]
	return i, ok
}

// ShiftPos 返回班次下标
func (p *Problem) ShiftPos(id uuid.UUID) (int, bool) {
	i, ok := p.shiftPos[id]
	return i, ok
}

// Days 返回周期天数
func (p *Problem) Days() int {
	return p.Window.Days
}

// TotalDemand 返回整个周期的加权需求总量
func (p *Problem) TotalDemand() int {
	total := 0
	for s, shift := range p.Shifts {
		total += p.seats[s] * shift.Weight()
	}
	return total * p.Window.Days
}
