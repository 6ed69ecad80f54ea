package constraint

import (
	"github.com/google/uuid"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
)

// Context 排班评估上下文：问题定义 + 已生成的排班
type Context struct {
	Problem     *Problem
	Assignments []*model.Assignment

	// 索引缓存
	workerMap         map[uuid.UUID]*model.Worker
	shiftMap          map[uuid.UUID]*model.ShiftType
	assignmentsByWkr  map[uuid.UUID][]*model.Assignment
	assignmentsByDate map[string][]*model.Assignment
}

// NewContext 创建评估上下文
func NewContext(p *Problem, assignments []*model.Assignment) *Context {
	c := &Context{
		Problem:   p,
		workerMap: make(map[uuid.UUID]*model.Worker, len(p.Workers)),
		shiftMap:  make(map[uuid.UUID]*model.ShiftType, len(p.Shifts)),
	}
	for _, w := range p.Workers {
		c.workerMap[w.ID] = w
	}
	for _, s := range p.Shifts {
		c.shiftMap[s.ID] = s
	}
	c.SetAssignments(assignments)
	return c
}

// SetAssignments 设置排班分配
func (c *Context) SetAssignments(assignments []*model.Assignment) {
	c.Assignments = assignments
	c.rebuildAssignmentIndexes()
}

// rebuildAssignmentIndexes 重建分配索引
func (c *Context) rebuildAssignmentIndexes() {
	c.assignmentsByWkr = make(map[uuid.UUID][]*model.Assignment)
	c.assignmentsByDate = make(map[string][]*model.Assignment)
	for _, a := range c.Assignments {
		c.assignmentsByWkr[a.WorkerID] = append(c.assignmentsByWkr[a.WorkerID], a)
		c.assignmentsByDate[a.Date] = append(c.assignmentsByDate[a.Date], a)
	}
}

// GetWorker 获取人员
func (c *Context) GetWorker(id uuid.UUID) *model.Worker {
	return c.workerMap[id]
}

// GetShift 获取班次
func (c *Context) GetShift(id uuid.UUID) *model.ShiftType {
	return c.shiftMap[id]
}

// GetWorkerAssignments 获取人员的所有排班
func (c *Context) GetWorkerAssignments(id uuid.UUID) []*model.Assignment {
	return c.assignmentsByWkr[id]
}

// GetDateAssignments 获取某日期的所有排班
func (c *Context) GetDateAssignments(date string) []*model.Assignment {
	return c.assignmentsByDate[date]
}

// WorkerLoad 返回人员的加权工作量
func (c *Context) WorkerLoad(id uuid.UUID) int {
	load := 0
	for _, a := range c.assignmentsByWkr[id] {
		if s := c.shiftMap[a.ShiftTypeID]; s != nil {
			load += s.Weight()
		}
	}
	return load
}
