// Package index 维护 (人员, 日偏移, 班次) 三元组到决策变量的映射
package index

import (
	"fmt"
)

// Var 决策变量编号，从 1 开始，可直接用作求解器文字
type Var int

// Key 三元组，均为输入切片中的下标
type Key struct {
	Worker int
	Day    int
	Shift  int
}

func (k Key) String() string {
	return fmt.Sprintf("w%d_d%d_s%d", k.Worker, k.Day, k.Shift)
}

// EligibleFunc 判断三元组在结构上是否合法（资质、可用性）
type EligibleFunc func(worker, day, shift int) bool

// Index 变量索引
// 只为合法三元组分配变量；相同输入总是得到相同编号
type Index struct {
	workers int
	days    int
	shifts  int

	table []Var // 稠密表，0 表示无变量
	keys  []Key // keys[v-1] 为变量 v 的三元组
}

// Build 构建变量索引
// 分配顺序：日 -> 班次 -> 人员
func Build(workers, days, shifts int, eligible EligibleFunc) *Index {
	ix := &Index{
		workers: workers,
		days:    days,
		shifts:  shifts,
		table:   make([]Var, workers*days*shifts),
	}

	for d := 0; d < days; d++ {
		for s := 0; s < shifts; s++ {
			for w := 0; w < workers; w++ {
				if eligible != nil && !eligible(w, d, s) {
					continue
				}
				ix.keys = append(ix.keys, Key{Worker: w, Day: d, Shift: s})
				ix.table[ix.pos(w, d, s)] = Var(len(ix.keys))
			}
		}
	}

	return ix
}

func (ix *Index) pos(w, d, s int) int {
	return (d*ix.shifts+s)*ix.workers + w
}

func (ix *Index) inRange(w, d, s int) bool {
	return w >= 0 && w < ix.workers && d >= 0 && d < ix.days && s >= 0 && s < ix.shifts
}

// Lookup 查找三元组对应的变量
func (ix *Index) Lookup(w, d, s int) (Var, bool) {
	if !ix.inRange(w, d, s) {
		return 0, false
	}
	v := ix.table[ix.pos(w, d, s)]
	return v, v != 0
}

// Key 返回变量对应的三元组
func (ix *Index) Key(v Var) (Key, bool) {
	if v < 1 || int(v) > len(ix.keys) {
		return Key{}, false
	}
	return ix.keys[v-1], true
}

// Len 返回变量总数
func (ix *Index) Len() int {
	return len(ix.keys)
}

// Workers 人员数
func (ix *Index) Workers() int { return ix.workers }

// Days 天数
func (ix *Index) Days() int { return ix.days }

// Shifts 班次数
func (ix *Index) Shifts() int { return ix.shifts }

// Slot 返回某天某班次所有候选人员的变量，按人员顺序
func (ix *Index) Slot(d, s int) []Var {
	var vars []Var
	for w := 0; w < ix.workers; w++ {
		if v, ok := ix.Lookup(w, d, s); ok {
			vars = append(vars, v)
		}
	}
	return vars
}

// WorkerDay 返回某人某天所有班次的变量，按班次顺序
func (ix *Index) WorkerDay(w, d int) []Var {
	var vars []Var
	for s := 0; s < ix.shifts; s++ {
		if v, ok := ix.Lookup(w, d, s); ok {
			vars = append(vars, v)
		}
	}
	return vars
}

// Eligible 返回某天某班次的候选人数
func (ix *Index) Eligible(d, s int) int {
	return len(ix.Slot(d, s))
}

// Each 按变量编号顺序遍历
func (ix *Index) Each(fn func(v Var, k Key)) {
	for i, k := range ix.keys {
		fn(Var(i+1), k)
	}
}
