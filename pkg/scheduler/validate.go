package scheduler

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
)

// validateInput 在建模前检查输入，返回不为空的原因即为输入无效
func validateInput(in Input) string {
	if len(in.Workers) == 0 {
		return "人员列表为空"
	}
	if len(in.ShiftTypes) == 0 {
		return "班次类型列表为空"
	}
	if in.Window.Days <= 0 {
		return fmt.Sprintf("排班天数必须大于 0，实际为 %d", in.Window.Days)
	}
	if _, err := in.Window.Start(); err != nil {
		return fmt.Sprintf("开始日期 %q 格式无效", in.Window.StartDate)
	}

	workers := make(map[uuid.UUID]bool, len(in.Workers))
	for _, w := range in.Workers {
		if w == nil {
			return "人员列表包含空值"
		}
		if workers[w.ID] {
			return fmt.Sprintf("人员 %s 重复", w.ID)
		}
		workers[w.ID] = true
	}

	shifts := make(map[uuid.UUID]bool, len(in.ShiftTypes))
	for _, s := range in.ShiftTypes {
		if s == nil {
			return "班次类型列表包含空值"
		}
		if shifts[s.ID] {
			return fmt.Sprintf("班次类型 %s 重复", s.ID)
		}
		shifts[s.ID] = true
		if s.FairnessWeight < 0 {
			return fmt.Sprintf("班次 %s 的公平权重不能为负数", s.Name)
		}
		if s.Seats < 0 {
			return fmt.Sprintf("班次 %s 的人数不能为负数", s.Name)
		}
	}

	for _, p := range in.Preferences {
		if p == nil {
			continue
		}
		if !p.Type.IsValid() {
			return fmt.Sprintf("偏好类型 %q 无效", p.Type)
		}
		if !workers[p.WorkerID] {
			return fmt.Sprintf("偏好引用了未知人员 %s", p.WorkerID)
		}
		if p.ShiftTypeID != nil && !shifts[*p.ShiftTypeID] {
			return fmt.Sprintf("偏好引用了未知班次 %s", *p.ShiftTypeID)
		}
	}

	for _, u := range in.Unavailability {
		if u != nil && !workers[u.WorkerID] {
			return fmt.Sprintf("不可排班日期引用了未知人员 %s", u.WorkerID)
		}
	}

	return ""
}

// checkEligibility 检查每个班位的候选人数是否足够
func checkEligibility(in Input, seats func(s int) int, eligible func(d, s int) int) string {
	for d := 0; d < in.Window.Days; d++ {
		for s, shift := range in.ShiftTypes {
			need := seats(s)
			if got := eligible(d, s); got < need {
				reason := fmt.Sprintf("%s 的班次 %s 需要 %d 人，仅有 %d 名可排人员",
					in.Window.DateString(d), shift.Name, need, got)
				if shift.RequiredQualification != "" {
					reason += fmt.Sprintf("（需要资质 %s）", shift.RequiredQualification)
				}
				return reason
			}
		}
	}
	return ""
}

// compactPreferences 去掉空值和周期外的偏好
func compactPreferences(in Input) []*model.Preference {
	out := make([]*model.Preference, 0, len(in.Preferences))
	for _, p := range in.Preferences {
		if p != nil && in.Window.Contains(p.Date) {
			out = append(out, p)
		}
	}
	return out
}
