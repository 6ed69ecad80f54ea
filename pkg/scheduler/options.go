package scheduler

import (
	"fmt"
	"math"
	"time"

	apperrors "github.com/Simon6088/Doctor-Scheduling-System/pkg/errors"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint/builtin"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/solver"
)

// 取值上限：权重放大后仍在整数范围内，时间上限换算为 time.Duration 不溢出
const (
	MaxWeight           = 1e6
	MaxTimeLimitSeconds = 24 * 60 * 60
)

// MinWeight 非零权重的最小值，即整数系数 1
const MinWeight = 1.0 / builtin.CostScale

// Options 引擎配置
type Options struct {
	TimeLimitSeconds      float64          `json:"time_limit_seconds"`
	BalanceWeight         float64          `json:"balance_weight"`
	PreferenceWeight      float64          `json:"preference_weight"`
	CoverageCountPerShift int              `json:"coverage_count_per_shift"` // 班次未设置 Seats 时每天需要的人数
	RestRules             []model.RestRule `json:"rest_rules"`               // nil 表示不限制相邻两天
	MaxImprovements       int              `json:"max_improvements"`

	// Limiter 限制同时运行的求解数，为空时使用 solver.DefaultLimiter
	Limiter *solver.Limiter `json:"-"`
}

// DefaultOptions 返回默认配置
func DefaultOptions() Options {
	return Options{
		TimeLimitSeconds:      30,
		BalanceWeight:         1.0,
		PreferenceWeight:      1.0,
		CoverageCountPerShift: 1,
		RestRules:             model.DefaultRestRules(),
		MaxImprovements:       1000,
	}
}

// Validate 检查配置取值范围
func (o Options) Validate() error {
	if !finite(o.TimeLimitSeconds) || o.TimeLimitSeconds <= 0 || o.TimeLimitSeconds > MaxTimeLimitSeconds {
		return apperrors.InvalidConfig("time_limit_seconds", o.TimeLimitSeconds,
			fmt.Sprintf("必须在 (0, %d] 之间", MaxTimeLimitSeconds))
	}
	if err := validateWeight("balance_weight", o.BalanceWeight); err != nil {
		return err
	}
	if err := validateWeight("preference_weight", o.PreferenceWeight); err != nil {
		return err
	}
	if o.CoverageCountPerShift < 1 {
		return apperrors.InvalidConfig("coverage_count_per_shift", o.CoverageCountPerShift, "至少为 1")
	}
	if o.MaxImprovements < 1 {
		return apperrors.InvalidConfig("max_improvements", o.MaxImprovements, "至少为 1")
	}
	for _, r := range o.RestRules {
		if r.From == "" || r.To == "" {
			return apperrors.InvalidConfig("rest_rules", r, "类别不能为空")
		}
	}
	return nil
}

// validateWeight 权重为 0 表示关闭该目标，否则须在 [MinWeight, MaxWeight] 内
func validateWeight(option string, w float64) error {
	if !finite(w) || w < 0 {
		return apperrors.InvalidConfig(option, w, "不能为负数")
	}
	if w > MaxWeight {
		return apperrors.InvalidConfig(option, w, fmt.Sprintf("不能超过 %g", float64(MaxWeight)))
	}
	if w > 0 && w < MinWeight {
		return apperrors.InvalidConfig(option, w, fmt.Sprintf("非零时不能小于 %g", MinWeight))
	}
	return nil
}

// TimeLimit 返回求解时间上限
func (o Options) TimeLimit() time.Duration {
	return time.Duration(o.TimeLimitSeconds * float64(time.Second))
}

// ConstraintConfig 返回内置约束参数
func (o Options) ConstraintConfig() builtin.Config {
	return builtin.Config{
		BalanceWeight:    o.BalanceWeight,
		PreferenceWeight: o.PreferenceWeight,
		RestRules:        o.RestRules,
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
