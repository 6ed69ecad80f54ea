package builtin

import (
	"math"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint"
)

// CostScale 软约束权重放大倍数，求解器只接受整数系数
const CostScale = 100

// Config 内置约束参数
type Config struct {
	BalanceWeight    float64
	PreferenceWeight float64
	RestRules        []model.RestRule
}

// ScaleWeight 将浮点权重换算为整数系数
func ScaleWeight(w float64) int {
	if w <= 0 {
		return 0
	}
	return int(math.Round(w * CostScale))
}

// RegisterDefaultConstraints 注册默认约束
// 权重为 0 的软约束不注册
func RegisterDefaultConstraints(manager *constraint.Manager, cfg Config) {
	// 注册硬约束
	manager.Register(NewCoverageConstraint())
	manager.Register(NewNonOverlapConstraint())
	if len(cfg.RestRules) > 0 {
		manager.Register(NewRestConstraint(cfg.RestRules))
	}

	// 注册软约束
	if bw := ScaleWeight(cfg.BalanceWeight); bw > 0 {
		manager.Register(NewWorkloadBalanceConstraint(bw))
	}
	if pw := ScaleWeight(cfg.PreferenceWeight); pw > 0 {
		manager.Register(NewPreferenceConstraint(pw))
	}
}

// NewDefaultManager 创建并注册默认约束的管理器
func NewDefaultManager(cfg Config) *constraint.Manager {
	m := constraint.NewManager()
	RegisterDefaultConstraints(m, cfg)
	return m
}
