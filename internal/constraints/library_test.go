package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler/constraint/builtin"
)

// 约束库需要覆盖默认管理器注册的所有约束
func TestLibraryCoversDefaultManager(t *testing.T) {
	m := builtin.NewDefaultManager(builtin.Config{
		BalanceWeight:    1,
		PreferenceWeight: 1,
		RestRules:        []model.RestRule{{From: model.CategoryNight, To: model.AnyCategory}},
	})

	for _, c := range m.GetAll() {
		def, ok := GetByType(c.Type())
		require.True(t, ok, "约束 %s 缺少说明", c.Type())
		assert.Equal(t, c.Category(), def.Type)
	}
}

func TestGetByTypeUnknown(t *testing.T) {
	_, ok := GetByType(constraint.Type("max_hours_per_day"))
	assert.False(t, ok)
}

func TestLibraryDefaults(t *testing.T) {
	lib := Library()
	assert.Len(t, lib.Library, 5)
	assert.Equal(t, 1, lib.Defaults.CoverageCountPerShift)
}
