package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestShiftType_DurationHours(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected float64
	}{
		{name: "白班", start: "08:00", end: "17:00", expected: 9},
		{name: "跨日夜班", start: "17:00", end: "08:00", expected: 15},
		{name: "24小时值班", start: "08:00", end: "08:00", expected: 24},
		{name: "格式错误", start: "8点", end: "17:00", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &ShiftType{StartTime: tt.start, EndTime: tt.end}
			assert.Equal(t, tt.expected, s.DurationHours())
		})
	}
}

func TestShiftType_Weight(t *testing.T) {
	assert.Equal(t, 1, (&ShiftType{}).Weight())
	assert.Equal(t, 3, (&ShiftType{FairnessWeight: 3}).Weight())
}

func TestShiftType_IsNightShift(t *testing.T) {
	// 名称中带 Night 但类别为白班，不算夜班
	s := &ShiftType{Name: "Night Clinic", Category: CategoryDay}
	assert.False(t, s.IsNightShift())

	s = &ShiftType{Name: "夜班", Category: CategoryNight}
	assert.True(t, s.IsNightShift())
}

func TestCategory_Matches(t *testing.T) {
	assert.True(t, CategoryDay.Matches(AnyCategory))
	assert.True(t, CategoryNight.Matches(CategoryNight))
	assert.False(t, CategoryDay.Matches(CategoryNight))
}

func TestWorker_HasQualification(t *testing.T) {
	w := &Worker{Qualifications: []string{"icu", "surgery"}}

	assert.True(t, w.HasQualification(""))
	assert.True(t, w.HasQualification("icu"))
	assert.False(t, w.HasQualification("ICU"))
	assert.False(t, w.HasQualification("pediatrics"))
}

func TestPreference_AppliesTo(t *testing.T) {
	shiftID := uuid.New()
	other := uuid.New()

	wholeDay := &Preference{Type: PreferenceAvoid}
	assert.True(t, wholeDay.AppliesTo(shiftID))

	specific := &Preference{Type: PreferenceDesire, ShiftTypeID: &shiftID}
	assert.True(t, specific.AppliesTo(shiftID))
	assert.False(t, specific.AppliesTo(other))

	assert.True(t, PreferenceAvoid.IsValid())
	assert.False(t, PreferenceType("maybe").IsValid())
}
