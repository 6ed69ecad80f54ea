package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler"
)

func sampleInput() scheduler.Input {
	return scheduler.Input{
		Workers: []*model.Worker{
			{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), Name: "张医生"},
			{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), Name: "李医生"},
		},
		ShiftTypes: []*model.ShiftType{
			{ID: uuid.MustParse("00000000-0000-0000-0000-0000000000a1"), Name: "白班", StartTime: "08:00", EndTime: "16:00", Category: model.CategoryDay},
		},
		Window: model.PlanningWindow{StartDate: "2024-03-04", Days: 7},
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a, err := Fingerprint(sampleInput(), scheduler.DefaultOptions())
	require.NoError(t, err)
	b, err := Fingerprint(sampleInput(), scheduler.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprintSensitivity(t *testing.T) {
	base, err := Fingerprint(sampleInput(), scheduler.DefaultOptions())
	require.NoError(t, err)

	in := sampleInput()
	in.Window.Days = 8
	changedInput, err := Fingerprint(in, scheduler.DefaultOptions())
	require.NoError(t, err)
	assert.NotEqual(t, base, changedInput)

	opts := scheduler.DefaultOptions()
	opts.BalanceWeight = 2
	changedOpts, err := Fingerprint(sampleInput(), opts)
	require.NoError(t, err)
	assert.NotEqual(t, base, changedOpts)
}

func TestCacheable(t *testing.T) {
	tests := []struct {
		outcome scheduler.Outcome
		want    bool
	}{
		{scheduler.OutcomeOptimal, true},
		{scheduler.OutcomeInfeasible, true},
		{scheduler.OutcomeInvalidInput, true},
		{scheduler.OutcomeFeasible, false},
		{scheduler.OutcomeTimeout, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			assert.Equal(t, tt.want, Cacheable(&scheduler.Result{Outcome: tt.outcome}))
		})
	}
	assert.False(t, Cacheable(nil))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "schedule:result:abc", Key("abc"))
}

func TestUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := New(client, time.Minute)
	defer c.Close()

	_, hit, err := c.Get(context.Background(), "abc")
	assert.Error(t, err)
	assert.False(t, hit)

	// 不可缓存的结果不会访问 Redis
	assert.NoError(t, c.Set(context.Background(), "abc", &scheduler.Result{Outcome: scheduler.OutcomeTimeout}))
	assert.Error(t, c.Set(context.Background(), "abc", &scheduler.Result{Outcome: scheduler.OutcomeOptimal}))
}
