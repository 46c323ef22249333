package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	s := New(zerolog.Nop())

	run := func(ctx context.Context) error { return nil }

	assert.Error(t, s.Register(Job{Interval: time.Minute, Run: run}))
	assert.Error(t, s.Register(Job{Name: "x", Interval: time.Minute}))
	assert.Error(t, s.Register(Job{Name: "x", Run: run}))
	assert.NoError(t, s.Register(Job{Name: "x", Interval: time.Minute, Run: run}))
}

func TestJobDue(t *testing.T) {
	now := time.Unix(1000, 0)
	state := &jobState{job: Job{Interval: time.Minute}}

	assert.True(t, state.Due(now), "never-run job is due")

	state.lastRun = now
	assert.False(t, state.Due(now.Add(30*time.Second)))
	assert.True(t, state.Due(now.Add(time.Minute)))
	assert.True(t, state.Due(now.Add(2*time.Minute)))
}

func TestRunAllExecutesInRegistrationOrder(t *testing.T) {
	s := New(zerolog.Nop())

	var order []string
	for _, name := range []string{"collect", "aggregate", "score"} {
		name := name
		require.NoError(t, s.Register(Job{
			Name:     name,
			Interval: time.Minute,
			Run: func(ctx context.Context) error {
				order = append(order, name)
				return nil
			},
		}))
	}

	require.NoError(t, s.RunAll(context.Background()))
	assert.Equal(t, []string{"collect", "aggregate", "score"}, order)
}

func TestRunAllStopsAtFirstFailure(t *testing.T) {
	s := New(zerolog.Nop())

	var order []string
	require.NoError(t, s.Register(Job{Name: "a", Interval: time.Minute, Run: func(ctx context.Context) error {
		order = append(order, "a")
		return errors.New("boom")
	}}))
	require.NoError(t, s.Register(Job{Name: "b", Interval: time.Minute, Run: func(ctx context.Context) error {
		order = append(order, "b")
		return nil
	}}))

	assert.Error(t, s.RunAll(context.Background()))
	assert.Equal(t, []string{"a"}, order)
}

func TestRunDueSkipsNotDueJobs(t *testing.T) {
	s := New(zerolog.Nop())

	calls := 0
	require.NoError(t, s.Register(Job{Name: "a", Interval: time.Hour, Run: func(ctx context.Context) error {
		calls++
		return nil
	}}))

	now := time.Now()
	s.runDue(context.Background(), now)
	s.runDue(context.Background(), now.Add(time.Minute))
	assert.Equal(t, 1, calls)

	s.runDue(context.Background(), now.Add(2*time.Hour))
	assert.Equal(t, 2, calls)
}

func TestRunDueContinuesPastFailingJob(t *testing.T) {
	s := New(zerolog.Nop())

	var order []string
	require.NoError(t, s.Register(Job{Name: "a", Interval: time.Minute, Run: func(ctx context.Context) error {
		order = append(order, "a")
		return errors.New("boom")
	}}))
	require.NoError(t, s.Register(Job{Name: "b", Interval: time.Minute, Run: func(ctx context.Context) error {
		order = append(order, "b")
		return nil
	}}))

	s.runDue(context.Background(), time.Now())
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestRunRequiresJobs(t *testing.T) {
	s := New(zerolog.Nop())
	assert.Error(t, s.Run(context.Background()))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.Register(Job{Name: "a", Interval: time.Hour, Run: func(ctx context.Context) error {
		return nil
	}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
