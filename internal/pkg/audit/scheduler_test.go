package audit

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(f *fixture, testMode bool) (*Scheduler, chan time.Time) {
	fire := make(chan time.Time)
	s := NewScheduler(f.job, func() bool { return testMode })
	s.now = func() time.Time { return time.Date(2024, 3, 10, 10, 30, 0, 0, time.UTC) }
	s.after = func(time.Duration) <-chan time.Time { return fire }
	return s, fire
}

func TestSchedulerStartValidatesPeriod(t *testing.T) {
	s, _ := newTestScheduler(newFixture(false), false)

	assert.ErrorIs(t, s.Start(0), ErrInvalidPeriod)
	assert.ErrorIs(t, s.Start(25), ErrInvalidPeriod)
	assert.False(t, s.IsRunning())

	require.NoError(t, s.Start(24))
	defer s.Shutdown()
	assert.Equal(t, 24, s.Period())
}

func TestSchedulerTestModeAllowsMinutes(t *testing.T) {
	s, _ := newTestScheduler(newFixture(false), true)

	assert.ErrorIs(t, s.Start(61), ErrInvalidPeriod)
	require.NoError(t, s.Start(60))
	s.Shutdown()
}

func TestSchedulerStartStop(t *testing.T) {
	s, _ := newTestScheduler(newFixture(false), false)

	assert.ErrorIs(t, s.Stop(), ErrJobNotRunning)

	require.NoError(t, s.Start(6))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(6), ErrJobAlreadyRunning)

	assert.Eventually(t, func() bool {
		return s.NextFire().Equal(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.True(t, s.NextFire().IsZero())
	assert.ErrorIs(t, s.Stop(), ErrJobNotRunning)
	s.Shutdown()
}

func TestSchedulerFiresJob(t *testing.T) {
	f := newFixture(false)
	f.job.AddChat(chatOne)
	s, fire := newTestScheduler(f, false)

	require.NoError(t, s.Start(1))
	fire <- time.Now()

	assert.Eventually(t, func() bool { return len(f.bans.Bans()) == 1 }, time.Second, 5*time.Millisecond)
	s.Shutdown()
	assert.False(t, s.IsRunning())
}

func TestSchedulerStopKeepsChats(t *testing.T) {
	f := newFixture(false)
	s, _ := newTestScheduler(f, false)

	require.NoError(t, s.AddChat(chatOne))
	assert.ErrorIs(t, s.AddChat(chatOne), ErrChatAlreadyPresent)

	require.NoError(t, s.Start(12))
	require.NoError(t, s.Stop())
	assert.Len(t, s.Chats(), 1)

	require.NoError(t, s.RemoveChat(chatOne))
	assert.ErrorIs(t, s.RemoveChat(chatOne), ErrChatNotPresent)
	s.Shutdown()
}

func TestSchedulerChatLeftAndRunNow(t *testing.T) {
	f := newFixture(false)
	s, _ := newTestScheduler(f, false)
	require.NoError(t, s.AddChat(chatOne))
	require.NoError(t, s.AddChat(chatTwo))

	s.ChatLeft(chatTwo)
	s.ChatLeft(chatTwo)
	assert.Len(t, s.Chats(), 1)

	report := s.RunNow(context.Background())
	require.Len(t, report.Results, 1)
	assert.Equal(t, chatOne.ID, report.Results[0].Chat.ID)

	s.RemoveAllChats()
	assert.Empty(t, s.Chats())
}

func TestSchedulerReadsTestModeOnStart(t *testing.T) {
	var testMode atomic.Bool
	f := newFixture(false)
	s := NewScheduler(f.job, testMode.Load)
	s.after = func(time.Duration) <-chan time.Time { return make(chan time.Time) }

	assert.ErrorIs(t, s.Start(30), ErrInvalidPeriod)
	testMode.Store(true)
	require.NoError(t, s.Start(30))
	s.Shutdown()
}
