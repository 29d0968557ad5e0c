package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualScheduler_FireRunsPending(t *testing.T) {
	s := NewManualScheduler()
	runs := 0

	s.AfterFunc(400*time.Millisecond, func() { runs++ })
	assert.Equal(t, 1, s.Pending())
	assert.Equal(t, 400*time.Millisecond, s.LastDelay())

	assert.Equal(t, 1, s.Fire())
	assert.Equal(t, 1, runs)
	assert.Equal(t, 0, s.Pending())

	assert.Equal(t, 0, s.Fire(), "fired timers do not fire again")
}

func TestManualScheduler_StoppedTimersDoNotFire(t *testing.T) {
	s := NewManualScheduler()
	runs := 0

	stop := s.AfterFunc(time.Second, func() { runs++ })
	assert.True(t, stop())
	assert.False(t, stop(), "second stop reports already stopped")

	assert.Equal(t, 0, s.Fire())
	assert.Equal(t, 0, runs)
	assert.Equal(t, 1, s.Armed())
}

func TestManualScheduler_CallbackMayRearm(t *testing.T) {
	s := NewManualScheduler()
	s.AfterFunc(time.Second, func() {
		s.AfterFunc(time.Second, func() {})
	})

	assert.Equal(t, 1, s.Fire())
	assert.Equal(t, 1, s.Pending())
	assert.Equal(t, 2, s.Armed())
}
