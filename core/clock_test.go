package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealClockNowTracksWallClock(t *testing.T) {
	t.Parallel()

	clock := NewRealClock()
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}

func TestFakeClockNowAndAdvance(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)
	assert.True(t, clock.Now().Equal(start))

	clock.Advance(90 * time.Second)
	assert.True(t, clock.Now().Equal(start.Add(90*time.Second)))

	target := start.Add(time.Hour)
	clock.Set(target)
	assert.True(t, clock.Now().Equal(target))
}

func TestFakeClockTickerFiresPerAdvance(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC))
	ticker := clock.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for i := 0; i < 3; i++ {
		clock.Advance(30 * time.Second)
		select {
		case <-ticker.C():
		case <-time.After(time.Second):
			t.Fatalf("tick %d did not fire", i+1)
		}
	}
}

func TestFakeClockAfterFiresOnlyAtDeadline(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC))
	ch := clock.After(time.Minute)

	clock.Advance(30 * time.Second)
	select {
	case <-ch:
		t.Fatal("fired before the deadline")
	case <-time.After(10 * time.Millisecond):
	}

	clock.Advance(30 * time.Second)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("did not fire at the deadline")
	}
}

func TestFakeClockSleepUnblocksOnAdvance(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC))
	done := make(chan struct{})

	go func() {
		clock.Sleep(time.Minute)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	clock.Advance(time.Minute)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Sleep never returned")
	}
}

func TestFakeClockZeroDurationFiresImmediately(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Now())
	select {
	case <-clock.After(0):
	case <-time.After(10 * time.Millisecond):
		t.Fatal("After(0) should not block")
	}
	clock.Sleep(0)
}

func TestFakeClockTickerStopDeregisters(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Now())
	ticker := clock.NewTicker(time.Second)
	require.Equal(t, 1, clock.TickerCount())

	ticker.Stop()
	assert.Equal(t, 0, clock.TickerCount())
}

func TestDefaultClockSwap(t *testing.T) {
	original := GetDefaultClock()
	defer SetDefaultClock(original)

	fake := NewFakeClock(time.Now())
	SetDefaultClock(fake)
	assert.Equal(t, Clock(fake), GetDefaultClock())
}
