package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerFiresOnce(t *testing.T) {
	fired := make(chan struct{}, 1)
	var tm Timer
	tm.Start(10*time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestTimerRestartCancelsPrevious(t *testing.T) {
	fired := make(chan int, 2)
	var tm Timer
	tm.Start(20*time.Millisecond, func() { fired <- 1 })
	tm.Start(60*time.Millisecond, func() { fired <- 2 })

	select {
	case v := <-fired:
		require.Equal(t, 2, v)
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestTickerStop(t *testing.T) {
	var tk Ticker
	count := 0
	tk.Start(5*time.Millisecond, func() { count++ })
	time.Sleep(30 * time.Millisecond)
	tk.Stop()
	require.False(t, tk.Running())
	after := count
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, after, count)
}

func TestNextAlignedInstant(t *testing.T) {
	now := time.Date(2026, 8, 3, 10, 17, 0, 0, time.UTC)
	next := NextAlignedInstant(now, 15*time.Minute)
	require.Equal(t, time.Date(2026, 8, 3, 10, 30, 0, 0, time.UTC), next)
}
