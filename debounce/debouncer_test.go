package debounce_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-guard-companion/debounce"
	"github.com/stretchr/testify/require"
)

const delay = 500 * time.Millisecond

func TestBurstFiresOnceAfterLastTrigger(t *testing.T) {
	sched := debounce.NewManualScheduler()
	var fired int
	d := debounce.New(delay, sched, func() { fired++ })

	for i := 0; i < 5; i++ {
		d.Trigger()
		sched.Advance(400 * time.Millisecond)
	}
	require.Equal(t, 0, fired)
	require.Equal(t, 1, sched.Pending())

	sched.Advance(99 * time.Millisecond)
	require.Equal(t, 0, fired)
	sched.Advance(time.Millisecond)
	require.Equal(t, 1, fired)
	require.False(t, d.Pending())

	sched.Advance(10 * time.Second)
	require.Equal(t, 1, fired)
}

func TestSeparatedTriggersFireEach(t *testing.T) {
	sched := debounce.NewManualScheduler()
	var fired int
	d := debounce.New(delay, sched, func() { fired++ })

	d.Trigger()
	sched.Advance(delay)
	d.Trigger()
	sched.Advance(delay)
	require.Equal(t, 2, fired)
}

func TestCancel(t *testing.T) {
	sched := debounce.NewManualScheduler()
	var fired int
	d := debounce.New(delay, sched, func() { fired++ })

	d.Trigger()
	require.True(t, d.Pending())
	d.Cancel()
	require.False(t, d.Pending())
	sched.Advance(time.Minute)
	require.Equal(t, 0, fired)

	d.Cancel()
}

func TestSystemScheduler(t *testing.T) {
	var fired atomic.Int32
	d := debounce.New(20*time.Millisecond, nil, func() { fired.Add(1) })
	for i := 0; i < 10; i++ {
		d.Trigger()
	}
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(1), fired.Load())
}
