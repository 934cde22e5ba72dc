package loop_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/widgethost/pkg/loop"
	"github.com/go-drift/widgethost/pkg/widgettest"
)

func TestPostRunsInOrder(t *testing.T) {
	l := loop.New(widgettest.NewFakeClock())
	var got []int
	for i := 0; i < 3; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	l.Post(nil)

	if ran := l.RunPending(); ran != 3 {
		t.Errorf("RunPending() = %d, want 3", ran)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestTasksPostedWhileRunningRunInSamePass(t *testing.T) {
	l := loop.New(widgettest.NewFakeClock())
	var got []string
	l.Post(func() {
		got = append(got, "outer")
		l.Post(func() { got = append(got, "inner") })
	})
	l.RunPending()
	if diff := cmp.Diff([]string{"outer", "inner"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestAfterFuncWaitsForClock(t *testing.T) {
	clock := widgettest.NewFakeClock()
	l := loop.New(clock)
	fired := 0
	l.AfterFunc(10*time.Millisecond, func() { fired++ })

	l.RunPending()
	if fired != 0 {
		t.Fatalf("timer fired before due")
	}
	clock.Advance(10 * time.Millisecond)
	l.RunPending()
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	clock.Advance(time.Second)
	l.RunPending()
	if fired != 1 {
		t.Errorf("one-shot timer fired again: %d", fired)
	}
	if l.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", l.Pending())
	}
}

func TestTimersFireInDueOrder(t *testing.T) {
	clock := widgettest.NewFakeClock()
	l := loop.New(clock)
	var got []string
	l.AfterFunc(20*time.Millisecond, func() { got = append(got, "b") })
	l.AfterFunc(10*time.Millisecond, func() { got = append(got, "a") })
	l.AfterFunc(20*time.Millisecond, func() { got = append(got, "c") })

	clock.Advance(time.Second)
	l.RunPending()
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestStopCancelsTimer(t *testing.T) {
	clock := widgettest.NewFakeClock()
	l := loop.New(clock)
	fired := false
	timer := l.AfterFunc(time.Millisecond, func() { fired = true })

	if !timer.Stop() {
		t.Error("Stop() on a pending timer should return true")
	}
	if timer.Stop() {
		t.Error("second Stop() should return false")
	}
	clock.Advance(time.Second)
	l.RunPending()
	if fired {
		t.Error("stopped timer fired")
	}

	var nilTimer *loop.Timer
	if nilTimer.Stop() {
		t.Error("Stop() on nil timer should return false")
	}
}

func TestEveryRepeatsUntilStopped(t *testing.T) {
	clock := widgettest.NewFakeClock()
	l := loop.New(clock)
	count := 0
	var timer *loop.Timer
	timer = l.Every(500*time.Millisecond, func() {
		count++
		if count == 3 {
			timer.Stop()
		}
	})

	for i := 0; i < 5; i++ {
		clock.Advance(500 * time.Millisecond)
		l.RunPending()
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestEveryDoesNotCatchUpAfterLongGap(t *testing.T) {
	clock := widgettest.NewFakeClock()
	l := loop.New(clock)
	count := 0
	timer := l.Every(100*time.Millisecond, func() { count++ })
	defer timer.Stop()

	clock.Advance(10 * time.Second)
	l.RunPending()
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	l := loop.New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	l.Post(func() { cancel() })

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunFiresRealTimers(t *testing.T) {
	l := loop.New(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fired := make(chan struct{})
	l.AfterFunc(time.Millisecond, func() {
		close(fired)
		cancel()
	})
	_ = l.Run(ctx)

	select {
	case <-fired:
	default:
		t.Error("timer did not fire")
	}
}
