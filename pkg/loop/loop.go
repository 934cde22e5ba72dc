// Package loop provides the single-threaded task loop that every widget
// lifecycle mutation runs on.
//
// The host model is cooperative: document-ready handlers, resize events,
// reactive value changes, debounce timers and polling intervals are all
// callbacks queued on one Loop and executed one at a time on whichever
// goroutine drives it. Post is safe to call from any goroutine, so
// background work can hand results back the same way a UI thread dispatch
// would.
//
// Tests drive the loop deterministically with RunPending and a fake Clock;
// long-lived hosts call Run with a context.
package loop

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Clock reports the current time used to decide which timers are due.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Loop is a single-threaded task queue with one-shot and repeating timers.
type Loop struct {
	mu     sync.Mutex
	clock  Clock
	tasks  []func()
	timers []*Timer
	seq    uint64
	wake   chan struct{}
}

// Timer is a handle to a callback scheduled with AfterFunc or Every.
type Timer struct {
	loop     *Loop
	due      time.Time
	interval time.Duration
	seq      uint64
	fn       func()
}

// New creates a loop. A nil clock uses the system clock.
func New(clock Clock) *Loop {
	if clock == nil {
		clock = systemClock{}
	}
	return &Loop{
		clock: clock,
		wake:  make(chan struct{}, 1),
	}
}

// Now returns the loop clock's current time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// Post queues fn to run on the loop after any already queued tasks.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// AfterFunc schedules fn to run once, d after now.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	return l.schedule(d, 0, fn)
}

// Every schedules fn to run repeatedly every d until the timer is stopped.
// Intervals shorter than a millisecond are raised to one millisecond.
func (l *Loop) Every(d time.Duration, fn func()) *Timer {
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return l.schedule(d, d, fn)
}

func (l *Loop) schedule(d, interval time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	l.mu.Lock()
	l.seq++
	t := &Timer{
		loop:     l,
		due:      l.clock.Now().Add(d),
		interval: interval,
		seq:      l.seq,
		fn:       fn,
	}
	l.insert(t)
	l.mu.Unlock()
	l.signal()
	return t
}

// insert adds t keeping timers ordered by due time, then creation order.
// Callers must hold l.mu.
func (l *Loop) insert(t *Timer) {
	i := sort.Search(len(l.timers), func(i int) bool {
		o := l.timers[i]
		if o.due.Equal(t.due) {
			return o.seq > t.seq
		}
		return o.due.After(t.due)
	})
	l.timers = append(l.timers, nil)
	copy(l.timers[i+1:], l.timers[i:])
	l.timers[i] = t
}

// Stop cancels the timer. It returns false if the timer already fired
// (one-shot) or was already stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.loop == nil {
		return false
	}
	l := t.loop
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, o := range l.timers {
		if o == t {
			l.timers = append(l.timers[:i], l.timers[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns the number of queued tasks plus scheduled timers.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks) + len(l.timers)
}

// RunPending runs queued tasks and due timers until nothing is runnable,
// and returns how many callbacks ran. Tasks posted while running are
// picked up in the same call; timers that are not yet due are left alone.
func (l *Loop) RunPending() int {
	ran := 0
	for {
		fn := l.next()
		if fn == nil {
			return ran
		}
		fn()
		ran++
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tasks) > 0 {
		fn := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		return fn
	}

	if len(l.timers) == 0 {
		return nil
	}
	now := l.clock.Now()
	t := l.timers[0]
	if t.due.After(now) {
		return nil
	}
	l.timers = l.timers[1:]
	if t.interval > 0 {
		t.due = t.due.Add(t.interval)
		if !t.due.After(now) {
			t.due = now.Add(t.interval)
		}
		l.insert(t)
	}
	return t.fn
}

// untilNext returns how long until the earliest timer is due, or -1 when
// no timer is scheduled.
func (l *Loop) untilNext() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) > 0 {
		return 0
	}
	if len(l.timers) == 0 {
		return -1
	}
	d := l.timers[0].due.Sub(l.clock.Now())
	if d < 0 {
		d = 0
	}
	return d
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run drives the loop on the calling goroutine until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()

		var timeout <-chan time.Time
		var timer *time.Timer
		if d := l.untilNext(); d >= 0 {
			timer = time.NewTimer(d)
			timeout = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case <-l.wake:
		case <-timeout:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}
