package static

import (
	stderrors "errors"
	"time"

	"github.com/go-drift/widgethost/pkg/errors"
	"github.com/go-drift/widgethost/pkg/loop"
	"go.uber.org/zap"
)

// DefaultDelay is how long Schedule waits before running a pass.
const DefaultDelay = time.Millisecond

// Scheduler coalesces requests for a render pass into one run on the
// loop. It must only be used from the loop goroutine.
type Scheduler struct {
	loop      *loop.Loop
	run       func() error
	delay     time.Duration
	logger    *zap.Logger
	scheduled bool
	timer     *loop.Timer
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.delay = d }
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(l *zap.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScheduler returns a Scheduler that calls run on l.
func NewScheduler(l *loop.Loop, run func() error, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		loop:   l,
		run:    run,
		delay:  DefaultDelay,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("scheduler")
	return s
}

// Schedule requests a pass. Requests made while one is pending are
// dropped. A failing pass is sent to errors.Report.
func (s *Scheduler) Schedule() {
	if s.scheduled {
		return
	}
	s.scheduled = true
	s.timer = s.loop.AfterFunc(s.delay, s.fire)
	s.logger.Debug("scheduled render pass")
}

func (s *Scheduler) fire() {
	defer errors.Recover("static.Scheduler")
	s.scheduled = false
	s.timer = nil
	if err := s.run(); err != nil {
		var we *errors.WidgetError
		if !stderrors.As(err, &we) {
			we = &errors.WidgetError{Op: "static.Scheduler", Kind: errors.KindRender, Err: err}
		}
		errors.Report(we)
	}
}

// Pending reports whether a pass is scheduled.
func (s *Scheduler) Pending() bool {
	return s.scheduled
}

// Cancel drops a scheduled pass.
func (s *Scheduler) Cancel() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.scheduled = false
	s.timer = nil
}
