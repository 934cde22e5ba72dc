package lifecycle

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-drift/widgethost/pkg/dom"
	"github.com/go-drift/widgethost/pkg/errors"
	"github.com/go-drift/widgethost/pkg/loop"
	"go.uber.org/zap"
)

// Error display classes.
const (
	ClassOutputError = "shiny-output-error"
	ClassWidgetError = "htmlwidgets-error"
)

// DefaultPollInterval is the overlay refresh interval under TrackPolling.
const DefaultPollInterval = 500 * time.Millisecond

// Tracking selects how an error overlay follows its element.
type Tracking int

const (
	// TrackObserve repositions the overlay on layout changes.
	TrackObserve Tracking = iota
	// TrackPolling repositions the overlay on a loop interval.
	TrackPolling
)

func (t Tracking) String() string {
	if t == TrackPolling {
		return "poll"
	}
	return "observe"
}

// ParseTracking maps "observe" or "poll" to a Tracking.
func ParseTracking(s string) (Tracking, bool) {
	switch s {
	case "", "observe":
		return TrackObserve, true
	case "poll", "polling":
		return TrackPolling, true
	}
	return TrackObserve, false
}

// Presenter is the default error display. Inline elements are hidden and
// followed by a <span> carrying the message; other elements keep their
// space with visibility:hidden under an absolutely positioned <div>.
type Presenter struct {
	doc      *dom.Document
	loop     *loop.Loop
	tracking Tracking
	interval time.Duration
	logger   *zap.Logger

	stops map[*dom.Element]func()
}

// PresenterOption configures a Presenter.
type PresenterOption func(*Presenter)

// WithTracking selects overlay tracking. Polling needs a loop; without one
// the presenter observes layout instead.
func WithTracking(t Tracking, l *loop.Loop, interval time.Duration) PresenterOption {
	return func(p *Presenter) {
		p.tracking = t
		p.loop = l
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithPresenterLogger sets the logger.
func WithPresenterLogger(l *zap.Logger) PresenterOption {
	return func(p *Presenter) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPresenter returns a Presenter for doc.
func NewPresenter(doc *dom.Document, opts ...PresenterOption) *Presenter {
	p := &Presenter{
		doc:      doc,
		interval: DefaultPollInterval,
		logger:   zap.NewNop(),
		stops:    make(map[*dom.Element]func()),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tracking == TrackPolling && p.loop == nil {
		p.tracking = TrackObserve
	}
	p.logger = p.logger.Named("presenter")
	return p
}

// ErrorClass returns the class list for an error display.
func ErrorClass(err error) string {
	classes := []string{ClassOutputError}
	for _, t := range errors.TypesOf(err) {
		classes = append(classes, ClassOutputError+"-"+t)
	}
	classes = append(classes, ClassWidgetError)
	return strings.Join(classes, " ")
}

// Show displays err over el and returns the display mode to restore on
// Clear. An empty message hides the element without inserting anything.
func (p *Presenter) Show(el *dom.Element, err error) string {
	display := el.Display()
	message := ""
	if err != nil {
		message = err.Error()
	}

	switch display {
	case "none":
		return display
	case "inline", "inline-block":
		el.Style().Set("display", "none")
		if message == "" {
			return display
		}
		span := p.doc.CreateElement("span")
		span.SetAttr("class", ErrorClass(err))
		span.SetText(message)
		el.InsertAfter(span)
	default:
		el.Style().Set("visibility", "hidden")
		if message == "" {
			return display
		}
		div := p.doc.CreateElement("div")
		div.SetAttr("class", ErrorClass(err))
		div.Style().Set("position", "absolute")
		div.SetText(message)
		el.InsertAfter(div)
		place(div, el)
		p.track(el, div)
	}
	p.logger.Debug("showing error", zap.String("element", el.ID()), zap.String("display", display))
	return display
}

// Clear removes the display that Show put up for el, restoring the given
// display mode.
func (p *Presenter) Clear(el *dom.Element, restore string) {
	if stop, ok := p.stops[el]; ok {
		stop()
		delete(p.stops, el)
	}

	switch restore {
	case "", "none":
		return
	case "inline", "inline-block":
		el.Style().Set("display", restore)
	default:
		el.Style().Set("visibility", "inherit")
	}
	if next := el.NextElementSibling(); next != nil && next.HasClass(ClassWidgetError) {
		next.Remove()
	}
}

// Forget stops tracking for el without touching the document.
func (p *Presenter) Forget(el *dom.Element) {
	if stop, ok := p.stops[el]; ok {
		stop()
		delete(p.stops, el)
	}
}

// Tracking returns the tracking mode in use.
func (p *Presenter) Tracking() Tracking {
	return p.tracking
}

func (p *Presenter) track(el, overlay *dom.Element) {
	if stop, ok := p.stops[el]; ok {
		stop()
	}

	var stop func()
	update := func() {
		if !overlay.IsConnected() {
			stop()
			delete(p.stops, el)
			return
		}
		place(overlay, el)
	}
	if p.tracking == TrackPolling {
		timer := p.loop.Every(p.interval, update)
		stop = func() { timer.Stop() }
	} else {
		stop = p.doc.ObserveLayout(update)
	}
	p.stops[el] = stop
}

// place moves the overlay over el.
func place(overlay, el *dom.Element) {
	s := overlay.Style()
	s.Set("top", px(el.OffsetTop()))
	s.Set("left", px(el.OffsetLeft()))
	s.Set("max-width", px(el.OffsetWidth()))
	s.Set("height", px(el.OffsetHeight()))
}

func px(n int) string {
	return strconv.Itoa(n) + "px"
}
