// Package lifecycle drives each bound element through initialize, render
// and resize, and owns the per-element state those steps share.
//
// Both host adapters go through one Controller: the static renderer binds
// elements found in the document and delivers their sidecar payloads; the
// reactive binding delivers values as they arrive. Either way Initialize
// runs at most once per element, and Resize only after a completed render.
package lifecycle

import (
	stderrors "errors"
	"strings"

	"github.com/go-drift/widgethost/pkg/dom"
	"github.com/go-drift/widgethost/pkg/errors"
	"github.com/go-drift/widgethost/pkg/payload"
	"github.com/go-drift/widgethost/pkg/script"
	"github.com/go-drift/widgethost/pkg/sizing"
	"github.com/go-drift/widgethost/pkg/widget"
	"go.uber.org/zap"
)

// Phase is where an element is in its lifecycle.
type Phase int

const (
	// Unbound elements have state but have not started initializing.
	Unbound Phase = iota
	// Initializing elements have begun initialize but not completed a
	// render.
	Initializing
	// Ready elements have completed initialize and at least one render.
	Ready
)

func (p Phase) String() string {
	switch p {
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	default:
		return "unbound"
	}
}

// ElementState is what the controller keeps for one element.
type ElementState struct {
	Phase       Phase
	Initialized bool
	Instance    any
	LastSize    dom.Size
	Renders     int

	// RestoreDisplay is the display mode to restore when the error display
	// is cleared. ShowingError is set while one is up.
	RestoreDisplay string
	ShowingError   bool

	sizing *sizing.Accessor
}

// Controller runs the widget lifecycle for one document.
type Controller struct {
	doc       *dom.Document
	sizing    *sizing.Resolver
	eval      *script.Evaluator
	presenter *Presenter
	logger    *zap.Logger

	states map[*dom.Element]*ElementState
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSizing sets the sizing resolver.
func WithSizing(r *sizing.Resolver) Option {
	return func(c *Controller) { c.sizing = r }
}

// WithEvaluator sets the script evaluator used for evals and hooks.
func WithEvaluator(e *script.Evaluator) Option {
	return func(c *Controller) { c.eval = e }
}

// WithPresenter sets the default error display.
func WithPresenter(p *Presenter) Option {
	return func(c *Controller) { c.presenter = p }
}

// NewController returns a Controller for doc. Collaborators not supplied
// by options are created with the controller's logger.
func NewController(doc *dom.Document, opts ...Option) *Controller {
	c := &Controller{
		doc:    doc,
		logger: zap.NewNop(),
		states: make(map[*dom.Element]*ElementState),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sizing == nil {
		c.sizing = sizing.NewResolver(doc, sizing.WithLogger(c.logger))
	}
	if c.eval == nil {
		c.eval = script.New(script.WithLogger(c.logger))
	}
	if c.presenter == nil {
		c.presenter = NewPresenter(doc, WithPresenterLogger(c.logger))
	}
	c.logger = c.logger.Named("lifecycle")
	return c
}

// Document returns the controlled document.
func (c *Controller) Document() *dom.Document {
	return c.doc
}

// Evaluator returns the script evaluator.
func (c *Controller) Evaluator() *script.Evaluator {
	return c.eval
}

func (c *Controller) state(el *dom.Element) *ElementState {
	st, ok := c.states[el]
	if !ok {
		st = &ElementState{}
		c.states[el] = st
	}
	return st
}

// Bind marks el as bound, applies its sizing policy and initializes it.
// It reports false without doing anything when el is already bound.
func (c *Controller) Bind(el *dom.Element, def *widget.Definition) (bool, error) {
	if el.HasClass(widget.ClassStaticBound) {
		return false, nil
	}
	el.AddClass(widget.ClassStaticBound)
	st := c.state(el)

	if err := c.resolveSizing(el, def, st); err != nil {
		return true, err
	}
	if err := c.initialize(el, def, st); err != nil {
		return true, err
	}
	st.LastSize = sizing.SizeOf(st.sizing, el)
	return true, nil
}

func (c *Controller) resolveSizing(el *dom.Element, def *widget.Definition, st *ElementState) error {
	acc, err := c.sizing.Resolve(el)
	if err != nil {
		return withWidget(err, def, el)
	}
	st.sizing = acc
	return nil
}

// initialize runs def.Initialize once. The element counts as initialized
// before the call, so a failing Initialize is not retried.
func (c *Controller) initialize(el *dom.Element, def *widget.Definition, st *ElementState) error {
	if st.Initialized {
		return nil
	}
	st.Initialized = true
	st.Phase = Initializing
	if def.Initialize == nil {
		return nil
	}
	size := sizing.SizeOf(st.sizing, el)
	inst, err := def.Initialize(el, size.Width, size.Height)
	if err != nil {
		return wrap("lifecycle.Initialize", errors.KindRender, def, el, err)
	}
	st.Instance = inst
	c.logger.Debug("initialized", zap.String("widget", def.Name), zap.String("element", el.ID()),
		zap.Int("width", size.Width), zap.Int("height", size.Height))
	return nil
}

// Deliver renders p into el: it resolves p's evals paths, initializes el
// if needed, renders, runs the render hooks with the instance as this, and
// clears an error display left by an earlier failure.
func (c *Controller) Deliver(el *dom.Element, def *widget.Definition, p *payload.Payload) error {
	if p == nil {
		p = &payload.Payload{}
	}
	for _, path := range p.Evals {
		if err := c.evaluate(p, path); err != nil {
			return wrap("lifecycle.Deliver", errors.KindEval, def, el, err)
		}
	}

	st := c.state(el)
	if !st.Initialized {
		if err := c.resolveSizing(el, def, st); err != nil {
			return err
		}
		if err := c.initialize(el, def, st); err != nil {
			return err
		}
	}

	if err := def.Render(el, p.X, st.Instance); err != nil {
		return wrap("lifecycle.Deliver", errors.KindRender, def, el, err)
	}
	st.Renders++
	st.Phase = Ready

	if len(p.JSHooks.Render) > 0 {
		if err := c.eval.RunTasks(p.JSHooks.Render, st.Instance, el, p.X); err != nil {
			return wrap("lifecycle.Deliver", errors.KindEval, def, el, err)
		}
	}

	if st.ShowingError {
		c.ClearError(el, def)
	}
	c.logger.Debug("rendered", zap.String("widget", def.Name), zap.String("element", el.ID()),
		zap.Int("renders", st.Renders))
	return nil
}

// evaluate resolves one evals path. Paths are relative to x; a path whose
// first segment is "x", when x has no member of that name, is read from
// the payload root instead.
func (c *Controller) evaluate(p *payload.Payload, path string) error {
	if path == "x" || strings.HasPrefix(path, "x.") {
		m, _ := p.X.(map[string]any)
		if _, shadowed := m["x"]; !shadowed {
			root := map[string]any{"x": p.X}
			if err := c.eval.EvaluateStringMember(root, path); err != nil {
				return err
			}
			p.X = root["x"]
			return nil
		}
	}
	return c.eval.EvaluateStringMember(p.X, path)
}

// NotifyResize forwards a size to def.Resize. It does nothing before el
// has completed a render or when def has no Resize.
func (c *Controller) NotifyResize(el *dom.Element, def *widget.Definition, width, height int) error {
	st, ok := c.states[el]
	if !ok || st.Phase != Ready || !def.HasResize() {
		return nil
	}
	if err := def.Resize(el, width, height, st.Instance); err != nil {
		return wrap("lifecycle.NotifyResize", errors.KindRender, def, el, err)
	}
	c.logger.Debug("resized", zap.String("widget", def.Name), zap.String("element", el.ID()),
		zap.Int("width", width), zap.Int("height", height))
	return nil
}

// ObserveSize reads el's current size and forwards it to NotifyResize when
// it differs from the last observed size. A size that is zero in both
// dimensions is ignored.
func (c *Controller) ObserveSize(el *dom.Element, def *widget.Definition) error {
	st, ok := c.states[el]
	if !ok {
		return nil
	}
	size := sizing.SizeOf(st.sizing, el)
	if size.IsZero() || size == st.LastSize {
		return nil
	}
	st.LastSize = size
	return c.NotifyResize(el, def, size.Width, size.Height)
}

// Size returns the size governing el: its sizing container in fill mode,
// otherwise the element itself.
func (c *Controller) Size(el *dom.Element) dom.Size {
	var acc *sizing.Accessor
	if st, ok := c.states[el]; ok {
		acc = st.sizing
	}
	return sizing.SizeOf(acc, el)
}

// ShowError displays err for el through def's RenderError, or the default
// presenter. A display already up is cleared first.
func (c *Controller) ShowError(el *dom.Element, def *widget.Definition, err error) {
	st := c.state(el)
	if st.ShowingError {
		c.ClearError(el, def)
	}
	st.ShowingError = true
	if def != nil && def.RenderError != nil {
		def.RenderError(el, err)
		return
	}
	st.RestoreDisplay = c.presenter.Show(el, err)
}

// ClearError removes the error display for el.
func (c *Controller) ClearError(el *dom.Element, def *widget.Definition) {
	st := c.state(el)
	st.ShowingError = false
	if def != nil && def.ClearError != nil {
		def.ClearError(el)
		return
	}
	restore := st.RestoreDisplay
	st.RestoreDisplay = ""
	c.presenter.Clear(el, restore)
}

// Instance returns the value Initialize returned for el.
func (c *Controller) Instance(el *dom.Element) (any, bool) {
	st, ok := c.states[el]
	if !ok || !st.Initialized {
		return nil, false
	}
	return st.Instance, true
}

// State returns a copy of el's state.
func (c *Controller) State(el *dom.Element) (ElementState, bool) {
	st, ok := c.states[el]
	if !ok {
		return ElementState{}, false
	}
	return *st, true
}

// Sweep drops the state of elements no longer in the document and returns
// how many were dropped.
func (c *Controller) Sweep() int {
	n := 0
	for el := range c.states {
		if el.IsConnected() {
			continue
		}
		delete(c.states, el)
		c.sizing.Forget(el)
		c.presenter.Forget(el)
		n++
	}
	if n > 0 {
		c.logger.Debug("swept detached elements", zap.Int("count", n))
	}
	return n
}

func wrap(op string, kind errors.ErrorKind, def *widget.Definition, el *dom.Element, err error) error {
	we := &errors.WidgetError{
		Op:        op,
		Kind:      kind,
		ElementID: el.ID(),
		Err:       err,
	}
	if def != nil {
		we.Widget = def.Name
	}
	return we
}

func withWidget(err error, def *widget.Definition, el *dom.Element) error {
	var we *errors.WidgetError
	if stderrors.As(err, &we) {
		if we.Widget == "" && def != nil {
			we.Widget = def.Name
		}
		return we
	}
	return wrap("lifecycle.Bind", errors.KindParsing, def, el, err)
}
