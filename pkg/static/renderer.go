// Package static renders the widgets of a plain document: every element
// a registered definition finds is bound, sized, initialized and rendered
// from its payload sidecar, once.
//
// Passes are incremental. Running RenderAll again only picks up elements
// added since the last pass; Scheduler coalesces bursts of requests into
// one pass on the loop.
package static

import (
	stderrors "errors"

	"github.com/go-drift/widgethost/pkg/deps"
	"github.com/go-drift/widgethost/pkg/dom"
	"github.com/go-drift/widgethost/pkg/errors"
	"github.com/go-drift/widgethost/pkg/lifecycle"
	"github.com/go-drift/widgethost/pkg/payload"
	"github.com/go-drift/widgethost/pkg/widget"
	"go.uber.org/zap"
)

// ResizeEvents are the document events that make a bound element re-read
// its size. The window "resize" event is always included.
var ResizeEvents = []string{"shown", "hidden", "slideenter", "slideleave"}

// Renderer runs static render passes over one document.
type Renderer struct {
	doc      *dom.Document
	registry *widget.Registry
	ctrl     *lifecycle.Controller
	hooks    *HookQueue
	deps     *deps.Resolver
	logger   *zap.Logger

	listeners map[*dom.Element][]func()
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithHooks sets the post-render hook queue drained after each pass.
func WithHooks(q *HookQueue) Option {
	return func(r *Renderer) { r.hooks = q }
}

// WithDeps renders payload dependencies before delivering payloads.
func WithDeps(d *deps.Resolver) Option {
	return func(r *Renderer) { r.deps = d }
}

// NewRenderer returns a Renderer for the controller's document.
func NewRenderer(reg *widget.Registry, ctrl *lifecycle.Controller, opts ...Option) *Renderer {
	r := &Renderer{
		doc:       ctrl.Document(),
		registry:  reg,
		ctrl:      ctrl,
		hooks:     &HookQueue{},
		logger:    zap.NewNop(),
		listeners: make(map[*dom.Element][]func()),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("static")
	return r
}

// Hooks returns the post-render hook queue.
func (r *Renderer) Hooks() *HookQueue {
	return r.hooks
}

// RenderAll runs one pass. For each definition in registration order and
// each element it finds, in document order, an unbound element is bound,
// given resize listeners when the definition resizes, and rendered from its
// payload sidecar. Elements without a sidecar stay bound but unrendered.
// The first failure ends the pass; post-render hooks run only after a
// complete pass.
func (r *Renderer) RenderAll() error {
	r.sweep()

	rendered := 0
	for _, def := range r.registry.Definitions() {
		els, err := widget.FindStatic(def, r.doc.Root())
		if err != nil {
			return &errors.WidgetError{Op: "static.RenderAll", Kind: errors.KindConfig, Widget: def.Name, Err: err}
		}
		for _, el := range els {
			ok, err := r.renderElement(def, el)
			if err != nil {
				return err
			}
			if ok {
				rendered++
			}
		}
	}

	hooks := r.hooks.Drain()
	r.logger.Debug("static pass complete", zap.Int("rendered", rendered), zap.Int("hooks", hooks))
	return nil
}

func (r *Renderer) renderElement(def *widget.Definition, el *dom.Element) (bool, error) {
	bound, err := r.ctrl.Bind(el, def)
	if err != nil || !bound {
		return false, err
	}
	if def.HasResize() {
		r.listen(def, el)
	}

	p, ok, err := payload.FromSidecar(r.doc, el)
	if err != nil {
		return false, err
	}
	if !ok {
		r.logger.Debug("no payload", zap.String("widget", def.Name), zap.String("element", el.ID()))
		return false, nil
	}
	if r.deps != nil {
		if err := r.deps.Render(p.Deps); err != nil {
			return false, &errors.WidgetError{Op: "static.RenderAll", Kind: errors.KindParsing, Widget: def.Name, ElementID: el.ID(), Err: err}
		}
	}
	if err := r.ctrl.Deliver(el, def, p); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Renderer) listen(def *widget.Definition, el *dom.Element) {
	handler := func(dom.Event) {
		if err := r.ctrl.ObserveSize(el, def); err != nil {
			var we *errors.WidgetError
			if stderrors.As(err, &we) {
				errors.Report(we)
				return
			}
			errors.Report(&errors.WidgetError{Op: "static.resize", Kind: errors.KindRender, Widget: def.Name, ElementID: el.ID(), Err: err})
		}
	}
	removers := []func(){r.doc.Window().AddEventListener("resize", handler)}
	for _, ev := range ResizeEvents {
		removers = append(removers, r.doc.Events().AddEventListener(ev, handler))
	}
	r.listeners[el] = removers
}

// sweep drops controller state and listeners of detached elements.
func (r *Renderer) sweep() {
	r.ctrl.Sweep()
	for el, removers := range r.listeners {
		if el.IsConnected() {
			continue
		}
		for _, remove := range removers {
			remove()
		}
		delete(r.listeners, el)
	}
}
