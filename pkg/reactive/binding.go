// Package reactive adapts widget definitions to a reactive host, one whose
// server pushes output values (and errors) to elements it manages.
//
// Each registered definition is wrapped in a Binding and handed to the
// host through Host.Register. Bindings deliver values through the same
// lifecycle.Controller as the static renderer, so an element is still
// initialized once however many values arrive.
package reactive

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-drift/widgethost/pkg/deps"
	"github.com/go-drift/widgethost/pkg/dom"
	werrors "github.com/go-drift/widgethost/pkg/errors"
	"github.com/go-drift/widgethost/pkg/lifecycle"
	"github.com/go-drift/widgethost/pkg/payload"
	"github.com/go-drift/widgethost/pkg/static"
	"github.com/go-drift/widgethost/pkg/widget"
	"go.uber.org/zap"
)

// GlobalName is the document global a reactive host is published under.
const GlobalName = "Shiny"

// ClassRecalculating marks outputs waiting for a new value.
const ClassRecalculating = "recalculating"

// ErrNoResize is returned by Resize on bindings whose definition does not
// resize.
var ErrNoResize = errors.New("reactive: binding does not resize")

// Defaults are a host's own output-binding behaviors. Nil members fall
// back to the built-in behavior.
type Defaults struct {
	GetID         func(el *dom.Element) string
	OnValueChange func(el *dom.Element, data json.RawMessage) error
	OnValueError  func(el *dom.Element, err error)
	RenderError   func(el *dom.Element, err error)
	ClearError    func(el *dom.Element)
	ShowProgress  func(el *dom.Element, show bool)
}

// Host is the capability set of a reactive host.
type Host interface {
	Register(b OutputBinding, name string) error
	RenderDependencies(deps []deps.Dependency) error
	Defaults() Defaults
}

// OutputBinding is what a reactive host drives for one widget type.
type OutputBinding interface {
	Name() string
	Find(scope *dom.Element) ([]*dom.Element, error)
	GetID(el *dom.Element) string
	OnValueChange(el *dom.Element, data json.RawMessage) error
	OnValueError(el *dom.Element, err error)
	RenderError(el *dom.Element, err error)
	ClearError(el *dom.Element)
	ShowProgress(el *dom.Element, show bool)
	RenderValue(el *dom.Element, data json.RawMessage) error
	HasResize() bool
	Resize(el *dom.Element, width, height int) error
}

// Binding is the OutputBinding for one widget definition.
type Binding struct {
	def       *widget.Definition
	ctrl      *lifecycle.Controller
	host      Host
	scheduler *static.Scheduler
	logger    *zap.Logger

	getID         delegate[func(*dom.Element) string]
	onValueChange delegate[func(*dom.Element, json.RawMessage) error]
	onValueError  delegate[func(*dom.Element, error)]
	renderError   delegate[func(*dom.Element, error)]
	clearError    delegate[func(*dom.Element)]
	showProgress  delegate[func(*dom.Element, bool)]
}

// BindingOption configures a Binding.
type BindingOption func(*Binding)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) BindingOption {
	return func(b *Binding) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBinding wraps def for host. When scheduler is not nil, Find schedules
// a static pass on discovering unbound static elements.
func NewBinding(def *widget.Definition, ctrl *lifecycle.Controller, host Host, scheduler *static.Scheduler, opts ...BindingOption) *Binding {
	b := &Binding{
		def:       def,
		ctrl:      ctrl,
		host:      host,
		scheduler: scheduler,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.Named("reactive").With(zap.String("widget", def.Name))

	var defaults Defaults
	if host != nil {
		defaults = host.Defaults()
	}
	if defaults.GetID == nil {
		defaults.GetID = defaultGetID
	}
	if defaults.OnValueChange == nil {
		defaults.OnValueChange = b.RenderValue
	}
	if defaults.OnValueError == nil {
		defaults.OnValueError = b.RenderError
	}
	if defaults.RenderError == nil {
		defaults.RenderError = b.showError
	}
	if defaults.ClearError == nil {
		defaults.ClearError = b.clearErrorDisplay
	}
	if defaults.ShowProgress == nil {
		defaults.ShowProgress = defaultShowProgress
	}

	r := def.Reactive
	b.getID = newDelegate(r.GetID, r.GetID != nil, defaults.GetID)
	b.onValueChange = newDelegate(r.OnValueChange, r.OnValueChange != nil, defaults.OnValueChange)
	b.onValueError = newDelegate(r.OnValueError, r.OnValueError != nil, defaults.OnValueError)
	b.renderError = newDelegate(b.showError, def.RenderError != nil, defaults.RenderError)
	b.clearError = newDelegate(b.clearErrorDisplay, def.ClearError != nil, defaults.ClearError)
	b.showProgress = newDelegate(r.ShowProgress, r.ShowProgress != nil, defaults.ShowProgress)
	return b
}

// Name returns the definition name.
func (b *Binding) Name() string {
	return b.def.Name
}

// Definition returns the wrapped definition.
func (b *Binding) Definition() *widget.Definition {
	return b.def
}

// Find returns the host-managed elements under scope. Unbound static
// elements found by the same scan get a static pass scheduled.
func (b *Binding) Find(scope *dom.Element) ([]*dom.Element, error) {
	outputs, unbound, err := widget.FindReactive(b.def, scope)
	if err != nil {
		return nil, err
	}
	if unbound && b.scheduler != nil {
		b.logger.Debug("unbound static elements found, scheduling a static pass")
		b.scheduler.Schedule()
	}
	return outputs, nil
}

// GetID returns the output id of el.
func (b *Binding) GetID(el *dom.Element) string {
	return b.getID.fn()(el)
}

// OnValueChange handles a new value for el.
func (b *Binding) OnValueChange(el *dom.Element, data json.RawMessage) error {
	return b.onValueChange.fn()(el, data)
}

// OnValueError handles a failed value for el.
func (b *Binding) OnValueError(el *dom.Element, err error) {
	b.onValueError.fn()(el, err)
}

// RenderError shows err on el.
func (b *Binding) RenderError(el *dom.Element, err error) {
	b.renderError.fn()(el, err)
}

// ClearError removes the error display from el.
func (b *Binding) ClearError(el *dom.Element) {
	b.clearError.fn()(el)
}

// ShowProgress toggles the progress display of el.
func (b *Binding) ShowProgress(el *dom.Element, show bool) {
	b.showProgress.fn()(el, show)
}

// Resolved reports which slot each capability resolved to, by name.
func (b *Binding) Resolved() map[string]Source {
	_, getID := b.getID.resolve()
	_, change := b.onValueChange.resolve()
	_, valueErr := b.onValueError.resolve()
	_, render := b.renderError.resolve()
	_, clear := b.clearError.resolve()
	_, progress := b.showProgress.resolve()
	return map[string]Source{
		"getId":         getID,
		"onValueChange": change,
		"onValueError":  valueErr,
		"renderError":   render,
		"clearError":    clear,
		"showProgress":  progress,
	}
}

// RenderValue decodes data, renders its dependencies and delivers it to
// el. A null value hides el instead, unless the definition renders null
// values.
func (b *Binding) RenderValue(el *dom.Element, data json.RawMessage) error {
	p, err := payload.Decode(data)
	if err != nil {
		return &werrors.WidgetError{
			Op:        "reactive.RenderValue",
			Kind:      werrors.KindParsing,
			Widget:    b.def.Name,
			ElementID: el.ID(),
			Err:       &werrors.ParseError{Source: "output " + b.GetID(el), DataType: "widget payload", Err: err},
		}
	}

	if b.host != nil && len(p.Deps) > 0 {
		if err := b.host.RenderDependencies(p.Deps); err != nil {
			return &werrors.WidgetError{Op: "reactive.RenderValue", Kind: werrors.KindHost, Widget: b.def.Name, ElementID: el.ID(), Err: err}
		}
	}

	if !b.def.RenderOnNullValue {
		if p.IsNull() {
			el.Style().Set("visibility", "hidden")
			return nil
		}
		el.Style().Set("visibility", "inherit")
	}
	return b.ctrl.Deliver(el, b.def, p)
}

// HasResize reports whether the definition resizes.
func (b *Binding) HasResize() bool {
	return b.def.HasResize()
}

// Resize forwards a size to the definition. It does nothing before the
// first render.
func (b *Binding) Resize(el *dom.Element, width, height int) error {
	if !b.def.HasResize() {
		return fmt.Errorf("%w: %s", ErrNoResize, b.def.Name)
	}
	return b.ctrl.NotifyResize(el, b.def, width, height)
}

func (b *Binding) showError(el *dom.Element, err error) {
	b.ctrl.ShowError(el, b.def, err)
}

func (b *Binding) clearErrorDisplay(el *dom.Element) {
	b.ctrl.ClearError(el, b.def)
}

func defaultGetID(el *dom.Element) string {
	if id, ok := el.Attr("data-input-id"); ok && id != "" {
		return id
	}
	return el.ID()
}

func defaultShowProgress(el *dom.Element, show bool) {
	if show {
		el.AddClass(ClassRecalculating)
	} else {
		el.RemoveClass(ClassRecalculating)
	}
}
