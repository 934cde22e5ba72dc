// Package widgethost is the public entry point: it binds renderer
// definitions to the widget placeholders of a document.
//
// A Host owns one document. Renderers are registered with
// RegisterRenderer; Ready runs the first static pass, and
// RunStaticRenderNow or ScheduleStaticRender run later ones for elements
// added since. When the document publishes a reactive host under
// reactive.GlobalName, every registered renderer is also handed to it as an
// output binding.
//
//	host, err := widgethost.New(doc)
//	if err != nil {
//		return err
//	}
//	if _, err := host.RegisterRenderer(def); err != nil {
//		return err
//	}
//	return host.Ready()
package widgethost

import (
	"time"

	"github.com/go-drift/widgethost/pkg/deps"
	"github.com/go-drift/widgethost/pkg/dom"
	"github.com/go-drift/widgethost/pkg/errors"
	"github.com/go-drift/widgethost/pkg/lifecycle"
	"github.com/go-drift/widgethost/pkg/loop"
	"github.com/go-drift/widgethost/pkg/reactive"
	"github.com/go-drift/widgethost/pkg/script"
	"github.com/go-drift/widgethost/pkg/sizing"
	"github.com/go-drift/widgethost/pkg/static"
	"github.com/go-drift/widgethost/pkg/widget"
	"go.uber.org/zap"
)

// ScriptGlobal is the name the host API is published under to script code
// (evals literals and render hooks).
const ScriptGlobal = "HTMLWidgets"

type options struct {
	logger       *zap.Logger
	loop         *loop.Loop
	variant      *sizing.Variant
	containerID  string
	tracking     lifecycle.Tracking
	pollInterval time.Duration
	delay        time.Duration
	deps         *deps.Resolver
	scriptGlobal bool
}

// Option configures a Host.
type Option func(*options)

// WithLogger sets the logger shared by every component.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLoop sets the loop that scheduled passes and overlay polling run on.
// Without one the host creates a loop on the system clock.
func WithLoop(l *loop.Loop) Option {
	return func(o *options) { o.loop = l }
}

// WithVariant fixes the sizing variant instead of reading it from the
// document location.
func WithVariant(v sizing.Variant) Option {
	return func(o *options) { o.variant = &v }
}

// WithContainerID sets the id of the fill-sizing container.
func WithContainerID(id string) Option {
	return func(o *options) { o.containerID = id }
}

// WithTracking selects how error overlays follow their element.
func WithTracking(t lifecycle.Tracking, pollInterval time.Duration) Option {
	return func(o *options) {
		o.tracking = t
		o.pollInterval = pollInterval
	}
}

// WithScheduleDelay sets the debounce delay of ScheduleStaticRender.
func WithScheduleDelay(d time.Duration) Option {
	return func(o *options) { o.delay = d }
}

// WithDependencyResolver shares r with the static pass. Give a reactive
// host the same resolver so a dependency is injected once across modes.
func WithDependencyResolver(r *deps.Resolver) Option {
	return func(o *options) { o.deps = r }
}

// WithoutScriptGlobal keeps the host API out of the script runtime.
func WithoutScriptGlobal() Option {
	return func(o *options) { o.scriptGlobal = false }
}

// Host binds widgets in one document.
type Host struct {
	doc       *dom.Document
	registry  *widget.Registry
	ctrl      *lifecycle.Controller
	renderer  *static.Renderer
	scheduler *static.Scheduler
	deps      *deps.Resolver
	loop      *loop.Loop
	reactive  reactive.Host
	logger    *zap.Logger
	ready     bool
}

// New returns a Host for doc. The document global reactive.GlobalName is
// probed once, here: a value implementing reactive.Host turns reactive
// mode on.
func New(doc *dom.Document, opts ...Option) (*Host, error) {
	o := options{
		logger:       zap.NewNop(),
		pollInterval: lifecycle.DefaultPollInterval,
		delay:        static.DefaultDelay,
		scriptGlobal: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.loop == nil {
		o.loop = loop.New(nil)
	}
	if o.deps == nil {
		o.deps = deps.NewResolver(doc, deps.WithLogger(o.logger))
	}

	sizingOpts := []sizing.Option{sizing.WithLogger(o.logger), sizing.WithContainerID(o.containerID)}
	if o.variant != nil {
		sizingOpts = append(sizingOpts, sizing.WithVariant(*o.variant))
	}
	presenter := lifecycle.NewPresenter(doc,
		lifecycle.WithTracking(o.tracking, o.loop, o.pollInterval),
		lifecycle.WithPresenterLogger(o.logger))
	ctrl := lifecycle.NewController(doc,
		lifecycle.WithLogger(o.logger),
		lifecycle.WithSizing(sizing.NewResolver(doc, sizingOpts...)),
		lifecycle.WithEvaluator(script.New(script.WithLogger(o.logger))),
		lifecycle.WithPresenter(presenter))

	h := &Host{
		doc:      doc,
		registry: widget.NewRegistry(widget.WithLogger(o.logger)),
		ctrl:     ctrl,
		deps:     o.deps,
		loop:     o.loop,
		logger:   o.logger.Named("host"),
	}
	h.renderer = static.NewRenderer(h.registry, ctrl,
		static.WithLogger(o.logger),
		static.WithDeps(h.deps))
	h.scheduler = static.NewScheduler(o.loop, h.renderer.RenderAll,
		static.WithDelay(o.delay),
		static.WithSchedulerLogger(o.logger))

	if v, ok := doc.Global(reactive.GlobalName); ok {
		if rh, ok := v.(reactive.Host); ok {
			h.reactive = rh
			h.registry.OnRegister(h.bindReactive)
			h.logger.Debug("reactive host found")
		} else {
			h.logger.Warn("document global is not a reactive host", zap.String("global", reactive.GlobalName))
		}
	}

	if o.scriptGlobal {
		if err := ctrl.Evaluator().Define(ScriptGlobal, h.scriptAPI()); err != nil {
			return nil, &errors.WidgetError{Op: "widgethost.New", Kind: errors.KindHost, Err: err}
		}
	}
	return h, nil
}

func (h *Host) bindReactive(def *widget.Definition) {
	b := reactive.NewBinding(def, h.ctrl, h.reactive, h.scheduler, reactive.WithLogger(h.logger))
	if err := h.reactive.Register(b, def.Name); err != nil {
		errors.Report(&errors.WidgetError{Op: "widgethost.RegisterRenderer", Kind: errors.KindHost, Widget: def.Name, Err: err})
	}
}

// Document returns the host document.
func (h *Host) Document() *dom.Document { return h.doc }

// Registry returns the renderer registry.
func (h *Host) Registry() *widget.Registry { return h.registry }

// Controller returns the lifecycle controller.
func (h *Host) Controller() *lifecycle.Controller { return h.ctrl }

// Loop returns the host loop.
func (h *Host) Loop() *loop.Loop { return h.loop }

// Dependencies returns the dependency resolver.
func (h *Host) Dependencies() *deps.Resolver { return h.deps }

// Reactive returns the reactive host, if the probe found one.
func (h *Host) Reactive() (reactive.Host, bool) {
	return h.reactive, h.reactive != nil
}

// RegisterRenderer validates and registers a renderer definition.
func (h *Host) RegisterRenderer(def widget.Definition) (*widget.Definition, error) {
	return h.registry.Register(def)
}

// Ready is the document-ready trigger: it runs the first static pass.
// Later calls do nothing; use RunStaticRenderNow for further passes.
func (h *Host) Ready() error {
	if h.ready {
		return nil
	}
	h.ready = true
	return h.RunStaticRenderNow()
}

// RunStaticRenderNow runs a static pass immediately.
func (h *Host) RunStaticRenderNow() error {
	return h.renderer.RenderAll()
}

// ScheduleStaticRender runs a static pass on the loop after the schedule
// delay. Repeated calls before it runs are coalesced.
func (h *Host) ScheduleStaticRender() {
	h.scheduler.Schedule()
}

// AddPostRenderHook queues fn to run once after the next complete static
// pass.
func (h *Host) AddPostRenderHook(fn func()) {
	h.renderer.Hooks().Add(fn)
}

// FindInstance returns the instance of the first element matching
// selector, or nil when nothing matches.
func (h *Host) FindInstance(selector string) (any, error) {
	return h.FindInstanceIn(h.doc.Root(), selector)
}

// FindInstanceIn is FindInstance limited to scope's descendants.
func (h *Host) FindInstanceIn(scope *dom.Element, selector string) (any, error) {
	el, err := scope.QuerySelector(selector)
	if err != nil || el == nil {
		return nil, err
	}
	inst, _ := h.GetInstance(el)
	return inst, nil
}

// FindAllInstances returns the instances of every element matching
// selector, in document order. Elements without one contribute nil.
func (h *Host) FindAllInstances(selector string) ([]any, error) {
	return h.FindAllInstancesIn(h.doc.Root(), selector)
}

// FindAllInstancesIn is FindAllInstances limited to scope's descendants.
func (h *Host) FindAllInstancesIn(scope *dom.Element, selector string) ([]any, error) {
	els, err := scope.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(els))
	for i, el := range els {
		out[i], _ = h.GetInstance(el)
	}
	return out, nil
}

// GetInstance returns the value the renderer's Initialize returned for
// el.
func (h *Host) GetInstance(el *dom.Element) (any, bool) {
	return h.ctrl.Instance(el)
}

// EvaluateStringMember replaces the string at the dotted path member of o
// with its evaluated script value.
func (h *Host) EvaluateStringMember(o any, member string) error {
	return h.ctrl.Evaluator().EvaluateStringMember(o, member)
}

// AttachmentURL returns the URL of attachment key ("" means the first)
// of the named dependency.
func (h *Host) AttachmentURL(depName, key string) (string, error) {
	return deps.AttachmentURL(h.doc, depName, key)
}
