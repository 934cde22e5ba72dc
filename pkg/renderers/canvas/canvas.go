// Package canvas is a factory-style renderer that draws charts into a
// <canvas> element created inside each widget element.
//
// Drawing is delegated to a Backend. AttrBackend, the default, records
// each chart's config on its canvas so headless runs can be inspected.
package canvas

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-drift/widgethost/pkg/dom"
	"github.com/go-drift/widgethost/pkg/widget"
	"go.uber.org/zap"
)

// Name is the widget name, and so the class of the elements it binds.
const Name = "canvasXpress"

// ErrConfig is returned by Render for a value that is not a config object.
var ErrConfig = errors.New("canvas: chart config must be an object")

// Chart is a live chart drawn on a canvas.
type Chart interface {
	SetDimensions(width, height int) error
}

// Backend draws charts.
type Backend interface {
	// Create draws a chart from config. config["renderTo"] names the
	// target canvas.
	Create(config map[string]any) error
	// Destroy removes the chart drawn on the canvas id, if any.
	Destroy(canvasID string)
	// Lookup returns the chart drawn on the canvas id.
	Lookup(canvasID string) (Chart, bool)
}

type options struct {
	backend Backend
	logger  *zap.Logger
}

// Option configures the renderer.
type Option func(*options)

// WithBackend sets the chart backend.
func WithBackend(b Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Definition returns the renderer definition. Without WithBackend each
// element's charts are recorded by an AttrBackend on its own document.
func Definition(opts ...Option) widget.Definition {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.Named("canvas")

	return widget.Definition{
		Name: Name,
		Type: widget.TypeOutput,
		Factory: func(el *dom.Element, width, height int) (widget.Instance, error) {
			backend := o.backend
			if backend == nil {
				backend = NewAttrBackend(el.Document())
			}
			c := el.Document().CreateElement("canvas")
			c.SetAttr("id", el.ID()+"-cx")
			c.SetAttr("width", strconv.Itoa(width))
			c.SetAttr("height", strconv.Itoa(height))
			el.AppendChild(c)
			logger.Debug("created canvas", zap.String("id", c.ID()), zap.Int("width", width), zap.Int("height", height))
			return &Instance{canvas: c, backend: backend, logger: logger}, nil
		},
	}
}

// Instance is the per-element renderer state.
type Instance struct {
	canvas  *dom.Element
	backend Backend
	logger  *zap.Logger
}

// Canvas returns the canvas element.
func (in *Instance) Canvas() *dom.Element {
	return in.canvas
}

// ID returns the canvas id.
func (in *Instance) ID() string {
	return in.canvas.ID()
}

// Render replaces the chart with one drawn from x. Lists are ignored, after
// the previous chart has been destroyed.
func (in *Instance) Render(x any) error {
	in.backend.Destroy(in.ID())
	switch config := x.(type) {
	case []any:
		return nil
	case map[string]any:
		config["renderTo"] = in.ID()
		return in.backend.Create(config)
	default:
		return fmt.Errorf("%w, got %T", ErrConfig, x)
	}
}

// Resize sets the chart dimensions. Charts that split into several canvases
// are found under the "-1" suffixed id.
func (in *Instance) Resize(width, height int) error {
	chart, ok := in.backend.Lookup(in.ID())
	if !ok {
		chart, ok = in.backend.Lookup(in.ID() + "-1")
	}
	if !ok {
		in.logger.Debug("no chart to resize", zap.String("id", in.ID()))
		return nil
	}
	return chart.SetDimensions(width, height)
}
