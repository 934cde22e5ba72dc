// Package widget defines renderer definitions, the registry that owns them,
// and the locator that finds the elements they bind to.
package widget

import (
	"encoding/json"
	"fmt"

	"github.com/go-drift/widgethost/pkg/dom"
)

// TypeOutput is the only supported definition type.
const TypeOutput = "output"

// Instance is what a factory-style renderer returns for each element.
type Instance interface {
	// Render draws x.
	Render(x any) error
	// Resize adapts the drawing to a new size.
	Resize(width, height int) error
}

// InitializeFunc runs once per element and returns its instance handle.
type InitializeFunc func(el *dom.Element, width, height int) (any, error)

// RenderFunc renders x into el. instance is whatever InitializeFunc
// returned, or nil when the definition has no initializer.
type RenderFunc func(el *dom.Element, x any, instance any) error

// ResizeFunc tells the renderer el now has the given size.
type ResizeFunc func(el *dom.Element, width, height int, instance any) error

// FindFunc returns candidate elements under scope.
type FindFunc func(scope *dom.Element) ([]*dom.Element, error)

// RenderErrorFunc displays err in place of el.
type RenderErrorFunc func(el *dom.Element, err error)

// ClearErrorFunc removes an error display from el.
type ClearErrorFunc func(el *dom.Element)

// FactoryFunc creates an Instance for el.
type FactoryFunc func(el *dom.Element, width, height int) (Instance, error)

// ReactiveOverrides replace the reactive host's default output-binding
// behavior for one definition. Nil members fall back to the host.
type ReactiveOverrides struct {
	GetID         func(el *dom.Element) string
	OnValueChange func(el *dom.Element, data json.RawMessage) error
	OnValueError  func(el *dom.Element, err error)
	ShowProgress  func(el *dom.Element, show bool)
}

// Definition describes one widget type.
//
// A definition supplies either Render (with optional Initialize and Resize)
// or Factory; factory definitions are adapted by AdaptFactory when
// registered. Registered definitions are owned by the Registry and must not
// be modified.
type Definition struct {
	// Name identifies the widget and is its default CSS class marker.
	Name string
	// Type must be TypeOutput.
	Type string

	Find       FindFunc
	Initialize InitializeFunc
	Render     RenderFunc
	Resize     ResizeFunc

	// RenderError and ClearError override the default error display.
	RenderError RenderErrorFunc
	ClearError  ClearErrorFunc

	// RenderOnNullValue renders a null payload instead of hiding the
	// element.
	RenderOnNullValue bool

	Factory FactoryFunc

	Reactive ReactiveOverrides
}

// HasResize reports whether the definition handles resizes.
func (d *Definition) HasResize() bool {
	return d.Resize != nil
}

// AdaptFactory returns a definition whose Initialize calls def.Factory once
// and keeps the Instance, whose Render calls Instance.Render and whose
// Resize calls Instance.Resize. Find, RenderError, ClearError and the other
// optional members carry over. def is not modified.
func AdaptFactory(def Definition) Definition {
	factory := def.Factory
	adapted := def
	adapted.Factory = nil
	adapted.Initialize = func(el *dom.Element, width, height int) (any, error) {
		return factory(el, width, height)
	}
	adapted.Render = func(el *dom.Element, x any, instance any) error {
		inst, err := asInstance(instance)
		if err != nil {
			return err
		}
		return inst.Render(x)
	}
	adapted.Resize = func(el *dom.Element, width, height int, instance any) error {
		inst, err := asInstance(instance)
		if err != nil {
			return err
		}
		return inst.Resize(width, height)
	}
	return adapted
}

func asInstance(v any) (Instance, error) {
	inst, ok := v.(Instance)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNoInstance, v)
	}
	return inst, nil
}
