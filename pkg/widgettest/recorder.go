package widgettest

import (
	"fmt"

	"github.com/go-drift/widgethost/pkg/dom"
	"github.com/go-drift/widgethost/pkg/widget"
)

// Recorded operation names.
const (
	OpInitialize = "initialize"
	OpRender     = "render"
	OpResize     = "resize"
)

// Call is one recorded renderer call.
type Call struct {
	Op       string
	Element  string
	Width    int
	Height   int
	X        any
	Instance any
}

func (c Call) String() string {
	switch c.Op {
	case OpRender:
		return fmt.Sprintf("%s %s", c.Op, c.Element)
	default:
		return fmt.Sprintf("%s %s %dx%d", c.Op, c.Element, c.Width, c.Height)
	}
}

// Handle is the instance a Recorder's Initialize returns. Each call
// returns a new pointer, so handles compare by identity.
type Handle struct {
	Element string
	Seq     int
}

// Recorder is a renderer that records its calls in order. Set the Err
// fields to make the matching operation fail.
type Recorder struct {
	Calls []Call

	InitializeErr error
	RenderErr     error
	ResizeErr     error

	seq int
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Initialize records the call and returns a fresh *Handle.
func (r *Recorder) Initialize(el *dom.Element, width, height int) (any, error) {
	r.Calls = append(r.Calls, Call{Op: OpInitialize, Element: el.ID(), Width: width, Height: height})
	if r.InitializeErr != nil {
		return nil, r.InitializeErr
	}
	r.seq++
	return &Handle{Element: el.ID(), Seq: r.seq}, nil
}

// Render records the call.
func (r *Recorder) Render(el *dom.Element, x any, instance any) error {
	r.Calls = append(r.Calls, Call{Op: OpRender, Element: el.ID(), X: x, Instance: instance})
	return r.RenderErr
}

// Resize records the call.
func (r *Recorder) Resize(el *dom.Element, width, height int, instance any) error {
	r.Calls = append(r.Calls, Call{Op: OpResize, Element: el.ID(), Width: width, Height: height, Instance: instance})
	return r.ResizeErr
}

// Definition returns a definition named name wired to Initialize, Render
// and Resize.
func (r *Recorder) Definition(name string) widget.Definition {
	return widget.Definition{
		Name:       name,
		Type:       widget.TypeOutput,
		Initialize: r.Initialize,
		Render:     r.Render,
		Resize:     r.Resize,
	}
}

// RenderOnly returns a definition with Render and nothing else.
func (r *Recorder) RenderOnly(name string) widget.Definition {
	return widget.Definition{
		Name:   name,
		Type:   widget.TypeOutput,
		Render: r.Render,
	}
}

// Count returns how many op calls were recorded for the element id. An
// empty id counts every element.
func (r *Recorder) Count(op, elementID string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Op == op && (elementID == "" || c.Element == elementID) {
			n++
		}
	}
	return n
}

// Ops returns the recorded calls for an element as strings, in order.
func (r *Recorder) Ops(elementID string) []string {
	var out []string
	for _, c := range r.Calls {
		if c.Element == elementID {
			out = append(out, c.String())
		}
	}
	return out
}

// Last returns the most recent call of op for the element.
func (r *Recorder) Last(op, elementID string) (Call, bool) {
	for i := len(r.Calls) - 1; i >= 0; i-- {
		if c := r.Calls[i]; c.Op == op && c.Element == elementID {
			return c, true
		}
	}
	return Call{}, false
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.Calls = nil
}
