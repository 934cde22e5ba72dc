// Package dom is the headless document model widgets are bound against.
//
// A Document wraps a golang.org/x/net/html tree and adds what the widget
// lifecycle needs from a browser: stable element identity, inline styles,
// CSS selector and XPath queries, window/document events, a viewport, and a
// small layout model that answers offsetWidth/offsetHeight style questions
// without a rendering engine.
//
// # Layout
//
// Sizes are resolved in this order:
//
//   - display:none on the element or an ancestor gives 0×0
//   - geometry set by the host with SetGeometry
//   - px or % width/height from the inline style
//   - absolutely positioned boxes stretched between left/right or top/bottom
//     of their nearest positioned ancestor (or the viewport)
//   - block boxes take their parent's inner width and the sum of their
//     children's heights
//   - inline boxes take the measured size of their text
//
// The root <html> element is the viewport. Widths and heights are
// border-box: padding is inside the declared size.
//
// Documents are not safe for concurrent use; drive them from one loop.
package dom

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/net/html"
)

// Size is a width/height pair in CSS pixels.
type Size struct {
	Width  int
	Height int
}

// IsZero reports whether both dimensions are zero.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// Rect is a positioned box in CSS pixels.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Document is an in-memory HTML document.
type Document struct {
	root      *html.Node
	nodes     map[*html.Node]*Element
	selectors map[string]cascadia.Selector
	location  string
	viewport  Size
	face      font.Face
	window    *EventTarget
	events    *EventTarget
	globals   map[string]any
	observers map[int]func()
	nextObs   int
}

// Option configures a Document.
type Option func(*Document)

// WithLocation sets the document URL.
func WithLocation(url string) Option {
	return func(d *Document) { d.location = url }
}

// WithViewport sets the initial viewport size.
func WithViewport(width, height int) Option {
	return func(d *Document) { d.viewport = Size{Width: width, Height: height} }
}

// WithFontFace sets the face used to measure inline text.
func WithFontFace(face font.Face) Option {
	return func(d *Document) {
		if face != nil {
			d.face = face
		}
	}
}

// WithGlobal defines a window global, e.g. a reactive host object.
func WithGlobal(name string, value any) Option {
	return func(d *Document) { d.globals[name] = value }
}

// DefaultViewport is the viewport size used when none is configured.
var DefaultViewport = Size{Width: 960, Height: 500}

// Parse reads an HTML document.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	d := &Document{
		root:      root,
		nodes:     make(map[*html.Node]*Element),
		selectors: make(map[string]cascadia.Selector),
		viewport:  DefaultViewport,
		face:      basicfont.Face7x13,
		window:    NewEventTarget(),
		events:    NewEventTarget(),
		globals:   make(map[string]any),
		observers: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ParseString is Parse over a string.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// New returns an empty document with <html>, <head> and <body>.
func New(opts ...Option) *Document {
	d, err := ParseString("<!DOCTYPE html><html><head></head><body></body></html>", opts...)
	if err != nil {
		// The literal above always parses.
		panic(err)
	}
	return d
}

// Location returns the document URL.
func (d *Document) Location() string {
	return d.location
}

// Node returns the underlying document node.
func (d *Document) Node() *html.Node {
	return d.root
}

// Root returns the <html> element.
func (d *Document) Root() *Element {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "html" {
			return d.ElementFor(c)
		}
	}
	return nil
}

// Head returns the <head> element.
func (d *Document) Head() *Element {
	return d.rootChild("head")
}

// Body returns the <body> element.
func (d *Document) Body() *Element {
	return d.rootChild("body")
}

func (d *Document) rootChild(tag string) *Element {
	root := d.Root()
	if root == nil {
		return nil
	}
	for c := root.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return d.ElementFor(c)
		}
	}
	return nil
}

// ElementFor returns the canonical Element for an element node. The same
// node always yields the same *Element, so elements can key maps.
func (d *Document) ElementFor(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	if e, ok := d.nodes[n]; ok {
		return e
	}
	e := &Element{doc: d, node: n}
	d.nodes[n] = e
	return e
}

// GetElementByID returns the first connected element with the given id.
func (d *Document) GetElementByID(id string) *Element {
	if id == "" {
		return nil
	}
	var found *html.Node
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(d.root)
	return d.ElementFor(found)
}

// CreateElement creates a detached element.
func (d *Document) CreateElement(tag string) *Element {
	return d.ElementFor(newElementNode(tag))
}

// Window returns the window event target ("resize").
func (d *Document) Window() *EventTarget {
	return d.window
}

// Events returns the document event target ("shown", "slideenter", ...).
func (d *Document) Events() *EventTarget {
	return d.events
}

// Viewport returns the current viewport size.
func (d *Document) Viewport() Size {
	return d.viewport
}

// SetViewport changes the viewport, dispatches a window "resize" event and
// notifies layout observers.
func (d *Document) SetViewport(width, height int) {
	d.viewport = Size{Width: width, Height: height}
	d.window.Dispatch(Event{Type: "resize", Target: d})
	d.notifyLayout()
}

// Global returns a window global.
func (d *Document) Global(name string) (any, bool) {
	v, ok := d.globals[name]
	return v, ok
}

// SetGlobal defines a window global.
func (d *Document) SetGlobal(name string, value any) {
	d.globals[name] = value
}

// ObserveLayout registers fn to run whenever layout inputs change
// (viewport or host-set geometry). The returned func unregisters it.
func (d *Document) ObserveLayout(fn func()) (cancel func()) {
	d.nextObs++
	id := d.nextObs
	d.observers[id] = fn
	return func() { delete(d.observers, id) }
}

func (d *Document) notifyLayout() {
	if len(d.observers) == 0 {
		return
	}
	ids := make([]int, 0, len(d.observers))
	for id := range d.observers {
		ids = append(ids, id)
	}
	// Registration order keeps notifications deterministic.
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := d.observers[id]; ok {
			fn()
		}
	}
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, for tests and debugging.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}
