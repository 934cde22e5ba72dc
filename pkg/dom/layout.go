package dom

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/font"
)

var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "br": true, "canvas": true, "cite": true,
	"code": true, "em": true, "i": true, "img": true, "kbd": true, "label": true,
	"q": true, "s": true, "samp": true, "small": true, "span": true, "strong": true,
	"sub": true, "sup": true, "svg": true, "time": true, "u": true, "var": true,
}

var inlineBlockTags = map[string]bool{
	"button": true, "input": true, "select": true, "textarea": true,
}

var hiddenTags = map[string]bool{
	"head": true, "link": true, "meta": true, "script": true, "style": true,
	"template": true, "title": true,
}

// Display returns the element's display value: the inline style when set,
// else the tag's default.
func (e *Element) Display() string {
	if d := e.Style().Get("display"); d != "" {
		return d
	}
	tag := e.TagName()
	switch {
	case hiddenTags[tag]:
		return "none"
	case inlineTags[tag]:
		return "inline"
	case inlineBlockTags[tag]:
		return "inline-block"
	default:
		return "block"
	}
}

// IsRendered reports whether e is connected and neither it nor an ancestor
// has display:none.
func (e *Element) IsRendered() bool {
	if !e.IsConnected() {
		return false
	}
	for el := e; el != nil; el = el.Parent() {
		if el.Display() == "none" {
			return false
		}
	}
	return true
}

// SetGeometry pins the element's layout box, as a real layout engine would
// report it, and notifies layout observers.
func (e *Element) SetGeometry(r Rect) {
	e.geometry = &r
	e.doc.notifyLayout()
}

// ClearGeometry returns the element to style-driven layout.
func (e *Element) ClearGeometry() {
	e.geometry = nil
	e.doc.notifyLayout()
}

// OffsetWidth returns the layout width in pixels.
func (e *Element) OffsetWidth() int {
	if !e.IsRendered() {
		return 0
	}
	if e.geometry != nil {
		return e.geometry.Width
	}
	return e.computeWidth()
}

// OffsetHeight returns the layout height in pixels.
func (e *Element) OffsetHeight() int {
	if !e.IsRendered() {
		return 0
	}
	if e.geometry != nil {
		return e.geometry.Height
	}
	if h, ok := e.definiteHeight(); ok {
		return h
	}
	return e.autoHeight()
}

// OffsetTop returns the top offset: the pinned geometry, else the inline
// top style in pixels.
func (e *Element) OffsetTop() int {
	if e.geometry != nil {
		return e.geometry.Y
	}
	v, _ := parseLength(e.Style().Get("top"), 0)
	return v
}

// OffsetLeft returns the left offset: the pinned geometry, else the inline
// left style in pixels.
func (e *Element) OffsetLeft() int {
	if e.geometry != nil {
		return e.geometry.X
	}
	v, _ := parseLength(e.Style().Get("left"), 0)
	return v
}

// Size returns the offset width and height.
func (e *Element) Size() Size {
	return Size{Width: e.OffsetWidth(), Height: e.OffsetHeight()}
}

func (e *Element) isRootElement() bool {
	return e.node.Parent == e.doc.root
}

func (e *Element) isAbsolute() bool {
	p := e.Style().Get("position")
	return p == "absolute" || p == "fixed"
}

func (e *Element) isInline() bool {
	d := e.Display()
	return d == "inline" || d == "inline-block"
}

func (e *Element) computeWidth() int {
	if e.isRootElement() {
		if w, ok := parseLength(e.Style().Get("width"), e.doc.viewport.Width); ok {
			return w
		}
		return e.doc.viewport.Width
	}

	if e.isAbsolute() {
		container := e.positionedAncestor().OffsetWidth()
		if w, ok := parseLength(e.Style().Get("width"), container); ok {
			return w
		}
		left, lok := parseLength(e.Style().Get("left"), container)
		right, rok := parseLength(e.Style().Get("right"), container)
		if lok && rok {
			return max(0, container-left-right)
		}
		// Shrink to fit.
		return e.textSize().Width
	}

	container := e.containingWidth()
	if w, ok := parseLength(e.Style().Get("width"), container); ok {
		return w
	}
	if e.isInline() {
		return e.textSize().Width
	}
	return container
}

func (e *Element) containingWidth() int {
	p := e.Parent()
	if p == nil {
		return e.doc.viewport.Width
	}
	pad := p.padding()
	return max(0, p.OffsetWidth()-pad.left-pad.right)
}

// positionedAncestor returns the containing block of an absolutely
// positioned box: the nearest positioned ancestor, else the root.
func (e *Element) positionedAncestor() *Element {
	for p := e.Parent(); p != nil; p = p.Parent() {
		if pos := p.Style().Get("position"); pos != "" && pos != "static" {
			return p
		}
	}
	return e.doc.Root()
}

// definiteHeight resolves heights that do not depend on content. A
// percentage against an auto-height parent is treated as auto, as in CSS.
func (e *Element) definiteHeight() (int, bool) {
	if e.geometry != nil {
		return e.geometry.Height, true
	}
	if e.isRootElement() {
		if h, ok := parseLength(e.Style().Get("height"), e.doc.viewport.Height); ok {
			return h, true
		}
		return e.doc.viewport.Height, true
	}

	raw := e.Style().Get("height")
	if h, ok := parseLength(raw, 0); ok && !strings.HasSuffix(raw, "%") {
		return h, true
	}

	if e.isAbsolute() {
		// The containing block's used height, auto or not. Absolute
		// children never contribute to it, so this cannot recurse back.
		container := e.positionedAncestor().OffsetHeight()
		if h, ok := parseLength(raw, container); ok {
			return h, true
		}
		top, tok := parseLength(e.Style().Get("top"), container)
		bottom, bok := parseLength(e.Style().Get("bottom"), container)
		if tok && bok {
			return max(0, container-top-bottom), true
		}
		return 0, false
	}

	p := e.Parent()
	if p == nil {
		return 0, false
	}
	ph, pok := p.definiteHeight()
	if !pok {
		return 0, false
	}
	pad := p.padding()
	if h, ok := parseLength(raw, max(0, ph-pad.top-pad.bottom)); ok {
		return h, true
	}
	return 0, false
}

func (e *Element) autoHeight() int {
	if e.isInline() {
		return e.textSize().Height
	}
	pad := e.padding()
	total := pad.top + pad.bottom
	for _, c := range e.Children() {
		if c.isAbsolute() || !c.IsRendered() {
			continue
		}
		total += c.OffsetHeight()
	}
	return total
}

func (e *Element) textSize() Size {
	text := strings.Join(strings.Fields(e.Text()), " ")
	if text == "" {
		return Size{}
	}
	face := e.doc.face
	return Size{
		Width:  font.MeasureString(face, text).Ceil(),
		Height: face.Metrics().Height.Ceil(),
	}
}

type edges struct {
	top, right, bottom, left int
}

// padding resolves the padding shorthand and the per-side properties, in
// pixels only.
func (e *Element) padding() edges {
	s := e.Style()
	var p edges
	if short := s.Get("padding"); short != "" {
		var vals []int
		for _, f := range strings.Fields(short) {
			v, _ := parseLength(f, 0)
			vals = append(vals, v)
		}
		switch len(vals) {
		case 1:
			p = edges{vals[0], vals[0], vals[0], vals[0]}
		case 2:
			p = edges{vals[0], vals[1], vals[0], vals[1]}
		case 3:
			p = edges{vals[0], vals[1], vals[2], vals[1]}
		case 4:
			p = edges{vals[0], vals[1], vals[2], vals[3]}
		}
	}
	if v, ok := parseLength(s.Get("padding-top"), 0); ok {
		p.top = v
	}
	if v, ok := parseLength(s.Get("padding-right"), 0); ok {
		p.right = v
	}
	if v, ok := parseLength(s.Get("padding-bottom"), 0); ok {
		p.bottom = v
	}
	if v, ok := parseLength(s.Get("padding-left"), 0); ok {
		p.left = v
	}
	return p
}

// parseLength converts "12px", "12" or "50%" (of base) to pixels. It
// returns false for empty, "auto" and unsupported units.
func parseLength(v string, base int) (int, bool) {
	v = strings.TrimSpace(v)
	if v == "" || v == "auto" {
		return 0, false
	}
	if pct, ok := strings.CutSuffix(v, "%"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
		if err != nil {
			return 0, false
		}
		return int(math.Round(float64(base) * f / 100)), true
	}
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return int(math.Round(f)), true
}
