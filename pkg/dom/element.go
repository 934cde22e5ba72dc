package dom

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is an element node inside a Document. Elements are canonical:
// Document.ElementFor returns the same pointer for the same node, so
// *Element is a valid identity key.
type Element struct {
	doc      *Document
	node     *html.Node
	geometry *Rect
}

func newElementNode(tag string) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// Node returns the underlying html node.
func (e *Element) Node() *html.Node {
	return e.node
}

// Document returns the owning document.
func (e *Element) Document() *Document {
	return e.doc
}

// TagName returns the lower-case tag name.
func (e *Element) TagName() string {
	return e.node.Data
}

// ID returns the id attribute.
func (e *Element) ID() string {
	return attr(e.node, "id")
}

// Attr returns an attribute value and whether it is present.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets an attribute, replacing any existing value.
func (e *Element) SetAttr(key, val string) {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == key {
			e.node.Attr[i].Val = val
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute.
func (e *Element) RemoveAttr(key string) {
	attrs := e.node.Attr[:0]
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		attrs = append(attrs, a)
	}
	e.node.Attr = attrs
}

// ClassName returns the raw class attribute.
func (e *Element) ClassName() string {
	return attr(e.node, "class")
}

// Classes returns the element's class tokens.
func (e *Element) Classes() []string {
	return strings.Fields(e.ClassName())
}

// HasClass reports whether the element carries the class token.
func (e *Element) HasClass(class string) bool {
	for _, c := range e.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends class tokens that are not already present.
func (e *Element) AddClass(classes ...string) {
	current := e.Classes()
	changed := false
	for _, class := range classes {
		for _, c := range strings.Fields(class) {
			if !contains(current, c) {
				current = append(current, c)
				changed = true
			}
		}
	}
	if changed {
		e.SetAttr("class", strings.Join(current, " "))
	}
}

// RemoveClass removes class tokens.
func (e *Element) RemoveClass(classes ...string) {
	var kept []string
	for _, c := range e.Classes() {
		if !contains(classes, c) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		e.RemoveAttr("class")
		return
	}
	e.SetAttr("class", strings.Join(kept, " "))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Style returns the element's inline style declarations.
func (e *Element) Style() Style {
	return Style{el: e}
}

// Text returns the concatenated text of all descendant text nodes.
func (e *Element) Text() string {
	return htmlquery.InnerText(e.node)
}

// SetText replaces all children with a single text node.
func (e *Element) SetText(text string) {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Parent returns the parent element, or nil at the root or when detached.
func (e *Element) Parent() *Element {
	return e.doc.ElementFor(e.node.Parent)
}

// NextElementSibling returns the next sibling element.
func (e *Element) NextElementSibling() *Element {
	for s := e.node.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return e.doc.ElementFor(s)
		}
	}
	return nil
}

// Children returns the child elements.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.ElementFor(c))
		}
	}
	return out
}

// AppendChild moves child to the end of e's children.
func (e *Element) AppendChild(child *Element) {
	child.detach()
	e.node.AppendChild(child.node)
}

// AppendHTML parses fragment in the context of e and appends the result.
func (e *Element) AppendHTML(fragment string) error {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), e.node)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		e.node.AppendChild(n)
	}
	return nil
}

// InsertAfter places sibling immediately after e. It is a no-op when e is
// detached.
func (e *Element) InsertAfter(sibling *Element) {
	parent := e.node.Parent
	if parent == nil {
		return
	}
	sibling.detach()
	parent.InsertBefore(sibling.node, e.node.NextSibling)
}

// Remove detaches e from its parent.
func (e *Element) Remove() {
	e.detach()
}

func (e *Element) detach() {
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
}

// IsConnected reports whether e is attached to its document.
func (e *Element) IsConnected() bool {
	for n := e.node; n != nil; n = n.Parent {
		if n == e.doc.root {
			return true
		}
	}
	return false
}

// String describes the element as an opening tag, for logs and errors.
func (e *Element) String() string {
	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(e.node.Data)
	if id := e.ID(); id != "" {
		sb.WriteString(` id="`)
		sb.WriteString(id)
		sb.WriteString(`"`)
	}
	if c := e.ClassName(); c != "" {
		sb.WriteString(` class="`)
		sb.WriteString(c)
		sb.WriteString(`"`)
	}
	sb.WriteString(">")
	return sb.String()
}
