package dom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// ErrInvalidSelector is returned for CSS selectors or XPath expressions
// that do not compile.
var ErrInvalidSelector = errors.New("dom: invalid selector")

func (d *Document) compile(selector string) (cascadia.Selector, error) {
	if sel, ok := d.selectors[selector]; ok {
		return sel, nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, selector, err)
	}
	d.selectors[selector] = sel
	return sel, nil
}

func (d *Document) elements(nodes []*html.Node) []*Element {
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if el := d.ElementFor(n); el != nil {
			out = append(out, el)
		}
	}
	return out
}

// QuerySelectorAll returns all descendants of e matching the CSS selector,
// in document order.
func (e *Element) QuerySelectorAll(selector string) ([]*Element, error) {
	sel, err := e.doc.compile(selector)
	if err != nil {
		return nil, err
	}
	return e.doc.elements(cascadia.QueryAll(e.node, sel)), nil
}

// QuerySelector returns the first descendant of e matching the selector,
// or nil.
func (e *Element) QuerySelector(selector string) (*Element, error) {
	sel, err := e.doc.compile(selector)
	if err != nil {
		return nil, err
	}
	return e.doc.ElementFor(cascadia.Query(e.node, sel)), nil
}

// Matches reports whether e itself matches the selector.
func (e *Element) Matches(selector string) (bool, error) {
	sel, err := e.doc.compile(selector)
	if err != nil {
		return false, err
	}
	return sel.Match(e.node), nil
}

// QuerySelectorAll returns every element in the document matching the
// selector.
func (d *Document) QuerySelectorAll(selector string) ([]*Element, error) {
	sel, err := d.compile(selector)
	if err != nil {
		return nil, err
	}
	return d.elements(cascadia.QueryAll(d.root, sel)), nil
}

// QuerySelector returns the first element in the document matching the
// selector, or nil.
func (d *Document) QuerySelector(selector string) (*Element, error) {
	sel, err := d.compile(selector)
	if err != nil {
		return nil, err
	}
	return d.ElementFor(cascadia.Query(d.root, sel)), nil
}

// XPath evaluates an XPath expression against the document and returns the
// matching elements.
func (d *Document) XPath(expr string) ([]*Element, error) {
	nodes, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, expr, err)
	}
	return d.elements(nodes), nil
}

// XPathOne returns the first element matching the XPath expression, or nil.
func (d *Document) XPathOne(expr string) (*Element, error) {
	n, err := htmlquery.Query(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, expr, err)
	}
	return d.ElementFor(n), nil
}

// Sidecar returns the text of the first <script data-for=forID type=mime>
// tag and whether one exists.
func (d *Document) Sidecar(forID, mimeType string) (string, bool) {
	if forID == "" {
		return "", false
	}
	expr := fmt.Sprintf("//script[@data-for=%s][@type=%s]", xpathLiteral(forID), xpathLiteral(mimeType))
	n, err := htmlquery.Query(d.root, expr)
	if err != nil || n == nil {
		return "", false
	}
	return htmlquery.InnerText(n), true
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `'`) {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
