package widget

import "github.com/go-drift/widgethost/pkg/dom"

// Class markers shared by the host adapters.
const (
	// ClassStaticBound marks elements the static pass has bound.
	ClassStaticBound = "html-widget-static-bound"
	// ClassOutput marks elements owned by the reactive host.
	ClassOutput = "html-widget-output"
)

// FilterByClass keeps the elements that carry class (include) or that do
// not (!include), preserving order.
func FilterByClass(els []*dom.Element, class string, include bool) []*dom.Element {
	var out []*dom.Element
	for _, el := range els {
		if el.HasClass(class) == include {
			out = append(out, el)
		}
	}
	return out
}

// FindStatic returns the definition's candidates under scope that are not
// reactive outputs, in discovery order. Bound elements are included;
// callers skip them.
func FindStatic(def *Definition, scope *dom.Element) ([]*dom.Element, error) {
	found, err := def.Find(scope)
	if err != nil {
		return nil, err
	}
	return FilterByClass(found, ClassOutput, false), nil
}

// FindReactive returns the definition's reactive outputs under scope and
// reports whether the same scan turned up static elements that are not
// bound yet.
func FindReactive(def *Definition, scope *dom.Element) (outputs []*dom.Element, unboundStatic bool, err error) {
	found, err := def.Find(scope)
	if err != nil {
		return nil, false, err
	}
	outputs = FilterByClass(found, ClassOutput, true)
	for _, el := range FilterByClass(found, ClassOutput, false) {
		if !el.HasClass(ClassStaticBound) {
			unboundStatic = true
			break
		}
	}
	return outputs, unboundStatic, nil
}
