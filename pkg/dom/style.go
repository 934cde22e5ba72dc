package dom

import "strings"

// Style is a view over an element's inline style attribute. Reads and
// writes go straight to the attribute so rendered HTML always reflects the
// current declarations.
type Style struct {
	el *Element
}

type declaration struct {
	name  string
	value string
}

func parseDeclarations(s string) []declaration {
	var out []declaration
	for _, part := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if name == "" {
			continue
		}
		out = append(out, declaration{name: name, value: value})
	}
	return out
}

func formatDeclarations(decls []declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.name+": "+d.value)
	}
	return strings.Join(parts, "; ")
}

func (s Style) declarations() []declaration {
	v, _ := s.el.Attr("style")
	return parseDeclarations(v)
}

// Get returns the value of a property, or "" when unset.
func (s Style) Get(name string) string {
	name = strings.ToLower(name)
	var value string
	for _, d := range s.declarations() {
		if d.name == name {
			value = d.value
		}
	}
	return value
}

// Set assigns a property. An empty value removes it.
func (s Style) Set(name, value string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if value == "" {
		s.Remove(name)
		return
	}
	decls := s.declarations()
	replaced := false
	for i := range decls {
		if decls[i].name == name {
			decls[i].value = value
			replaced = true
		}
	}
	if !replaced {
		decls = append(decls, declaration{name: name, value: value})
	}
	s.el.SetAttr("style", formatDeclarations(decls))
}

// Remove deletes a property.
func (s Style) Remove(name string) {
	name = strings.ToLower(name)
	decls := s.declarations()
	kept := decls[:0]
	for _, d := range decls {
		if d.name != name {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		s.el.RemoveAttr("style")
		return
	}
	s.el.SetAttr("style", formatDeclarations(kept))
}

// CSSText returns the serialized declarations.
func (s Style) CSSText() string {
	return formatDeclarations(s.declarations())
}
