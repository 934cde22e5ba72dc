// Package deps injects a widget payload's HTML dependencies (scripts,
// stylesheets, raw head content and attachments) into the document head,
// once per dependency name.
package deps

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-drift/widgethost/pkg/dom"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"
)

// ErrAttachmentNotFound is returned by AttachmentURL for unknown
// attachments.
var ErrAttachmentNotFound = errors.New("deps: attachment not found in document")

// AttrName marks head nodes injected for a dependency.
const AttrName = "data-dep-name"

// StringList decodes a JSON string or array of strings.
type StringList []string

// UnmarshalJSON accepts null, a string, or an array of strings.
func (l *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*l = nil
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("deps: expected a string or a list of strings: %w", err)
	}
	*l = list
	return nil
}

// Source locates a dependency's files.
type Source struct {
	Href string `json:"href"`
}

// Dependency is one HTML dependency of a widget.
type Dependency struct {
	Name       string     `json:"name"`
	Version    string     `json:"version"`
	Src        Source     `json:"src"`
	Script     StringList `json:"script"`
	Stylesheet StringList `json:"stylesheet"`
	Head       string     `json:"head"`
	Attachment StringList `json:"attachment"`
}

func (d Dependency) url(file string) string {
	if d.Src.Href == "" {
		return file
	}
	return strings.TrimSuffix(d.Src.Href, "/") + "/" + file
}

// canonical returns v in the "vMAJOR.MINOR.PATCH" form semver expects.
func canonical(v string) string {
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Resolver renders dependencies into one document.
type Resolver struct {
	doc      *dom.Document
	rendered map[string]string
	logger   *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver returns a Resolver for doc.
func NewResolver(doc *dom.Document, opts ...Option) *Resolver {
	r := &Resolver{
		doc:      doc,
		rendered: make(map[string]string),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("deps")
	return r
}

// Rendered returns the version recorded for a dependency name.
func (r *Resolver) Rendered(name string) (string, bool) {
	v, ok := r.rendered[name]
	return v, ok
}

// Render injects each dependency not yet present. A dependency already
// rendered at an equal or newer version is skipped; a newer version
// replaces the nodes of the older one.
func (r *Resolver) Render(deps []Dependency) error {
	for _, dep := range deps {
		if dep.Name == "" {
			r.logger.Warn("skipping dependency without a name")
			continue
		}
		if prev, ok := r.rendered[dep.Name]; ok {
			if semver.Compare(canonical(dep.Version), canonical(prev)) <= 0 {
				continue
			}
			r.remove(dep.Name)
			r.logger.Debug("upgrading dependency",
				zap.String("name", dep.Name), zap.String("from", prev), zap.String("to", dep.Version))
		}
		if err := r.inject(dep); err != nil {
			return fmt.Errorf("deps: render %s: %w", dep.Name, err)
		}
		r.rendered[dep.Name] = dep.Version
		r.logger.Debug("rendered dependency", zap.String("name", dep.Name), zap.String("version", dep.Version))
	}
	return nil
}

func (r *Resolver) inject(dep Dependency) error {
	head := r.doc.Head()
	if head == nil {
		return errors.New("document has no head")
	}
	add := func(tag string, attrs ...string) {
		el := r.doc.CreateElement(tag)
		for i := 0; i+1 < len(attrs); i += 2 {
			el.SetAttr(attrs[i], attrs[i+1])
		}
		el.SetAttr(AttrName, dep.Name)
		head.AppendChild(el)
	}

	for i, file := range dep.Attachment {
		add("link", "id", dep.Name+"-"+strconv.Itoa(i+1)+"-attachment", "rel", "attachment", "href", dep.url(file))
	}
	for _, file := range dep.Stylesheet {
		add("link", "rel", "stylesheet", "type", "text/css", "href", dep.url(file))
	}
	for _, file := range dep.Script {
		add("script", "src", dep.url(file))
	}
	if dep.Head != "" {
		before := len(head.Children())
		if err := head.AppendHTML(dep.Head); err != nil {
			return err
		}
		for _, el := range head.Children()[before:] {
			el.SetAttr(AttrName, dep.Name)
		}
	}
	return nil
}

func (r *Resolver) remove(name string) {
	head := r.doc.Head()
	if head == nil {
		return
	}
	for _, el := range head.Children() {
		if v, ok := el.Attr(AttrName); ok && v == name {
			el.Remove()
		}
	}
}

// AttachmentURL returns the href of attachment key (1-based; "" means 1)
// of the named dependency.
func AttachmentURL(doc *dom.Document, depName, key string) (string, error) {
	if key == "" {
		key = "1"
	}
	link := doc.GetElementByID(depName + "-" + key + "-attachment")
	if link == nil {
		return "", fmt.Errorf("%w: %s/%s", ErrAttachmentNotFound, depName, key)
	}
	href, _ := link.Attr("href")
	return href, nil
}
