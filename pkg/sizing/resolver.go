package sizing

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-drift/widgethost/pkg/dom"
	"github.com/go-drift/widgethost/pkg/errors"
	"go.uber.org/zap"
)

// Accessor reads the live size that governs a widget: the fill container
// in fill mode, the element itself in fixed mode.
type Accessor struct {
	target *dom.Element
}

// Target returns the element whose size is read.
func (a *Accessor) Target() *dom.Element {
	return a.target
}

// Width returns the target's current offset width.
func (a *Accessor) Width() int {
	return a.target.OffsetWidth()
}

// Height returns the target's current offset height.
func (a *Accessor) Height() int {
	return a.target.OffsetHeight()
}

// Size returns both dimensions.
func (a *Accessor) Size() dom.Size {
	return dom.Size{Width: a.Width(), Height: a.Height()}
}

// SizeOf returns the size read through acc, or the element's own size when
// acc is nil.
func SizeOf(acc *Accessor, el *dom.Element) dom.Size {
	if acc != nil {
		return acc.Size()
	}
	return el.Size()
}

// Resolver applies sizing policies for one document.
type Resolver struct {
	doc         *dom.Document
	variant     Variant
	containerID string
	logger      *zap.Logger
	resolved    map[*dom.Element]*Accessor
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithVariant fixes the variant instead of deriving it from the location.
func WithVariant(v Variant) Option {
	return func(r *Resolver) { r.variant = v }
}

// WithContainerID sets the id of the fill container element.
func WithContainerID(id string) Option {
	return func(r *Resolver) {
		if id != "" {
			r.containerID = id
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver returns a Resolver for doc. The variant is taken from the
// document location once, here.
func NewResolver(doc *dom.Document, opts ...Option) *Resolver {
	r := &Resolver{
		doc:         doc,
		variant:     VariantFromLocation(doc.Location()),
		containerID: DefaultContainerID,
		logger:      zap.NewNop(),
		resolved:    make(map[*dom.Element]*Accessor),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("sizing")
	return r
}

// Variant returns the variant in use.
func (r *Resolver) Variant() Variant {
	return r.variant
}

// Policy returns the element's sizing policy for the active variant, or
// nil when the element has no sizing sidecar or the sidecar has no entry
// for the variant.
func (r *Resolver) Policy(el *dom.Element) (*Policy, error) {
	text, ok := r.doc.Sidecar(el.ID(), MIMEType)
	if !ok {
		return nil, nil
	}
	if text == "" {
		text = "{}"
	}
	var sc sidecar
	if err := json.Unmarshal([]byte(text), &sc); err != nil {
		return nil, &errors.WidgetError{
			Op:        "sizing.Policy",
			Kind:      errors.KindParsing,
			ElementID: el.ID(),
			Err: &errors.ParseError{
				Source:   sidecarSource(el.ID(), MIMEType),
				DataType: "sizing policy",
				Err:      err,
			},
		}
	}
	return sc.pick(r.variant), nil
}

// Resolve applies the element's policy to the document on first call and
// returns an accessor for the governing size. The result is memoized per
// element, so side effects happen once. A nil accessor means no policy
// applies and callers should read the element's own size.
func (r *Resolver) Resolve(el *dom.Element) (*Accessor, error) {
	if acc, ok := r.resolved[el]; ok {
		return acc, nil
	}
	acc, err := r.apply(el)
	if err != nil {
		return nil, err
	}
	r.resolved[el] = acc
	return acc, nil
}

// Forget drops the memoized result for el.
func (r *Resolver) Forget(el *dom.Element) {
	delete(r.resolved, el)
}

func (r *Resolver) apply(el *dom.Element) (*Accessor, error) {
	policy, err := r.Policy(el)
	if err != nil || policy == nil {
		return nil, err
	}

	container := r.doc.GetElementByID(r.containerID)
	if container == nil {
		r.logger.Debug("no sizing container", zap.String("element", el.ID()), zap.String("container", r.containerID))
		return nil, nil
	}

	pad, err := policy.Padding.Unpack()
	if err != nil {
		return nil, &errors.WidgetError{
			Op:        "sizing.Resolve",
			Kind:      errors.KindParsing,
			ElementID: el.ID(),
			Err:       err,
		}
	}

	body := r.doc.Body()
	if policy.Padding != nil {
		body.Style().Set("margin", "0")
		body.Style().Set("padding", pad.CSS())
	}

	if policy.Fill {
		body.Style().Set("overflow", "hidden")
		body.Style().Set("width", "100%")
		body.Style().Set("height", "100%")
		root := r.doc.Root()
		root.Style().Set("width", "100%")
		root.Style().Set("height", "100%")

		cs := container.Style()
		cs.Set("position", "absolute")
		cs.Set("top", strconv.Itoa(pad.Top)+"px")
		cs.Set("right", strconv.Itoa(pad.Right)+"px")
		cs.Set("bottom", strconv.Itoa(pad.Bottom)+"px")
		cs.Set("left", strconv.Itoa(pad.Left)+"px")
		el.Style().Set("width", "100%")
		el.Style().Set("height", "100%")

		r.logger.Debug("fill sizing", zap.String("element", el.ID()), zap.String("padding", pad.CSS()))
		return &Accessor{target: container}, nil
	}

	if policy.Width.Set {
		el.Style().Set("width", policy.Width.CSS())
	}
	if policy.Height.Set {
		el.Style().Set("height", policy.Height.CSS())
	}
	r.logger.Debug("fixed sizing", zap.String("element", el.ID()),
		zap.String("width", policy.Width.CSS()), zap.String("height", policy.Height.CSS()))
	return &Accessor{target: el}, nil
}

func sidecarSource(id, mimeType string) string {
	return fmt.Sprintf("script[data-for=%q][type=%q]", id, mimeType)
}
