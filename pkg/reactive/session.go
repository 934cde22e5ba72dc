package reactive

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/go-drift/widgethost/pkg/deps"
	"github.com/go-drift/widgethost/pkg/dom"
	werrors "github.com/go-drift/widgethost/pkg/errors"
	"go.uber.org/zap"
)

// Session errors.
var (
	ErrDuplicateBinding = errors.New("reactive: binding already registered")
	ErrUnknownOutput    = errors.New("reactive: unknown output")
)

type output struct {
	el      *dom.Element
	binding OutputBinding
}

type namedBinding struct {
	name    string
	binding OutputBinding
}

// Session is an in-process reactive host. It discovers outputs through the
// registered bindings and routes values and errors to them. Failures while
// handling a value never escape Update: they are shown on the output and
// sent to errors.Report.
type Session struct {
	doc      *dom.Document
	deps     *deps.Resolver
	defaults Defaults
	logger   *zap.Logger

	bindings []namedBinding
	outputs  map[string]output
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the logger.
func WithSessionLogger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaults sets the host defaults bindings fall back to.
func WithDefaults(d Defaults) SessionOption {
	return func(s *Session) { s.defaults = d }
}

// WithDependencyResolver sets the resolver used by RenderDependencies.
func WithDependencyResolver(r *deps.Resolver) SessionOption {
	return func(s *Session) { s.deps = r }
}

// NewSession returns a Session for doc.
func NewSession(doc *dom.Document, opts ...SessionOption) *Session {
	s := &Session{
		doc:     doc,
		logger:  zap.NewNop(),
		outputs: make(map[string]output),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.deps == nil {
		s.deps = deps.NewResolver(doc, deps.WithLogger(s.logger))
	}
	s.logger = s.logger.Named("session")
	return s
}

// Register adds a binding under name.
func (s *Session) Register(b OutputBinding, name string) error {
	for _, nb := range s.bindings {
		if nb.name == name {
			return fmt.Errorf("%w: %q", ErrDuplicateBinding, name)
		}
	}
	s.bindings = append(s.bindings, namedBinding{name: name, binding: b})
	s.logger.Debug("registered output binding", zap.String("name", name))
	return nil
}

// RenderDependencies injects deps into the document.
func (s *Session) RenderDependencies(d []deps.Dependency) error {
	return s.deps.Render(d)
}

// Defaults returns the host defaults.
func (s *Session) Defaults() Defaults {
	return s.defaults
}

// Bindings returns the registered binding names in order.
func (s *Session) Bindings() []string {
	names := make([]string, len(s.bindings))
	for i, nb := range s.bindings {
		names[i] = nb.name
	}
	return names
}

// BindAll asks every binding, in registration order, for outputs under
// scope (the document root when nil) and returns the ids newly bound.
// Elements without an id, or whose id is already bound, are skipped.
func (s *Session) BindAll(scope *dom.Element) ([]string, error) {
	if scope == nil {
		scope = s.doc.Root()
	}
	var ids []string
	for _, nb := range s.bindings {
		els, err := nb.binding.Find(scope)
		if err != nil {
			return ids, fmt.Errorf("reactive: find %s: %w", nb.name, err)
		}
		for _, el := range els {
			id := nb.binding.GetID(el)
			if id == "" {
				continue
			}
			if _, bound := s.outputs[id]; bound {
				continue
			}
			s.outputs[id] = output{el: el, binding: nb.binding}
			ids = append(ids, id)
		}
	}
	s.logger.Debug("bound outputs", zap.Strings("ids", ids))
	return ids, nil
}

// Outputs returns the bound output ids, sorted.
func (s *Session) Outputs() []string {
	return slices.Sorted(maps.Keys(s.outputs))
}

// Element returns the element bound to output id.
func (s *Session) Element(id string) (*dom.Element, bool) {
	o, ok := s.outputs[id]
	return o.el, ok
}

func (s *Session) lookup(id string) (output, error) {
	o, ok := s.outputs[id]
	if !ok {
		return output{}, fmt.Errorf("%w: %q", ErrUnknownOutput, id)
	}
	return o, nil
}

// Update delivers a new value to output id. It clears the output's error
// display and progress state first. A failure or panic while handling the
// value goes to the binding's OnValueError and errors.Report; only an
// unknown id is returned as an error.
func (s *Session) Update(id string, value json.RawMessage) error {
	o, err := s.lookup(id)
	if err != nil {
		return err
	}
	o.binding.ShowProgress(o.el, false)
	o.binding.ClearError(o.el)

	err = werrors.Catch("reactive.Session.Update", func() error { return o.binding.OnValueChange(o.el, value) })
	if err != nil {
		s.logger.Debug("value failed", zap.String("id", id), zap.Error(err))
		o.binding.OnValueError(o.el, err)
		werrors.Report(asWidgetError(err, "reactive.Session.Update", o.el))
	}
	return nil
}

// Fail shows a server-side error on output id.
func (s *Session) Fail(id string, err error) error {
	o, lookupErr := s.lookup(id)
	if lookupErr != nil {
		return lookupErr
	}
	o.binding.ShowProgress(o.el, false)
	o.binding.OnValueError(o.el, err)
	return nil
}

// Progress marks output id as recalculating, or not.
func (s *Session) Progress(id string, show bool) error {
	o, err := s.lookup(id)
	if err != nil {
		return err
	}
	o.binding.ShowProgress(o.el, show)
	return nil
}

// Resize forwards a size to output id. Outputs whose binding does not
// resize ignore it.
func (s *Session) Resize(id string, width, height int) error {
	o, err := s.lookup(id)
	if err != nil {
		return err
	}
	if !o.binding.HasResize() {
		return nil
	}
	return o.binding.Resize(o.el, width, height)
}

// Message is a batch of output updates.
type Message struct {
	Values map[string]json.RawMessage    `json:"values"`
	Errors map[string]*werrors.Condition `json:"errors"`
}

// Apply decodes and applies a Message: values first, then errors, each in
// id order. Unknown ids are collected into the returned error; the rest of
// the batch still applies.
func (s *Session) Apply(data []byte) error {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return &werrors.WidgetError{
			Op:   "reactive.Session.Apply",
			Kind: werrors.KindParsing,
			Err:  &werrors.ParseError{Source: "session message", DataType: "message", Err: err},
		}
	}

	var errs []error
	for _, id := range slices.Sorted(maps.Keys(msg.Values)) {
		if err := s.Update(id, msg.Values[id]); err != nil {
			errs = append(errs, err)
		}
	}
	for _, id := range slices.Sorted(maps.Keys(msg.Errors)) {
		cond := msg.Errors[id]
		if cond == nil {
			continue
		}
		if err := s.Fail(id, cond); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func asWidgetError(err error, op string, el *dom.Element) *werrors.WidgetError {
	var we *werrors.WidgetError
	if errors.As(err, &we) {
		return we
	}
	kind := werrors.KindRender
	var pe *werrors.PanicError
	if errors.As(err, &pe) {
		kind = werrors.KindPanic
	}
	return &werrors.WidgetError{Op: op, Kind: kind, ElementID: el.ID(), Err: err}
}
