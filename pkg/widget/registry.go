package widget

import (
	"fmt"
	"slices"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/go-drift/widgethost/pkg/dom"
	"github.com/go-drift/widgethost/pkg/errors"
	"go.uber.org/zap"
)

// Registry holds registered definitions in registration order. It is
// created once per host and shared by the static and reactive adapters.
type Registry struct {
	mu        sync.RWMutex
	defs      []*Definition
	byName    map[string]*Definition
	listeners []func(*Definition)
	logger    *zap.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byName: make(map[string]*Definition),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("registry")
	return r
}

// Register validates def, adapts factory definitions, fills in defaults
// and appends the result. Registration listeners run before Register
// returns. The caller's definition is not modified.
func (r *Registry) Register(def Definition) (*Definition, error) {
	normalized, err := Normalize(def)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, exists := r.byName[normalized.Name]; exists {
		r.mu.Unlock()
		return nil, configError(normalized.Name, fmt.Errorf("%w: %q", ErrDuplicateName, normalized.Name))
	}
	stored := &normalized
	r.defs = append(r.defs, stored)
	r.byName[stored.Name] = stored
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	r.logger.Debug("registered renderer",
		zap.String("name", stored.Name),
		zap.Bool("resize", stored.HasResize()),
		zap.Bool("initialize", stored.Initialize != nil))

	for _, fn := range listeners {
		fn(stored)
	}
	return stored, nil
}

// Normalize validates def and returns the registered form: factory
// definitions adapted and Find defaulted to the ".<name>" selector.
func Normalize(def Definition) (Definition, error) {
	if def.Name == "" {
		return Definition{}, configError("", ErrMissingName)
	}
	if def.Type == "" {
		return Definition{}, configError(def.Name, ErrMissingType)
	}
	if def.Type != TypeOutput {
		return Definition{}, configError(def.Name, fmt.Errorf("%w %q", ErrUnsupportedType, def.Type))
	}
	if def.Factory != nil {
		def = AdaptFactory(def)
	}
	if def.Render == nil {
		return Definition{}, configError(def.Name, ErrMissingRender)
	}
	if def.Find == nil {
		selector := "." + def.Name
		if _, err := cascadia.Compile(selector); err != nil {
			return Definition{}, configError(def.Name, fmt.Errorf("%w %q: %v", ErrInvalidName, def.Name, err))
		}
		def.Find = func(scope *dom.Element) ([]*dom.Element, error) {
			return scope.QuerySelectorAll(selector)
		}
	}
	return def, nil
}

func configError(name string, err error) error {
	return &errors.WidgetError{
		Op:     "widget.Register",
		Kind:   errors.KindConfig,
		Widget: name,
		Err:    err,
	}
}

// OnRegister adds a listener called with each definition registered after
// this call.
func (r *Registry) OnRegister(fn func(*Definition)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Definitions returns the registered definitions in registration order.
func (r *Registry) Definitions() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Definition(nil), r.defs...)
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byName[name]
	return def, ok
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
