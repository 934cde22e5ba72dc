// Package script resolves JavaScript literals carried in widget payloads.
//
// Payloads can flag members of their data as code (a function literal
// passed through static JSON, for example). The Evaluator turns those
// strings into values with goja and runs render hook tasks against a
// widget instance. It is an escape hatch for trusted documents, not a
// sandbox.
package script

import (
	"errors"
	"maps"
	"slices"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// ErrNotFunction is returned when a hook task does not evaluate to a
// function.
var ErrNotFunction = errors.New("script: task must be a function")

// Evaluator evaluates script literals in a single goja runtime. It is not
// safe for concurrent use.
type Evaluator struct {
	vm     *goja.Runtime
	logger *zap.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRuntime evaluates in an existing runtime instead of a fresh one.
func WithRuntime(vm *goja.Runtime) Option {
	return func(e *Evaluator) {
		if vm != nil {
			e.vm = vm
		}
	}
}

// New returns an Evaluator. Go values exposed to scripts use lower-camel
// member names (el.addClass, el.tagName).
func New(opts ...Option) *Evaluator {
	e := &Evaluator{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.vm == nil {
		e.vm = goja.New()
		e.vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	}
	e.logger = e.logger.Named("script")
	return e
}

// Runtime returns the underlying goja runtime.
func (e *Evaluator) Runtime() *goja.Runtime {
	return e.vm
}

// Define sets a global visible to evaluated code.
func (e *Evaluator) Define(name string, value any) error {
	return e.vm.Set(name, e.toValue(value))
}

// TryEval evaluates code as written and, when that fails with a syntax
// error, again wrapped in parentheses so a bare function literal parses as
// an expression. If the retry also fails with a syntax error the first
// error is returned; any other failure of the retry is returned as is.
func (e *Evaluator) TryEval(code string) (goja.Value, error) {
	v, err := e.run(code)
	if err == nil {
		return v, nil
	}
	if !IsSyntaxError(err) {
		return nil, err
	}

	e.logger.Debug("retrying parenthesized", zap.Error(err))
	v, retryErr := e.run("(" + code + ")")
	if retryErr == nil {
		return v, nil
	}
	if IsSyntaxError(retryErr) {
		return nil, err
	}
	return nil, retryErr
}

// Eval is TryEval with the result converted to a Go value: functions
// become *Function, everything else goes through goja's Export.
func (e *Evaluator) Eval(code string) (any, error) {
	v, err := e.TryEval(code)
	if err != nil {
		return nil, err
	}
	out := e.export(v)
	if fn, ok := out.(*Function); ok {
		fn.source = code
	}
	return out, nil
}

func (e *Evaluator) run(code string) (goja.Value, error) {
	prg, err := goja.Compile("", code, false)
	if err != nil {
		return nil, err
	}
	return e.vm.RunProgram(prg)
}

// IsSyntaxError reports whether err is a script syntax error, raised either
// at compile time or by a SyntaxError thrown while running.
func IsSyntaxError(err error) bool {
	var cse *goja.CompilerSyntaxError
	if errors.As(err, &cse) {
		return true
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		if obj, ok := exc.Value().(*goja.Object); ok {
			if name := obj.Get("name"); name != nil && name.String() == "SyntaxError" {
				return true
			}
		}
	}
	return false
}

func (e *Evaluator) export(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	if call, ok := goja.AssertFunction(v); ok {
		return &Function{ev: e, value: v, call: call}
	}
	return v.Export()
}

// toValue converts Go data for a script call. Containers are wrapped live,
// so script writes land in the Go values, unless they hold *Function members:
// those are copied into script objects so the functions stay callable.
func (e *Evaluator) toValue(v any) goja.Value {
	switch v := v.(type) {
	case nil:
		return goja.Undefined()
	case goja.Value:
		return v
	case *Function:
		return v.value
	case map[string]any:
		if !holdsFunction(v) {
			return e.vm.ToValue(v)
		}
		obj := e.vm.NewObject()
		for _, k := range slices.Sorted(maps.Keys(v)) {
			_ = obj.Set(k, e.toValue(v[k]))
		}
		return obj
	case []any:
		if !holdsFunction(v) {
			return e.vm.ToValue(v)
		}
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = e.toValue(item)
		}
		return e.vm.NewArray(items...)
	default:
		return e.vm.ToValue(v)
	}
}

func holdsFunction(v any) bool {
	switch v := v.(type) {
	case *Function:
		return true
	case map[string]any:
		for _, item := range v {
			if holdsFunction(item) {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if holdsFunction(item) {
				return true
			}
		}
	}
	return false
}
