package script

import (
	"encoding/json"

	"github.com/dop251/goja"
)

// Function is a script function produced by evaluating a literal.
type Function struct {
	ev     *Evaluator
	value  goja.Value
	call   goja.Callable
	source string
}

// Call invokes the function with this and args converted to script values
// and returns the exported result.
func (f *Function) Call(this any, args ...any) (any, error) {
	v, err := f.CallValue(this, args...)
	if err != nil {
		return nil, err
	}
	return f.ev.export(v), nil
}

// CallValue is Call without exporting the result.
func (f *Function) CallValue(this any, args ...any) (goja.Value, error) {
	jsArgs := make([]goja.Value, len(args))
	for i, a := range args {
		jsArgs[i] = f.ev.toValue(a)
	}
	return f.call(f.ev.toValue(this), jsArgs...)
}

// Value returns the underlying script value.
func (f *Function) Value() goja.Value {
	return f.value
}

// Source returns the literal the function was evaluated from, if known.
func (f *Function) Source() string {
	return f.source
}

// MarshalJSON encodes the function as its source text.
func (f *Function) MarshalJSON() ([]byte, error) {
	src := f.source
	if src == "" && f.value != nil {
		src = f.value.String()
	}
	return json.Marshal(src)
}
