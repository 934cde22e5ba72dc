// Package errors provides structured error handling for widgethost.
//
// Lifecycle failures are reported as *WidgetError values carrying the
// failing operation, a Kind, and the widget/element involved. Errors that
// have no synchronous caller (scheduled render passes, reactive error
// boundaries) are routed through the global ErrorHandler via Report.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindConfig indicates an invalid renderer definition or host setup.
	KindConfig
	// KindParsing indicates a malformed sidecar tag or payload message.
	KindParsing
	// KindEval indicates a script literal or hook that failed to evaluate.
	KindEval
	// KindRender indicates a renderer's own initialize/render/resize failed.
	KindRender
	// KindHost indicates a missing host capability.
	KindHost
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindParsing:
		return "parsing"
	case KindEval:
		return "eval"
	case KindRender:
		return "render"
	case KindHost:
		return "host"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// WidgetError represents a structured error raised while binding or
// rendering a widget.
type WidgetError struct {
	// Op is the operation that failed (e.g., "lifecycle.Deliver").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Widget is the renderer definition name, if applicable.
	Widget string
	// ElementID is the id of the element involved, if any.
	ElementID string
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *WidgetError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	sb.WriteString(" [")
	sb.WriteString(e.Kind.String())
	sb.WriteString("]")
	if e.Widget != "" {
		sb.WriteString(" widget=")
		sb.WriteString(e.Widget)
	}
	if e.ElementID != "" {
		sb.WriteString(" element=")
		sb.WriteString(e.ElementID)
	}
	sb.WriteString(": ")
	if e.Err != nil {
		sb.WriteString(e.Err.Error())
	} else {
		sb.WriteString("unknown error")
	}
	return sb.String()
}

func (e *WidgetError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "reactive.Session.Update").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ParseError represents a failure to decode a sidecar tag or message.
type ParseError struct {
	// Source describes where the data came from
	// (e.g., `script[data-for="plot1"][type="application/json"]`).
	Source string
	// DataType is the expected type name.
	DataType string
	// Err is the decoder error.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s from %s: %v", e.DataType, e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Condition is a user-facing error with declared types, as delivered by a
// reactive host for a failed output. The types become CSS class suffixes
// when the error is displayed.
type Condition struct {
	Message string
	Types   []string
}

func (c *Condition) Error() string {
	return c.Message
}

// ErrorTypes returns the declared types of the condition.
func (c *Condition) ErrorTypes() []string {
	return c.Types
}

// UnmarshalJSON accepts {"message": "...", "type": null | "t" | ["a", "b"]}.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw struct {
		Message string          `json:"message"`
		Type    json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Message = raw.Message
	c.Types = nil

	t := strings.TrimSpace(string(raw.Type))
	switch {
	case t == "" || t == "null":
		return nil
	case strings.HasPrefix(t, "["):
		return json.Unmarshal(raw.Type, &c.Types)
	default:
		var single string
		if err := json.Unmarshal(raw.Type, &single); err != nil {
			return err
		}
		c.Types = []string{single}
		return nil
	}
}

// Typed is implemented by errors that declare classification types.
type Typed interface {
	ErrorTypes() []string
}

// TypesOf returns the declared types of err, looking through wrapped
// errors. It returns nil when no error in the chain declares any.
func TypesOf(err error) []string {
	for err != nil {
		if t, ok := err.(Typed); ok {
			return t.ErrorTypes()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}

// ErrorHandler receives errors reported by widgethost.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *WidgetError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
