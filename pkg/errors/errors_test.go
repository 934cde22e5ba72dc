package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWidgetErrorString(t *testing.T) {
	err := &WidgetError{
		Op:        "lifecycle.Deliver",
		Kind:      KindRender,
		Widget:    "canvas",
		ElementID: "plot1",
		Err:       stderrors.New("boom"),
	}
	want := "lifecycle.Deliver [render] widget=canvas element=plot1: boom"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWidgetErrorWithoutCause(t *testing.T) {
	err := &WidgetError{Op: "widget.Register", Kind: KindConfig}
	if got := err.Error(); !strings.HasSuffix(got, "unknown error") {
		t.Errorf("Error() = %q, want unknown error suffix", got)
	}
}

func TestWidgetErrorUnwrap(t *testing.T) {
	cause := stderrors.New("cause")
	err := fmt.Errorf("outer: %w", &WidgetError{Op: "x", Err: cause})
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	var we *WidgetError
	if !stderrors.As(err, &we) {
		t.Fatal("errors.As should find *WidgetError")
	}
	if we.Op != "x" {
		t.Errorf("Op = %q, want x", we.Op)
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindConfig, "config"},
		{KindParsing, "parsing"},
		{KindEval, "eval"},
		{KindRender, "render"},
		{KindHost, "host"},
		{KindPanic, "panic"},
		{ErrorKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestParseErrorString(t *testing.T) {
	err := &ParseError{Source: "script#x", DataType: "Payload", Err: stderrors.New("bad json")}
	want := "failed to parse Payload from script#x: bad json"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestConditionUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Condition
	}{
		{"absent", `{"message":"m"}`, Condition{Message: "m"}},
		{"null", `{"message":"m","type":null}`, Condition{Message: "m"}},
		{"single", `{"message":"m","type":"validation"}`, Condition{Message: "m", Types: []string{"validation"}}},
		{"list", `{"message":"m","type":["a","b"]}`, Condition{Message: "m", Types: []string{"a", "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Condition
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Condition mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTypesOfLooksThroughWrapping(t *testing.T) {
	cond := &Condition{Message: "m", Types: []string{"shiny.silent.error"}}
	err := &WidgetError{Op: "x", Err: fmt.Errorf("wrapped: %w", cond)}
	if diff := cmp.Diff([]string{"shiny.silent.error"}, TypesOf(err)); diff != "" {
		t.Errorf("TypesOf mismatch (-want +got):\n%s", diff)
	}
	if got := TypesOf(stderrors.New("plain")); got != nil {
		t.Errorf("TypesOf(plain) = %v, want nil", got)
	}
	if got := TypesOf(nil); got != nil {
		t.Errorf("TypesOf(nil) = %v, want nil", got)
	}
}

func useHandler(t *testing.T, h ErrorHandler) {
	t.Helper()
	SetHandler(h)
	t.Cleanup(func() { SetHandler(nil) })
}

func TestReportSetsTimestamp(t *testing.T) {
	var captured *WidgetError
	useHandler(t, &testHandler{onError: func(err *WidgetError) { captured = err }})

	Report(&WidgetError{Op: "static.RenderAll", Kind: KindRender})
	if captured == nil {
		t.Fatal("expected error to be captured")
	}
	if captured.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}

	Report(nil)
}

func TestRecoverReportsPanic(t *testing.T) {
	var captured *PanicError
	useHandler(t, &testHandler{onPanic: func(err *PanicError) { captured = err }})

	func() {
		defer Recover("static.Scheduler")
		panic("kaboom")
	}()

	if captured == nil {
		t.Fatal("expected panic to be captured")
	}
	if captured.Op != "static.Scheduler" || captured.Value != "kaboom" || captured.Timestamp.IsZero() {
		t.Errorf("captured = %+v", captured)
	}
}

func TestCatch(t *testing.T) {
	useHandler(t, &testHandler{onPanic: func(*PanicError) { t.Error("Catch must not report") }})

	err := Catch("reactive.Session.Update", func() error { panic(42) })
	var pe *PanicError
	if !stderrors.As(err, &pe) {
		t.Fatalf("expected *PanicError, got %v", err)
	}
	if pe.Value != 42 || pe.Op != "reactive.Session.Update" {
		t.Errorf("panic error = %+v", pe)
	}
	if !strings.Contains(pe.StackTrace, "TestCatch") {
		t.Errorf("stack should include the panicking caller:\n%s", pe.StackTrace)
	}

	want := stderrors.New("plain")
	if got := Catch("x", func() error { return want }); got != want {
		t.Errorf("Catch returned %v, want %v", got, want)
	}
}

func TestSetHandlerNilRestoresDefault(t *testing.T) {
	SetHandler(&testHandler{})
	SetHandler(nil)
	if _, ok := current().(*LogHandler); !ok {
		t.Errorf("handler = %T, want *LogHandler", current())
	}
}

func TestLogHandlerWritesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	h := &LogHandler{Logger: zap.New(core), Verbose: true}

	h.HandleError(&WidgetError{
		Op:         "lifecycle.Bind",
		Kind:       KindRender,
		Widget:     "canvas",
		ElementID:  "plot1",
		Err:        stderrors.New("boom"),
		StackTrace: "stack",
	})
	h.HandlePanic(&PanicError{Op: "reactive.Update", Value: "oops"})
	h.HandleError(nil)
	h.HandlePanic(nil)

	if logs.Len() != 2 {
		t.Fatalf("got %d log entries, want 2", logs.Len())
	}
	entry := logs.All()[0]
	fields := entry.ContextMap()
	if fields["widget"] != "canvas" || fields["element"] != "plot1" {
		t.Errorf("fields = %v", fields)
	}
	if fields["stack"] != "stack" {
		t.Errorf("verbose handler should log the stack, got %v", fields["stack"])
	}
}

func TestLogHandlerNilLogger(t *testing.T) {
	h := &LogHandler{}
	h.HandleError(&WidgetError{Op: "x"})
	h.HandlePanic(&PanicError{Op: "x"})
}

type testHandler struct {
	onError func(*WidgetError)
	onPanic func(*PanicError)
}

func (h *testHandler) HandleError(err *WidgetError) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *testHandler) HandlePanic(err *PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}
