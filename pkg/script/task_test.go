package script

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type counter struct {
	Calls []string
}

func (c *counter) Record(s string) {
	c.Calls = append(c.Calls, s)
}

func TestTask_UnmarshalJSON(t *testing.T) {
	var tasks []Task
	src := `["function(el, x) {}", {"code": "function(el, x, d) {}", "data": {"k": 1}}, {"code": "f"}]`
	if err := json.Unmarshal([]byte(src), &tasks); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	want := []Task{
		{Code: "function(el, x) {}"},
		{Code: "function(el, x, d) {}", Data: map[string]any{"k": float64(1)}, HasData: true},
		{Code: "f", HasData: true},
	}
	if diff := cmp.Diff(want, tasks); diff != "" {
		t.Errorf("tasks mismatch (-want +got):\n%s", diff)
	}

	var bad Task
	if err := json.Unmarshal([]byte(`42`), &bad); err == nil {
		t.Error("expected an error for a numeric task")
	}
}

func TestRunTasks(t *testing.T) {
	ev := New()
	instance := &counter{}
	tasks := []Task{
		{Code: "function(el, x) { this.record(el + ':' + x.v); }"},
		{Code: "function(el, x, d) { this.record(d.tag); }", Data: map[string]any{"tag": "with-data"}, HasData: true},
	}

	x := map[string]any{"v": "one"}
	if err := ev.RunTasks(tasks, instance, "plot", x); err != nil {
		t.Fatalf("RunTasks: %v", err)
	}
	if diff := cmp.Diff([]string{"plot:one", "with-data"}, instance.Calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRunTasks_WritesReachGoValues(t *testing.T) {
	ev := New()
	instance := map[string]any{"n": 1}
	x := map[string]any{"v": 1, "points": []any{1, 2}}
	tasks := []Task{{Code: "function(el, x) { this.touched = true; x.seen = true; x.points[0] = 9; }"}}

	if err := ev.RunTasks(tasks, instance, nil, x); err != nil {
		t.Fatalf("RunTasks: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"n": 1, "touched": true}, instance); diff != "" {
		t.Errorf("instance mismatch (-want +got):\n%s", diff)
	}
	want := map[string]any{"v": 1, "seen": true, "points": []any{int64(9), 2}}
	if diff := cmp.Diff(want, x); diff != "" {
		t.Errorf("x mismatch (-want +got):\n%s", diff)
	}
}

func TestRunTasks_FunctionMembersStayCallable(t *testing.T) {
	ev := New()
	fn, err := ev.Eval("function() { return 42; }")
	if err != nil {
		t.Fatal(err)
	}
	instance := map[string]any{}
	x := map[string]any{"callback": fn}
	tasks := []Task{{Code: "function(el, x) { this.result = x.callback(); }"}}

	if err := ev.RunTasks(tasks, instance, nil, x); err != nil {
		t.Fatalf("RunTasks: %v", err)
	}
	if got := instance["result"]; got != int64(42) {
		t.Errorf("result = %#v, want 42", got)
	}
}

func TestRunTasks_NotFunction(t *testing.T) {
	ev := New()
	instance := &counter{}
	tasks := []Task{
		{Code: "function() { this.record('first'); }"},
		{Code: "1 + 1"},
		{Code: "function() { this.record('never'); }"},
	}

	err := ev.RunTasks(tasks, instance)
	if !errors.Is(err, ErrNotFunction) {
		t.Fatalf("expected ErrNotFunction, got %v", err)
	}
	if diff := cmp.Diff([]string{"first"}, instance.Calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRunTasks_EvalError(t *testing.T) {
	ev := New()
	err := ev.RunTasks([]Task{{Code: "function("}}, nil)
	if !IsSyntaxError(err) {
		t.Errorf("expected a syntax error, got %v", err)
	}
}
