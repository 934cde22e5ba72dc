package script

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Task is a render hook: code that evaluates to a function, plus optional
// data appended to the call arguments.
//
// In JSON a task is either a string of code or {"code": ..., "data": ...}.
type Task struct {
	Code    string
	Data    any
	HasData bool
}

// UnmarshalJSON accepts both task forms.
func (t *Task) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var code string
		if err := json.Unmarshal(b, &code); err != nil {
			return err
		}
		*t = Task{Code: code}
		return nil
	}

	var obj struct {
		Code string `json:"code"`
		Data any    `json:"data"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("script: task must be a string or {code, data}: %w", err)
	}
	*t = Task{Code: obj.Code, Data: obj.Data, HasData: true}
	return nil
}

// RunTasks evaluates each task and calls the resulting function with this
// as the receiver. Every task gets args; tasks with data get it as one more
// trailing argument. The first failure stops the run.
func (e *Evaluator) RunTasks(tasks []Task, this any, args ...any) error {
	for i, task := range tasks {
		v, err := e.TryEval(task.Code)
		if err != nil {
			return err
		}
		call, ok := goja.AssertFunction(v)
		if !ok {
			return fmt.Errorf("%w; source:\n%s", ErrNotFunction, task.Code)
		}

		callArgs := args
		if task.HasData {
			callArgs = append(append([]any(nil), args...), task.Data)
		}
		jsArgs := make([]goja.Value, len(callArgs))
		for j, a := range callArgs {
			jsArgs[j] = e.toValue(a)
		}
		if _, err := call(e.toValue(this), jsArgs...); err != nil {
			return err
		}
		e.logger.Debug("ran render hook", zap.Int("index", i))
	}
	return nil
}
