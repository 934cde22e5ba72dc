package errors

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"
)

var (
	handlerMu sync.RWMutex
	handler   ErrorHandler = &LogHandler{}
)

// SetHandler replaces the handler that receives reported errors. Passing
// nil restores the default, a LogHandler that discards everything.
func SetHandler(h ErrorHandler) {
	if h == nil {
		h = &LogHandler{}
	}
	handlerMu.Lock()
	handler = h
	handlerMu.Unlock()
}

func current() ErrorHandler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return handler
}

// Report hands err to the handler. It is for failures that have no
// synchronous caller: scheduled static passes and values the reactive
// session applied.
func Report(err *WidgetError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	current().HandleError(err)
}

// ReportPanic hands a recovered panic to the handler.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	current().HandlePanic(err)
}

// Recover reports a panic in progress. Use it deferred in loop callbacks:
//
//	defer errors.Recover("static.Scheduler")
func Recover(op string) {
	if r := recover(); r != nil {
		ReportPanic(&PanicError{Op: op, Value: r, StackTrace: CaptureStack()})
	}
}

// Catch runs fn and returns a panic raised by it as a *PanicError.
func Catch(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Op: op, Value: r, StackTrace: CaptureStack(), Timestamp: time.Now()}
		}
	}()
	return fn()
}

// CaptureStack returns the calling goroutine's stack, one "function
// file:line" entry per frame, without runtime frames and the recovery
// helpers of this package.
func CaptureStack() string {
	var pcs [48]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !internalFrame(f.Function) {
			fmt.Fprintf(&sb, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

const pkgPath = "github.com/go-drift/widgethost/pkg/errors."

func internalFrame(fn string) bool {
	if strings.HasPrefix(fn, "runtime.") {
		return true
	}
	for _, name := range []string{"Catch", "Recover", "CaptureStack"} {
		if strings.HasPrefix(fn, pkgPath+name) {
			return true
		}
	}
	return false
}
