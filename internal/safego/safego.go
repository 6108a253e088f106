// Package safego launches fire-and-forget goroutines that cannot take the
// process down. A panic in a background task is logged with a stack trace and
// swallowed instead of crashing the server.
package safego

import (
	"log/slog"
	"runtime/debug"
)

// Go runs fn in a new goroutine with panic recovery. name identifies the task
// in the panic log line.
func Go(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in background task",
					"task", name,
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}
