// Package safego provides a panic-recovering goroutine launcher for post-commit work
// such as audit shipping.
package safego

import (
	"fmt"
	"log/slog"
)

// Go launches fn in a new goroutine labelled task. A panic in fn is recovered and
// logged instead of crashing the process.
func Go(task string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background goroutine", "task", task, "panic", fmt.Sprint(r))
			}
		}()
		fn()
	}()
}
