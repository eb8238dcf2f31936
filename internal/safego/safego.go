// Package safego launches background goroutines that survive panics. The
// audit trail writer and the invitation expiry sweep both run fire-and-forget;
// a panic in either must not take the API down or die unnoticed.
package safego

import (
	"log/slog"
	"runtime/debug"
)

// Go runs fn in a new goroutine, recovering and logging any panic together
// with its stack trace.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background goroutine",
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}
