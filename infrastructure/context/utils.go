// Package context holds the timeout budgets shared by start-up and health code.
package context

import (
	"context"
	"time"
)

const (
	DefaultPingTimeout     = 5 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// WithPingTimeout bounds a single liveness probe against a dependency.
func WithPingTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultPingTimeout)
}

// WithShutdownTimeout bounds resource teardown on exit.
func WithShutdownTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), DefaultShutdownTimeout)
}
