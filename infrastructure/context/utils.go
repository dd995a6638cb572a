// Package context provides shared timeout helpers.
package context

import (
	"context"
	"time"
)

const (
	// DefaultShutdownTimeout bounds graceful shutdown of servers and schedulers.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultPingTimeout bounds a single ping of a database or cache.
	DefaultPingTimeout = 5 * time.Second
)

// WithShutdownTimeout derives a context with the default shutdown timeout.
// parent may already be cancelled; shutdown then starts from Background.
func WithShutdownTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent.Err() != nil {
		parent = context.WithoutCancel(parent)
	}
	return context.WithTimeout(parent, DefaultShutdownTimeout)
}

// WithPingTimeout derives a context with the default ping timeout.
func WithPingTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultPingTimeout)
}
