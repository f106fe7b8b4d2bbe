//go:build !dev

// Package trace records runtime/trace regions for the steps of a
// completion trigger in development builds. Release builds compile it to
// no-ops.
package trace

import "context"

// Init is a no-op in release builds
func Init() func() {
	return func() {}
}

// Task returns ctx unchanged in release builds
func Task(ctx context.Context, _ string) (context.Context, func()) {
	return ctx, func() {}
}

// Region is a no-op in release builds
func Region(_ context.Context, _ string) func() {
	return func() {}
}

// Log is a no-op in release builds
func Log(_ context.Context, _, _ string) {
}

// IsEnabled always reports false in release builds
func IsEnabled() bool {
	return false
}
