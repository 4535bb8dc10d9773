// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package pluginapi

import "context"

// Logger is the structured log sink consumed by the lifecycle engine and by
// plugin instances. With returns a logger scoped with the given key/value
// pairs, conventionally including a "source" field derived from the
// plugin's identifier (spec.md §6).
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// Hooks are the three lifecycle callbacks a constructed plugin instance
// exposes. Implementations should observe ctx and return promptly when it
// is cancelled; the engine treats a hook that returns with ctx.Err() != nil
// as failed regardless of the returned error (spec.md §5).
type Hooks interface {
	Setup(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// InstanceFactory resolves a manifest's Main descriptor to a constructible
// Hooks implementation. This is spec.md §1's "service locator capable of
// constructing a plugin instance given its type descriptor."
type InstanceFactory interface {
	New(ctx context.Context, manifest *Manifest) (Hooks, error)
}
