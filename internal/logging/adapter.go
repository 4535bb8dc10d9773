// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package logging

import (
	"log/slog"

	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

// SlogLogger adapts a *slog.Logger to pluginapi.Logger.
type SlogLogger struct {
	l *slog.Logger
}

var _ pluginapi.Logger = SlogLogger{}

// NewSlogLogger wraps l for consumption by the plugin lifecycle subsystem.
func NewSlogLogger(l *slog.Logger) SlogLogger {
	return SlogLogger{l: l}
}

func (s SlogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s SlogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s SlogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s SlogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// With returns a logger scoped with additional key/value pairs, conventionally
// including a "source" field derived from the plugin's identifier (spec.md §6).
func (s SlogLogger) With(args ...any) pluginapi.Logger {
	return SlogLogger{l: s.l.With(args...)}
}
