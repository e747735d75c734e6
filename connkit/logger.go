package connkit

import "go.uber.org/zap"

// Logger is a minimal logging interface accepted by the library.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// noopLogger discards all logs.
type noopLogger struct{}

func (noopLogger) Debug(string, map[string]any) {}
func (noopLogger) Info(string, map[string]any)  {}
func (noopLogger) Warn(string, map[string]any)  {}
func (noopLogger) Error(string, map[string]any) {}

// NewZapLogger adapts a zap.Logger to the Logger interface.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return zapLogger{s: l.Sugar()}
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func (z zapLogger) Debug(msg string, fields map[string]any) { z.s.Debugw(msg, flatten(fields)...) }
func (z zapLogger) Info(msg string, fields map[string]any)  { z.s.Infow(msg, flatten(fields)...) }
func (z zapLogger) Warn(msg string, fields map[string]any)  { z.s.Warnw(msg, flatten(fields)...) }
func (z zapLogger) Error(msg string, fields map[string]any) { z.s.Errorw(msg, flatten(fields)...) }

func flatten(fields map[string]any) []any {
	kv := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return kv
}
