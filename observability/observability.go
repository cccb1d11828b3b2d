// Package observability defines the structured logging contract used across
// the redaction pipeline. Library packages log through the Logger interface
// and default to NopLogger; binaries install a real backend (see Slog).
package observability

import "log/slog"

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type float64Field struct {
	key string
	val float64
}

func (f float64Field) Key() string        { return f.key }
func (f float64Field) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field          { return stringField{key, value} }
func Int(key string, value int) Field         { return intField{key, value} }
func Float64(key string, value float64) Field { return float64Field{key, value} }
func Error(key string, err error) Field       { return errorField{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// Slog adapts a *slog.Logger to the Logger interface.
func Slog(l *slog.Logger) Logger { return slogLogger{l: l} }

type slogLogger struct{ l *slog.Logger }

func (s slogLogger) Debug(msg string, fields ...Field) { s.l.Debug(msg, attrs(fields)...) }
func (s slogLogger) Info(msg string, fields ...Field)  { s.l.Info(msg, attrs(fields)...) }
func (s slogLogger) Warn(msg string, fields ...Field)  { s.l.Warn(msg, attrs(fields)...) }
func (s slogLogger) Error(msg string, fields ...Field) { s.l.Error(msg, attrs(fields)...) }

func (s slogLogger) With(fields ...Field) Logger {
	return slogLogger{l: s.l.With(attrs(fields)...)}
}

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key(), f.Value()))
	}
	return out
}

// Standard metric names emitted by the pipeline.
const (
	MetricPageCount      = "docshade.pages.count"
	MetricDetectionCount = "docshade.detections.count"
	MetricRedactionCount = "docshade.redactions.count"
	MetricOCRTime        = "docshade.ocr.duration"
	MetricRasterTime     = "docshade.raster.duration"
	MetricDocumentTime   = "docshade.document.duration"
)
