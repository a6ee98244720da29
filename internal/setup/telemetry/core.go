package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

// Core implements zapcore.Core to forward error logs to OpenTelemetry as spans.
type Core struct {
	zapcore.LevelEnabler
	tracer trace.Tracer
	fields []zapcore.Field
}

// NewCore creates a new core that forwards logs to OpenTelemetry.
func NewCore(enab zapcore.LevelEnabler) zapcore.Core {
	return &Core{
		LevelEnabler: enab,
		tracer:       otel.Tracer("github.com/biasnet/influence/logs"),
	}
}

func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *Core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *Core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	if ent.Level < zapcore.ErrorLevel {
		return nil
	}

	_, span := c.tracer.Start(context.Background(), "error."+getErrorCategory(ent))
	defer span.End()

	enc := zapcore.NewMapObjectEncoder()
	for _, field := range c.fields {
		field.AddTo(enc)
	}
	for _, field := range fields {
		field.AddTo(enc)
	}

	attrs := make([]attribute.KeyValue, 0, len(enc.Fields)+3)
	attrs = append(attrs,
		attribute.String("error.message", ent.Message),
		attribute.String("error.level", ent.Level.String()),
		attribute.String("error.caller", ent.Caller.String()),
	)
	for key, value := range enc.Fields {
		attrs = append(attrs, attribute.String(key, fmt.Sprint(value)))
	}

	span.SetAttributes(attrs...)
	span.SetStatus(codes.Error, ent.Message)
	return nil
}

func (c *Core) Sync() error {
	return nil
}

// getErrorCategory determines the error category based on the log entry.
func getErrorCategory(ent zapcore.Entry) string {
	switch {
	case strings.Contains(ent.Caller.Function, "database"):
		return "database"
	case strings.Contains(ent.Caller.Function, "viewcache"), strings.Contains(ent.Caller.Function, "redis"):
		return "cache"
	case strings.Contains(ent.Caller.Function, "rest"):
		return "rest"
	case strings.Contains(ent.Caller.Function, "setup"):
		return "setup"
	default:
		return "application"
	}
}
