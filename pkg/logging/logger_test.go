package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/creaverse/dao-rewards/pkg/config"
)

func newTestLogger(buf *bytes.Buffer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:      "timestamp",
		LevelKey:     "level",
		MessageKey:   "message",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
	core := zapcore.NewCore(NewScalyrEncoder(encoderConfig), zapcore.AddSync(buf), zapcore.InfoLevel)
	return zap.New(core)
}

func TestScalyrEncoder(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf).With(zap.String("component", "rewards"))

	logger.Info("reward granted",
		zap.String("user_id", "u1"),
		zap.Float64("final_reward", 10.97),
		zap.Bool("flagged", false),
		zap.Duration("took", 1500*time.Millisecond),
	)

	var logObj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logObj); err != nil {
		t.Fatalf("Failed to parse JSON: %v (%s)", err, buf.String())
	}

	checks := map[string]interface{}{
		"message":      "reward granted",
		"component":    "rewards",
		"user_id":      "u1",
		"final_reward": 10.97,
		"flagged":      false,
		"took":         "1.5s",
	}
	for k, want := range checks {
		if logObj[k] != want {
			t.Errorf("field %s = %v, want %v", k, logObj[k], want)
		}
	}
	if _, ok := logObj["timestamp"]; !ok {
		t.Error("Expected 'timestamp' field in log output")
	}
}

func TestInitLogger(t *testing.T) {
	old := Logger
	defer func() { Logger = old }()

	for _, cfg := range []config.LoggingConfig{
		{Level: "DEBUG", Format: "text"},
		{Level: "INFO", Format: "json", ScalyrFormat: true},
		{Level: "bogus", Format: "json"},
	} {
		if err := InitLogger(&cfg); err != nil {
			t.Fatalf("InitLogger(%+v) error: %v", cfg, err)
		}
		if Logger == nil {
			t.Fatalf("InitLogger(%+v) left Logger nil", cfg)
		}
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := newTestLogger(&buf)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	FromContext(ctx, base).Info("traced")

	var logObj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logObj); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if logObj["trace_id"] != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace_id = %v", logObj["trace_id"])
	}

	if got := FromContext(context.Background(), base); got != base {
		t.Error("FromContext without span should return the same logger")
	}
}
