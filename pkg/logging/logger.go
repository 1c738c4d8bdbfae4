package logging

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/creaverse/dao-rewards/pkg/config"
)

// Logger is the application logger
var Logger *zap.Logger

// InitLogger initializes the logger with the given configuration
func InitLogger(cfg *config.LoggingConfig) error {
	level := parseLevel(cfg.Level)

	if strings.EqualFold(cfg.Format, "text") {
		zapConfig := zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(level)
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		l, err := zapConfig.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
		if err != nil {
			return err
		}
		Logger = l
		return nil
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	if !cfg.ScalyrFormat {
		l, err := zapConfig.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
		if err != nil {
			return err
		}
		Logger = l
		return nil
	}

	encoderConfig := zapConfig.EncoderConfig
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	Logger = zap.New(
		zapcore.NewCore(NewScalyrEncoder(encoderConfig), zapcore.AddSync(os.Stdout), level),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	return nil
}

func parseLevel(s string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// GetLogger returns the global logger
func GetLogger() *zap.Logger {
	if Logger == nil {
		Logger, _ = zap.NewProduction()
	}
	return Logger
}

// WithComponent adds component name to logger
func WithComponent(component string) *zap.Logger {
	return GetLogger().With(zap.String("component", component))
}

// FromContext returns l enriched with the trace and span ids of the span
// carried by ctx, if any.
func FromContext(ctx context.Context, l *zap.Logger) *zap.Logger {
	if l == nil {
		l = GetLogger()
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// UserField is the conventional field for a profile id
func UserField(userID string) zap.Field {
	return zap.String("user_id", userID)
}
