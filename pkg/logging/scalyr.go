package logging

import (
	"encoding/json"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var bufferPool = buffer.NewPool()

// ScalyrEncoder is a Zap encoder that outputs flat Scalyr-compatible JSON
type ScalyrEncoder struct {
	zapcore.Encoder
	config zapcore.EncoderConfig
	// fields added through With, kept so Clone carries them
	context []zapcore.Field
}

// NewScalyrEncoder creates a new Scalyr-compatible encoder
func NewScalyrEncoder(config zapcore.EncoderConfig) zapcore.Encoder {
	return &ScalyrEncoder{
		Encoder: zapcore.NewJSONEncoder(config),
		config:  config,
	}
}

// AddString keeps With(zap.String(...)) fields for EncodeEntry
func (e *ScalyrEncoder) AddString(key, value string) {
	e.context = append(e.context, zapcore.Field{Key: key, Type: zapcore.StringType, String: value})
}

// EncodeEntry encodes a log entry in Scalyr-compatible format
func (e *ScalyrEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	logObj := map[string]interface{}{
		"timestamp": entry.Time.UTC().Format(time.RFC3339Nano),
		"level":     entry.Level.String(),
		"message":   entry.Message,
	}
	if entry.LoggerName != "" {
		logObj["logger"] = entry.LoggerName
	}
	if entry.Caller.Defined {
		logObj["file"] = entry.Caller.TrimmedPath()
		logObj["line"] = entry.Caller.Line
	}
	if entry.Stack != "" {
		logObj["stack"] = entry.Stack
	}

	for _, field := range e.context {
		logObj[field.Key] = fieldValue(field)
	}
	for _, field := range fields {
		logObj[field.Key] = fieldValue(field)
	}

	data, err := json.Marshal(logObj)
	if err != nil {
		return nil, err
	}
	buf := bufferPool.Get()
	buf.AppendBytes(data)
	buf.AppendByte('\n')
	return buf, nil
}

func fieldValue(field zapcore.Field) interface{} {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return field.Integer
	case zapcore.Float64Type:
		enc := zapcore.NewMapObjectEncoder()
		field.AddTo(enc)
		return enc.Fields[field.Key]
	case zapcore.BoolType:
		return field.Integer == 1
	case zapcore.DurationType:
		return time.Duration(field.Integer).String()
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok {
			return err.Error()
		}
		return nil
	default:
		enc := zapcore.NewMapObjectEncoder()
		field.AddTo(enc)
		return enc.Fields[field.Key]
	}
}

// Clone creates a copy of the encoder
func (e *ScalyrEncoder) Clone() zapcore.Encoder {
	ctx := make([]zapcore.Field, len(e.context))
	copy(ctx, e.context)
	return &ScalyrEncoder{
		Encoder: e.Encoder.Clone(),
		config:  e.config,
		context: ctx,
	}
}
