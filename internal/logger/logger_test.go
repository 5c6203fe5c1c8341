package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferedJSONLogger(buf *bytes.Buffer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(buf),
		zapcore.DebugLevel,
	)

	return zap.New(core)
}

func TestProperty_LogEntriesAreStructuredJSON(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every log entry decodes as JSON with level, timestamp and message", prop.ForAll(
		func(message string, level string) bool {
			var buf bytes.Buffer
			logger := newBufferedJSONLogger(&buf)
			defer logger.Sync()

			switch level {
			case "debug":
				logger.Debug(message)
			case "warn":
				logger.Warn(message)
			case "error":
				logger.Error(message)
			default:
				logger.Info(message)
			}

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}

			if _, ok := entry["level"]; !ok {
				return false
			}
			if _, ok := entry["timestamp"]; !ok {
				return false
			}

			return entry["message"] == message
		},
		gen.AnyString(),
		gen.OneConstOf("debug", "info", "warn", "error"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_StructuredFieldsSurviveEncoding(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("typed fields appear as their own JSON keys", prop.ForAll(
		func(productID int64, quantity float64) bool {
			var buf bytes.Buffer
			logger := newBufferedJSONLogger(&buf)
			defer logger.Sync()

			logger.Info("Sale recorded",
				zap.Int64("product_id", productID),
				zap.Float64("quantity", quantity),
			)

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}

			if entry["product_id"] != float64(productID) {
				return false
			}
			_, hasQuantity := entry["quantity"]
			return hasQuantity
		},
		gen.Int64Range(1, 1_000_000),
		gen.Float64Range(0.1, 10_000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNewBuildsForBothEnvironments(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		logger, err := New(env)
		if err != nil {
			t.Fatalf("failed to build %s logger: %v", env, err)
		}
		if logger == nil {
			t.Fatalf("%s logger is nil", env)
		}
		logger.Sync()
	}
}

func TestNewWithDefaultsNeverReturnsNil(t *testing.T) {
	logger := NewWithDefaults()
	if logger == nil {
		t.Fatal("expected a usable logger")
	}
	logger.Sync()
}
