package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Development(t *testing.T) {
	log, err := New(true)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("development logger should enable debug level")
	}
}

func TestNew_Production(t *testing.T) {
	log, err := New(false)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("production logger should suppress debug level")
	}
	if !log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("production logger should enable info level")
	}
}

func TestMust(t *testing.T) {
	log := Must(true)
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
}
