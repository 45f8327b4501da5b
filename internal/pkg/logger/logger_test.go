package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInitAndLevel(t *testing.T) {
	if err := Init("debug", "console"); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	if got := GetLevel(); got != zapcore.DebugLevel {
		t.Errorf("GetLevel() = %v, want debug", got)
	}

	if err := SetLevel("warn"); err != nil {
		t.Fatalf("SetLevel() error: %v", err)
	}
	if got := GetLevel(); got != zapcore.WarnLevel {
		t.Errorf("GetLevel() after SetLevel = %v, want warn", got)
	}

	// Init is once-only; a second call with a bad level must not error.
	if err := Init("not-a-level", "json"); err != nil {
		t.Errorf("second Init() error: %v", err)
	}
}

func TestLoggerAccessors(t *testing.T) {
	_ = Init("info", "json")

	if L() == nil {
		t.Fatal("L() returned nil")
	}
	if S() == nil {
		t.Fatal("S() returned nil")
	}
	if With() == nil {
		t.Fatal("With() returned nil")
	}

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")
	_ = Sync()
}
