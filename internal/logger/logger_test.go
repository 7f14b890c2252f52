package logger

import (
	"testing"
)

func TestDefaultLoggerIsUsable(t *testing.T) {
	if Logger == nil {
		t.Fatal("Logger should be initialised at package load")
	}
	// Must not panic before Initialize.
	Logger.Infow("noop", "k", "v")
}

func TestInitializeConsole(t *testing.T) {
	if err := Initialize(false, true); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if JSONOutput {
		t.Error("JSONOutput should be false for console output")
	}
	if Named("aggregate") == nil {
		t.Error("Named should return a logger")
	}
}

func TestInitializeJSON(t *testing.T) {
	if err := Initialize(true, false); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if !JSONOutput {
		t.Error("JSONOutput should be true")
	}
}
