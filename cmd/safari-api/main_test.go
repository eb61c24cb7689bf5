package main

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestExitCode(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	if got := exitCode(logger, nil); got != 0 {
		t.Errorf("clean stop: exit code = %d, want 0", got)
	}
	if got := exitCode(logger, errors.New("listen tcp :8080: address in use")); got != 1 {
		t.Errorf("failed run: exit code = %d, want 1", got)
	}

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("logged %d entries, want 2", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel {
		t.Errorf("clean stop logged at %s", entries[0].Level)
	}
	if entries[1].Level != zapcore.ErrorLevel || entries[1].ContextMap()["error"] == nil {
		t.Errorf("failed run logged %+v", entries[1])
	}
}
