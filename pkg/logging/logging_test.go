package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{logger: zap.New(core)}, logs
}

func TestLoggerStampsSessionIDFromContext(t *testing.T) {
	log, logs := newObservedLogger()

	ctx := WithSessionID(context.Background(), "abc-123")
	log.Info(ctx, "hello", zap.Int("n", 1))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["session_id"] != "abc-123" {
		t.Errorf("expected session_id abc-123, got %v", fields["session_id"])
	}
	if fields["n"] != int64(1) {
		t.Errorf("caller fields must survive, got %v", fields["n"])
	}
}

func TestLoggerDefaultsSessionIDWhenContextBare(t *testing.T) {
	log, logs := newObservedLogger()

	log.Warn(context.Background(), "hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["session_id"]; got != "no-session-id" {
		t.Errorf("expected no-session-id default, got %v", got)
	}
}

func TestLoggerFollowsSessionAcrossContexts(t *testing.T) {
	log, logs := newObservedLogger()

	log.Info(WithSessionID(context.Background(), "first"), "one")
	log.Info(WithSessionID(context.Background(), "second"), "two")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["session_id"]; got != "first" {
		t.Errorf("expected first, got %v", got)
	}
	if got := entries[1].ContextMap()["session_id"]; got != "second" {
		t.Errorf("expected second, got %v", got)
	}
}
