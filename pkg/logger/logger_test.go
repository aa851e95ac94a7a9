package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithOrderID(ctx, "order-9")
	logg.Info(ctx, "hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output not json: %v", err)
	}
	if entry["request_id"] != "req-1" {
		t.Fatalf("missing request_id: %v", entry)
	}
	if entry["order_id"] != "order-9" {
		t.Fatalf("missing order_id: %v", entry)
	}
	if entry["service"] != "test" {
		t.Fatalf("missing service field: %v", entry)
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if ParseLevel("nonsense") != zerolog.InfoLevel {
		t.Fatal("expected info fallback")
	}
	if ParseLevel("debug") != zerolog.DebugLevel {
		t.Fatal("expected debug")
	}
}
