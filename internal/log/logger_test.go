package log

import (
	"context"
	"log/slog"
	"testing"
)

// captureHandler records emitted records so tests can inspect their attrs.
type captureHandler struct {
	records []slog.Record
	attrs   []slog.Attr
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.attrs = append(h.attrs, attrs...)
	return h
}

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func componentCount(h *captureHandler, r slog.Record) int {
	count := 0
	for _, a := range h.attrs {
		if a.Key == FieldComponent {
			count++
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == FieldComponent {
			count++
		}
		return true
	})
	return count
}

func TestLoggerTagsComponentOnce(t *testing.T) {
	h := &captureHandler{}
	logger := New(ComponentApp, Config{Handler: h})

	logger.Info("starting")

	if len(h.records) != 1 {
		t.Fatalf("records = %d, want 1", len(h.records))
	}
	if n := componentCount(h, h.records[0]); n != 1 {
		t.Errorf("component attrs = %d, want 1", n)
	}
}

func TestWithComponentTagsOnce(t *testing.T) {
	h := &captureHandler{}
	logger := New(ComponentApp, Config{Handler: h}).WithComponent(ComponentLedger)

	logger.Info("loading snapshot")

	if len(h.records) != 1 {
		t.Fatalf("records = %d, want 1", len(h.records))
	}
	if n := componentCount(h, h.records[0]); n != 1 {
		t.Errorf("component attrs = %d, want 1", n)
	}

	var got string
	h.records[0].Attrs(func(a slog.Attr) bool {
		if a.Key == FieldComponent {
			got = a.Value.String()
		}
		return true
	})
	if got != ComponentLedger {
		t.Errorf("component = %q, want %q", got, ComponentLedger)
	}
}

func TestWithKeepsComponent(t *testing.T) {
	h := &captureHandler{}
	logger := New(ComponentStorage, Config{Handler: h}).With("table", "transactions")

	logger.Warn("slow query")

	if len(h.records) != 1 {
		t.Fatalf("records = %d, want 1", len(h.records))
	}
	if n := componentCount(h, h.records[0]); n != 1 {
		t.Errorf("component attrs = %d, want 1", n)
	}
	if logger.Component() != ComponentStorage {
		t.Errorf("component = %q, want %q", logger.Component(), ComponentStorage)
	}
}
