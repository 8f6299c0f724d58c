// Package mocklogger provides a capturing slog handler for tests that
// assert on engine log output.
package mocklogger

import (
	"context"
	"log/slog"
	"sync"
)

type MockHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *MockHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *MockHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *MockHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

func (h *MockHandler) WithGroup(_ string) slog.Handler { return h }

// Messages returns every logged message in order.
func (h *MockHandler) Messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.records))
	for i, r := range h.records {
		out[i] = r.Message
	}
	return out
}

// HasLevel reports whether any record was logged at the given level.
func (h *MockHandler) HasLevel(level slog.Level) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if r.Level == level {
			return true
		}
	}
	return false
}

// NewMockLogger returns a logger backed by a fresh capturing handler.
func NewMockLogger() (*slog.Logger, *MockHandler) {
	handler := &MockHandler{}
	return slog.New(handler), handler
}
