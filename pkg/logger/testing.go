package logger

import (
	"log/slog"
	"testing"
)

// UseTestLogger routes the package logger to t.Log for the duration of the test.
func UseTestLogger(t testing.TB) {
	t.Helper()
	prev := SetDefault(slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
	t.Cleanup(func() { SetDefault(prev) })
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
