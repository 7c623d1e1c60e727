package testsupport

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"winelens/internal/logging"
)

// LogBuffer collects log output safely across goroutines.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Contains reports whether substr was logged.
func (b *LogBuffer) Contains(substr string) bool {
	return strings.Contains(b.String(), substr)
}

// CaptureLogger returns a debug-level JSON logger writing into a buffer.
func CaptureLogger(t testing.TB) (*slog.Logger, *LogBuffer) {
	t.Helper()
	buf := &LogBuffer{}
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	return logger, buf
}
