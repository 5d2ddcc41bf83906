package testutil

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shipkey/shipkey/internal/logging"
)

// LogCapture records everything a logging.Logger writes so tests can check
// that values never reach the logs.
//
//	logger, logs := testutil.NewLogCapture(true)
//	store := backends.NewOnePassword(backends.Deps{Logger: logger, ...})
//	...
//	logs.AssertNotContains(t, "sk-secret")
type LogCapture struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

// NewLogCapture returns an uncoloured logger writing to a new capture.
func NewLogCapture(debug bool) (*logging.Logger, *LogCapture) {
	c := &LogCapture{}
	return logging.NewWithWriter(c, debug, true), c
}

func (c *LogCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer.Write(p)
}

// Output returns everything captured so far.
func (c *LogCapture) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer.String()
}

// Lines returns the non-empty captured lines.
func (c *LogCapture) Lines() []string {
	var out []string
	for _, line := range strings.Split(c.Output(), "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func (c *LogCapture) AssertContains(t *testing.T, substr string) {
	t.Helper()
	assert.Contains(t, c.Output(), substr, "Expected log output to contain %q", substr)
}

func (c *LogCapture) AssertNotContains(t *testing.T, substr string) {
	t.Helper()
	assert.NotContains(t, c.Output(), substr, "Expected log output to NOT contain %q", substr)
}

// AssertLogCount checks how many lines carry the glyph of level
// (info, warn, error or debug).
func (c *LogCapture) AssertLogCount(t *testing.T, level string, count int) {
	t.Helper()

	var marker string
	switch level {
	case "info":
		marker = "✓"
	case "warn":
		marker = "⚠"
	case "error":
		marker = "✗"
	case "debug":
		marker = "[DEBUG]"
	default:
		t.Fatalf("Unknown log level: %s", level)
	}
	assert.Equal(t, count, strings.Count(c.Output(), marker), "Expected %d %s log messages", count, level)
}
