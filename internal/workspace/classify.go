package workspace

import (
	"io"
	"strings"
	"sync"
)

// failurePattern maps a git stderr pattern to a human-readable reason.
type failurePattern struct {
	pattern string
	reason  string
}

var failurePatterns = []failurePattern{
	{"could not resolve host", "DNS resolution failed"},
	{"name or service not known", "DNS resolution failed"},
	{"connection refused", "connection refused"},
	{"connection timed out", "connection timed out"},
	{"ssl certificate problem", "TLS certificate problem"},
	{"authentication failed", "authentication failed"},
	{"could not read username", "authentication required"},
	{"permission denied (publickey)", "authentication failed"},
	{"repository not found", "repository not found"},
	{"does not appear to be a git repository", "repository not found"},
	{"does not exist", "repository not found"},
	{"not found", "repository not found"},
}

// stderrClassifier wraps git's stderr and remembers the first known failure
// pattern it sees. All data is passed through unchanged.
type stderrClassifier struct {
	w      io.Writer
	mu     sync.Mutex
	reason string
}

func newStderrClassifier(w io.Writer) *stderrClassifier {
	if w == nil {
		w = io.Discard
	}
	return &stderrClassifier{w: w}
}

func (c *stderrClassifier) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)

	c.mu.Lock()
	if c.reason == "" {
		c.reason = classify(string(p))
	}
	c.mu.Unlock()

	return n, err
}

// Reason returns the classified failure, or "" when nothing matched.
func (c *stderrClassifier) Reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

func classify(s string) string {
	lower := strings.ToLower(s)
	for _, fp := range failurePatterns {
		if strings.Contains(lower, fp.pattern) {
			return fp.reason
		}
	}
	return ""
}
