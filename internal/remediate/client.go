// Package remediate asks the remediation service for a fix suggestion for
// one finding at a time.
package remediate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/sastforge/internal/finding"
)

// Request defaults, shared with the service side of the contract.
const (
	DefaultModel       = "llama2"
	DefaultMaxLength   = 750
	DefaultTemperature = 0.7
	DefaultEndpoint    = "http://localhost:9000/generate"
	DefaultTimeout     = 120 * time.Second
)

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 4 << 10

// ErrUnavailable matches any *UnavailableError via errors.Is.
var ErrUnavailable = errors.New("remediation service unavailable")

// RemediationError is a non-2xx response or a malformed response body.
type RemediationError struct {
	Status int
	Body   string
}

func (e *RemediationError) Error() string {
	return fmt.Sprintf("remediation service returned %d: %s", e.Status, e.Body)
}

// UnavailableError is a transport failure or timeout talking to the service.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%v: %v", ErrUnavailable, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// GenerateRequest is the body of POST /generate. Every field is sent so the
// service never substitutes its own defaults.
type GenerateRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model"`
	MaxLength   int     `json:"max_length"`
	Temperature float64 `json:"temperature"`
}

// GenerateResponse is the success body of POST /generate.
type GenerateResponse struct {
	GeneratedText string `json:"generated_text"`
}

// Config configures a Client.
type Config struct {
	Endpoint    string // full URL of POST /generate
	Model       string
	MaxLength   int      // <= 0 = DefaultMaxLength
	Temperature *float64 // nil = DefaultTemperature, 0 is honored
	Timeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxLength <= 0 {
		c.MaxLength = DefaultMaxLength
	}
	if c.Temperature == nil {
		t := DefaultTemperature
		c.Temperature = &t
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Client calls the remediation service. One attempt per finding, no retries.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a client bound to cfg.Endpoint.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Endpoint returns the configured service URL.
func (c *Client) Endpoint() string { return c.cfg.Endpoint }

// Suggest returns a fix suggestion for f.
// Errors are *RemediationError or *UnavailableError.
func (c *Client) Suggest(ctx context.Context, f finding.Finding) (string, error) {
	prompt := BuildPrompt(f)
	body, err := json.Marshal(GenerateRequest{
		Prompt:      prompt,
		Model:       c.cfg.Model,
		MaxLength:   c.cfg.MaxLength,
		Temperature: *c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &UnavailableError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", &UnavailableError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &RemediationError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UnavailableError{Err: fmt.Errorf("read response: %w", err)}
	}
	var gr GenerateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", &RemediationError{Status: resp.StatusCode, Body: clip(string(raw), maxErrorBody)}
	}

	slog.Debug("suggestion generated", "finding", f.Location(), "elapsed", time.Since(start).Round(time.Millisecond))
	return extractSuggestion(prompt, gr.GeneratedText), nil
}

// extractSuggestion strips the echoed prompt the service prepends to its
// output, then surrounding whitespace.
func extractSuggestion(prompt, generated string) string {
	return strings.TrimSpace(strings.TrimPrefix(generated, prompt))
}
