package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxResponseBody limits how much of a classifier reply is read.
// Replies are a few hundred bytes; anything near this limit is hostile.
const maxResponseBody = 1 * 1024 * 1024 // 1MB

// classifierTemperature is the low-temperature hint sent with every request.
// The classifier answers a boolean; sampling variety only hurts.
const classifierTemperature = 0.1

// AIClassifier is the contract the engine consumes for the remote layer.
// Implementations return the block decision or an error; they never decide
// the fail-open outcome themselves. That is the engine's job.
type AIClassifier interface {
	Classify(ctx context.Context, text string) (bool, error)
}

// Client calls a chat-completions endpoint to classify text against a
// natural-language filter description.
//
// Exactly one non-streaming request per call: no retries, no batching, no
// backoff, no internal timeout beyond the HTTP client's own. A fragment is
// cheap; an accidental retry storm against a paid endpoint is not.
type Client struct {
	// httpClient performs the requests. Its Timeout is the only stall
	// protection the classifier relies on.
	httpClient *http.Client

	// endpoint is the chat-completions URL.
	endpoint string

	// apiKey authenticates the request.
	apiKey string

	// model is the model identifier sent with each request.
	model string

	// filterDescription is the user's criterion, embedded verbatim in the
	// prompt.
	filterDescription string

	// logger is used for request-level diagnostics.
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (tests use httptest's).
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithEndpoint sets a custom chat-completions URL.
func WithEndpoint(endpoint string) ClientOption {
	return func(cl *Client) {
		cl.endpoint = endpoint
	}
}

// WithClientLogger sets a custom logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// NewClient creates a classifier client.
func NewClient(endpoint, apiKey, model, filterDescription string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:        &http.Client{Timeout: 30 * time.Second},
		endpoint:          endpoint,
		apiKey:            apiKey,
		model:             model,
		filterDescription: filterDescription,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// chatRequest is the request body for the chat-completions endpoint.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// chatMessage is a single chat turn.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the reply we read.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// decision is the bounded-format answer the model is instructed to return.
// Block is a pointer so a parsed object missing the field is distinguishable
// from an explicit false; both resolve to "do not block".
type decision struct {
	Block *bool `json:"block"`
}

// Classify sends one classification request and returns the block decision.
//
// Failure conditions (non-2xx status, empty body, no JSON object anywhere
// in the reply) each return an error carrying the offending detail. A reply
// whose JSON object parses but lacks the boolean field is a false verdict,
// not an error.
func (c *Client) Classify(ctx context.Context, text string) (bool, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: c.buildPrompt(text)},
		},
		Temperature: classifierTemperature,
	})
	if err != nil {
		return false, fmt.Errorf("failed to encode classifier request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to build classifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close on read path

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return false, fmt.Errorf("failed to read classifier response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("classifier returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(truncate(raw, 200))))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return false, fmt.Errorf("failed to decode classifier response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return false, ErrEmptyResponse
	}
	content := parsed.Choices[0].Message.Content

	d, err := extractDecision(content)
	if err != nil {
		return false, fmt.Errorf("%w: %s", err, truncate([]byte(content), 200))
	}

	if d.Block == nil {
		// Object parsed but the field is missing: the model answered,
		// just not in-format. Treat as "no".
		c.logger.Debug("classifier reply missing block field", "content", snippet(content))
		return false, nil
	}
	return *d.Block, nil
}

// buildPrompt embeds the filter description and the literal text in a
// single-turn instruction with a bounded-format answer.
func (c *Client) buildPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are a content filter. Filter criterion: ")
	b.WriteString(c.filterDescription)
	b.WriteString("\n\nDecide whether the following text matches the criterion.\n")
	b.WriteString(`Respond with only a JSON object of the form {"block": true} or {"block": false}.`)
	b.WriteString("\n\nText:\n")
	b.WriteString(text)
	return b.String()
}

// extractDecision locates and parses the first JSON object embedded anywhere
// in content. Models wrap answers in prose or code fences, so we scan for
// balanced-brace candidates starting at each '{' until one parses.
func extractDecision(content string) (decision, error) {
	for start := 0; start < len(content); start++ {
		if content[start] != '{' {
			continue
		}
		candidate, ok := balancedObject(content[start:])
		if !ok {
			continue
		}
		var d decision
		if err := json.Unmarshal([]byte(candidate), &d); err == nil {
			return d, nil
		}
	}
	return decision{}, ErrNoJSONObject
}

// balancedObject returns the shortest prefix of s that forms a
// brace-balanced object, tracking JSON string boundaries so braces inside
// strings don't count.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// truncate bounds diagnostic detail included in error messages.
func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

// snippet bounds reply content included in debug logs.
func snippet(s string) string {
	return string(truncate([]byte(s), 200))
}
