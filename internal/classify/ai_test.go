package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// chatServer returns an httptest server replying with the given message
// content, plus a pointer to the last decoded request body.
func chatServer(t *testing.T, status int, content string) (*httptest.Server, *chatRequest) {
	t.Helper()

	var lastReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&lastReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.WriteHeader(status)
		reply := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		if err := json.NewEncoder(w).Encode(reply); err != nil {
			t.Errorf("failed to encode reply: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server, &lastReq
}

// newTestClient builds a Client pointed at the given server.
func newTestClient(server *httptest.Server) *Client {
	return NewClient(server.URL, "sk-test-key", "test-model", "spoilers about the finale",
		WithHTTPClient(server.Client()))
}

// TestClientClassifySuccess verifies the happy paths of response parsing.
func TestClientClassifySuccess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"bare object true", `{"block": true}`, true},
		{"bare object false", `{"block": false}`, false},
		{"object wrapped in prose", `Sure! Here is my answer: {"block": true} Let me know if you need more.`, true},
		{"object in code fence", "```json\n{\"block\": true}\n```", true},
		{"missing field parses as no", `{"verdict": "fine"}`, false},
		{"braces inside strings are skipped", `{"note": "weird } brace", "block": true}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server, _ := chatServer(t, http.StatusOK, tt.content)
			got, err := newTestClient(server).Classify(context.Background(), "some fragment text")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestClientClassifyRequestShape verifies what goes over the wire.
func TestClientClassifyRequestShape(t *testing.T) {
	t.Parallel()

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		if req.Temperature != classifierTemperature {
			t.Errorf("temperature = %v", req.Temperature)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Fatalf("messages = %+v, want one user message", req.Messages)
		}
		prompt := req.Messages[0].Content
		if !strings.Contains(prompt, "spoilers about the finale") {
			t.Error("prompt missing filter description")
		}
		if !strings.Contains(prompt, "the literal fragment") {
			t.Error("prompt missing literal text")
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"block\": false}"}}]}`)
	}))
	t.Cleanup(server.Close)

	if _, err := newTestClient(server).Classify(context.Background(), "the literal fragment"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer sk-test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

// TestClientClassifyErrors verifies each failure condition raises a
// classifier error instead of resolving to a verdict.
func TestClientClassifyErrors(t *testing.T) {
	t.Parallel()

	t.Run("non-2xx status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "internal error", http.StatusInternalServerError)
		}))
		t.Cleanup(server.Close)

		_, err := newTestClient(server).Classify(context.Background(), "text")
		if err == nil {
			t.Fatal("expected error for HTTP 500")
		}
		if !strings.Contains(err.Error(), "500") {
			t.Errorf("error should carry the status: %v", err)
		}
	})

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()

		server, _ := chatServer(t, http.StatusOK, "   ")
		_, err := newTestClient(server).Classify(context.Background(), "text")
		if !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("error = %v, want ErrEmptyResponse", err)
		}
	})

	t.Run("no choices", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"choices":[]}`)
		}))
		t.Cleanup(server.Close)

		_, err := newTestClient(server).Classify(context.Background(), "text")
		if !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("error = %v, want ErrEmptyResponse", err)
		}
	})

	t.Run("no JSON object in content", func(t *testing.T) {
		t.Parallel()

		server, _ := chatServer(t, http.StatusOK, "I think this should probably be blocked.")
		_, err := newTestClient(server).Classify(context.Background(), "text")
		if !errors.Is(err, ErrNoJSONObject) {
			t.Errorf("error = %v, want ErrNoJSONObject", err)
		}
	})

	t.Run("unparseable body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "not json at all")
		}))
		t.Cleanup(server.Close)

		if _, err := newTestClient(server).Classify(context.Background(), "text"); err == nil {
			t.Error("expected decode error")
		}
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		t.Parallel()

		client := NewClient("http://127.0.0.1:1/unreachable", "sk-test", "m", "d")
		if _, err := client.Classify(context.Background(), "text"); err == nil {
			t.Error("expected transport error")
		}
	})
}

// TestExtractDecision exercises the JSON-substring scanner directly.
func TestExtractDecision(t *testing.T) {
	t.Parallel()

	t.Run("skips unbalanced candidates", func(t *testing.T) {
		t.Parallel()

		d, err := extractDecision(`{oops not json {"block": true}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Block == nil || !*d.Block {
			t.Errorf("decision = %+v, want block=true", d)
		}
	})

	t.Run("nothing parseable", func(t *testing.T) {
		t.Parallel()

		if _, err := extractDecision("{{{"); !errors.Is(err, ErrNoJSONObject) {
			t.Errorf("error = %v, want ErrNoJSONObject", err)
		}
	})
}
