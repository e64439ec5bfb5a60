package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseEvent(name, data string) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", name, data)
}

func textDelta(text string) string {
	b, _ := json.Marshal(map[string]any{
		"type":  "content_block_delta",
		"index": 0,
		"delta": map[string]string{"type": "text_delta", "text": text},
	})
	return sseEvent("content_block_delta", string(b))
}

func TestClaudeStream(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseEvent("message_start", `{"type":"message_start"}`))
		fmt.Fprint(w, sseEvent("ping", `{"type":"ping"}`))
		fmt.Fprint(w, textDelta("## Summary\n"))
		fmt.Fprint(w, textDelta("Looks fine."))
		fmt.Fprint(w, sseEvent("message_stop", `{"type":"message_stop"}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("test-key", srv.URL)
	defer c.Close()

	var chunks []string
	err := c.Stream(context.Background(), Request{Input: "my design", Model: "claude-x"}, func(s string) {
		chunks = append(chunks, s)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"## Summary\n", "Looks fine."}, chunks)

	assert.Equal(t, "claude-x", got.Model)
	assert.True(t, got.Stream)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, UserContent("my design"), got.Messages[0].Content)
	assert.NotContains(t, got.System, datePlaceholder)
}

func TestClaudeStreamRetryableStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, 529)
	}))
	defer srv.Close()

	err := NewClaudeClient("k", srv.URL).Stream(context.Background(), Request{Model: "m"}, func(string) {})
	var retryErr *RetryableError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, 529, retryErr.StatusCode)
}

func TestClaudeStreamClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad model"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewClaudeClient("k", srv.URL).Stream(context.Background(), Request{Model: "m"}, func(string) {})
	require.Error(t, err)
	var retryErr *RetryableError
	assert.NotErrorAs(t, err, &retryErr)
	assert.Contains(t, err.Error(), "400")
}

func TestReadAnthropicStreamErrorEvent(t *testing.T) {
	body := textDelta("partial") +
		sseEvent("error", `{"type":"error","error":{"type":"invalid_request_error","message":"nope"}}`)

	var chunks []string
	err := readAnthropicStream(strings.NewReader(body), func(s string) { chunks = append(chunks, s) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
	assert.Equal(t, []string{"partial"}, chunks)
}

func TestReadAnthropicStreamOverloaded(t *testing.T) {
	body := sseEvent("error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	err := readAnthropicStream(strings.NewReader(body), func(string) {})
	var retryErr *RetryableError
	require.ErrorAs(t, err, &retryErr)
}

func TestReadAnthropicStreamTruncated(t *testing.T) {
	err := readAnthropicStream(strings.NewReader(textDelta("a")), func(string) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message_stop")
}
