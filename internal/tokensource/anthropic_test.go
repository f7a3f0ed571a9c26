package tokensource

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardroom/internal/types"
)

// sseHandler writes pre-baked SSE lines and closes the connection.
func sseHandler(lines []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
		}
	}
}

func newStreamingClient(t *testing.T, handler http.HandlerFunc) *AnthropicClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultAnthropicConfig("test-key")
	cfg.BaseURL = srv.URL
	cfg.Timeout = 5 * time.Second
	return NewAnthropicClientWithConfig(cfg)
}

func collectEvents(t *testing.T, events <-chan types.Event, errs <-chan error) ([]types.Event, error) {
	t.Helper()
	var got []types.Event
	for e := range events {
		got = append(got, e)
	}
	return got, <-errs
}

func TestAnthropicStreamMessage(t *testing.T) {
	client := newStreamingClient(t, sseHandler([]string{
		`event: message_start`,
		`data: {"type":"message_start","message":{"id":"msg_123"}}`,
		``,
		`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"Hello"}}`,
		``,
		`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":" world"}}`,
		``,
		`data: {"type":"ping"}`,
		``,
		`data: {"type":"message_stop"}`,
		``,
	}))

	events, errs := client.StreamMessage(context.Background(), "be brief", []types.ChatMessage{
		{Role: types.RoleUser, Content: "hi"},
	})
	got, err := collectEvents(t, events, errs)
	require.NoError(t, err)

	require.Len(t, got, 5)
	assert.Equal(t, types.EventMessageStart, got[0].Kind)
	assert.Equal(t, "msg_123", got[0].MessageID)
	assert.Equal(t, types.EventContentDelta, got[1].Kind)
	assert.Equal(t, "Hello", got[1].Text)
	assert.Equal(t, " world", got[2].Text)
	assert.Equal(t, types.EventOther, got[3].Kind)
	assert.Equal(t, types.EventMessageStop, got[4].Kind)
}

func TestAnthropicStreamMessage_UpstreamError(t *testing.T) {
	client := newStreamingClient(t, sseHandler([]string{
		`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"partial"}}`,
		``,
		`data: {"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`,
		``,
	}))

	events, errs := client.StreamMessage(context.Background(), "", nil)
	got, err := collectEvents(t, events, errs)

	require.Len(t, got, 1)
	assert.Equal(t, "partial", got[0].Text)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestAnthropicStreamMessage_HTTPFailure(t *testing.T) {
	client := newStreamingClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
	})

	events, errs := client.StreamMessage(context.Background(), "", nil)
	got, err := collectEvents(t, events, errs)

	assert.Empty(t, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestAnthropicStreamMessage_NoAPIKey(t *testing.T) {
	cfg := DefaultAnthropicConfig("")
	cfg.Timeout = time.Second
	client := NewAnthropicClientWithConfig(cfg)

	events, errs := client.StreamMessage(context.Background(), "", nil)
	got, err := collectEvents(t, events, errs)

	assert.Empty(t, got)
	assert.Error(t, err)
}

func TestParseAnthropicEvent(t *testing.T) {
	t.Run("malformed payload forwards as other", func(t *testing.T) {
		evt, err := parseAnthropicEvent("{not json")
		require.NoError(t, err)
		assert.Equal(t, types.EventOther, evt.Kind)
		assert.Equal(t, "{not json", evt.Raw)
	})

	t.Run("unknown type forwards as other", func(t *testing.T) {
		evt, err := parseAnthropicEvent(`{"type":"content_block_start"}`)
		require.NoError(t, err)
		assert.Equal(t, types.EventOther, evt.Kind)
	})

	t.Run("error event is fatal", func(t *testing.T) {
		_, err := parseAnthropicEvent(`{"type":"error","error":{"message":"boom"}}`)
		assert.Error(t, err)
	})
}

func TestAnthropicComplete(t *testing.T) {
	client := newStreamingClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"content":[{"type":"text","text":"SPECIFIC: names a date"}]}`)
	})

	out, err := client.Complete(context.Background(), "judge", "the answer")
	require.NoError(t, err)
	assert.Equal(t, "SPECIFIC: names a date", out)
}

func TestToAnthropicMessages(t *testing.T) {
	msgs := toAnthropicMessages([]types.ChatMessage{
		{Role: types.RoleUser, Content: "a"},
		{Role: types.RoleAssistant, Content: "b"},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
}
