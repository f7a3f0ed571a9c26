package tokensource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardroom/internal/types"
)

func newOpenAIStreamingClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultOpenAIConfig("test-key")
	cfg.BaseURL = srv.URL
	cfg.Timeout = 5 * time.Second
	return NewOpenAIClientWithConfig(cfg)
}

func TestOpenAIStreamMessage(t *testing.T) {
	client := newOpenAIStreamingClient(t, sseHandler([]string{
		`data: {"id":"chatcmpl-1","choices":[{"delta":{"content":"Hel"}}]}`,
		``,
		`data: {"id":"chatcmpl-1","choices":[{"delta":{"content":"lo"}}]}`,
		``,
		`data: [DONE]`,
		``,
	}))

	events, errs := client.StreamMessage(context.Background(), "sys", []types.ChatMessage{
		{Role: types.RoleUser, Content: "hi"},
	})
	got, err := collectEvents(t, events, errs)
	require.NoError(t, err)

	// Start is synthesized from the first chunk, stop from [DONE].
	require.Len(t, got, 4)
	assert.Equal(t, types.EventMessageStart, got[0].Kind)
	assert.Equal(t, "chatcmpl-1", got[0].MessageID)
	assert.Equal(t, "Hel", got[1].Text)
	assert.Equal(t, "lo", got[2].Text)
	assert.Equal(t, types.EventMessageStop, got[3].Kind)
}

func TestOpenAIStreamMessage_APIError(t *testing.T) {
	client := newOpenAIStreamingClient(t, sseHandler([]string{
		`data: {"error":{"message":"quota exceeded"}}`,
		``,
	}))

	events, errs := client.StreamMessage(context.Background(), "", nil)
	got, err := collectEvents(t, events, errs)

	assert.Empty(t, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestToOpenAIMessages_SystemFirst(t *testing.T) {
	msgs := toOpenAIMessages("be kind", []types.ChatMessage{
		{Role: types.RoleUser, Content: "a"},
		{Role: types.RoleAssistant, Content: "b"},
	})
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "assistant", msgs[2].Role)

	t.Run("empty system omitted", func(t *testing.T) {
		msgs := toOpenAIMessages("", []types.ChatMessage{{Role: types.RoleUser, Content: "a"}})
		require.Len(t, msgs, 1)
		assert.Equal(t, "user", msgs[0].Role)
	})
}
