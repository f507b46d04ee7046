package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// newChatStub serves a chat-completions endpoint returning reply, recording
// the last request body for assertions.
func newChatStub(t *testing.T, reply string, totalTokens int) (*httptest.Server, *chatRequest) {
	t.Helper()
	var last chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&last))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "cmpl-test",
			"object":  "chat.completion",
			"model":   last.Model,
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": reply},
			}},
			"usage": map[string]int{"total_tokens": totalTokens},
		})
	}))
	return server, &last
}

func newTestOpenAI(baseURL string) *OpenAI {
	return NewOpenAI("test-key", baseURL, "gpt-3.5-turbo", 2048, 16000,
		"TEST_OPENAI_TITLE_PROMPT", "TEST_OPENAI_CONTENT_PROMPT", "TEST_OPENAI_SUMMARY_PROMPT")
}

func TestOpenAITranslate_Content(t *testing.T) {
	server, last := newChatStub(t, "早上好。", 42)
	defer server.Close()

	eng := newTestOpenAI(server.URL + "/v1")
	result, err := eng.Translate(context.Background(), "Good morning.", "zh", "auto", KindContent, "Hello World")
	require.NoError(t, err)

	assert.Equal(t, "早上好。", result.Text)
	assert.Equal(t, int64(42), result.Tokens)
	assert.Equal(t, int64(4), result.Characters)

	require.Len(t, last.Messages, 3)
	assert.Equal(t, "system", last.Messages[0].Role)
	assert.Contains(t, last.Messages[0].Content, "zh", "placeholder must be substituted with the target language")
	assert.NotContains(t, last.Messages[0].Content, "{target_language}")
	assert.Contains(t, last.Messages[1].Content, "Hello World")
	assert.Contains(t, last.Messages[2].Content, "Good morning.")
}

func TestOpenAISummarize(t *testing.T) {
	server, last := newChatStub(t, "A short summary.", 17)
	defer server.Close()

	eng := newTestOpenAI(server.URL + "/v1")
	result, err := eng.Summarize(context.Background(), "Long article text goes here.", "en")
	require.NoError(t, err)

	assert.Equal(t, "A short summary.", result.Text)
	assert.Equal(t, int64(17), result.Tokens)
	require.Len(t, last.Messages, 2)
	assert.Equal(t, "system", last.Messages[0].Role)
	assert.Equal(t, "Long article text goes here.", last.Messages[1].Content)
}

func TestOpenAITranslate_TitleSendsSingleUserMessage(t *testing.T) {
	server, last := newChatStub(t, "你好，世界", 9)
	defer server.Close()

	eng := newTestOpenAI(server.URL + "/v1")
	result, err := eng.Translate(context.Background(), "Hello World", "zh", "auto", KindTitle, "")
	require.NoError(t, err)

	assert.Equal(t, "你好，世界", result.Text)
	require.Len(t, last.Messages, 2, "title calls carry one system and one user message")
	assert.Equal(t, "system", last.Messages[0].Role)
	assert.Equal(t, "user", last.Messages[1].Role)
	assert.Equal(t, "Hello World", last.Messages[1].Content)
}

func TestOpenAITranslate_EmptyCompletionIsNotAnError(t *testing.T) {
	server, last := newChatStub(t, "", 5)
	defer server.Close()

	eng := newTestOpenAI(server.URL + "/v1")
	result, err := eng.Translate(context.Background(), "Hello", "zh", "auto", KindTitle, "")
	require.NoError(t, err, "an empty completion is a retry signal for the caller, not an engine error")

	assert.Equal(t, "", result.Text)
	assert.Equal(t, int64(5), result.Tokens)
	require.Len(t, last.Messages, 2)
}

func TestOpenAITranslate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	eng := newTestOpenAI(server.URL + "/v1")
	_, err := eng.Translate(context.Background(), "Hello", "zh", "auto", KindTitle, "")
	require.Error(t, err)
}
