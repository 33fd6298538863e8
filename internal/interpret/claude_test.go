package interpret

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeMessagesAPI(t *testing.T, text string, prompts *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if prompts != nil {
			*prompts = append(*prompts, string(body))
		}
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":            "msg_test",
			"type":          "message",
			"role":          "assistant",
			"model":         DefaultModel,
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"content":       []map[string]any{{"type": "text", "text": text}},
			"usage":         map[string]any{"input_tokens": 10, "output_tokens": 10},
		}
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newTestClaude(url string) *ClaudeService {
	return NewClaudeService("test-key", "", 0, slog.New(slog.NewTextHandler(io.Discard, nil)),
		option.WithBaseURL(url), option.WithMaxRetries(0))
}

func TestClaudeService_Interpret(t *testing.T) {
	var prompts []string
	srv := fakeMessagesAPI(t, "```json\n{\"interpretation\":\"Teleport to New York\",\"confidence\":0.97}\n```", &prompts)
	defer srv.Close()

	res, err := newTestClaude(srv.URL).Interpret(context.Background(), Request{
		ID:           "ID-987-CHARLIE",
		MovementData: `[{"lat":48.8,"lng":2.3,"timestamp":1}]`,
		Metadata:     `{"name":"<Charlie>"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "Teleport to New York", res.Interpretation)
	assert.InDelta(t, 0.97, res.Confidence, 1e-9)

	require.Len(t, prompts, 1)
	var sent struct {
		Model string `json:"model"`
		Messages []struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(prompts[0]), &sent))
	assert.Equal(t, DefaultModel, sent.Model)
	require.Len(t, sent.Messages, 1)
	require.Len(t, sent.Messages[0].Content, 1)
	prompt := sent.Messages[0].Content[0].Text
	assert.Contains(t, prompt, "<id>ID-987-CHARLIE</id>")
	assert.Contains(t, prompt, "&lt;Charlie&gt;")
}

func TestClaudeService_InvalidJSON(t *testing.T) {
	srv := fakeMessagesAPI(t, "I cannot determine that.", nil)
	defer srv.Close()

	_, err := newTestClaude(srv.URL).Interpret(context.Background(), Request{ID: "x"})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClaudeService_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	_, err := newTestClaude(srv.URL).Interpret(context.Background(), Request{ID: "x"})
	assert.Error(t, err)
}
