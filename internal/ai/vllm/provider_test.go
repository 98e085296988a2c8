package vllm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kiranshivaraju/playbook/internal/ai/failure"
	"github.com/kiranshivaraju/playbook/internal/config"
	"github.com/kiranshivaraju/playbook/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseChunk(w http.ResponseWriter, content string) {
	payload, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion.chunk",
		"created": 1,
		"model":   "mistral-7b",
		"choices": []map[string]any{{"index": 0, "delta": map[string]string{"content": content}}},
	})
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

func TestStream_OpenAICompatibleEndpoint(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "mistral-7b", body["model"])
		assert.Equal(t, true, body["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		sseChunk(w, "### 1. ")
		sseChunk(w, "Lead with SEO")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer ts.Close()

	p := NewProvider(config.VLLMConfig{BaseURL: ts.URL + "/", Model: "mistral-7b"})
	assert.Equal(t, "vllm", p.Name())

	var got []string
	for text, err := range p.Stream(context.Background(), models.GenerateRequest{Prompt: "hello"}) {
		require.NoError(t, err)
		got = append(got, text)
	}
	assert.Equal(t, []string{"### 1. ", "Lead with SEO"}, got)
}

func TestStream_RateLimitedIsQuota(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"too many requests","type":"rate_limit_error"}}`)
	}))
	defer ts.Close()

	p := NewProvider(config.VLLMConfig{BaseURL: ts.URL, Model: "mistral-7b"})

	var gotErr error
	for _, err := range p.Stream(context.Background(), models.GenerateRequest{Prompt: "hello"}) {
		gotErr = err
	}
	require.Error(t, gotErr)
	assert.ErrorIs(t, gotErr, failure.ErrQuota)
}

func TestStream_UnauthorizedIsAuth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer ts.Close()

	p := NewProvider(config.VLLMConfig{BaseURL: ts.URL, Model: "mistral-7b"})

	var gotErr error
	for _, err := range p.Stream(context.Background(), models.GenerateRequest{Prompt: "hello"}) {
		gotErr = err
	}
	assert.Equal(t, failure.CategoryAuth, failure.Classify(gotErr))
}
