package ai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/shot-analyzer/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, model string) *GeminiClient {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := NewGeminiClient(context.Background(), &config.GeminiConfig{APIKey: "test-key", BaseURL: ts.URL, Model: model})
	require.NoError(t, err)
	require.True(t, client.HasCredential())
	return client
}

func TestGenerateContent_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/test-model:generateContent"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"describe"`)
		assert.Contains(t, string(body), `"image/jpeg"`)
		assert.Contains(t, string(body), `"AQID"`)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"ok\":"},{"text":"true}"}]},"finishReason":"STOP"}]}`))
	}, "test-model")

	text, err := client.GenerateContent(context.Background(), []Part{TextPart("describe"), ImagePart("image/jpeg", []byte{1, 2, 3})})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)
}

func TestGenerateContent_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`))
	}, "")

	_, err := client.GenerateContent(context.Background(), []Part{TextPart("x")})

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Equal(t, "quota", httpErr.Body)
}

func TestGenerateContent_EmptyCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[]}`))
	}, "")

	_, err := client.GenerateContent(context.Background(), []Part{TextPart("x")})
	assert.Error(t, err)
}

func TestGenerateContent_BlockedPrompt(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}, "")

	_, err := client.GenerateContent(context.Background(), []Part{TextPart("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGeminiClient_NoCredential(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	client, err := NewGeminiClient(context.Background(), &config.GeminiConfig{})
	require.NoError(t, err)
	assert.False(t, client.HasCredential())
	assert.Equal(t, "gemini-2.0-flash", client.Model())

	_, err = client.GenerateContent(context.Background(), []Part{TextPart("x")})
	assert.Error(t, err)
}
