package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/astromitra/astromitra/internal/horoscope"
)

func completionBody(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestEnricherReturnsNarrative(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(completionBody(`{"narrative":"a bright week ahead","keywords":["luck"]}`)))
	}))
	defer server.Close()

	enricher, err := NewEnricher(Config{BaseURL: server.URL, APIKey: "sk-test", MaxTokens: 200})
	require.NoError(t, err)

	narrative, err := enricher.Enrich(context.Background(), horoscope.Leo, horoscope.Weekly, json.RawMessage(`{"prediction":"ok"}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"narrative":"a bright week ahead","keywords":["luck"]}`, string(narrative))

	// The token budget must travel with the request.
	require.Equal(t, float64(200), got["max_tokens"])
}

func TestEnricherRejectsNonJSONOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionBody("Here is your horoscope, enjoy!")))
	}))
	defer server.Close()

	enricher, err := NewEnricher(Config{BaseURL: server.URL, APIKey: "sk-test"})
	require.NoError(t, err)

	_, err = enricher.Enrich(context.Background(), horoscope.Leo, horoscope.Daily, json.RawMessage(`{}`))
	require.Error(t, err)
}

func TestEnricherSurfacesQuotaErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	enricher, err := NewEnricher(Config{BaseURL: server.URL, APIKey: "sk-test"})
	require.NoError(t, err)

	_, err = enricher.Enrich(context.Background(), horoscope.Aries, horoscope.Daily, json.RawMessage(`{}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestNewEnricherValidation(t *testing.T) {
	_, err := NewEnricher(Config{APIKey: "sk-test"})
	require.Error(t, err)

	_, err = NewEnricher(Config{BaseURL: "https://api.openai.com"})
	require.Error(t, err)
}
