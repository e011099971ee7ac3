package astro

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/astromitra/astromitra/internal/horoscope"
)

func TestClientFetchSendsCapitalisedSign(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/horoscope", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prediction":"an auspicious day"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"})
	require.NoError(t, err)

	ref := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	raw, err := client.Fetch(context.Background(), horoscope.Aries, horoscope.Daily, ref)
	require.NoError(t, err)
	require.JSONEq(t, `{"prediction":"an auspicious day"}`, string(raw))

	require.Equal(t, "Aries", got["sign"])
	require.Equal(t, "daily", got["period"])
	require.Equal(t, "2026-03-10", got["date"])
}

func TestClientFetchErrorStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), horoscope.Leo, horoscope.Weekly, time.Now())
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
}

func TestClientFetchRejectsMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), horoscope.Leo, horoscope.Daily, time.Now())
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed")
}

func TestClientKundli(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/kundli", r.URL.Path)
		_, _ = w.Write([]byte(`{"ascendant":"Mesha","houses":[]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	chart, err := client.Kundli(context.Background(), BirthDetails{
		Name:  "Asha",
		Date:  "1994-11-02",
		Time:  "04:35",
		Place: "Jaipur",
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"ascendant":"Mesha","houses":[]}`, string(chart))
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}
