package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSenderFanOutCountsFailures(t *testing.T) {
	var requests []fcmRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "key=server-key", r.Header.Get("Authorization"))

		var req fcmRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		if req.To == "dead-token" {
			http.Error(w, "NotRegistered", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"success":1}`))
	}))
	defer server.Close()

	sender, err := NewSender(Config{Endpoint: server.URL, ServerKey: "server-key"})
	require.NoError(t, err)

	report := sender.Send(context.Background(), []string{"token-a", "dead-token", "token-b"}, Message{
		Title: "Daily horoscope ready",
		Body:  "Your stars have been refreshed",
		Data:  map[string]string{"period": "daily"},
	})

	require.Equal(t, 2, report.Delivered)
	require.Equal(t, 1, report.Failed)
	require.Len(t, requests, 3)
	require.Equal(t, "Daily horoscope ready", requests[0].Notification.Title)
	require.Equal(t, "daily", requests[0].Data["period"])
}

func TestNewSenderValidation(t *testing.T) {
	_, err := NewSender(Config{ServerKey: "key"})
	require.Error(t, err)

	_, err = NewSender(Config{Endpoint: "https://fcm.googleapis.com/fcm/send"})
	require.Error(t, err)
}
