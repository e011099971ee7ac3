// Package push delivers best-effort push notifications through Firebase
// Cloud Messaging. Delivery is fire-and-forget: failed tokens are logged
// and skipped, never retried here.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/astromitra/astromitra/pkg/logger"
)

const defaultTimeout = 10 * time.Second

// Config describes the FCM endpoint.
type Config struct {
	Endpoint  string
	ServerKey string
	Timeout   time.Duration

	// HTTPClient overrides the default client, primarily for testing.
	HTTPClient *http.Client
}

// Message is one notification payload.
type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// SendReport summarises a fan-out.
type SendReport struct {
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

// Sender pushes messages to registered device tokens.
type Sender struct {
	endpoint  string
	serverKey string
	http      *http.Client
	log       *zap.Logger
}

// NewSender constructs an FCM sender.
func NewSender(cfg Config) (*Sender, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("push sender: endpoint is required")
	}
	if cfg.ServerKey == "" {
		return nil, errors.New("push sender: server key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Sender{
		endpoint:  endpoint,
		serverKey: cfg.ServerKey,
		http:      httpClient,
		log:       logger.WithModule("push"),
	}, nil
}

type fcmRequest struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Send fans the message out to the given tokens sequentially. Individual
// failures are counted and skipped; the aggregate is logged once.
func (s *Sender) Send(ctx context.Context, tokens []string, msg Message) SendReport {
	report := SendReport{}

	var errs error
	for _, token := range tokens {
		if err := s.sendOne(ctx, token, msg); err != nil {
			report.Failed++
			errs = multierr.Append(errs, err)
			continue
		}
		report.Delivered++
	}

	if errs != nil {
		s.log.Warn("push delivery incomplete",
			zap.Int("delivered", report.Delivered),
			zap.Int("failed", report.Failed),
			zap.Error(errs))
	}

	return report
}

func (s *Sender) sendOne(ctx context.Context, token string, msg Message) error {
	body, err := json.Marshal(fcmRequest{
		To: token,
		Notification: fcmNotification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	if err != nil {
		return fmt.Errorf("push sender: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("push sender: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("push sender: request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push sender: status %d", resp.StatusCode)
	}
	return nil
}
