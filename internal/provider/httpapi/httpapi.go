package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/shineum/mail-broadcast-lite/internal/email"
	"github.com/shineum/mail-broadcast-lite/internal/provider"
)

const (
	// DefaultSendTimeout bounds a single send call.
	DefaultSendTimeout = 30 * time.Second

	// DefaultHealthTimeout bounds the health check call.
	DefaultHealthTimeout = 10 * time.Second

	// maxResponseSize caps how much of a response body is read.
	maxResponseSize = 1 << 20
)

// Config holds the configuration for creating a Provider.
type Config struct {
	URL           string
	APIKey        string
	SendTimeout   time.Duration
	HealthTimeout time.Duration
}

// Provider sends emails by POSTing JSON to the configured endpoint.
type Provider struct {
	url          string
	apiKey       string
	sendClient   *http.Client
	healthClient *http.Client
}

// New creates a new Provider with the given configuration.
func New(cfg Config) *Provider {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = DefaultHealthTimeout
	}

	return &Provider{
		url:          cfg.URL,
		apiKey:       cfg.APIKey,
		sendClient:   &http.Client{Timeout: cfg.SendTimeout},
		healthClient: &http.Client{Timeout: cfg.HealthTimeout},
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "httpapi"
}

// Send delivers one message. A response counts as success only when the
// status is 200 and the body carries "success": true. Anything else is a
// *provider.SendError holding the endpoint's error message.
func (p *Provider) Send(ctx context.Context, msg *email.Email) (string, error) {
	bodyJSON, err := json.Marshal(buildSendRequest(p.apiKey, msg))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(bodyJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.sendClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var result sendResponse
	if err := json.Unmarshal(body, &result); err != nil {
		message := fmt.Sprintf("invalid response body: %v", err)
		if resp.StatusCode != http.StatusOK && len(bytes.TrimSpace(body)) > 0 {
			message = truncate(string(bytes.TrimSpace(body)), 200)
		}
		return "", &provider.SendError{StatusCode: resp.StatusCode, Message: message}
	}

	if resp.StatusCode == http.StatusOK && result.Success {
		slog.Debug("endpoint accepted message", "message_id", result.Data.MessageID)
		return result.Data.MessageID, nil
	}

	message := "Unknown error"
	if result.Error != nil && result.Error.Message != "" {
		message = result.Error.Message
	}
	return "", &provider.SendError{StatusCode: resp.StatusCode, Message: message}
}

// Health queries the endpoint's health path. It is advisory only.
func (p *Provider) Health(ctx context.Context) (*provider.Health, error) {
	u, err := url.Parse(p.url)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	q := u.Query()
	q.Set("path", "health")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.healthClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &provider.SendError{
			StatusCode: resp.StatusCode,
			Message:    "health check failed",
		}
	}

	var hr healthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&hr); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}

	return &provider.Health{Version: hr.Data.Version, Services: hr.Data.Services}, nil
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
