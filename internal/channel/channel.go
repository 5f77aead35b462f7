// Package channel connects the conversation to the messaging channel: inbound
// events and outbound replies.
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/talent-intake/internal/document"
)

// Event is one inbound message from a candidate.
type Event struct {
	Identity string          `json:"identity"`
	TenantID string          `json:"tenant_id,omitempty"`
	Text     string          `json:"text,omitempty"`
	Media    *document.Media `json:"media,omitempty"`
}

// Messenger sends a reply to a candidate. Delivery is best effort.
type Messenger interface {
	Send(ctx context.Context, identity, text string) error
}

// WebhookMessenger POSTs {"identity", "text"} to the channel's send endpoint.
type WebhookMessenger struct {
	URL        string
	Token      string
	HTTPClient *http.Client
}

// NewWebhookMessenger returns a messenger with a 10s timeout.
func NewWebhookMessenger(url, token string) *WebhookMessenger {
	return &WebhookMessenger{URL: url, Token: token, HTTPClient: &http.Client{Timeout: 10 * time.Second}}
}

func (m *WebhookMessenger) Send(ctx context.Context, identity, text string) error {
	payload, err := json.Marshal(map[string]string{"identity": identity, "text": text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if m.Token != "" {
		req.Header.Set("Authorization", "Bearer "+m.Token)
	}

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("channel bad status: %s", resp.Status)
	}
	return nil
}

// ConsoleMessenger prints replies, used by the chat command.
type ConsoleMessenger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleMessenger writes to w.
func NewConsoleMessenger(w io.Writer) *ConsoleMessenger {
	return &ConsoleMessenger{w: w}
}

func (m *ConsoleMessenger) Send(_ context.Context, _ string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := fmt.Fprintf(m.w, "\n🤖 %s\n\n", text)
	return err
}

// LogMessenger only logs replies.
type LogMessenger struct {
	logger *zap.Logger
}

// NewLogMessenger logs to log.
func NewLogMessenger(log *zap.Logger) *LogMessenger {
	return &LogMessenger{logger: log}
}

func (m *LogMessenger) Send(_ context.Context, identity, text string) error {
	m.logger.Info("reply", zap.String("identity", identity), zap.String("text", text))
	return nil
}
