package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis keys used by RedisNotifier.
const (
	inboxPrefix  = "talent-intake:dispatch:"
	eventChannel = "talent-intake:dispatch"
)

// RedisNotifier appends summaries to a per-reviewer list and announces them on a channel.
type RedisNotifier struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisNotifier borrows rdb; closing it stays with the caller.
func NewRedisNotifier(rdb *redis.Client, log *zap.Logger) *RedisNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisNotifier{rdb: rdb, logger: log}
}

// InboxKey is the list a reviewer address reads from.
func InboxKey(address string) string { return inboxPrefix + address }

func (n *RedisNotifier) Notify(ctx context.Context, address string, summary Summary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := n.rdb.RPush(ctx, InboxKey(address), payload).Err(); err != nil {
		return fmt.Errorf("push summary: %w", err)
	}

	// Publish event for live reviewers (non-fatal)
	event, _ := json.Marshal(map[string]string{
		"type":      "SUMMARY_DISPATCHED",
		"id":        summary.ID.String(),
		"tenant_id": summary.TenantID,
		"address":   address,
	})
	if err := n.rdb.Publish(ctx, eventChannel, event).Err(); err != nil {
		n.logger.Warn("publish dispatch event failed", zap.Error(err))
	}
	return nil
}

// WebhookNotifier POSTs the summary as JSON to the reviewer address.
type WebhookNotifier struct {
	HTTPClient *http.Client
	Token      string
}

// NewWebhookNotifier returns a notifier with a 10s timeout.
func NewWebhookNotifier(token string) *WebhookNotifier {
	return &WebhookNotifier{HTTPClient: &http.Client{Timeout: 10 * time.Second}, Token: token}
}

func (n *WebhookNotifier) Notify(ctx context.Context, address string, summary Summary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, address, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", summary.ID.String())
	if n.Token != "" {
		req.Header.Set("Authorization", "Bearer "+n.Token)
	}

	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("post summary: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("reviewer webhook bad status: %s", resp.Status)
	}
	return nil
}

// LogNotifier writes the summary to the log; used for local runs.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier logs to log.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Notify(_ context.Context, address string, summary Summary) error {
	n.logger.Info("candidate summary",
		zap.String("address", address),
		zap.String("dispatch_id", summary.ID.String()),
		zap.String("tenant_id", summary.TenantID),
		zap.Any("profile", summary.Profile),
		zap.Any("matches", summary.Matches),
	)
	return nil
}
