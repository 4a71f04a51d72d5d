package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/mubeen425/beerbonk/internal/metrics"
)

// AlertType categorizes the kind of alert.
type AlertType string

const (
	// RPC endpoint breaker opened.
	AlertTypeUnhealthy AlertType = "UNHEALTHY"
	// RPC endpoint breaker closed again.
	AlertTypeRecovery AlertType = "RECOVERY"
	// A transfer was broadcast but never reached the target commitment.
	AlertTypeUnconfirmed AlertType = "UNCONFIRMED_TRANSFER"
	// A purchase failed for a reason the widget could not classify.
	AlertTypePurchaseFailed AlertType = "PURCHASE_FAILED"
)

// Alert represents a single alert event.
type Alert struct {
	Type    AlertType
	Chain   string
	Network string
	Title   string
	Message string
	Fields  map[string]string
}

// Alerter is the interface for sending alerts.
type Alerter interface {
	Send(ctx context.Context, alert Alert) error
}

// MultiAlerter fans out alerts to multiple channels.
type MultiAlerter struct {
	alerters []Alerter
	cooldown time.Duration
	logger   *slog.Logger
	nowFunc  func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewMultiAlerter creates a new multi-channel alerter with cooldown.
func NewMultiAlerter(cooldown time.Duration, logger *slog.Logger, alerters ...Alerter) *MultiAlerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiAlerter{
		alerters: alerters,
		cooldown: cooldown,
		logger:   logger.With("component", "alerter"),
		nowFunc:  time.Now,
		lastSent: make(map[string]time.Time),
	}
}

// Len reports how many channels are configured.
func (m *MultiAlerter) Len() int {
	return len(m.alerters)
}

func cooldownKey(a Alert) string {
	return fmt.Sprintf("%s:%s:%s", a.Type, a.Chain, a.Network)
}

// Send dispatches alert to all channels, respecting cooldown.
func (m *MultiAlerter) Send(ctx context.Context, alert Alert) error {
	key := cooldownKey(alert)
	now := m.nowFunc()

	m.mu.Lock()
	if last, ok := m.lastSent[key]; ok && now.Sub(last) < m.cooldown {
		m.mu.Unlock()
		m.logger.Debug("alert suppressed by cooldown", "key", key)
		for _, a := range m.alerters {
			metrics.AlertsCooldownSkipped.WithLabelValues(alerterName(a), string(alert.Type)).Inc()
		}
		return nil
	}
	m.lastSent[key] = now
	m.mu.Unlock()

	var firstErr error
	for _, a := range m.alerters {
		if err := a.Send(ctx, alert); err != nil {
			m.logger.Warn("alert send failed",
				"channel", alerterName(a),
				"type", alert.Type,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		} else {
			metrics.AlertsSentTotal.WithLabelValues(alerterName(a), string(alert.Type)).Inc()
		}
	}
	return firstErr
}

func alerterName(a Alerter) string {
	switch a.(type) {
	case *SlackAlerter:
		return "slack"
	case *WebhookAlerter:
		return "webhook"
	default:
		return "unknown"
	}
}

// SlackAlerter posts alerts to a Slack incoming webhook.
type SlackAlerter struct {
	webhookURL string
	client     *http.Client
}

func NewSlackAlerter(webhookURL string) *SlackAlerter {
	return &SlackAlerter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SlackAlerter) Send(ctx context.Context, alert Alert) error {
	emoji := ":warning:"
	switch alert.Type {
	case AlertTypeRecovery:
		emoji = ":white_check_mark:"
	case AlertTypeUnconfirmed:
		emoji = ":hourglass:"
	case AlertTypePurchaseFailed:
		emoji = ":x:"
	}

	text := fmt.Sprintf("%s *[%s]* %s/%s: %s\n%s",
		emoji, alert.Type, alert.Chain, alert.Network, alert.Title, alert.Message)

	if len(alert.Fields) > 0 {
		keys := make([]string, 0, len(alert.Fields))
		for k := range alert.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		text += "\n"
		for _, k := range keys {
			text += fmt.Sprintf("- *%s*: %s\n", k, alert.Fields[k])
		}
	}

	return postJSON(ctx, s.client, s.webhookURL, "slack", map[string]string{"text": text})
}

// WebhookAlerter posts alerts as flat JSON to a generic HTTP endpoint.
type WebhookAlerter struct {
	url     string
	client  *http.Client
	nowFunc func() time.Time
}

func NewWebhookAlerter(url string) *WebhookAlerter {
	return &WebhookAlerter{
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		nowFunc: time.Now,
	}
}

func (w *WebhookAlerter) Send(ctx context.Context, alert Alert) error {
	payload := map[string]any{
		"type":    string(alert.Type),
		"chain":   alert.Chain,
		"network": alert.Network,
		"title":   alert.Title,
		"message": alert.Message,
		"fields":  alert.Fields,
		"time":    w.nowFunc().UTC().Format(time.RFC3339),
	}
	return postJSON(ctx, w.client, w.url, "webhook", payload)
}

func postJSON(ctx context.Context, client *http.Client, url, channel string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", channel, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", channel, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s alert: %w", channel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", channel, resp.StatusCode)
	}
	return nil
}

// NoopAlerter does nothing. Used when no alert channels are configured.
type NoopAlerter struct{}

func (n *NoopAlerter) Send(_ context.Context, _ Alert) error { return nil }

// New assembles the configured channels. It returns a NoopAlerter when
// neither URL is set.
func New(slackURL, webhookURL string, cooldown time.Duration, logger *slog.Logger) Alerter {
	var channels []Alerter
	if slackURL != "" {
		channels = append(channels, NewSlackAlerter(slackURL))
	}
	if webhookURL != "" {
		channels = append(channels, NewWebhookAlerter(webhookURL))
	}
	if len(channels) == 0 {
		return &NoopAlerter{}
	}
	return NewMultiAlerter(cooldown, logger, channels...)
}
