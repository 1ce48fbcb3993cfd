// notify/push.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gewnthar/flightbrief/config"
)

// Push is one templated notification for the configured audience segment.
type Push struct {
	RunID string
	Data  map[string]interface{}
}

// oneSignalRequest is the body of POST /notifications for a template send.
type oneSignalRequest struct {
	AppID            string                 `json:"app_id"`
	TemplateID       string                 `json:"template_id"`
	IncludedSegments []string               `json:"included_segments"`
	CustomData       map[string]interface{} `json:"custom_data,omitempty"`
	IdempotencyKey   string                 `json:"idempotency_key,omitempty"`
}

type oneSignalResponse struct {
	ID     string          `json:"id"`
	Errors json.RawMessage `json:"errors"`
}

// PushSender delivers through the OneSignal REST API.
type PushSender struct {
	apiURL     string
	appID      string
	apiKey     string
	templateID string
	segment    string
	httpClient *http.Client
}

// NewPushSender builds a sender from the push section of the config.
func NewPushSender(cfg config.PushConfig) *PushSender {
	return &PushSender{
		apiURL:     cfg.APIURL,
		appID:      cfg.AppID,
		apiKey:     cfg.APIKey,
		templateID: cfg.TemplateID,
		segment:    cfg.Segment,
		httpClient: &http.Client{Timeout: timeoutOr(cfg.Timeout)},
	}
}

// Send posts the notification and reports whether OneSignal accepted it.
func (s *PushSender) Send(ctx context.Context, msg Push) Result {
	body, err := json.Marshal(oneSignalRequest{
		AppID:            s.appID,
		TemplateID:       s.templateID,
		IncludedSegments: []string{s.segment},
		CustomData:       msg.Data,
		IdempotencyKey:   msg.RunID,
	})
	if err != nil {
		return failed(ChannelPush, 0, "failed to encode push request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return failed(ChannelPush, 0, "failed to create push request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Key "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("ERROR Notify: OneSignal request failed: %v\n", err)
		return failed(ChannelPush, 0, "OneSignal request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode != http.StatusOK {
		log.Printf("ERROR Notify: OneSignal rejected notification (status %d): %s\n", resp.StatusCode, raw)
		return failed(ChannelPush, resp.StatusCode, "OneSignal rejected notification: %s", raw)
	}

	var parsed oneSignalResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return failed(ChannelPush, resp.StatusCode, "failed to decode OneSignal response: %v", err)
	}
	// OneSignal answers 200 with an empty id when nobody was targeted
	if parsed.ID == "" {
		return failed(ChannelPush, resp.StatusCode, "OneSignal created no notification: %s", parsed.Errors)
	}
	return Result{Channel: ChannelPush, OK: true, StatusCode: resp.StatusCode, ID: parsed.ID, Message: "push accepted for segment " + s.segment}
}
