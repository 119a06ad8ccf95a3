package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/revendahub/revendahub/internal/logger"
	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/queue"
	"github.com/revendahub/revendahub/internal/repository"
)

const defaultWebhookTimeout = 5 * time.Second

// WebhookService dispatches event envelopes to configured automation
// endpoints. Delivery is fire-and-forget, failures are logged, never retried.
type WebhookService struct {
	endpointRepo repository.WebhookEndpointRepository
	queueClient  *queue.Client
	httpClient   *http.Client
	now          func() time.Time
}

// NewWebhookService creates the webhook service
func NewWebhookService(endpointRepo repository.WebhookEndpointRepository, queueClient *queue.Client, timeoutMS int) *WebhookService {
	timeout := defaultWebhookTimeout
	if timeoutMS > 0 {
		timeout = time.Duration(timeoutMS) * time.Millisecond
	}
	return &WebhookService{
		endpointRepo: endpointRepo,
		queueClient:  queueClient,
		httpClient:   &http.Client{Timeout: timeout},
		now:          time.Now,
	}
}

// Fire enqueues one delivery per subscribed endpoint. With the queue
// disabled delivery happens inline.
func (s *WebhookService) Fire(event string, data interface{}) {
	if s == nil || s.endpointRepo == nil {
		return
	}
	endpoints, err := s.endpointRepo.ListActiveForEvent(event)
	if err != nil {
		logger.Warnw("webhook_list_endpoints_failed", "event", event, "error", err)
		return
	}
	if len(endpoints) == 0 {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		logger.Warnw("webhook_marshal_failed", "event", event, "error", err)
		return
	}
	timestamp := s.now().Unix()
	for i := range endpoints {
		payload := queue.WebhookDeliverPayload{
			EndpointID: endpoints[i].ID,
			Event:      event,
			Timestamp:  timestamp,
			Data:       raw,
		}
		if s.queueClient.Enabled() {
			if err := s.queueClient.EnqueueWebhookDeliver(payload); err != nil {
				logger.Warnw("webhook_enqueue_failed", "event", event, "endpoint_id", endpoints[i].ID, "error", err)
			}
			continue
		}
		s.deliverTo(context.Background(), &endpoints[i], payload)
	}
}

// Deliver performs one delivery for a queued payload. Errors are logged and
// swallowed so the task never retries.
func (s *WebhookService) Deliver(ctx context.Context, payload queue.WebhookDeliverPayload) error {
	endpoint, err := s.endpointRepo.GetByID(payload.EndpointID)
	if err != nil {
		logger.Warnw("webhook_deliver_fetch_failed", "endpoint_id", payload.EndpointID, "error", err)
		return nil
	}
	if endpoint == nil || !endpoint.IsActive {
		return nil
	}
	s.deliverTo(ctx, endpoint, payload)
	return nil
}

func (s *WebhookService) deliverTo(ctx context.Context, endpoint *models.WebhookEndpoint, payload queue.WebhookDeliverPayload) {
	envelope := map[string]interface{}{
		"event":     payload.Event,
		"timestamp": payload.Timestamp,
		"data":      json.RawMessage(payload.Data),
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		logger.Warnw("webhook_envelope_marshal_failed", "endpoint_id", endpoint.ID, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		logger.Warnw("webhook_request_build_failed", "endpoint_id", endpoint.ID, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if endpoint.SecretHeader != "" {
		req.Header.Set("X-Webhook-Secret", endpoint.SecretHeader)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Warnw("webhook_deliver_failed",
			"endpoint_id", endpoint.ID,
			"event", payload.Event,
			"error", err,
		)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warnw("webhook_deliver_rejected",
			"endpoint_id", endpoint.ID,
			"event", payload.Event,
			"status", fmt.Sprintf("%d", resp.StatusCode),
		)
		return
	}

	if err := s.endpointRepo.RecordFired(endpoint.ID, s.now()); err != nil {
		logger.Warnw("webhook_record_fired_failed", "endpoint_id", endpoint.ID, "error", err)
	}
	logger.Infow("webhook_delivered", "endpoint_id", endpoint.ID, "event", payload.Event)
}
