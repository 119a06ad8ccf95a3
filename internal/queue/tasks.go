package queue

import (
	"encoding/json"

	"github.com/revendahub/revendahub/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskWebhookDeliver delivery of one event envelope to one endpoint
	TaskWebhookDeliver = constants.TaskWebhookDeliver
	// TaskTokenSweep refresh pass over OAuth tokens expiring soon
	TaskTokenSweep = constants.TaskTokenSweep
	// TaskOrderPoll status poll over pending orders
	TaskOrderPoll = constants.TaskOrderPoll
	// TaskCartRecovery recovery message for one abandoned cart
	TaskCartRecovery = constants.TaskCartRecovery
)

// WebhookDeliverPayload webhook delivery task payload
type WebhookDeliverPayload struct {
	EndpointID uint            `json:"endpoint_id"`
	Event      string          `json:"event"`
	Timestamp  int64           `json:"timestamp"`
	Data       json.RawMessage `json:"data"`
}

// TokenSweepPayload token sweep task payload
type TokenSweepPayload struct {
	WindowMinutes int `json:"window_minutes"`
}

// OrderPollPayload pending order poll task payload
type OrderPollPayload struct {
	BatchSize int `json:"batch_size"`
}

// CartRecoveryPayload cart recovery task payload
type CartRecoveryPayload struct {
	CartID  uint   `json:"cart_id"`
	Channel string `json:"channel"`
}

// NewWebhookDeliverTask builds the webhook delivery task
func NewWebhookDeliverTask(payload WebhookDeliverPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWebhookDeliver, body), nil
}

// NewTokenSweepTask builds the token sweep task
func NewTokenSweepTask(payload TokenSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTokenSweep, body), nil
}

// NewOrderPollTask builds the pending order poll task
func NewOrderPollTask(payload OrderPollPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderPoll, body), nil
}

// NewCartRecoveryTask builds the cart recovery task
func NewCartRecoveryTask(payload CartRecoveryPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCartRecovery, body), nil
}
