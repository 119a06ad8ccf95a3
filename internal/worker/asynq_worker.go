package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/revendahub/revendahub/internal/logger"
	"github.com/revendahub/revendahub/internal/provider"
	"github.com/revendahub/revendahub/internal/queue"
	"github.com/revendahub/revendahub/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer async task consumer
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the consumer
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register registers task handlers
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskWebhookDeliver, c.handleWebhookDeliver)
	mux.HandleFunc(queue.TaskTokenSweep, c.handleTokenSweep)
	mux.HandleFunc(queue.TaskOrderPoll, c.handleOrderPoll)
	mux.HandleFunc(queue.TaskCartRecovery, c.handleCartRecovery)
}

func (c *Consumer) handleWebhookDeliver(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_webhook_deliver_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.WebhookDeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_webhook_deliver_unmarshal_failed", "error", err)
		return err
	}
	if payload.EndpointID == 0 || payload.Event == "" {
		logger.Debugw("worker_webhook_deliver_skip_invalid_payload", "endpoint_id", payload.EndpointID, "event", payload.Event)
		return nil
	}
	if c.WebhookService == nil {
		logger.Warnw("worker_webhook_deliver_skip_service_nil", "endpoint_id", payload.EndpointID)
		return nil
	}
	return c.WebhookService.Deliver(ctx, payload)
}

func (c *Consumer) handleTokenSweep(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_token_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	if c.TokenService == nil {
		logger.Warnw("worker_token_sweep_skip_service_nil")
		return nil
	}
	result, err := c.TokenService.SweepExpiring(ctx)
	if err != nil {
		logger.Warnw("worker_token_sweep_failed", "error", err)
		return err
	}
	logger.Infow("worker_token_sweep_done",
		"checked", result.Checked,
		"refreshed", result.Refreshed,
		"failed", result.Failed,
	)
	return nil
}

func (c *Consumer) handleOrderPoll(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_poll_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderPollPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_poll_unmarshal_failed", "error", err)
		return err
	}
	if c.PaymentService == nil {
		logger.Warnw("worker_order_poll_skip_service_nil")
		return nil
	}
	confirmed, err := c.PaymentService.PollPendingOrders(ctx, payload.BatchSize)
	if err != nil {
		logger.Warnw("worker_order_poll_failed", "error", err)
		return err
	}
	logger.Infow("worker_order_poll_done", "confirmed", confirmed)
	return nil
}

func (c *Consumer) handleCartRecovery(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_cart_recovery_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CartRecoveryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_cart_recovery_unmarshal_failed", "error", err)
		return err
	}
	if payload.CartID == 0 {
		logger.Debugw("worker_cart_recovery_skip_invalid_payload", "cart_id", payload.CartID)
		return nil
	}
	if c.CartService == nil {
		logger.Warnw("worker_cart_recovery_skip_service_nil", "cart_id", payload.CartID)
		return nil
	}
	if err := c.CartService.SendRecovery(payload.CartID, payload.Channel); err != nil {
		switch {
		case errors.Is(err, service.ErrCartNotFound):
			logger.Debugw("worker_cart_recovery_skip_cart_not_found", "cart_id", payload.CartID)
			return nil
		default:
			logger.Warnw("worker_cart_recovery_failed", "cart_id", payload.CartID, "error", err)
			return err
		}
	}
	return nil
}
