package admin

import (
	"github.com/revendahub/revendahub/internal/http/response"
	"github.com/revendahub/revendahub/internal/queue"

	"github.com/gin-gonic/gin"
)

// TriggerTokenSweep refreshes every credential near expiry. Runs through the
// queue when available, inline otherwise.
func (h *Handler) TriggerTokenSweep(c *gin.Context) {
	if h.QueueClient.Enabled() {
		payload := queue.TokenSweepPayload{WindowMinutes: h.Config.Sweep.TokenRefreshWindowMinutes}
		if err := h.QueueClient.EnqueueTokenSweep(payload); err != nil {
			respondError(c, response.CodeInternal, "token sweep enqueue failed", err)
			return
		}
		response.SuccessWithMsg(c, "token sweep queued", nil)
		return
	}

	result, err := h.TokenService.SweepExpiring(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "token sweep failed", err)
		return
	}
	response.Success(c, result)
}

// TriggerOrderPoll re-checks pending orders against their providers.
func (h *Handler) TriggerOrderPoll(c *gin.Context) {
	if h.QueueClient.Enabled() {
		payload := queue.OrderPollPayload{BatchSize: h.Config.Sweep.OrderPollBatchSize}
		if err := h.QueueClient.EnqueueOrderPoll(payload); err != nil {
			respondError(c, response.CodeInternal, "order poll enqueue failed", err)
			return
		}
		response.SuccessWithMsg(c, "order poll queued", nil)
		return
	}

	confirmed, err := h.PaymentService.PollPendingOrders(c.Request.Context(), h.Config.Sweep.OrderPollBatchSize)
	if err != nil {
		respondError(c, response.CodeInternal, "order poll failed", err)
		return
	}
	response.Success(c, gin.H{"confirmed": confirmed})
}
