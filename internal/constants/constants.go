package constants

// Order status constants.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCanceled  = "canceled"
	OrderStatusRefunded  = "refunded"
)

// Payment method constants.
const (
	PaymentMethodCreditCard = "credit_card"
	PaymentMethodPix        = "pix"
)

// Gateway type constants.
const (
	GatewayTypeIpag        = "ipag"
	GatewayTypeMercadoPago = "mercadopago"
	GatewayTypeStripe      = "stripe"
)

// Payment result status constants, normalized across providers.
const (
	PaymentStatusApproved = "approved"
	PaymentStatusPending  = "pending"
	PaymentStatusFailed   = "failed"
)

// Integration type constants.
const (
	IntegrationTypeWooCommerce = "woocommerce"
	IntegrationTypeSMTP        = "smtp"
	IntegrationTypeBling       = "bling"
	IntegrationTypeMeta        = "meta"
	IntegrationTypeMercadoPago = "mercadopago"
)

// Abandoned cart status constants.
const (
	CartStatusAbandoned = "abandoned"
	CartStatusRecovered = "recovered"
	CartStatusExpired   = "expired"
)

// Cart recovery channel constants.
const (
	RecoveryChannelEmail    = "email"
	RecoveryChannelWhatsApp = "whatsapp"
)

// Webhook event constants, fired to automation endpoints (n8n).
const (
	WebhookEventOrderCreated   = "order.created"
	WebhookEventOrderPaid      = "order.paid"
	WebhookEventOrderShipped   = "order.shipped"
	WebhookEventOrderDelivered = "order.delivered"
	WebhookEventOrderCanceled  = "order.canceled"
	WebhookEventOrderRefunded  = "order.refunded"
	WebhookEventCartRecovery   = "cart.recovery"
)

// Queue name constants.
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// Asynq task type constants.
const (
	TaskWebhookDeliver = "webhook:deliver"
	TaskTokenSweep     = "token:sweep"
	TaskOrderPoll      = "order:poll_status"
	TaskCartRecovery   = "cart:recovery"
)
