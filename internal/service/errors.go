package service

import "errors"

var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")

	ErrNoCompanyForState  = errors.New("no billing company serves this state")
	ErrNoGatewayForMethod = errors.New("no gateway supports this payment method")

	ErrTokenIncomplete = errors.New("oauth credentials incomplete")

	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderStatusInvalid   = errors.New("order status transition not allowed")
	ErrOrderUpdateFailed    = errors.New("order update failed")
	ErrPaymentMethodInvalid = errors.New("payment method not supported")

	ErrCartNotFound      = errors.New("cart not found")
	ErrCartStatusInvalid = errors.New("cart status transition not allowed")

	ErrIntegrationUnknown    = errors.New("unknown integration type")
	ErrIntegrationIncomplete = errors.New("integration credentials incomplete")

	ErrCaptchaRequired = errors.New("captcha required")
	ErrCaptchaInvalid  = errors.New("captcha invalid")

	ErrRecoveryChannelInvalid = errors.New("recovery channel not supported")
)
