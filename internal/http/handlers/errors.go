// Package handlers defines the HTTP-layer error codes used across all API
// endpoints. Codes are lowercase snake_case and stable: clients branch on
// them programmatically, messages are only for humans.
package handlers

const (
	// Generic codes mirroring HTTP status semantics.
	CodeBadRequest       = "bad_request"
	CodeNotFound         = "not_found"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeInternalError    = "internal_error"

	// Domain codes for dispatch and billing failures.
	CodeNoRecipients          = "no_recipients"
	CodeInsufficientBalance   = "insufficient_balance"
	CodePriceNotConfigured    = "price_not_configured"
	CodeSenderNotConfigured   = "sender_not_configured"
	CodeProviderNotConfigured = "provider_not_configured"
	CodeSendFailed            = "send_failed"
	CodeAmountTooSmall        = "amount_too_small"
	CodeGatewayError          = "gateway_error"
)
