// Package services implements the billed bulk-messaging core: SMS and email
// dispatch, the batch affordability policy, the wallet ledger, and payment
// reconciliation. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

// Dispatch-related errors.
var (
	// ErrNoRecipients is returned when a bulk send request carries an empty
	// recipient set. Nothing is persisted.
	ErrNoRecipients = errors.New("no recipients")

	// ErrPriceNotConfigured is returned when the SMS price is missing or not
	// positive. All SMS sends are blocked until an admin sets it.
	ErrPriceNotConfigured = errors.New("sms price not configured")

	// ErrProviderNotConfigured is returned when routing selects a transport
	// whose credentials are not configured. Checked before any message row
	// is created.
	ErrProviderNotConfigured = errors.New("messaging provider not configured")

	// ErrSenderNotConfigured is returned when no sender identity resolves
	// for a send. Checked before any message row is created.
	ErrSenderNotConfigured = errors.New("sender identity not configured")
)

// Wallet- and payment-related errors.
var (
	// ErrInsufficientBalance is returned when the wallet cannot cover a
	// single message of a requested batch. No rows are created, no debit.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// ErrWalletNotFound is returned when a user has no wallet yet.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrAmountTooSmall is returned when a funding request is below the
	// configured minimum.
	ErrAmountTooSmall = errors.New("funding amount below minimum")

	// ErrTransactionNotFound is returned when a reconciliation reference
	// matches no ledger transaction.
	ErrTransactionNotFound = errors.New("wallet transaction not found")

	// ErrGatewayNotConfigured is returned when wallet funding is requested
	// but no payment gateway credentials are configured.
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
)
