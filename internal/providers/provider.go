// Package providers contains the external message transports (SMS provider
// HTTP APIs, SMTP mail) and the locale-based routing that selects a provider
// and a sender identity per recipient. Transports are black-box
// collaborators: one best-effort attempt, any error is a transport failure.
package providers

import "context"

// SmsTransport sends a single SMS through an external provider API.
//
// Implementations must honor ctx for cancellation and bound their own network
// timeouts. On success they return the provider-assigned message id, which
// may be empty when the provider reports none.
type SmsTransport interface {
	Send(ctx context.Context, to, body string, from *string) (providerMessageID string, err error)
}

// MailTransport sends a single rendered email.
type MailTransport interface {
	Send(ctx context.Context, to, subject, body, from string) error
}

// Registry maps provider names to configured SMS transports. Only providers
// with complete credentials are registered; routing to an unregistered name
// is a configuration error surfaced before any message row is created.
type Registry map[string]SmsTransport

// Get returns the transport registered under name, with ok=false when the
// provider is not configured.
func (r Registry) Get(name string) (SmsTransport, bool) {
	t, ok := r[name]
	return t, ok
}
