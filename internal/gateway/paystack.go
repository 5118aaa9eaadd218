// Package gateway contains the Paystack payment gateway client. The gateway
// is a black-box collaborator: the core initializes a transaction to obtain a
// redirect URL, and later verifies a reference to learn the charge outcome.
// Amounts cross the wire in kobo (minor units); this package owns the
// conversion so the rest of the core deals in major units only.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bulkwave/internal/config"
)

// StatusSuccess is the gateway's success code for a verified charge.
const StatusSuccess = "success"

var minorUnits = decimal.NewFromInt(100)

// Paystack is an HTTP client for the two gateway endpoints the core uses.
type Paystack struct {
	secretKey   string
	baseURL     string
	callbackURL string
	client      *http.Client
}

// NewPaystack builds the client from configuration, failing fast when the
// secret key is missing.
func NewPaystack(cfg config.PaystackConfig) (*Paystack, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("paystack: secret key is required")
	}
	return &Paystack{
		secretKey:   cfg.SecretKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		callbackURL: cfg.CallbackURL,
		client:      &http.Client{Timeout: 20 * time.Second},
	}, nil
}

// InitResult is the outcome of initializing a transaction.
type InitResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Verification is the outcome of verifying a reference.
type Verification struct {
	Status          string          // gateway charge status, e.g. "success"
	Amount          decimal.Decimal // in major units
	GatewayResponse string
	Raw             map[string]any // full data payload, kept on the transaction meta
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initialize creates a gateway transaction for amount (major units) and
// returns the redirect URL the payer completes the charge on.
func (p *Paystack) Initialize(ctx context.Context, amount decimal.Decimal, email, reference string, metadata map[string]any) (*InitResult, error) {
	payload := map[string]any{
		"email":     email,
		"amount":    amount.Mul(minorUnits).IntPart(),
		"reference": reference,
		"metadata":  metadata,
	}
	if p.callbackURL != "" {
		payload["callback_url"] = p.callbackURL
	}

	data, err := p.do(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}

	var out struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("paystack: decode initialize response: %w", err)
	}
	return &InitResult{
		AuthorizationURL: out.AuthorizationURL,
		AccessCode:       out.AccessCode,
		Reference:        out.Reference,
	}, nil
}

// Verify fetches the charge outcome for a reference.
func (p *Paystack) Verify(ctx context.Context, reference string) (*Verification, error) {
	data, err := p.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Status          string `json:"status"`
		Amount          int64  `json:"amount"` // kobo
		GatewayResponse string `json:"gateway_response"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("paystack: decode verify response: %w", err)
	}
	var raw map[string]any
	_ = json.Unmarshal(data, &raw)

	return &Verification{
		Status:          out.Status,
		Amount:          decimal.NewFromInt(out.Amount).Div(minorUnits),
		GatewayResponse: out.GatewayResponse,
		Raw:             raw,
	}, nil
}

// do executes one authenticated API call and unwraps the response envelope.
func (p *Paystack) do(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var env apiEnvelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || decodeErr != nil || !env.Status {
		msg := env.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, fmt.Errorf("paystack: api error: status %d: %s", resp.StatusCode, msg)
	}
	return env.Data, nil
}
