package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bulkwave/internal/config"
)

// Twilio is the SMS transport for the Twilio Messages API.
type Twilio struct {
	accountSID string
	authToken  string
	baseURL    string
	client     *http.Client
}

// NewTwilio builds the transport from configuration, failing fast on
// incomplete credentials.
func NewTwilio(cfg config.TwilioConfig) (*Twilio, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("twilio: account sid and auth token are required")
	}
	return &Twilio{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		client:     &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
}

// Send posts a single message to the account's Messages resource. Twilio
// requires a From number, so a missing sender is rejected before the call.
func (p *Twilio) Send(ctx context.Context, to, body string, from *string) (string, error) {
	if from == nil || *from == "" {
		return "", errors.New("twilio: sender number is required")
	}

	form := url.Values{
		"From": {*from},
		"To":   {NormalizePhone(to)},
		"Body": {body},
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", p.baseURL, p.accountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.accountSID, p.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var out twilioResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := out.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return "", fmt.Errorf("twilio: api error: status %d: %s", resp.StatusCode, msg)
	}
	return out.SID, nil
}
