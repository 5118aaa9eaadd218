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

// atSuccessStatusCode is the per-recipient status Africa's Talking reports
// for an accepted message.
const atSuccessStatusCode = "101"

// AfricasTalking is the SMS transport for the Africa's Talking messaging API.
type AfricasTalking struct {
	apiKey   string
	username string
	baseURL  string
	client   *http.Client
}

// NewAfricasTalking builds the transport from configuration. It fails fast
// when credentials are incomplete so misconfiguration is caught at startup,
// not on the first send.
func NewAfricasTalking(cfg config.AfricasTalkingConfig) (*AfricasTalking, error) {
	if cfg.APIKey == "" || cfg.Username == "" {
		return nil, errors.New("africastalking: api key and username are required")
	}
	return &AfricasTalking{
		apiKey:   cfg.APIKey,
		username: cfg.Username,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client:   &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type atResponse struct {
	SMSMessageData struct {
		Recipients []struct {
			StatusCode string `json:"statusCode"`
			Status     string `json:"status"`
			MessageID  string `json:"messageId"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

// Send posts a single message to the messaging endpoint and returns the
// provider-assigned message id.
func (p *AfricasTalking) Send(ctx context.Context, to, body string, from *string) (string, error) {
	form := url.Values{
		"username": {p.username},
		"to":       {NormalizePhone(to)},
		"message":  {body},
	}
	if from != nil && *from != "" {
		form.Set("from", *from)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/version1/messaging", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("apiKey", p.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("africastalking: api error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out atResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("africastalking: decode response: %w", err)
	}
	recips := out.SMSMessageData.Recipients
	if len(recips) == 0 {
		return "", errors.New("africastalking: no recipients in response")
	}
	if recips[0].StatusCode != atSuccessStatusCode {
		status := recips[0].Status
		if status == "" {
			status = "unknown error"
		}
		return "", fmt.Errorf("africastalking: send rejected: %s", status)
	}
	return recips[0].MessageID, nil
}
