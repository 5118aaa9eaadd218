package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"bulkwave/internal/domain"
	"bulkwave/internal/repo"
	"bulkwave/internal/services"
)

func TestSendSms_Success(t *testing.T) {
	db := newHandlerDB(t)
	var gotUser, gotBody string
	var gotRecipients []services.SmsRecipient
	sms := &stubSmsService{
		sendBulk: func(ctx context.Context, userID, body string, recipients []services.SmsRecipient) (*services.BulkResult, error) {
			gotUser, gotBody, gotRecipients = userID, body, recipients
			return &services.BulkResult{Requested: 2, Attempted: 2, Sent: 2, Debited: decimal.NewFromInt(240)}, nil
		},
	}
	r := newTestRouter(New(db, sms, nil, nil, nil))

	w, body := doJSON(t, r, http.MethodPost, "/sms/send", `{
		"message": "hello",
		"recipients": [
			{"to": "+2348012345678"},
			{"to": "+15551234567", "country_code": "1"}
		]
	}`)
	wantStatus(t, w, http.StatusOK)

	if gotUser != "u1" || gotBody != "hello" {
		t.Fatalf("service got user %q body %q", gotUser, gotBody)
	}
	if len(gotRecipients) != 2 || gotRecipients[1].CountryCode != "1" {
		t.Fatalf("recipients = %+v", gotRecipients)
	}
	result, _ := body["result"].(map[string]any)
	if result == nil || result["sent"] != float64(2) {
		t.Fatalf("body = %v", body)
	}
}

func TestSendSms_InvalidBody(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing message", `{"recipients": [{"to": "+2348012345678"}]}`},
		{"recipient without to", `{"message": "hello", "recipients": [{"country": "NG"}]}`},
		{"recipient with empty to", `{"message": "hello", "recipients": [{"to": ""}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := newHandlerDB(t)
			called := false
			sms := &stubSmsService{
				sendBulk: func(ctx context.Context, userID, body string, recipients []services.SmsRecipient) (*services.BulkResult, error) {
					called = true
					return &services.BulkResult{}, nil
				},
			}
			r := newTestRouter(New(db, sms, nil, nil, nil))

			w, body := doJSON(t, r, http.MethodPost, "/sms/send", tc.body)
			wantStatus(t, w, http.StatusBadRequest)
			wantCode(t, body, CodeBadRequest)
			if called {
				t.Fatal("invalid request reached the service")
			}
		})
	}
}

func TestSendSms_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no recipients", services.ErrNoRecipients, http.StatusBadRequest, CodeNoRecipients},
		{"insufficient balance", services.ErrInsufficientBalance, http.StatusPaymentRequired, CodeInsufficientBalance},
		{"price missing", services.ErrPriceNotConfigured, http.StatusUnprocessableEntity, CodePriceNotConfigured},
		{"sender missing", services.ErrSenderNotConfigured, http.StatusUnprocessableEntity, CodeSenderNotConfigured},
		{"provider missing", services.ErrProviderNotConfigured, http.StatusUnprocessableEntity, CodeProviderNotConfigured},
		{"opaque", context.DeadlineExceeded, http.StatusInternalServerError, CodeInternalError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := newHandlerDB(t)
			sms := &stubSmsService{
				sendBulk: func(ctx context.Context, userID, body string, recipients []services.SmsRecipient) (*services.BulkResult, error) {
					return nil, tc.err
				},
			}
			r := newTestRouter(New(db, sms, nil, nil, nil))

			w, body := doJSON(t, r, http.MethodPost, "/sms/send",
				`{"message": "hello", "recipients": [{"to": "+2348012345678"}]}`)
			wantStatus(t, w, tc.wantStatus)
			wantCode(t, body, tc.wantCode)
		})
	}
}

func TestSendSms_AllContactsExpansion(t *testing.T) {
	db := newHandlerDB(t)
	cc := "254"
	if _, err := repo.CreateContactPhone(context.Background(), db, "u1", "Amina", "+254700000001", &cc, nil); err != nil {
		t.Fatalf("seed contact: %v", err)
	}
	if _, err := repo.CreateContactPhone(context.Background(), db, "u1", "Bukola", "+2348000000002", nil, nil); err != nil {
		t.Fatalf("seed contact: %v", err)
	}
	// Another user's contact must not leak into the batch.
	if _, err := repo.CreateContactPhone(context.Background(), db, "other", "Eve", "+15550000003", nil, nil); err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	var gotRecipients []services.SmsRecipient
	sms := &stubSmsService{
		sendBulk: func(ctx context.Context, userID, body string, recipients []services.SmsRecipient) (*services.BulkResult, error) {
			gotRecipients = recipients
			return &services.BulkResult{Requested: len(recipients), Attempted: len(recipients), Sent: len(recipients)}, nil
		},
	}
	r := newTestRouter(New(db, sms, nil, nil, nil))

	w, _ := doJSON(t, r, http.MethodPost, "/sms/send", `{"message": "hello", "all_contacts": true}`)
	wantStatus(t, w, http.StatusOK)

	if len(gotRecipients) != 2 {
		t.Fatalf("recipients = %+v", gotRecipients)
	}
	if gotRecipients[0].To != "+254700000001" || gotRecipients[0].CountryCode != "254" {
		t.Fatalf("first recipient = %+v", gotRecipients[0])
	}
	if gotRecipients[0].ContactID == nil || gotRecipients[1].ContactID == nil {
		t.Fatal("contact ids not carried into the batch")
	}
}

func TestListSms_PaginationBounds(t *testing.T) {
	db := newHandlerDB(t)
	var gotPage, gotSize int
	sms := &stubSmsService{
		sendBulk: func(ctx context.Context, userID, body string, recipients []services.SmsRecipient) (*services.BulkResult, error) {
			return nil, nil
		},
		listPage: func(ctx context.Context, userID string, page, pageSize int) ([]domain.SmsMessage, int64, error) {
			gotPage, gotSize = page, pageSize
			return []domain.SmsMessage{}, 42, nil
		},
	}
	r := newTestRouter(New(db, sms, nil, nil, nil))

	w, body := doJSON(t, r, http.MethodGet, "/sms?page=3&page_size=500", "")
	wantStatus(t, w, http.StatusOK)
	if gotPage != 3 || gotSize != 100 {
		t.Fatalf("page = %d size = %d, want 3/100 (size capped)", gotPage, gotSize)
	}
	pg, _ := body["pagination"].(map[string]any)
	if pg == nil || pg["total"] != float64(42) {
		t.Fatalf("pagination = %v", pg)
	}
}
