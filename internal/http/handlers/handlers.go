// Handler wiring.
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results (including service error values) into HTTP
// responses. Business rules live in the services package.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bulkwave/internal/domain"
	"bulkwave/internal/services"
)

//
// Service contracts (context-aware)
//

// SmsService defines SMS dispatch operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SmsService interface {
	// SendBulk dispatches one SMS per recipient with affordability truncation.
	// Single sends are a batch of one.
	SendBulk(ctx context.Context, userID, body string, recipients []services.SmsRecipient) (*services.BulkResult, error)
	// ListPage returns a page of the user's SMS history and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.SmsMessage, int64, error)
}

// EmailService defines email dispatch operations consumed by HTTP handlers.
type EmailService interface {
	SendBulk(ctx context.Context, userID, subject, body string, recipients []services.EmailRecipient) (*services.BulkResult, error)
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.EmailMessage, int64, error)
}

// WalletService defines wallet funding and ledger reads.
type WalletService interface {
	Fund(ctx context.Context, userID, email string, amount decimal.Decimal) (redirectURL, reference string, err error)
	Balance(ctx context.Context, userID string) (*domain.Wallet, error)
	Transactions(ctx context.Context, userID string, page, pageSize int) ([]domain.WalletTransaction, int64, error)
}

// PaymentService defines payment reconciliation entry points.
type PaymentService interface {
	HandleCallback(ctx context.Context, reference string) error
	HandleWebhook(ctx context.Context, ev services.WebhookEvent) error
}

// Handlers groups the HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic; the DB
// handle is used only for the thin contact/settings/stats reads that have no
// business rules of their own.
type Handlers struct {
	db        *gorm.DB
	smsSvc    SmsService
	emailSvc  EmailService
	walletSvc WalletService
	paySvc    PaymentService
}

// New constructs a Handlers instance bound to the given services.
func New(db *gorm.DB, smsSvc SmsService, emailSvc EmailService, walletSvc WalletService, paySvc PaymentService) *Handlers {
	return &Handlers{db: db, smsSvc: smsSvc, emailSvc: emailSvc, walletSvc: walletSvc, paySvc: paySvc}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to the "X-User-ID" header (tests use
// it), and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

func paginate(page, pageSize int, total int64) Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	pages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		pages++
	}
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: pages}
}

// mapServiceError translates service error values into the HTTP envelope.
// Unknown errors become opaque 500s; raw transport/gateway errors never reach
// the client verbatim.
func mapServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoRecipients):
		fail(c, http.StatusBadRequest, CodeNoRecipients, "no recipients provided")
	case errors.Is(err, services.ErrInsufficientBalance):
		fail(c, http.StatusPaymentRequired, CodeInsufficientBalance, "insufficient wallet balance")
	case errors.Is(err, services.ErrPriceNotConfigured):
		fail(c, http.StatusUnprocessableEntity, CodePriceNotConfigured, "SMS price is not configured")
	case errors.Is(err, services.ErrSenderNotConfigured):
		fail(c, http.StatusUnprocessableEntity, CodeSenderNotConfigured, "sender identity is not configured")
	case errors.Is(err, services.ErrProviderNotConfigured):
		fail(c, http.StatusUnprocessableEntity, CodeProviderNotConfigured, "SMS provider is not configured")
	case errors.Is(err, services.ErrAmountTooSmall):
		fail(c, http.StatusBadRequest, CodeAmountTooSmall, "funding amount is below the minimum")
	case errors.Is(err, services.ErrTransactionNotFound):
		fail(c, http.StatusNotFound, CodeNotFound, "transaction not found")
	case errors.Is(err, services.ErrGatewayNotConfigured):
		fail(c, http.StatusServiceUnavailable, CodeGatewayError, "payment gateway is not configured")
	default:
		fail(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
	}
}
