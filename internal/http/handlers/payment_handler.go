package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bulkwave/internal/repo"
	"bulkwave/internal/services"
)

// PaystackCallback handles GET /payments/paystack/callback?reference=...,
// the browser redirect target after checkout. It verifies the reference with
// the gateway and settles the pending transaction either way.
func (h *Handlers) PaystackCallback(c *gin.Context) {
	reference := strings.TrimSpace(c.Query("reference"))
	if reference == "" {
		// Paystack also sends trxref with the same value.
		reference = strings.TrimSpace(c.Query("trxref"))
	}
	if reference == "" {
		fail(c, http.StatusBadRequest, CodeBadRequest, "missing reference")
		return
	}

	if err := h.paySvc.HandleCallback(c.Request.Context(), reference); err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			mapServiceError(c, err)
			return
		}
		fail(c, http.StatusBadGateway, CodeGatewayError, "payment verification failed")
		return
	}

	ok(c, http.StatusOK, gin.H{"reference": reference, "status": h.transactionStatus(c, reference)})
}

// PaystackWebhook handles POST /payments/paystack/webhook. Events other than
// charge.success are acknowledged and ignored. A verification failure returns
// a non-2xx status so the gateway retries the delivery; the transaction stays
// pending in the meantime.
func (h *Handlers) PaystackWebhook(c *gin.Context) {
	var ev services.WebhookEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid webhook payload")
		return
	}

	if err := h.paySvc.HandleWebhook(c.Request.Context(), ev); err != nil {
		fail(c, http.StatusBadGateway, CodeGatewayError, "payment verification failed")
		return
	}

	ok(c, http.StatusOK, gin.H{"received": true})
}

func (h *Handlers) transactionStatus(c *gin.Context, reference string) string {
	tx, err := repo.GetTransactionByReference(c.Request.Context(), h.db, reference)
	if err != nil {
		return ""
	}
	return tx.Status
}
