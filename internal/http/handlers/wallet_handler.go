package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bulkwave/internal/services"
	"bulkwave/internal/utils"
)

// fundWalletRequest starts a wallet top-up. Email is the payer address the
// gateway sends its receipt to. Amount is in major currency units.
type fundWalletRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Email  string          `json:"email" binding:"required,email"`
}

// FundWallet handles POST /wallet/fund. On success the client is handed the
// gateway authorization URL to complete payment; the ledger holds a pending
// credit under the returned reference until the gateway confirms.
func (h *Handlers) FundWallet(c *gin.Context) {
	var req fundWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}

	redirectURL, reference, err := h.walletSvc.Fund(c.Request.Context(), userID(c), req.Email, req.Amount)
	if err != nil {
		if errors.Is(err, services.ErrAmountTooSmall) || errors.Is(err, services.ErrGatewayNotConfigured) {
			mapServiceError(c, err)
			return
		}
		fail(c, http.StatusBadGateway, CodeGatewayError, "payment gateway is unavailable")
		return
	}

	ok(c, http.StatusOK, gin.H{
		"authorization_url": redirectURL,
		"reference":         reference,
	})
}

// GetWallet handles GET /wallet. Users without a wallet row get a zero
// balance rather than a 404; the row is created lazily on first funding.
func (h *Handlers) GetWallet(c *gin.Context) {
	w, err := h.walletSvc.Balance(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, services.ErrWalletNotFound) {
			ok(c, http.StatusOK, gin.H{"balance": decimal.Zero})
			return
		}
		fail(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}
	ok(c, http.StatusOK, gin.H{"balance": w.Balance, "wallet_id": w.ID})
}

// ListTransactions handles GET /wallet/transactions?page=&page_size=.
func (h *Handlers) ListTransactions(c *gin.Context) {
	page, size := utils.PageBounds(c.Query("page"), c.Query("page_size"), 20, 100)

	txs, total, err := h.walletSvc.Transactions(c.Request.Context(), userID(c), page, size)
	if err != nil {
		fail(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}
	ok(c, http.StatusOK, gin.H{"transactions": txs, "pagination": paginate(page, size, total)})
}
