package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bulkwave/internal/domain"
	"bulkwave/internal/repo"
)

// updateSenderSettingsRequest replaces the user's sender identities. Empty
// fields clear the corresponding identity; per-provider numbers fall back to
// from_phone at send time when unset.
type updateSenderSettingsRequest struct {
	FromEmail          string `json:"from_email" binding:"omitempty,email"`
	FromPhone          string `json:"from_phone"`
	TwilioUKFrom       string `json:"twilio_uk_from"`
	TwilioUSFrom       string `json:"twilio_us_from"`
	AfricasTalkingFrom string `json:"africastalking_from"`
}

// GetSenderSettings handles GET /settings/sender. Users who never saved
// settings get an empty object, not a 404.
func (h *Handlers) GetSenderSettings(c *gin.Context) {
	s, err := repo.GetSenderSettings(c.Request.Context(), h.db, userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}
	if s == nil {
		s = &domain.SenderSettings{UserID: userID(c)}
	}
	ok(c, http.StatusOK, gin.H{"settings": s})
}

// UpdateSenderSettings handles PUT /settings/sender.
func (h *Handlers) UpdateSenderSettings(c *gin.Context) {
	var req updateSenderSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}

	s := &domain.SenderSettings{
		UserID:             userID(c),
		FromEmail:          strings.TrimSpace(req.FromEmail),
		FromPhone:          strings.TrimSpace(req.FromPhone),
		TwilioUKFrom:       strings.TrimSpace(req.TwilioUKFrom),
		TwilioUSFrom:       strings.TrimSpace(req.TwilioUSFrom),
		AfricasTalkingFrom: strings.TrimSpace(req.AfricasTalkingFrom),
	}
	if err := repo.UpsertSenderSettings(c.Request.Context(), h.db, s); err != nil {
		fail(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}
	ok(c, http.StatusOK, gin.H{"settings": s})
}

// GetAppSettings handles GET /settings/app: the SMS unit price and ledger
// currency every client needs before composing a batch.
func (h *Handlers) GetAppSettings(c *gin.Context) {
	s, err := repo.GetAppSetting(c.Request.Context(), h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}
	ok(c, http.StatusOK, gin.H{"settings": s})
}
