package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bulkwave/internal/providers"
	"bulkwave/internal/repo"
)

type createPhoneContactRequest struct {
	Name        string  `json:"name" binding:"required"`
	PhoneNumber string  `json:"phone_number" binding:"required"`
	CountryCode *string `json:"country_code"`
	Country     *string `json:"country"`
}

// CreatePhoneContact handles POST /contacts/phone. The number is normalized
// to E.164-ish form before storage so list-based bulk sends route cleanly.
func (h *Handlers) CreatePhoneContact(c *gin.Context) {
	var req createPhoneContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}

	phone := providers.NormalizePhone(req.PhoneNumber)
	if phone == "" {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid phone number")
		return
	}

	ct, err := repo.CreateContactPhone(c.Request.Context(), h.db, userID(c),
		strings.TrimSpace(req.Name), phone, req.CountryCode, req.Country)
	if err != nil {
		fail(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}
	ok(c, http.StatusCreated, gin.H{"contact": ct})
}

// ListPhoneContacts handles GET /contacts/phone.
func (h *Handlers) ListPhoneContacts(c *gin.Context) {
	contacts, err := repo.ListContactPhones(c.Request.Context(), h.db, userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}
	ok(c, http.StatusOK, gin.H{"contacts": contacts})
}

type createEmailContactRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// CreateEmailContact handles POST /contacts/email.
func (h *Handlers) CreateEmailContact(c *gin.Context) {
	var req createEmailContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}

	ct, err := repo.CreateContactEmail(c.Request.Context(), h.db, userID(c),
		strings.TrimSpace(req.Name), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		fail(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}
	ok(c, http.StatusCreated, gin.H{"contact": ct})
}

// ListEmailContacts handles GET /contacts/email.
func (h *Handlers) ListEmailContacts(c *gin.Context) {
	contacts, err := repo.ListContactEmails(c.Request.Context(), h.db, userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}
	ok(c, http.StatusOK, gin.H{"contacts": contacts})
}
