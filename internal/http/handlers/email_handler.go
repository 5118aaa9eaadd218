package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bulkwave/internal/http/middleware"
	"bulkwave/internal/repo"
	"bulkwave/internal/services"
	"bulkwave/internal/utils"
)

type emailRecipientDTO struct {
	To        string  `json:"to" binding:"required,email"`
	ContactID *string `json:"contact_id"`
}

// sendEmailRequest mirrors sendSmsRequest: explicit recipients or every
// saved email contact. Email sends are free and never truncated.
type sendEmailRequest struct {
	Subject     string              `json:"subject" binding:"required"`
	Message     string              `json:"message" binding:"required"`
	Recipients  []emailRecipientDTO `json:"recipients" binding:"omitempty,dive"`
	AllContacts bool                `json:"all_contacts"`
}

// SendEmail handles POST /emails/send.
func (h *Handlers) SendEmail(c *gin.Context) {
	var req sendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}

	uid := userID(c)
	var recipients []services.EmailRecipient
	if req.AllContacts {
		contacts, err := repo.ListContactEmails(c.Request.Context(), h.db, uid)
		if err != nil {
			fail(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
			return
		}
		recipients = make([]services.EmailRecipient, 0, len(contacts))
		for i := range contacts {
			recipients = append(recipients, services.EmailRecipient{
				To:        contacts[i].Email,
				ContactID: &contacts[i].ID,
			})
		}
	} else {
		recipients = make([]services.EmailRecipient, 0, len(req.Recipients))
		for _, r := range req.Recipients {
			recipients = append(recipients, services.EmailRecipient{To: r.To, ContactID: r.ContactID})
		}
	}

	res, err := h.emailSvc.SendBulk(c.Request.Context(), uid, req.Subject, req.Message, recipients)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	middleware.CountMessages("email", res.Sent, res.Failed)
	ok(c, http.StatusOK, gin.H{"result": res})
}

// ListEmails handles GET /emails?page=&page_size=.
func (h *Handlers) ListEmails(c *gin.Context) {
	page, size := utils.PageBounds(c.Query("page"), c.Query("page_size"), 20, 100)

	msgs, total, err := h.emailSvc.ListPage(c.Request.Context(), userID(c), page, size)
	if err != nil {
		fail(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}
	ok(c, http.StatusOK, gin.H{"messages": msgs, "pagination": paginate(page, size, total)})
}
