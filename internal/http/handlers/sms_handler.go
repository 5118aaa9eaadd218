package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bulkwave/internal/domain"
	"bulkwave/internal/http/middleware"
	"bulkwave/internal/repo"
	"bulkwave/internal/services"
	"bulkwave/internal/utils"
)

// smsRecipientDTO is one recipient in a bulk SMS request. CountryCode and
// Country are optional routing hints; when both are empty the provider is
// chosen from the phone number's dialing prefix.
type smsRecipientDTO struct {
	To          string  `json:"to" binding:"required"`
	ContactID   *string `json:"contact_id"`
	CountryCode string  `json:"country_code"`
	Country     string  `json:"country"`
}

// sendSmsRequest is the payload for both single and bulk sends. Exactly one
// of Recipients or AllContacts should be used; AllContacts expands to every
// phone contact the user has saved.
type sendSmsRequest struct {
	Message     string            `json:"message" binding:"required"`
	Recipients  []smsRecipientDTO `json:"recipients" binding:"omitempty,dive"`
	AllContacts bool              `json:"all_contacts"`
}

// SendSms handles POST /sms/send. Always returns the batch summary; a batch
// where every message failed is still a 200 because each failure is recorded
// on its own message row.
func (h *Handlers) SendSms(c *gin.Context) {
	var req sendSmsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}

	uid := userID(c)
	recipients, resolved := h.resolveSmsRecipients(c, uid, &req)
	if !resolved {
		return
	}

	res, err := h.smsSvc.SendBulk(c.Request.Context(), uid, req.Message, recipients)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	middleware.CountMessages("sms", res.Sent, res.Failed)
	if res.Debited.IsPositive() {
		middleware.CountWalletMutation(domain.TxTypeDebit)
	}
	ok(c, http.StatusOK, gin.H{"result": res})
}

// resolveSmsRecipients expands all_contacts into saved phone contacts, or
// converts the explicit recipient list. Reports the error itself and returns
// ok=false when the request cannot proceed.
func (h *Handlers) resolveSmsRecipients(c *gin.Context, uid string, req *sendSmsRequest) ([]services.SmsRecipient, bool) {
	if req.AllContacts {
		contacts, err := repo.ListContactPhones(c.Request.Context(), h.db, uid)
		if err != nil {
			fail(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
			return nil, false
		}
		recipients := make([]services.SmsRecipient, 0, len(contacts))
		for i := range contacts {
			ct := &contacts[i]
			r := services.SmsRecipient{To: ct.PhoneNumber, ContactID: &ct.ID}
			if ct.CountryCode != nil {
				r.CountryCode = *ct.CountryCode
			}
			if ct.Country != nil {
				r.Country = *ct.Country
			}
			recipients = append(recipients, r)
		}
		return recipients, true
	}

	recipients := make([]services.SmsRecipient, 0, len(req.Recipients))
	for _, r := range req.Recipients {
		recipients = append(recipients, services.SmsRecipient{
			To:          r.To,
			ContactID:   r.ContactID,
			CountryCode: r.CountryCode,
			Country:     r.Country,
		})
	}
	return recipients, true
}

// ListSms handles GET /sms?page=&page_size=.
func (h *Handlers) ListSms(c *gin.Context) {
	page, size := utils.PageBounds(c.Query("page"), c.Query("page_size"), 20, 100)

	msgs, total, err := h.smsSvc.ListPage(c.Request.Context(), userID(c), page, size)
	if err != nil {
		fail(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}
	ok(c, http.StatusOK, gin.H{"messages": msgs, "pagination": paginate(page, size, total)})
}
