// Package services – EmailService
//
// This file implements the email dispatcher. Emails carry no per-unit cost,
// so bulk email has no affordability gate; otherwise the lifecycle mirrors
// SMS: pending row before the transport call, terminal state before return,
// per-item failures swallowed by the bulk loop.
package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"bulkwave/internal/domain"
	"bulkwave/internal/providers"
	"bulkwave/internal/repo"
)

// EmailRecipient is one entry of a bulk email request.
type EmailRecipient struct {
	To        string
	ContactID *string
}

// EmailService coordinates email dispatch.
type EmailService struct {
	DB     *gorm.DB
	Mailer providers.MailTransport

	// DefaultFrom is the fallback sender address when the user has not
	// configured one.
	DefaultFrom string
}

// NewEmailService constructs an EmailService over the given mail transport.
func NewEmailService(db *gorm.DB, mailer providers.MailTransport, defaultFrom string) *EmailService {
	return &EmailService{DB: db, Mailer: mailer, DefaultFrom: defaultFrom}
}

// SendOne dispatches a single email. The pending row is persisted before the
// transport call and always reaches a terminal state before return; transport
// failures are captured on the row and propagated.
func (s *EmailService) SendOne(ctx context.Context, userID string, contactID *string, to, subject, body, from string) (*domain.EmailMessage, error) {
	if s.Mailer == nil {
		return nil, ErrProviderNotConfigured
	}
	if from == "" {
		from = s.DefaultFrom
	}
	if from == "" {
		return nil, ErrSenderNotConfigured
	}

	m, err := repo.CreateEmailMessage(ctx, s.DB, userID, contactID, from, to, subject, body)
	if err != nil {
		return nil, err
	}

	if sendErr := s.Mailer.Send(ctx, to, subject, body, from); sendErr != nil {
		if uerr := repo.MarkEmailFailed(ctx, s.DB, m.ID, sendErr.Error()); uerr != nil {
			dctx, cancel := detachedCtx()
			uerr = repo.MarkEmailFailed(dctx, s.DB, m.ID, sendErr.Error())
			cancel()
			if uerr != nil {
				log.Error().Err(uerr).Str("email_id", m.ID).Msg("failed to persist email failure")
			}
		}
		m.Status = domain.MessageStatusFailed
		msg := sendErr.Error()
		m.ErrorMessage = &msg
		log.Error().Err(sendErr).Str("email_id", m.ID).Msg("email sending failed")
		return m, sendErr
	}

	if uerr := repo.MarkEmailSent(ctx, s.DB, m.ID); uerr != nil {
		dctx, cancel := detachedCtx()
		uerr = repo.MarkEmailSent(dctx, s.DB, m.ID)
		cancel()
		if uerr != nil {
			log.Error().Err(uerr).Str("email_id", m.ID).Msg("failed to persist email success")
			return m, fmt.Errorf("record email delivery: %w", uerr)
		}
	}
	m.Status = domain.MessageStatusSent
	return m, nil
}

// SendBulk dispatches one email per recipient sequentially, swallowing
// individual failures and returning aggregate counts. No rollback: partial
// batches are normal.
func (s *EmailService) SendBulk(ctx context.Context, userID, subject, body string, recipients []EmailRecipient) (*BulkResult, error) {
	tr := otel.Tracer("services/EmailService")
	ctx, span := tr.Start(ctx, "SendBulk",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("recipients", len(recipients)),
		),
	)
	defer span.End()

	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}
	if s.Mailer == nil {
		return nil, ErrProviderNotConfigured
	}

	from := s.DefaultFrom
	settings, err := repo.GetSenderSettings(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if settings != nil && settings.FromEmail != "" {
		from = settings.FromEmail
	}
	if from == "" {
		return nil, ErrSenderNotConfigured
	}

	res := &BulkResult{
		Requested: len(recipients),
		Attempted: len(recipients),
	}
	for _, r := range recipients {
		if _, serr := s.SendOne(ctx, userID, r.ContactID, r.To, subject, body, from); serr != nil {
			res.Failed++
			continue
		}
		res.Sent++
	}

	log.Info().
		Str("user_id", userID).
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Msg("bulk email processed")
	return res, nil
}

// ListPage returns a page of the user's email history and the total count.
func (s *EmailService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.EmailMessage, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := repo.CountEmailMessages(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.EmailMessage{}, 0, nil
	}
	items, err := repo.ListEmailMessagesPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	return items, total, err
}
