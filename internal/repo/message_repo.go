// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for SMS and email
// message records.
//
// Message rows follow a strict lifecycle: they are inserted as pending before
// any network call (the durability point), then marked sent or failed exactly
// once when the transport call returns. The Mark* helpers perform that
// terminal update.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bulkwave/internal/domain"
)

// CreateSmsMessage inserts a pending SMS row with its billing snapshot.
func CreateSmsMessage(ctx context.Context, db *gorm.DB, userID string, contactID *string, from *string, to, body, provider string, pricePerUnit decimal.Decimal) (*domain.SmsMessage, error) {
	m := &domain.SmsMessage{
		ID:             uuid.NewString(),
		UserID:         userID,
		ContactPhoneID: contactID,
		From:           from,
		To:             to,
		Body:           body,
		Provider:       provider,
		Units:          1,
		PricePerUnit:   pricePerUnit,
		TotalPrice:     pricePerUnit,
		Status:         domain.MessageStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// MarkSmsSent transitions a pending SMS row to sent, stamping SentAt and the
// provider-assigned message id.
func MarkSmsSent(ctx context.Context, db *gorm.DB, id string, providerMessageID *string) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Model(&domain.SmsMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":              domain.MessageStatusSent,
			"provider_message_id": providerMessageID,
			"sent_at":             now,
		}).Error
}

// MarkSmsFailed transitions an SMS row to failed, capturing the error text.
func MarkSmsFailed(ctx context.Context, db *gorm.DB, id, errMsg string) error {
	return db.WithContext(ctx).Model(&domain.SmsMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        domain.MessageStatusFailed,
			"error_message": errMsg,
		}).Error
}

// CreateEmailMessage inserts a pending email row.
func CreateEmailMessage(ctx context.Context, db *gorm.DB, userID string, contactID *string, from, to, subject, body string) (*domain.EmailMessage, error) {
	m := &domain.EmailMessage{
		ID:             uuid.NewString(),
		UserID:         userID,
		ContactEmailID: contactID,
		From:           from,
		To:             to,
		Subject:        subject,
		Body:           body,
		Status:         domain.MessageStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// MarkEmailSent transitions a pending email row to sent.
func MarkEmailSent(ctx context.Context, db *gorm.DB, id string) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Model(&domain.EmailMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":  domain.MessageStatusSent,
			"sent_at": now,
		}).Error
}

// MarkEmailFailed transitions an email row to failed, capturing the error text.
func MarkEmailFailed(ctx context.Context, db *gorm.DB, id, errMsg string) error {
	return db.WithContext(ctx).Model(&domain.EmailMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        domain.MessageStatusFailed,
			"error_message": errMsg,
		}).Error
}

// CountSmsMessages returns the total SMS rows for a user.
func CountSmsMessages(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.SmsMessage{}).
		Where("user_id = ?", userID).Count(&total).Error
	return total, err
}

// ListSmsMessagesPage returns a page of a user's SMS rows, newest first.
func ListSmsMessagesPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.SmsMessage, error) {
	var out []domain.SmsMessage
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountEmailMessages returns the total email rows for a user.
func CountEmailMessages(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.EmailMessage{}).
		Where("user_id = ?", userID).Count(&total).Error
	return total, err
}

// ListEmailMessagesPage returns a page of a user's email rows, newest first.
func ListEmailMessagesPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.EmailMessage, error) {
	var out []domain.EmailMessage
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
