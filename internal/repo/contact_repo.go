// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for phone and email
// contacts.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bulkwave/internal/domain"
)

// CreateContactPhone inserts a phone contact for the user. Locale hints are
// optional and feed provider routing when present.
func CreateContactPhone(ctx context.Context, db *gorm.DB, userID, name, phoneNumber string, countryCode, country *string) (*domain.ContactPhone, error) {
	c := &domain.ContactPhone{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		PhoneNumber: phoneNumber,
		CountryCode: countryCode,
		Country:     country,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListContactPhones returns all phone contacts for a user in insertion order.
// The bulk dispatcher relies on this ordering for deterministic truncation.
func ListContactPhones(ctx context.Context, db *gorm.DB, userID string) ([]domain.ContactPhone, error) {
	var out []domain.ContactPhone
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CreateContactEmail inserts an email contact for the user.
func CreateContactEmail(ctx context.Context, db *gorm.DB, userID, name, email string) (*domain.ContactEmail, error) {
	c := &domain.ContactEmail{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListContactEmails returns all email contacts for a user in insertion order.
func ListContactEmails(ctx context.Context, db *gorm.DB, userID string) ([]domain.ContactEmail, error) {
	var out []domain.ContactEmail
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
