// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for per-user sender
// settings and the process-wide AppSetting singleton.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bulkwave/internal/domain"
)

// GetSenderSettings fetches a user's sender identities. Returns (nil, nil)
// when the user has never configured any: callers treat absence as "no
// sender identity resolves".
func GetSenderSettings(ctx context.Context, db *gorm.DB, userID string) (*domain.SenderSettings, error) {
	var s domain.SenderSettings
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertSenderSettings creates or updates the user's sender settings row.
func UpsertSenderSettings(ctx context.Context, db *gorm.DB, s *domain.SenderSettings) error {
	existing, err := GetSenderSettings(ctx, db, s.UserID)
	if err != nil {
		return err
	}
	if existing == nil {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		s.CreatedAt = time.Now().UTC()
		return db.WithContext(ctx).Create(s).Error
	}
	return db.WithContext(ctx).Model(&domain.SenderSettings{}).
		Where("user_id = ?", s.UserID).
		Updates(map[string]any{
			"from_email":           s.FromEmail,
			"from_phone":           s.FromPhone,
			"twilio_uk_from":       s.TwilioUKFrom,
			"twilio_us_from":       s.TwilioUSFrom,
			"africas_talking_from": s.AfricasTalkingFrom,
		}).Error
}

// GetAppSetting returns the AppSetting singleton, or ErrNotFound when the
// row has not been seeded.
func GetAppSetting(ctx context.Context, db *gorm.DB) (*domain.AppSetting, error) {
	var s domain.AppSetting
	if err := db.WithContext(ctx).Order("id ASC").First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
