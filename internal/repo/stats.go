// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries behind the
// per-user dashboard stats endpoint.
package repo

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bulkwave/internal/domain"
)

// UserStats is the aggregate view of a user's messaging activity and spend.
type UserStats struct {
	SmsSent     int64           `json:"sms_sent"`
	SmsFailed   int64           `json:"sms_failed"`
	EmailSent   int64           `json:"email_sent"`
	EmailFailed int64           `json:"email_failed"`
	TotalSpend  decimal.Decimal `json:"total_spend"`
}

// UserMessagingStats computes message counts by terminal status plus the sum
// of successful debit transactions for the user's wallet. Spend is zero when
// the user has no wallet.
func UserMessagingStats(ctx context.Context, db *gorm.DB, userID string) (*UserStats, error) {
	var st UserStats

	count := func(model any, status string, dst *int64) error {
		return db.WithContext(ctx).Model(model).
			Where("user_id = ? AND status = ?", userID, status).
			Count(dst).Error
	}
	if err := count(&domain.SmsMessage{}, domain.MessageStatusSent, &st.SmsSent); err != nil {
		return nil, err
	}
	if err := count(&domain.SmsMessage{}, domain.MessageStatusFailed, &st.SmsFailed); err != nil {
		return nil, err
	}
	if err := count(&domain.EmailMessage{}, domain.MessageStatusSent, &st.EmailSent); err != nil {
		return nil, err
	}
	if err := count(&domain.EmailMessage{}, domain.MessageStatusFailed, &st.EmailFailed); err != nil {
		return nil, err
	}

	// SUM() comes back NULL for no rows; scan through a nullable string to
	// stay exact with decimal amounts stored as text in SQLite.
	var raw *string
	err := db.WithContext(ctx).Model(&domain.WalletTransaction{}).
		Select("SUM(wallet_transactions.amount)").
		Joins("JOIN wallets ON wallets.id = wallet_transactions.wallet_id").
		Where("wallets.user_id = ? AND wallet_transactions.type = ? AND wallet_transactions.status = ?",
			userID, domain.TxTypeDebit, domain.TxStatusSuccess).
		Scan(&raw).Error
	if err != nil {
		return nil, err
	}
	st.TotalSpend = decimal.Zero
	if raw != nil && *raw != "" {
		d, derr := decimal.NewFromString(*raw)
		if derr != nil {
			return nil, derr
		}
		st.TotalSpend = d
	}
	return &st, nil
}
