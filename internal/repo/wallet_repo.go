// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for wallets and
// their append-only transaction log.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
//
// Concurrency notes:
//   - Balance mutations are single conditional UPDATE statements
//     (balance = balance ± amount), never read-modify-write in Go, so two
//     concurrent sends or a send racing a funding credit cannot clobber each
//     other. A debit that would drive the balance negative affects zero rows
//     and surfaces as ErrBalanceTooLow.
//   - Status transitions on transactions are conditional on the current
//     status being "pending", which makes reconciliation idempotent even when
//     the gateway callback and webhook fire concurrently for one reference.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bulkwave/internal/domain"
)

// ErrBalanceTooLow is returned by DebitWallet when the conditional update
// matched no row because the wallet balance does not cover the amount.
var ErrBalanceTooLow = errors.New("wallet balance too low")

// GetWalletByUser fetches the wallet owned by userID, or ErrNotFound.
func GetWalletByUser(ctx context.Context, db *gorm.DB, userID string) (*domain.Wallet, error) {
	var w domain.Wallet
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// GetOrCreateWallet returns the user's wallet, creating a zero-balance row on
// first use. Wallets are created lazily on the first funding request.
func GetOrCreateWallet(ctx context.Context, db *gorm.DB, userID string) (*domain.Wallet, error) {
	w, err := GetWalletByUser(ctx, db, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	w = &domain.Wallet{
		ID:        uuid.NewString(),
		UserID:    userID,
		Balance:   decimal.Zero,
		CreatedAt: time.Now().UTC(),
	}
	if cerr := db.WithContext(ctx).Create(w).Error; cerr != nil {
		// Another request may have created it between the read and the insert.
		if w2, gerr := GetWalletByUser(ctx, db, userID); gerr == nil {
			return w2, nil
		}
		return nil, cerr
	}
	return w, nil
}

// CreditWallet atomically increases the wallet balance.
func CreditWallet(ctx context.Context, db *gorm.DB, walletID string, amount decimal.Decimal) error {
	res := db.WithContext(ctx).Model(&domain.Wallet{}).
		Where("id = ?", walletID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DebitWallet atomically decreases the wallet balance, but only when the
// current balance covers the amount. Returns ErrBalanceTooLow otherwise.
func DebitWallet(ctx context.Context, db *gorm.DB, walletID string, amount decimal.Decimal) error {
	res := db.WithContext(ctx).Model(&domain.Wallet{}).
		Where("id = ? AND balance >= ?", walletID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing wallet from an uncovered debit.
		var n int64
		if err := db.WithContext(ctx).Model(&domain.Wallet{}).Where("id = ?", walletID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrBalanceTooLow
	}
	return nil
}

// CreateTransaction appends a transaction row. ID and CreatedAt are filled in
// when unset.
func CreateTransaction(ctx context.Context, db *gorm.DB, tx *domain.WalletTransaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(tx).Error
}

// GetTransactionByReference fetches a transaction by its unique funding
// reference, or ErrNotFound.
func GetTransactionByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.WalletTransaction, error) {
	var tx domain.WalletTransaction
	if err := db.WithContext(ctx).Where("reference = ?", reference).First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// SettleTransaction transitions a pending transaction to the given terminal
// status and stores the merged metadata in the same statement. It reports
// whether the transition actually happened: false means the row was already
// terminal (or missing), which callers treat as "already reconciled".
func SettleTransaction(ctx context.Context, db *gorm.DB, id, status string, meta domain.MetaMap) (bool, error) {
	res := db.WithContext(ctx).Model(&domain.WalletTransaction{}).
		Where("id = ? AND status = ?", id, domain.TxStatusPending).
		Updates(map[string]any{
			"status": status,
			"meta":   meta,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountTransactions returns the number of transactions for a wallet.
func CountTransactions(ctx context.Context, db *gorm.DB, walletID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.WalletTransaction{}).
		Where("wallet_id = ?", walletID).Count(&total).Error
	return total, err
}

// ListTransactionsPage returns a page of transactions for a wallet, newest
// first, ordered deterministically (CreatedAt DESC, ID DESC).
func ListTransactionsPage(ctx context.Context, db *gorm.DB, walletID string, offset, limit int) ([]domain.WalletTransaction, error) {
	var out []domain.WalletTransaction
	err := db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
