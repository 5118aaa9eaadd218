// Package services – WalletService
//
// This file implements wallet funding and ledger reads. Funding creates the
// wallet lazily, appends a pending credit transaction keyed by a unique
// reference, and initializes a gateway charge; the credit itself only lands
// when reconciliation verifies the charge (payment_service.go).
package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"bulkwave/internal/domain"
	"bulkwave/internal/gateway"
	"bulkwave/internal/repo"
)

// PaymentGateway is the payment collaborator contract consumed by the wallet
// and reconciliation services. Implemented by gateway.Paystack.
type PaymentGateway interface {
	Initialize(ctx context.Context, amount decimal.Decimal, email, reference string, metadata map[string]any) (*gateway.InitResult, error)
	Verify(ctx context.Context, reference string) (*gateway.Verification, error)
}

// WalletService provides funding and ledger read operations.
type WalletService struct {
	DB      *gorm.DB
	Gateway PaymentGateway

	// MinFund is the smallest accepted funding amount, in major units.
	MinFund decimal.Decimal
}

// NewWalletService constructs a WalletService bound to a payment gateway.
func NewWalletService(db *gorm.DB, gw PaymentGateway, minFund decimal.Decimal) *WalletService {
	return &WalletService{DB: db, Gateway: gw, MinFund: minFund}
}

// Fund starts a wallet funding flow: pending credit transaction plus a
// gateway charge. Returns the URL the payer is redirected to and the
// reference that reconciliation will observe later.
func (s *WalletService) Fund(ctx context.Context, userID, email string, amount decimal.Decimal) (redirectURL, reference string, err error) {
	tr := otel.Tracer("services/WalletService")
	ctx, span := tr.Start(ctx, "Fund",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if s.Gateway == nil {
		return "", "", ErrGatewayNotConfigured
	}
	if amount.LessThan(s.MinFund) {
		return "", "", ErrAmountTooSmall
	}

	wallet, err := repo.GetOrCreateWallet(ctx, s.DB, userID)
	if err != nil {
		return "", "", err
	}

	reference = newReference()
	tx := &domain.WalletTransaction{
		WalletID:    wallet.ID,
		Amount:      amount,
		Type:        domain.TxTypeCredit,
		Status:      domain.TxStatusPending,
		Reference:   &reference,
		Description: "Wallet funding via Paystack",
		Meta: domain.MetaMap{
			"user_id":    userID,
			"user_email": email,
		},
	}
	if err := repo.CreateTransaction(ctx, s.DB, tx); err != nil {
		return "", "", err
	}

	init, err := s.Gateway.Initialize(ctx, amount, email, reference, map[string]any{
		"wallet_transaction_id": tx.ID,
		"user_id":               userID,
	})
	if err != nil {
		// The charge never started; settle the pending credit as failed so
		// it cannot be reconciled later.
		if _, serr := repo.SettleTransaction(ctx, s.DB, tx.ID, domain.TxStatusFailed,
			tx.Meta.Merge(domain.MetaMap{"error": err.Error()})); serr != nil {
			log.Error().Err(serr).Str("reference", reference).Msg("failed to settle aborted funding")
		}
		return "", "", err
	}

	log.Info().Str("user_id", userID).Str("reference", reference).Msg("wallet funding initialized")
	return init.AuthorizationURL, reference, nil
}

// Balance returns the user's wallet, or ErrWalletNotFound when none exists
// yet (the wallet is created lazily on first funding).
func (s *WalletService) Balance(ctx context.Context, userID string) (*domain.Wallet, error) {
	w, err := repo.GetWalletByUser(ctx, s.DB, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return w, nil
}

// Transactions returns a page of the user's ledger, newest first, plus the
// total count. A user without a wallet has an empty ledger.
func (s *WalletService) Transactions(ctx context.Context, userID string, page, pageSize int) ([]domain.WalletTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	wallet, err := repo.GetWalletByUser(ctx, s.DB, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return []domain.WalletTransaction{}, 0, nil
		}
		return nil, 0, err
	}

	total, err := repo.CountTransactions(ctx, s.DB, wallet.ID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.WalletTransaction{}, 0, nil
	}
	items, err := repo.ListTransactionsPage(ctx, s.DB, wallet.ID, (page-1)*pageSize, pageSize)
	return items, total, err
}

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newReference generates a unique funding reference in the WLT-<RANDOM>-<unix>
// shape the gateway account already knows.
func newReference() string {
	b := make([]byte, 10)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = referenceAlphabet[int(b[i])%len(referenceAlphabet)]
	}
	return fmt.Sprintf("WLT-%s-%d", b, time.Now().Unix())
}
