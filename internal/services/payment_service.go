// Package services – PaymentService
//
// This file implements payment reconciliation: verifying a gateway reference
// and transitioning the matching pending ledger transaction to its terminal
// state, crediting the wallet exactly once.
//
// Two entry points observe the same external event — the synchronous redirect
// callback and the asynchronous webhook — and may race for one reference. The
// safety mechanism is the conditional pending→terminal update in the repo
// (repo.SettleTransaction): the loser of the race transitions zero rows and
// must not credit.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"bulkwave/internal/domain"
	"bulkwave/internal/gateway"
	"bulkwave/internal/repo"
)

// WebhookEvent is the parsed gateway webhook payload. Only charge.success
// events are acted on; everything else is acknowledged and dropped.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// PaymentService reconciles gateway outcomes against pending transactions.
type PaymentService struct {
	DB      *gorm.DB
	Gateway PaymentGateway

	// OnCredited, when set, is invoked once per reference after the wallet
	// credit commits. Used for instrumentation.
	OnCredited func()
}

// NewPaymentService constructs a PaymentService bound to a payment gateway.
func NewPaymentService(db *gorm.DB, gw PaymentGateway) *PaymentService {
	return &PaymentService{DB: db, Gateway: gw}
}

// HandleCallback reconciles the reference from the gateway's redirect
// callback. An unknown reference returns ErrTransactionNotFound; an already
// terminal transaction is a no-op. A verification failure marks the
// transaction failed while it is still pending.
func (s *PaymentService) HandleCallback(ctx context.Context, reference string) error {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "HandleCallback",
		trace.WithAttributes(attribute.String("payment.reference", reference)),
	)
	defer span.End()

	if s.Gateway == nil {
		return ErrGatewayNotConfigured
	}

	tx, err := repo.GetTransactionByReference(ctx, s.DB, reference)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			log.Error().Str("reference", reference).Msg("wallet transaction not found for callback")
			return ErrTransactionNotFound
		}
		return err
	}
	if tx.Status != domain.TxStatusPending {
		return nil
	}

	verification, err := s.Gateway.Verify(ctx, reference)
	if err != nil {
		log.Error().Err(err).Str("reference", reference).Msg("payment verification failed")
		if _, serr := repo.SettleTransaction(ctx, s.DB, tx.ID, domain.TxStatusFailed,
			tx.Meta.Merge(domain.MetaMap{
				"error":       err.Error(),
				"verified_at": time.Now().UTC().Format(time.RFC3339),
			})); serr != nil {
			log.Error().Err(serr).Str("reference", reference).Msg("failed to settle transaction after verify error")
		}
		return err
	}

	return s.reconcile(ctx, tx, verification, "verified_at")
}

// HandleWebhook reconciles a charge.success webhook event. A verification
// error leaves the transaction pending so the gateway's own webhook retry can
// try again later; missing references are acknowledged silently.
func (s *PaymentService) HandleWebhook(ctx context.Context, ev WebhookEvent) error {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "HandleWebhook",
		trace.WithAttributes(
			attribute.String("payment.event", ev.Event),
			attribute.String("payment.reference", ev.Data.Reference),
		),
	)
	defer span.End()

	log.Info().Str("event", ev.Event).Str("reference", ev.Data.Reference).Msg("paystack webhook received")
	if ev.Event != "charge.success" || ev.Data.Reference == "" {
		return nil
	}
	if s.Gateway == nil {
		return ErrGatewayNotConfigured
	}

	tx, err := repo.GetTransactionByReference(ctx, s.DB, ev.Data.Reference)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}
	if tx.Status != domain.TxStatusPending {
		return nil
	}

	verification, err := s.Gateway.Verify(ctx, ev.Data.Reference)
	if err != nil {
		log.Error().Err(err).Str("reference", ev.Data.Reference).Msg("webhook verification failed")
		return err
	}

	return s.reconcile(ctx, tx, verification, "webhook_processed_at")
}

// reconcile applies a verification outcome to a pending transaction. The
// conditional status transition and the wallet credit run in one database
// transaction, so a concurrent reconciler either wins both or neither —
// the wallet is credited exactly once per reference.
func (s *PaymentService) reconcile(ctx context.Context, tx *domain.WalletTransaction, v *gateway.Verification, stampKey string) error {
	meta := tx.Meta.Merge(domain.MetaMap{
		"paystack_data": v.Raw,
		stampKey:        time.Now().UTC().Format(time.RFC3339),
	})

	if v.Status == gateway.StatusSuccess && v.Amount.Equal(tx.Amount) {
		credited := false
		err := s.DB.WithContext(ctx).Transaction(func(dtx *gorm.DB) error {
			transitioned, err := repo.SettleTransaction(ctx, dtx, tx.ID, domain.TxStatusSuccess, meta)
			if err != nil {
				return err
			}
			if !transitioned {
				// Lost the race to the other entry point; nothing to credit.
				return nil
			}
			if err := repo.CreditWallet(ctx, dtx, tx.WalletID, tx.Amount); err != nil {
				return err
			}
			credited = true
			log.Info().
				Str("reference", deref(tx.Reference)).
				Str("amount", tx.Amount.String()).
				Msg("wallet credited")
			return nil
		})
		if err == nil && credited && s.OnCredited != nil {
			s.OnCredited()
		}
		return err
	}

	meta["gateway_response"] = v.GatewayResponse
	_, err := repo.SettleTransaction(ctx, s.DB, tx.ID, domain.TxStatusFailed, meta)
	if err == nil {
		log.Warn().
			Str("reference", deref(tx.Reference)).
			Str("status", v.Status).
			Str("gateway_response", v.GatewayResponse).
			Msg("payment not successful")
	}
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
