// Package services – SmsService
//
// This file implements the SMS dispatcher and the batch affordability policy.
// A single send inserts a pending message row before the transport call (the
// durability point) and always moves it to a terminal state before returning.
// A bulk send reads the wallet once, truncates the recipient set to what the
// balance can cover, dispatches sequentially, and debits the wallet once for
// the messages that actually went out.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"bulkwave/internal/domain"
	"bulkwave/internal/providers"
	"bulkwave/internal/repo"
)

// SmsRecipient is one entry of a bulk SMS request. ContactID links the
// resulting message row to a stored contact; CountryCode/Country are optional
// locale hints that take precedence over the phone prefix for routing.
type SmsRecipient struct {
	To          string
	ContactID   *string
	CountryCode string
	Country     string
}

// BulkResult aggregates the outcome of a bulk send. Partial batches are a
// normal, expected outcome, not an error.
type BulkResult struct {
	Requested int             `json:"requested"`
	Attempted int             `json:"attempted"`
	Sent      int             `json:"sent"`
	Failed    int             `json:"failed"`
	Truncated bool            `json:"truncated"`
	Debited   decimal.Decimal `json:"debited"`
}

// SmsService coordinates SMS dispatch, affordability, and billing.
type SmsService struct {
	DB         *gorm.DB
	Transports providers.Registry
}

// NewSmsService constructs an SmsService over the given transports.
func NewSmsService(db *gorm.DB, transports providers.Registry) *SmsService {
	return &SmsService{DB: db, Transports: transports}
}

// detachedCtx returns a short-lived context independent of the request.
// Terminal-status updates run on it when the request context dies mid-send:
// the transport already accepted the message, so the row must not stay
// pending just because the caller went away.
func detachedCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// AffordableCount applies the batch affordability policy: how many of
// requested recipients the balance covers at pricePerUnit each. Returns
// ErrInsufficientBalance when not even one is covered.
func AffordableCount(balance, pricePerUnit decimal.Decimal, requested int) (int, error) {
	total := pricePerUnit.Mul(decimal.NewFromInt(int64(requested)))
	if balance.GreaterThanOrEqual(total) {
		return requested, nil
	}
	max := int(balance.Div(pricePerUnit).Floor().IntPart())
	if max < 1 {
		return 0, ErrInsufficientBalance
	}
	return max, nil
}

// SendOne dispatches a single SMS through the named provider.
//
// A pending message row is persisted before the transport call, and the row
// is always moved to sent or failed before this method returns, even when the
// caller ignores the returned error. Transport failures are captured on the
// row and propagated; the caller decides whether to continue a batch.
func (s *SmsService) SendOne(ctx context.Context, userID string, contactID *string, to, body, provider string, from *string, pricePerUnit decimal.Decimal) (*domain.SmsMessage, error) {
	transport, ok := s.Transports.Get(provider)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}
	if from == nil || *from == "" {
		return nil, ErrSenderNotConfigured
	}

	m, err := repo.CreateSmsMessage(ctx, s.DB, userID, contactID, from, to, body, provider, pricePerUnit)
	if err != nil {
		return nil, err
	}

	providerMessageID, sendErr := transport.Send(ctx, to, body, from)
	if sendErr != nil {
		if uerr := repo.MarkSmsFailed(ctx, s.DB, m.ID, sendErr.Error()); uerr != nil {
			dctx, cancel := detachedCtx()
			uerr = repo.MarkSmsFailed(dctx, s.DB, m.ID, sendErr.Error())
			cancel()
			if uerr != nil {
				log.Error().Err(uerr).Str("sms_id", m.ID).Msg("failed to persist sms failure")
			}
		}
		m.Status = domain.MessageStatusFailed
		msg := sendErr.Error()
		m.ErrorMessage = &msg
		log.Error().Err(sendErr).Str("sms_id", m.ID).Str("provider", provider).Msg("sms sending failed")
		return m, sendErr
	}

	var pmid *string
	if providerMessageID != "" {
		pmid = &providerMessageID
	}
	if uerr := repo.MarkSmsSent(ctx, s.DB, m.ID, pmid); uerr != nil {
		dctx, cancel := detachedCtx()
		uerr = repo.MarkSmsSent(dctx, s.DB, m.ID, pmid)
		cancel()
		if uerr != nil {
			// A delivery nobody recorded must not be billed as sent.
			log.Error().Err(uerr).Str("sms_id", m.ID).Msg("failed to persist sms success")
			return m, fmt.Errorf("record sms delivery: %w", uerr)
		}
	}
	m.Status = domain.MessageStatusSent
	m.ProviderMessageID = pmid
	log.Info().Str("sms_id", m.ID).Str("provider", provider).Msg("sms sent")
	return m, nil
}

// SendBulk dispatches one SMS per recipient, in input order, truncating the
// set to what the wallet balance affords. Individual transport failures are
// swallowed (counted, batch continues). After dispatch the wallet is debited
// once for sent × price — never the originally reserved amount — and one
// aggregate debit transaction describes the batch.
func (s *SmsService) SendBulk(ctx context.Context, userID, body string, recipients []SmsRecipient) (*BulkResult, error) {
	tr := otel.Tracer("services/SmsService")
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

	price, err := s.pricePerMessage(ctx)
	if err != nil {
		return nil, err
	}

	wallet, err := repo.GetWalletByUser(ctx, s.DB, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInsufficientBalance
		}
		return nil, err
	}
	if !wallet.Balance.IsPositive() {
		return nil, ErrInsufficientBalance
	}

	settings, err := repo.GetSenderSettings(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if settings == nil || settings.FromPhone == "" {
		return nil, ErrSenderNotConfigured
	}

	serve, err := AffordableCount(wallet.Balance, price, len(recipients))
	if err != nil {
		return nil, err
	}

	res := &BulkResult{
		Requested: len(recipients),
		Attempted: serve,
		Truncated: serve < len(recipients),
		Debited:   decimal.Zero,
	}
	batch := recipients[:serve]

	for _, r := range batch {
		provider := s.routeRecipient(r)
		from := providers.ResolveFrom(settings, r.To)
		if _, serr := s.SendOne(ctx, userID, r.ContactID, r.To, body, provider, from, price); serr != nil {
			res.Failed++
			continue
		}
		res.Sent++
	}

	if res.Sent > 0 {
		res.Debited = s.settleBatchDebit(ctx, wallet.ID, price, res.Sent)
	}

	log.Info().
		Str("user_id", userID).
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Bool("truncated", res.Truncated).
		Msg("bulk sms processed")
	return res, nil
}

// ListPage returns a page of the user's SMS history and the total count.
func (s *SmsService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.SmsMessage, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := repo.CountSmsMessages(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.SmsMessage{}, 0, nil
	}
	items, err := repo.ListSmsMessagesPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	return items, total, err
}

// routeRecipient picks the provider: explicit locale fields first, phone
// prefix otherwise. Both paths share one rule table.
func (s *SmsService) routeRecipient(r SmsRecipient) string {
	if r.CountryCode != "" || r.Country != "" {
		return providers.Route(r.CountryCode, r.Country)
	}
	return providers.RouteByPhone(r.To)
}

// pricePerMessage reads the configured SMS price, rejecting missing or
// non-positive values before any record is created.
func (s *SmsService) pricePerMessage(ctx context.Context) (decimal.Decimal, error) {
	setting, err := repo.GetAppSetting(ctx, s.DB)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return decimal.Zero, ErrPriceNotConfigured
		}
		return decimal.Zero, err
	}
	if setting.SmsPricePerMessage == nil || !setting.SmsPricePerMessage.IsPositive() {
		return decimal.Zero, ErrPriceNotConfigured
	}
	return *setting.SmsPricePerMessage, nil
}

// settleBatchDebit charges the wallet for the messages that actually went out
// and appends the aggregate debit transaction. The affordability check
// guarantees coverage at check time; if a concurrent mutation has shrunk the
// balance since, the shortfall is recorded as a failed debit rather than
// driving the balance negative (messages are already dispatched and are never
// un-sent).
func (s *SmsService) settleBatchDebit(ctx context.Context, walletID string, price decimal.Decimal, sent int) decimal.Decimal {
	amount := price.Mul(decimal.NewFromInt(int64(sent)))
	desc := fmt.Sprintf("SMS sending to %d recipients", sent)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if derr := repo.DebitWallet(ctx, tx, walletID, amount); derr != nil {
			return derr
		}
		return repo.CreateTransaction(ctx, tx, &domain.WalletTransaction{
			WalletID:    walletID,
			Amount:      amount,
			Type:        domain.TxTypeDebit,
			Status:      domain.TxStatusSuccess,
			Description: desc,
		})
	})
	if err == nil {
		return amount
	}

	log.Error().Err(err).Str("wallet_id", walletID).Str("amount", amount.String()).Msg("batch debit failed")
	ferr := repo.CreateTransaction(ctx, s.DB, &domain.WalletTransaction{
		WalletID:    walletID,
		Amount:      amount,
		Type:        domain.TxTypeDebit,
		Status:      domain.TxStatusFailed,
		Description: desc,
		Meta:        domain.MetaMap{"error": err.Error()},
	})
	if ferr != nil {
		log.Error().Err(ferr).Str("wallet_id", walletID).Msg("failed to record failed debit")
	}
	return decimal.Zero
}
