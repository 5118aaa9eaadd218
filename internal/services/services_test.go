package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bulkwave/internal/domain"
	"bulkwave/internal/gateway"
	"bulkwave/internal/repo"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("services_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedPrice(t *testing.T, db *gorm.DB, price string) {
	t.Helper()
	if err := repo.SeedAppSetting(context.Background(), db, "NGN"); err != nil {
		t.Fatalf("seed app setting: %v", err)
	}
	p := dec(price)
	if err := db.Model(&domain.AppSetting{}).Where("1 = 1").
		Update("sms_price_per_message", p).Error; err != nil {
		t.Fatalf("set price: %v", err)
	}
}

func seedWallet(t *testing.T, db *gorm.DB, userID, balance string) *domain.Wallet {
	t.Helper()
	w, err := repo.GetOrCreateWallet(context.Background(), db, userID)
	if err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	if b := dec(balance); !b.IsZero() {
		if err := repo.CreditWallet(context.Background(), db, w.ID, b); err != nil {
			t.Fatalf("seed balance: %v", err)
		}
		w.Balance = b
	}
	return w
}

func seedSenderSettings(t *testing.T, db *gorm.DB, userID string) {
	t.Helper()
	s := &domain.SenderSettings{
		UserID:             userID,
		FromEmail:          "sender@example.com",
		FromPhone:          "+15550001111",
		TwilioUKFrom:       "+447000000000",
		AfricasTalkingFrom: "BULKWAVE",
	}
	if err := repo.UpsertSenderSettings(context.Background(), db, s); err != nil {
		t.Fatalf("seed sender settings: %v", err)
	}
}

// fakeTransport is a scripted SmsTransport: numbers in failFor are rejected,
// everything else is accepted with a deterministic id.
type fakeTransport struct {
	name    string
	failFor map[string]bool
	sent    []string
}

func (f *fakeTransport) Send(ctx context.Context, to, body string, from *string) (string, error) {
	if f.failFor[to] {
		return "", errors.New("provider says no")
	}
	f.sent = append(f.sent, to)
	return fmt.Sprintf("%s-%d", f.name, len(f.sent)), nil
}

// fakeMailer is a scripted MailTransport.
type fakeMailer struct {
	failFor map[string]bool
	sent    []string
	froms   []string
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body, from string) error {
	if f.failFor[to] {
		return errors.New("relay says no")
	}
	f.sent = append(f.sent, to)
	f.froms = append(f.froms, from)
	return nil
}

// fakeGateway is a scripted PaymentGateway.
type fakeGateway struct {
	initErr     error
	initCalls   int
	verifyErr   error
	verifyCalls int
	// verification returned per reference; missing entries fall back to v.
	perRef map[string]*gateway.Verification
	v      *gateway.Verification
}

func (f *fakeGateway) Initialize(ctx context.Context, amount decimal.Decimal, email, reference string, metadata map[string]any) (*gateway.InitResult, error) {
	f.initCalls++
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &gateway.InitResult{
		AuthorizationURL: "https://checkout.example.com/" + reference,
		AccessCode:       "ac_" + reference,
		Reference:        reference,
	}, nil
}

func (f *fakeGateway) Verify(ctx context.Context, reference string) (*gateway.Verification, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if v, ok := f.perRef[reference]; ok {
		return v, nil
	}
	return f.v, nil
}
