package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bulkwave/internal/domain"
)

func newMessageRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("message_repo_test_%d.db", time.Now().UnixNano()))
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

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestCreateSmsMessage_PendingWithPriceSnapshot(t *testing.T) {
	db := newMessageRepoDB(t, &domain.SmsMessage{})

	from := "+15550001111"
	m, err := CreateSmsMessage(context.Background(), db, "u1", nil, &from, "+2348012345678", "hello", "africastalking", dec("120"))
	if err != nil {
		t.Fatalf("CreateSmsMessage: %v", err)
	}
	if m.ID == "" || m.Status != domain.MessageStatusPending {
		t.Fatalf("unexpected row: %+v", m)
	}
	if m.Units != 1 || !m.PricePerUnit.Equal(dec("120")) || !m.TotalPrice.Equal(dec("120")) {
		t.Fatalf("billing snapshot wrong: units=%d price=%s total=%s", m.Units, m.PricePerUnit, m.TotalPrice)
	}
	if m.SentAt != nil || m.ProviderMessageID != nil {
		t.Fatalf("pending row must carry no delivery detail: %+v", m)
	}
}

func TestMarkSmsSent_StampsProviderIDAndSentAt(t *testing.T) {
	db := newMessageRepoDB(t, &domain.SmsMessage{})

	m, _ := CreateSmsMessage(context.Background(), db, "u1", nil, nil, "+447911123456", "hi", "twilio", dec("120"))
	pid := "SM123"
	if err := MarkSmsSent(context.Background(), db, m.ID, &pid); err != nil {
		t.Fatalf("MarkSmsSent: %v", err)
	}

	var got domain.SmsMessage
	if err := db.First(&got, "id = ?", m.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Status != domain.MessageStatusSent {
		t.Fatalf("status = %s; want sent", got.Status)
	}
	if got.ProviderMessageID == nil || *got.ProviderMessageID != "SM123" {
		t.Fatalf("provider message id not stored: %+v", got.ProviderMessageID)
	}
	if got.SentAt == nil {
		t.Fatalf("SentAt not stamped")
	}
}

func TestMarkSmsFailed_CapturesError(t *testing.T) {
	db := newMessageRepoDB(t, &domain.SmsMessage{})

	m, _ := CreateSmsMessage(context.Background(), db, "u1", nil, nil, "+447911123456", "hi", "twilio", dec("120"))
	if err := MarkSmsFailed(context.Background(), db, m.ID, "provider 500"); err != nil {
		t.Fatalf("MarkSmsFailed: %v", err)
	}

	var got domain.SmsMessage
	if err := db.First(&got, "id = ?", m.ID).Error; err != nil {
		t.Fatalf("reload message: %v", err)
	}
	if got.Status != domain.MessageStatusFailed {
		t.Fatalf("status = %s; want failed", got.Status)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != "provider 500" {
		t.Fatalf("error message not captured: %+v", got.ErrorMessage)
	}
}

func TestEmailMessage_Lifecycle(t *testing.T) {
	db := newMessageRepoDB(t, &domain.EmailMessage{})

	m, err := CreateEmailMessage(context.Background(), db, "u1", nil, "me@example.com", "you@example.com", "subj", "body")
	if err != nil {
		t.Fatalf("CreateEmailMessage: %v", err)
	}
	if m.Status != domain.MessageStatusPending {
		t.Fatalf("status = %s; want pending", m.Status)
	}

	if err := MarkEmailSent(context.Background(), db, m.ID); err != nil {
		t.Fatalf("MarkEmailSent: %v", err)
	}
	var got domain.EmailMessage
	if err := db.First(&got, "id = ?", m.ID).Error; err != nil {
		t.Fatalf("reload sent message: %v", err)
	}
	if got.Status != domain.MessageStatusSent || got.SentAt == nil {
		t.Fatalf("sent transition incomplete: %+v", got)
	}

	m2, _ := CreateEmailMessage(context.Background(), db, "u1", nil, "me@example.com", "other@example.com", "subj", "body")
	if err := MarkEmailFailed(context.Background(), db, m2.ID, "smtp dial refused"); err != nil {
		t.Fatalf("MarkEmailFailed: %v", err)
	}
	// A fresh struct: reusing one already loaded would carry its primary
	// key into the query conditions.
	var failed domain.EmailMessage
	if err := db.First(&failed, "id = ?", m2.ID).Error; err != nil {
		t.Fatalf("reload failed message: %v", err)
	}
	if failed.Status != domain.MessageStatusFailed || failed.ErrorMessage == nil {
		t.Fatalf("failed transition incomplete: %+v", failed)
	}
}

func TestListSmsMessagesPage_ScopedToUserNewestFirst(t *testing.T) {
	db := newMessageRepoDB(t, &domain.SmsMessage{})

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		m := &domain.SmsMessage{
			ID:        fmt.Sprintf("m%d", i),
			UserID:    "u1",
			To:        "+2348012345678",
			Body:      "x",
			Provider:  "africastalking",
			Units:     1,
			Status:    domain.MessageStatusSent,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	// Another user's row must never leak into the page.
	other := &domain.SmsMessage{ID: "mx", UserID: "u2", To: "+15550001111", Body: "x", Provider: "twilio", Units: 1, Status: domain.MessageStatusSent, CreatedAt: base}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("seed other: %v", err)
	}

	total, err := CountSmsMessages(context.Background(), db, "u1")
	if err != nil || total != 3 {
		t.Fatalf("CountSmsMessages = %d, %v; want 3", total, err)
	}

	page, err := ListSmsMessagesPage(context.Background(), db, "u1", 0, 10)
	if err != nil {
		t.Fatalf("ListSmsMessagesPage: %v", err)
	}
	if len(page) != 3 || page[0].ID != "m2" || page[2].ID != "m0" {
		t.Fatalf("unexpected page order: %+v", page)
	}
}
