package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bulkwave/internal/domain"
)

func newSettingsRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("settings_repo_test_%d.db", time.Now().UnixNano()))
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

func TestGetSenderSettings_AbsenceIsNotAnError(t *testing.T) {
	db := newSettingsRepoDB(t, &domain.SenderSettings{})

	s, err := GetSenderSettings(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("GetSenderSettings: %v", err)
	}
	if s != nil {
		t.Fatalf("expected nil for unconfigured user, got %+v", s)
	}
}

func TestUpsertSenderSettings_CreateThenUpdate(t *testing.T) {
	db := newSettingsRepoDB(t, &domain.SenderSettings{})

	first := &domain.SenderSettings{
		UserID:    "u1",
		FromEmail: "me@example.com",
		FromPhone: "+2348000000000",
	}
	if err := UpsertSenderSettings(context.Background(), db, first); err != nil {
		t.Fatalf("create upsert: %v", err)
	}
	if first.ID == "" {
		t.Fatalf("ID not assigned on create")
	}

	second := &domain.SenderSettings{
		UserID:             "u1",
		FromEmail:          "new@example.com",
		FromPhone:          "+2348000000000",
		TwilioUKFrom:       "+447000000000",
		AfricasTalkingFrom: "BULKWAVE",
	}
	if err := UpsertSenderSettings(context.Background(), db, second); err != nil {
		t.Fatalf("update upsert: %v", err)
	}

	got, err := GetSenderSettings(context.Background(), db, "u1")
	if err != nil || got == nil {
		t.Fatalf("GetSenderSettings after update: %+v, %v", got, err)
	}
	if got.ID != first.ID {
		t.Fatalf("update must not create a second row: %s vs %s", got.ID, first.ID)
	}
	if got.FromEmail != "new@example.com" || got.TwilioUKFrom != "+447000000000" || got.AfricasTalkingFrom != "BULKWAVE" {
		t.Fatalf("fields not updated: %+v", got)
	}

	// Empty fields clear stored identities.
	third := &domain.SenderSettings{UserID: "u1"}
	if err := UpsertSenderSettings(context.Background(), db, third); err != nil {
		t.Fatalf("clearing upsert: %v", err)
	}
	got, _ = GetSenderSettings(context.Background(), db, "u1")
	if got.FromEmail != "" || got.FromPhone != "" {
		t.Fatalf("fields not cleared: %+v", got)
	}
}

func TestGetAppSetting_SeededAndMissing(t *testing.T) {
	db := newSettingsRepoDB(t, &domain.AppSetting{})

	if _, err := GetAppSetting(context.Background(), db); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before seeding, got %v", err)
	}

	if err := SeedAppSetting(context.Background(), db, "NGN"); err != nil {
		t.Fatalf("SeedAppSetting: %v", err)
	}
	s, err := GetAppSetting(context.Background(), db)
	if err != nil {
		t.Fatalf("GetAppSetting: %v", err)
	}
	if s.Currency != "NGN" {
		t.Fatalf("currency = %s; want NGN", s.Currency)
	}
	if s.SmsPricePerMessage != nil {
		t.Fatalf("price must start unset, got %s", s.SmsPricePerMessage)
	}

	// Seeding again must not create a second row.
	if err := SeedAppSetting(context.Background(), db, "USD"); err != nil {
		t.Fatalf("second SeedAppSetting: %v", err)
	}
	var n int64
	if err := db.Model(&domain.AppSetting{}).Count(&n).Error; err != nil || n != 1 {
		t.Fatalf("app_settings rows = %d, %v; want 1", n, err)
	}
	s, _ = GetAppSetting(context.Background(), db)
	if s.Currency != "NGN" {
		t.Fatalf("reseed must not overwrite currency: %s", s.Currency)
	}
}
