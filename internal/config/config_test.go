package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" || cfg.GinMode != "release" || cfg.LogLevel != "info" {
		t.Fatalf("server defaults = %q/%q/%q", cfg.Port, cfg.GinMode, cfg.LogLevel)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("base path = %q", cfg.APIBasePath)
	}
	if cfg.MinFundAmount != 100 || cfg.Currency != "NGN" {
		t.Fatalf("app defaults = %v/%q", cfg.MinFundAmount, cfg.Currency)
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate defaults = %v/%d", cfg.RateRPS, cfg.RateBurst)
	}
	if cfg.SMTP.Port != 587 || cfg.Paystack.BaseURL != "https://api.paystack.co" {
		t.Fatalf("collaborator defaults = %d/%q", cfg.SMTP.Port, cfg.Paystack.BaseURL)
	}
	if cfg.HasSMSProviders() {
		t.Fatal("no provider credentials set, HasSMSProviders should be false")
	}
	if cfg.OTEL.Enabled {
		t.Fatal("OTEL should default off")
	}
}

func TestLoad_EnvOverridesAndNormalization(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GIN_MODE", "DEBUG")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("API_BASE_PATH", "api/v2/")
	t.Setenv("CURRENCY", "kes")
	t.Setenv("READ_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com , https://b.example.com ,")
	t.Setenv("AT_API_KEY", "atk")
	t.Setenv("AT_USERNAME", "sandbox")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.GinMode != "debug" {
		t.Fatalf("gin mode = %q, want lowercased", cfg.GinMode)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("log level = %q, want warning alias resolved", cfg.LogLevel)
	}
	if cfg.APIBasePath != "/api/v2" {
		t.Fatalf("base path = %q, want leading slash added and trailing stripped", cfg.APIBasePath)
	}
	if cfg.Currency != "KES" {
		t.Fatalf("currency = %q, want uppercased", cfg.Currency)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Fatalf("read timeout = %v", cfg.ReadTimeout)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[0] != "https://a.example.com" {
		t.Fatalf("origins = %v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.HasSMSProviders() {
		t.Fatal("Africa's Talking credentials set, HasSMSProviders should be true")
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad log level", "LOG_LEVEL", "loud"},
		{"negative min fund", "MIN_FUND_AMOUNT", "-1"},
		{"zero burst", "RATE_BURST", "0"},
		{"bad smtp port", "SMTP_PORT", "70000"},
		{"sampler out of range", "OTEL_TRACES_SAMPLER_ARG", "1.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%s accepted", tc.key, tc.value)
			}
		})
	}
}

func TestLoad_PaystackBaseURLRequiredWithKey(t *testing.T) {
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_x")
	t.Setenv("PAYSTACK_BASE_URL", " ")
	if _, err := Load(); err == nil {
		t.Fatal("empty gateway base URL accepted alongside a secret key")
	}
}

func TestHasSMSProviders_RequiresCompleteCredentials(t *testing.T) {
	var cfg Config
	cfg.Twilio.AccountSID = "AC1"
	if cfg.HasSMSProviders() {
		t.Fatal("SID without token should not count")
	}
	cfg.Twilio.AuthToken = "tok"
	if !cfg.HasSMSProviders() {
		t.Fatal("complete Twilio credentials should count")
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":        "/",
		"/":       "/",
		"api":     "/api",
		"/api/":   "/api",
		"/api/v1": "/api/v1",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}
