// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"bulkwave/internal/config"
	"bulkwave/internal/domain"
	"bulkwave/internal/http/handlers"
	"bulkwave/internal/http/middleware"
	"bulkwave/internal/providers"
	"bulkwave/internal/services"
)

// Deps carries the external collaborators the HTTP layer needs. Transports
// holds only the SMS providers that are actually configured; Mailer and
// Gateway may be nil-free fakes in tests.
type Deps struct {
	Transports providers.Registry
	Mailer     providers.MailTransport
	Gateway    services.PaymentGateway
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine, then mounts the public API under cfg.APIBasePath. Payment gateway
// callback/webhook endpoints are mounted at the root because their URLs are
// registered with the gateway and must not move with API versioning.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. Compression, CORS, security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, deps Deps) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.CodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.CodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/collaborators
	smsSvc := services.NewSmsService(db, deps.Transports)
	emailSvc := services.NewEmailService(db, deps.Mailer, cfg.SMTP.From)
	walletSvc := services.NewWalletService(db, deps.Gateway, decimal.NewFromFloat(cfg.MinFundAmount))
	paySvc := services.NewPaymentService(db, deps.Gateway)
	paySvc.OnCredited = func() { middleware.CountWalletMutation(domain.TxTypeCredit) }

	h := handlers.New(db, smsSvc, emailSvc, walletSvc, paySvc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Messaging
		api.POST("/sms/send", h.SendSms)
		api.GET("/sms", h.ListSms)
		api.POST("/emails/send", h.SendEmail)
		api.GET("/emails", h.ListEmails)

		// Wallet
		api.POST("/wallet/fund", h.FundWallet)
		api.GET("/wallet", h.GetWallet)
		api.GET("/wallet/transactions", h.ListTransactions)

		// Contacts
		api.POST("/contacts/phone", h.CreatePhoneContact)
		api.GET("/contacts/phone", h.ListPhoneContacts)
		api.POST("/contacts/email", h.CreateEmailContact)
		api.GET("/contacts/email", h.ListEmailContacts)

		// Settings and stats
		api.GET("/settings/sender", h.GetSenderSettings)
		api.PUT("/settings/sender", h.UpdateSenderSettings)
		api.GET("/settings/app", h.GetAppSettings)
		api.GET("/stats", h.GetStats)
	}

	// Gateway-facing endpoints (fixed URLs)
	r.GET("/payments/paystack/callback", h.PaystackCallback)
	r.POST("/payments/paystack/webhook", h.PaystackWebhook)
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
