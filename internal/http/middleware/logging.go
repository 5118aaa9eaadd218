// Package middleware contains shared Gin middleware used by the HTTP layer:
// request correlation, structured access logging with PII masking, panic
// recovery, Prometheus metrics, rate limiting, and security headers.
//
// This file provides the correlation/logging/recovery trio. Recipients of
// this system are phone numbers and email addresses, so those are scrubbed
// from logged query strings and header values before anything is written.
package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// loggerKey is the Gin context key for the request-scoped logger.
	loggerKey = "logger"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

var (
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\+?\d[\d .\-()]{6,}\d`)
)

// maskPII scrubs email addresses and phone numbers from a string. Emails are
// masked before phones so the digits in a mailbox name cannot trip the looser
// phone pattern.
func maskPII(s string) string {
	if s == "" {
		return s
	}
	s = emailRE.ReplaceAllString(s, "[masked:email]")
	s = phoneRE.ReplaceAllString(s, "[masked:phone]")
	return s
}

// RequestID attaches (or propagates) a correlation identifier per request.
// The incoming X-Request-ID is reused when present, otherwise a UUIDv4 is
// generated; either way the value is echoed on the response and stored in the
// Gin context. Place this first in the chain.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Logger writes one structured access log line per request, with recipient
// PII masked, and stores a request-scoped zerolog.Logger in the Gin context
// for downstream enrichment. Log level follows the outcome: error for 5xx,
// warn for 4xx, info otherwise. Authorization and cookie header values are
// fully redacted.
func Logger() gin.HandlerFunc {
	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
		"x-api-key":     {},
	}
	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		query := c.Request.URL.RawQuery
		if len(query) > maxQueryLogLength {
			query = query[:maxQueryLogLength]
		}
		query = maskPII(query)

		rid, _ := c.Get(requestIDKey)
		reqLogger := log.With().
			Str("request_id", toString(rid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, reqLogger)

		c.Next()

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = maskPII(strings.Join(vv, ", "))
		}

		status := c.Writer.Status()
		ev := reqLogger.Info()
		switch {
		case status >= http.StatusInternalServerError || len(c.Errors) > 0:
			ev = reqLogger.Error()
		case status >= http.StatusBadRequest:
			ev = reqLogger.Warn()
		}
		ev.
			Str("query", query).
			Str("ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http request")
	}
}

// Recovery converts panics into JSON 500 responses carrying the correlation
// ID, and logs the stack trace.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				rid, _ := c.Get(requestIDKey)
				log.Error().
					Str("request_id", toString(rid)).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"request_id": toString(rid),
					"code":       "internal_error",
					"message":    "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger installed by Logger(), or the
// global logger when none is present (e.g. in tests).
func LoggerFrom(c *gin.Context) zerolog.Logger {
	if c != nil {
		if v, ok := c.Get(loggerKey); ok {
			if lg, ok := v.(zerolog.Logger); ok {
				return lg
			}
		}
	}
	return log.Logger
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}
