// Provider routing.
//
// One canonical rule set keyed by E.164 country code, shared by both entry
// points (explicit contact locale fields, or the phone number itself):
//
//	234            → africastalking (Nigeria-optimized)
//	44, 1          → twilio (UK / US)
//	anything else  → twilio (default)
//
// Country-name and ISO-code inputs are normalized onto the same table, so
// identical inputs always yield the identical provider.
package providers

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bulkwave/internal/domain"
)

// Provider names used in routing and on persisted SMS rows.
const (
	ProviderAfricasTalking = "africastalking"
	ProviderTwilio         = "twilio"
)

// knownCodes are the dialing codes the router distinguishes; everything else
// falls through to the default provider. Ordered longest-first so prefix
// matching is deterministic.
var knownCodes = []string{"234", "44", "1"}

// countryAliases maps uppercase country identifiers onto dialing codes.
var countryAliases = map[string]string{
	"NG": "234", "NIGERIA": "234",
	"UK": "44", "GB": "44", "UNITED KINGDOM": "44",
	"US": "1", "USA": "1", "UNITED STATES": "1",
}

var nonPhoneRE = regexp.MustCompile(`[^\d+]`)

var upper = cases.Upper(language.Und)

// NormalizePhone strips separators and ensures a leading "+", dropping a
// single leading zero when adding it (e.g. "0801 234-5678" → "+8012345678",
// "+234 801 2345678" → "+2348012345678").
func NormalizePhone(phone string) string {
	p := nonPhoneRE.ReplaceAllString(phone, "")
	if p == "" {
		return p
	}
	if !strings.HasPrefix(p, "+") {
		p = "+" + strings.TrimPrefix(p, "0")
	}
	return p
}

// ExtractCountryCode returns the known dialing code the E.164 number starts
// with, or "" when the number carries no recognized code. Longest prefix
// wins, so "+2348…" resolves to 234 rather than 23.
func ExtractCountryCode(phone string) string {
	p := NormalizePhone(phone)
	p = strings.TrimPrefix(p, "+")
	for _, code := range knownCodes {
		if strings.HasPrefix(p, code) {
			return code
		}
	}
	return ""
}

// RouteByPhone selects the provider for a recipient from the phone number
// alone. Pure function: no I/O, no state.
func RouteByPhone(phone string) string {
	return routeByCode(ExtractCountryCode(phone))
}

// Route selects the provider from explicit contact locale fields, falling
// back through country code then country name. Inputs are case-insensitive.
func Route(countryCode, country string) string {
	if code := normalizeLocale(countryCode); code != "" {
		return routeByCode(code)
	}
	if code := normalizeLocale(country); code != "" {
		return routeByCode(code)
	}
	return ProviderTwilio
}

// normalizeLocale maps a raw country code or name onto a dialing code,
// returning "" for unrecognized input.
func normalizeLocale(s string) string {
	s = strings.TrimSpace(upper.String(s))
	if s == "" {
		return ""
	}
	for _, code := range knownCodes {
		if s == code {
			return code
		}
	}
	if code, ok := countryAliases[s]; ok {
		return code
	}
	return ""
}

func routeByCode(code string) string {
	switch code {
	case "234":
		return ProviderAfricasTalking
	case "44", "1":
		return ProviderTwilio
	default:
		return ProviderTwilio
	}
}

// ResolveFrom selects the sender identity for a recipient phone number: the
// locale-specific override when set, else the configured default, else nil.
// SMS sends fail fast when nil resolves, since both providers require a
// sender identity.
func ResolveFrom(settings *domain.SenderSettings, phone string) *string {
	if settings == nil {
		return nil
	}
	var from string
	switch ExtractCountryCode(phone) {
	case "234":
		from = coalesce(settings.AfricasTalkingFrom, settings.FromPhone)
	case "44":
		from = coalesce(settings.TwilioUKFrom, settings.FromPhone)
	case "1":
		from = coalesce(settings.TwilioUSFrom, settings.FromPhone)
	default:
		from = settings.FromPhone
	}
	if from == "" {
		return nil
	}
	return &from
}

// HasCompleteSenderSettings reports whether every sender identity (default
// plus all per-region overrides) is configured.
func HasCompleteSenderSettings(settings *domain.SenderSettings) bool {
	if settings == nil {
		return false
	}
	return settings.FromPhone != "" &&
		settings.TwilioUKFrom != "" &&
		settings.TwilioUSFrom != "" &&
		settings.AfricasTalkingFrom != ""
}

func coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
