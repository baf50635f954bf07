package validate

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var v = validator.New()

const (
	maxEmail    = 254
	maxPhone    = 10
	maxPassword = 128
	maxSearch   = 100
)

// Text trims s and rejects empty or whitespace-only values. A positive max
// bounds the length in characters.
func Text(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if max > 0 && utf8.RuneCountInString(s) > max {
		return "", false
	}
	return s, true
}

// Email validates the address and lower-cases its domain part.
func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxEmail {
		return "", false
	}
	if err := v.Var(s, "email"); err != nil {
		return "", false
	}
	return NormalizeEmail(s), true
}

// NormalizeEmail lower-cases the domain of an address, leaving the local
// part as typed.
func NormalizeEmail(s string) string {
	s = strings.TrimSpace(s)
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return s
	}
	return s[:at] + "@" + strings.ToLower(s[at+1:])
}

func Phone(s string) (string, bool) { return Text(s, maxPhone) }

// URL accepts absolute http(s) URLs up to max characters.
func URL(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || (max > 0 && len(s) > max) {
		return "", false
	}
	if err := v.Var(s, "url"); err != nil {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return s, true
}

// Price reports whether d is strictly positive.
func Price(d decimal.Decimal) bool { return d.IsPositive() }

// PriceDigits reports whether d fits NUMERIC(intDigits+frac, frac).
func PriceDigits(d decimal.Decimal, intDigits, frac int32) bool {
	if !d.Equal(d.Round(frac)) {
		return false
	}
	limit := decimal.New(1, intDigits)
	return d.Abs().LessThan(limit)
}

func Quantity(n int) bool { return n >= 0 }

// Password only bounds the length; strength rules are not enforced.
func Password(s string) bool {
	return strings.TrimSpace(s) != "" && len(s) <= maxPassword
}

// ID parses a positive integer identifier.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Search trims a free-text query and clamps its length.
func Search(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxSearch {
		s = string([]rune(s)[:maxSearch])
	}
	return s
}
