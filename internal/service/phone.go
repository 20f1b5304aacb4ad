package service

import (
	"strings"

	"github.com/unclebandit/agency-notifier/internal/model"
)

// NormalizePhone strips everything but digits and prefixes "+". Returns "" when no digits remain.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "+" + b.String()
}

// CustomerAddress picks WhatsApp over phone and normalizes it.
func CustomerAddress(c *model.Customer) (string, bool) {
	if c == nil {
		return "", false
	}
	for _, raw := range []string{c.WhatsApp, c.Phone} {
		if addr := NormalizePhone(raw); addr != "" {
			return addr, true
		}
	}
	return "", false
}
