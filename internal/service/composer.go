package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unclebandit/agency-notifier/internal/model"
)

type TemplateRenderer interface {
	Render(ctx context.Context, name string, vars Vars) (string, bool)
}

// Composer turns a variable set into message text, falling back to an inline literal.
type Composer struct {
	Templates TemplateRenderer
	Location  *time.Location
	Currency  string
}

// Compose renders templateName or, when no active template exists, fallback(vars).
func (c *Composer) Compose(ctx context.Context, templateName string, vars Vars, fallback func(Vars) string) string {
	if c.Templates != nil {
		if text, ok := c.Templates.Render(ctx, templateName, vars); ok {
			return text
		}
	}
	return fallback(vars)
}

func (c *Composer) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Date formats t in the configured time zone.
func (c *Composer) Date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(c.loc()).Format("2006/01/02")
}

// Day is the calendar day of t used in dedupe keys.
func (c *Composer) Day(t time.Time) string {
	return t.In(c.loc()).Format("2006-01-02")
}

func (c *Composer) Amount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if c.Currency == "" {
		return s
	}
	return s + " " + c.Currency
}

// ItemsBlock renders one line per order item.
func (c *Composer) ItemsBlock(items []model.OrderItem) string {
	if len(items) == 0 {
		return "-"
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("• %s × %d = %s", it.Description, it.Quantity, c.Amount(it.Total())))
	}
	return strings.Join(lines, "\n")
}

// PaymentsBlock renders one numbered line per payment.
func (c *Composer) PaymentsBlock(payments []model.Payment) string {
	if len(payments) == 0 {
		return "-"
	}
	lines := make([]string, 0, len(payments))
	for i, p := range payments {
		line := fmt.Sprintf("%d) %s - %s", i+1, c.Date(p.PaymentDate), c.Amount(p.Amount))
		if p.PaymentMethod != "" {
			line += " (" + p.PaymentMethod + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// daysBetween counts whole days from earlier to later, never negative.
func daysBetween(earlier, later time.Time) int {
	if later.Before(earlier) {
		return 0
	}
	return int(later.Sub(earlier).Hours() / 24)
}
