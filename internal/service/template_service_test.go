package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/unclebandit/agency-notifier/internal/model"
	"github.com/unclebandit/agency-notifier/internal/service"
)

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     service.Vars
		want     string
	}{
		{
			name:     "replaces every occurrence",
			template: "{{name}} / {{name}} owes {{amount}}",
			vars:     service.Vars{"name": "Sara", "amount": decimal.RequireFromString("150.5")},
			want:     "Sara / Sara owes 150.5",
		},
		{
			name:     "unknown placeholders stay verbatim",
			template: "Order {{order_number}} for {{customer_name}}",
			vars:     service.Vars{"order_number": "O-1001"},
			want:     "Order O-1001 for {{customer_name}}",
		},
		{
			name:     "extra keys are ignored",
			template: "Hi {{customer_name}}",
			vars:     service.Vars{"customer_name": "Ali", "unused": 3},
			want:     "Hi Ali",
		},
		{
			name:     "numbers are stringified",
			template: "{{days}} days, {{ratio}}",
			vars:     service.Vars{"days": 4, "ratio": 0.25},
			want:     "4 days, 0.25",
		},
		{
			name:     "tolerates inner spaces",
			template: "{{ order_number }}",
			vars:     service.Vars{"order_number": "O-7"},
			want:     "O-7",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.RenderTemplate(tt.template, tt.vars))
		})
	}
}

func TestTemplateServiceRender(t *testing.T) {
	repo := &MockTemplateRepo{Templates: map[string]*model.NotificationTemplate{
		"active":   {Name: "active", Content: "Hello {{customer_name}}", IsActive: true},
		"inactive": {Name: "inactive", Content: "Hello {{customer_name}}", IsActive: false},
		"blank":    {Name: "blank", Content: "   ", IsActive: true},
	}}
	svc := &service.TemplateService{Repo: repo, Log: zerolog.Nop()}
	ctx := context.Background()
	vars := service.Vars{"customer_name": "Noura"}

	text, ok := svc.Render(ctx, "active", vars)
	assert.True(t, ok)
	assert.Equal(t, "Hello Noura", text)

	for _, name := range []string{"inactive", "blank", "missing", ""} {
		_, ok := svc.Render(ctx, name, vars)
		assert.False(t, ok, name)
	}
}

func TestTemplateServiceSwallowsLookupErrors(t *testing.T) {
	svc := &service.TemplateService{Repo: &MockTemplateRepo{Err: errors.New("db down")}, Log: zerolog.Nop()}
	text, ok := svc.Render(context.Background(), "order_status_new", service.Vars{})
	assert.False(t, ok)
	assert.Empty(t, text)
}
