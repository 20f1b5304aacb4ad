// internal/service/template_service.go
package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/unclebandit/agency-notifier/internal/repository"
)

// Vars maps placeholder names to values.
type Vars map[string]any

// Str returns the stringified value of key, or "" when absent.
func (v Vars) Str(key string) string {
	val, ok := v[key]
	if !ok {
		return ""
	}
	return stringify(val)
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// RenderTemplate replaces every {{key}} with its value. Unknown placeholders stay verbatim.
func RenderTemplate(template string, data Vars) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]
		val, ok := data[key]
		if !ok {
			return match
		}
		return stringify(val)
	})
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.String()
	case fmt.Stringer:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// TemplateService resolves named templates from message_templates.
type TemplateService struct {
	Repo repository.TemplateRepositoryInterface
	Log  zerolog.Logger
}

// Render returns the rendered active template, or false when none is usable.
// Lookup failures are logged, never returned.
func (s *TemplateService) Render(ctx context.Context, name string, vars Vars) (string, bool) {
	if strings.TrimSpace(name) == "" {
		return "", false
	}
	t, err := s.Repo.GetByName(ctx, name)
	if err != nil {
		s.Log.Warn().Err(err).Str("template", name).Msg("template lookup failed, using fallback text")
		return "", false
	}
	if t == nil {
		s.Log.Debug().Str("template", name).Msg("template not configured")
		return "", false
	}
	if !t.IsActive || strings.TrimSpace(t.Content) == "" {
		s.Log.Debug().Str("template", name).Bool("active", t.IsActive).Msg("template inactive or empty")
		return "", false
	}
	return RenderTemplate(t.Content, vars), true
}
