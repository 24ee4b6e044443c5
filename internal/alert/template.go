package alert

import (
	"fmt"
	"strings"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
)

// DefaultTemplateID is used when an account has no template configured or
// references an unknown one.
const DefaultTemplateID = "default"

var builtinTemplates = map[string]string{
	DefaultTemplateID: "[{severity}] {symbol}: {action} - {reason} (price {currentPrice}, P/L {profitPercent}%, DTE {dte}){accountSuffix}",
	"compact":         "{symbol} {action} ({severity})",
	"detailed":        "Alert for {symbol}{accountSuffix}\nAction: {action}\nSeverity: {severity}\nReason: {reason}\nPrice: {currentPrice}\nP/L: {profitPercent}%\nDTE: {dte}",
}

// TemplateRegistry renders alert messages from named templates with
// placeholder substitution.
type TemplateRegistry struct {
	templates map[string]string
}

// NewTemplateRegistry creates a registry seeded with the built-in templates.
func NewTemplateRegistry() *TemplateRegistry {
	templates := make(map[string]string, len(builtinTemplates))
	for id, body := range builtinTemplates {
		templates[id] = body
	}
	return &TemplateRegistry{templates: templates}
}

// Register adds or replaces a template.
func (r *TemplateRegistry) Register(id, body string) {
	r.templates[id] = body
}

// Render substitutes placeholders into the identified template. When public
// is true, personally-identifying fields are omitted so the message is safe
// for shared channels.
func (r *TemplateRegistry) Render(templateID string, alert *entity.WatchlistAlert, accountName string, public bool) string {
	body, ok := r.templates[templateID]
	if !ok {
		body = r.templates[DefaultTemplateID]
	}

	details := alert.DetailsMap()
	accountSuffix := ""
	if !public && accountName != "" {
		accountSuffix = " for " + accountName
	}
	if public {
		accountName = ""
	}

	replacer := strings.NewReplacer(
		"{symbol}", alert.Symbol,
		"{action}", string(alert.Recommendation),
		"{reason}", alert.Reason,
		"{severity}", string(alert.Severity),
		"{currentPrice}", formatMetric(details, "price"),
		"{profitPercent}", formatMetric(details, "profit_percent"),
		"{dte}", formatMetricInt(details, "dte"),
		"{entryPrice}", formatMetric(details, "entry"),
		"{changePercent}", formatMetric(details, "change_percent"),
		"{accountName}", accountName,
		"{accountSuffix}", accountSuffix,
	)
	return replacer.Replace(body)
}

func formatMetric(m map[string]float64, key string) string {
	v, ok := m[key]
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatMetricInt(m map[string]float64, key string) string {
	v, ok := m[key]
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%d", int(v))
}
