package alert

import (
	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
)

// Thresholds is the normalized set of numeric limits used to classify a
// recommendation's severity. Loss is expressed as a negative percentage.
type Thresholds struct {
	Profit     float64
	Loss       float64
	DTEWarning int
}

// ThresholdsFromPreferences extracts the account's thresholds.
func ThresholdsFromPreferences(prefs *entity.AlertPreferences) Thresholds {
	return Thresholds{
		Profit:     prefs.ProfitThreshold,
		Loss:       prefs.LossThreshold,
		DTEWarning: prefs.DTEWarning,
	}
}

// ClassifySeverity derives a severity from an action and its metrics. All
// strategies share this single classification so thresholds never diverge
// per analyzer. Rules, most severe first:
//
//   - P/L at or below twice the loss threshold: critical
//   - P/L at or below the loss threshold: urgent
//   - action BTC, STC, CLOSE or ROLL: warning
//   - days to expiration at or below the warning threshold: warning
//     (DTE alone never escalates past warning)
//   - everything else: info
func ClassifySeverity(action entity.Action, metrics map[string]float64, t Thresholds) entity.Severity {
	if t.Loss < 0 {
		if pl, ok := metrics["profit_percent"]; ok {
			if pl <= 2*t.Loss {
				return entity.SeverityCritical
			}
			if pl <= t.Loss {
				return entity.SeverityUrgent
			}
		}
	}

	switch action {
	case entity.ActionBTC, entity.ActionSTC, entity.ActionClose, entity.ActionRoll:
		return entity.SeverityWarning
	}

	if dte, ok := metrics["dte"]; ok && t.DTEWarning > 0 && int(dte) <= t.DTEWarning {
		return entity.SeverityWarning
	}

	return entity.SeverityInfo
}
