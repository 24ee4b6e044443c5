package alert

import (
	"testing"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"

	"github.com/stretchr/testify/assert"
)

func defaultThresholds() Thresholds {
	return Thresholds{Profit: 50, Loss: -25, DTEWarning: 7}
}

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		name    string
		action  entity.Action
		metrics map[string]float64
		want    entity.Severity
	}{
		{
			name:    "profit target BTC is warning",
			action:  entity.ActionBTC,
			metrics: map[string]float64{"profit_percent": 80, "dte": 30},
			want:    entity.SeverityWarning,
		},
		{
			name:    "loss past threshold is urgent",
			action:  entity.ActionClose,
			metrics: map[string]float64{"profit_percent": -30},
			want:    entity.SeverityUrgent,
		},
		{
			name:    "loss past twice threshold is critical",
			action:  entity.ActionClose,
			metrics: map[string]float64{"profit_percent": -55},
			want:    entity.SeverityCritical,
		},
		{
			name:    "loss exactly at twice threshold is critical",
			action:  entity.ActionClose,
			metrics: map[string]float64{"profit_percent": -50},
			want:    entity.SeverityCritical,
		},
		{
			name:    "hold with low dte is warning",
			action:  entity.ActionHold,
			metrics: map[string]float64{"profit_percent": 10, "dte": 3},
			want:    entity.SeverityWarning,
		},
		{
			name:    "dte never escalates past warning",
			action:  entity.ActionBTC,
			metrics: map[string]float64{"profit_percent": 80, "dte": 1},
			want:    entity.SeverityWarning,
		},
		{
			name:    "hold with healthy metrics is info",
			action:  entity.ActionHold,
			metrics: map[string]float64{"profit_percent": 10, "dte": 45},
			want:    entity.SeverityInfo,
		},
		{
			name:    "watch without metrics is info",
			action:  entity.ActionWatch,
			metrics: map[string]float64{},
			want:    entity.SeverityInfo,
		},
		{
			name:    "roll is warning",
			action:  entity.ActionRoll,
			metrics: map[string]float64{"profit_percent": 5, "dte": 20},
			want:    entity.SeverityWarning,
		},
		{
			name:    "stc is warning",
			action:  entity.ActionSTC,
			metrics: map[string]float64{"dte": 20},
			want:    entity.SeverityWarning,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifySeverity(tc.action, tc.metrics, defaultThresholds())
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestClassifySeverityIgnoresLossRulesWithoutNegativeThreshold(t *testing.T) {
	got := ClassifySeverity(entity.ActionHold, map[string]float64{"profit_percent": -90}, Thresholds{Profit: 50, Loss: 0, DTEWarning: 7})
	assert.Equal(t, entity.SeverityInfo, got)
}

func TestThresholdsFromPreferences(t *testing.T) {
	prefs := entity.DefaultPreferences("acct-1")
	th := ThresholdsFromPreferences(prefs)
	assert.Equal(t, 50.0, th.Profit)
	assert.Equal(t, -25.0, th.Loss)
	assert.Equal(t, 7, th.DTEWarning)
}
