package alert

import (
	"context"
	"testing"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(account, symbol string, action entity.Action, reason string, metrics map[string]float64) entity.Recommendation {
	return entity.Recommendation{
		AccountID: account,
		Strategy:  entity.StrategyCoveredCall,
		Symbol:    symbol,
		Action:    action,
		Reason:    reason,
		Metrics:   entity.MetricsJSON(metrics),
	}
}

func TestGeneratorCreatesAlertAtOrAboveFloor(t *testing.T) {
	alertRepo := &fakeAlertRepo{}
	g := NewGenerator(logger.Nop(), alertRepo, &fakeWatchlistRepo{}, time.Minute)
	prefs := entity.DefaultPreferences("acct-1")

	recs := []entity.Recommendation{
		rec("acct-1", "AAPL", entity.ActionBTC, "profit target", map[string]float64{"profit_percent": 80}),
		rec("acct-1", "MSFT", entity.ActionHold, "all good", map[string]float64{"profit_percent": 10, "dte": 40}),
	}
	created, err := g.CreateFromRecommendations(context.Background(), recs, prefs)
	require.NoError(t, err)

	// The default floor is warning, so the info-level HOLD is dropped.
	assert.Equal(t, 1, created)
	require.Len(t, alertRepo.alerts, 1)
	assert.Equal(t, "AAPL", alertRepo.alerts[0].Symbol)
	assert.Equal(t, entity.SeverityWarning, alertRepo.alerts[0].Severity)
	assert.NotEmpty(t, alertRepo.alerts[0].SuggestedActionList())
}

func TestGeneratorSuppressesDuplicateWithinWindow(t *testing.T) {
	alertRepo := &fakeAlertRepo{}
	g := NewGenerator(logger.Nop(), alertRepo, &fakeWatchlistRepo{}, time.Hour)
	prefs := entity.DefaultPreferences("acct-1")

	recs := []entity.Recommendation{
		rec("acct-1", "AAPL", entity.ActionBTC, "profit target", map[string]float64{"profit_percent": 80}),
	}
	created, err := g.CreateFromRecommendations(context.Background(), recs, prefs)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	created, err = g.CreateFromRecommendations(context.Background(), recs, prefs)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Len(t, alertRepo.alerts, 1)
}

func TestGeneratorSuppressesOpenAlertAcrossRestart(t *testing.T) {
	alertRepo := &fakeAlertRepo{}
	prefs := entity.DefaultPreferences("acct-1")
	recs := []entity.Recommendation{
		rec("acct-1", "AAPL", entity.ActionBTC, "profit target", map[string]float64{"profit_percent": 80}),
	}

	g := NewGenerator(logger.Nop(), alertRepo, &fakeWatchlistRepo{}, time.Hour)
	_, err := g.CreateFromRecommendations(context.Background(), recs, prefs)
	require.NoError(t, err)

	// A fresh generator has an empty in-process cache; the open alert in
	// storage still blocks the duplicate.
	g2 := NewGenerator(logger.Nop(), alertRepo, &fakeWatchlistRepo{}, time.Hour)
	created, err := g2.CreateFromRecommendations(context.Background(), recs, prefs)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Len(t, alertRepo.alerts, 1)
}

func TestGeneratorAllowsNewAlertAfterAcknowledge(t *testing.T) {
	alertRepo := &fakeAlertRepo{}
	prefs := entity.DefaultPreferences("acct-1")
	recs := []entity.Recommendation{
		rec("acct-1", "AAPL", entity.ActionBTC, "profit target", map[string]float64{"profit_percent": 80}),
	}

	g := NewGenerator(logger.Nop(), alertRepo, &fakeWatchlistRepo{}, time.Hour)
	_, err := g.CreateFromRecommendations(context.Background(), recs, prefs)
	require.NoError(t, err)
	require.NoError(t, alertRepo.Acknowledge(context.Background(), alertRepo.alerts[0].ID, time.Now()))

	g2 := NewGenerator(logger.Nop(), alertRepo, &fakeWatchlistRepo{}, time.Hour)
	created, err := g2.CreateFromRecommendations(context.Background(), recs, prefs)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Len(t, alertRepo.alerts, 2)
}

func TestGeneratorResolvesWatchlistItem(t *testing.T) {
	alertRepo := &fakeAlertRepo{}
	watchlistRepo := &fakeWatchlistRepo{items: []entity.WatchlistItem{
		{ID: 42, AccountID: "acct-1", Symbol: "AAPL", IsActive: true},
	}}
	g := NewGenerator(logger.Nop(), alertRepo, watchlistRepo, time.Minute)
	prefs := entity.DefaultPreferences("acct-1")

	recs := []entity.Recommendation{
		rec("acct-1", "AAPL", entity.ActionBTC, "profit target", map[string]float64{"profit_percent": 80}),
		rec("acct-1", "TSLA", entity.ActionRoll, "expiring", map[string]float64{"dte": 2}),
	}
	_, err := g.CreateFromRecommendations(context.Background(), recs, prefs)
	require.NoError(t, err)

	require.Len(t, alertRepo.alerts, 2)
	assert.Equal(t, uint(42), alertRepo.alerts[0].WatchlistItemID)
	// Position-only symbols that aren't tracked resolve to zero.
	assert.Equal(t, uint(0), alertRepo.alerts[1].WatchlistItemID)
}
