package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/repository"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
)

// Generator promotes recommendations to watchlist alerts, suppressing
// duplicates within a cool-down window.
type Generator struct {
	logger        *logger.Logger
	alertRepo     repository.AlertRepository
	watchlistRepo repository.WatchlistRepository
	cooldown      *gocache.Cache
	window        time.Duration
}

// NewGenerator creates an alert generator. The window bounds how long a
// (item, recommendation, reason) key suppresses repeat alerts in-process;
// the unacknowledged-alert check in storage covers restarts.
func NewGenerator(log *logger.Logger, alertRepo repository.AlertRepository, watchlistRepo repository.WatchlistRepository, window time.Duration) *Generator {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &Generator{
		logger:        log,
		alertRepo:     alertRepo,
		watchlistRepo: watchlistRepo,
		cooldown:      gocache.New(window, 2*window),
		window:        window,
	}
}

// CreateFromRecommendations creates alerts for recommendations whose
// severity reaches the account's floor. Returns the number created.
// Individual failures are logged and skipped; the batch continues.
func (g *Generator) CreateFromRecommendations(ctx context.Context, recs []entity.Recommendation, prefs *entity.AlertPreferences) (int, error) {
	thresholds := ThresholdsFromPreferences(prefs)
	floor := prefs.SeverityFloor()

	created := 0
	for i := range recs {
		rec := &recs[i]
		severity := ClassifySeverity(rec.Action, rec.MetricsMap(), thresholds)
		if !severity.AtLeast(floor) {
			continue
		}

		itemID := g.resolveWatchlistItem(ctx, rec)
		dedupKey := fmt.Sprintf("%s:%d:%s:%s:%s", rec.AccountID, itemID, rec.Symbol, rec.Action, rec.Reason)
		if _, found := g.cooldown.Get(dedupKey); found {
			continue
		}

		exists, err := g.alertRepo.ExistsUnacknowledged(ctx, rec.AccountID, itemID, rec.Action, rec.Reason)
		if err != nil {
			g.logger.Error("Failed to check for duplicate alert", logger.ErrorField(err), logger.StringField("symbol", rec.Symbol))
			continue
		}
		if exists {
			g.cooldown.Set(dedupKey, struct{}{}, g.window)
			continue
		}

		alert := &entity.WatchlistAlert{
			WatchlistItemID:  itemID,
			AccountID:        rec.AccountID,
			Symbol:           rec.Symbol,
			Recommendation:   rec.Action,
			Severity:         severity,
			Reason:           rec.Reason,
			Details:          rec.Metrics,
			SuggestedActions: suggestedActionsJSON(rec.Action, rec.Symbol),
		}
		if err := g.alertRepo.Create(ctx, alert); err != nil {
			g.logger.Error("Failed to create alert", logger.ErrorField(err), logger.StringField("symbol", rec.Symbol))
			continue
		}
		g.cooldown.Set(dedupKey, struct{}{}, g.window)
		created++
	}
	return created, nil
}

// resolveWatchlistItem maps a recommendation to the account's watchlist
// item for the symbol. Position-only symbols that aren't tracked resolve
// to zero.
func (g *Generator) resolveWatchlistItem(ctx context.Context, rec *entity.Recommendation) uint {
	item, err := g.watchlistRepo.FindBySymbol(ctx, rec.AccountID, rec.Symbol)
	if err != nil {
		g.logger.Error("Failed to resolve watchlist item", logger.ErrorField(err), logger.StringField("symbol", rec.Symbol))
		return 0
	}
	if item == nil {
		return 0
	}
	return item.ID
}

func suggestedActionsJSON(action entity.Action, symbol string) []byte {
	var actions []string
	switch action {
	case entity.ActionBTC:
		actions = []string{
			fmt.Sprintf("Buy to close %s", symbol),
			"Review realized premium against the profit target",
		}
	case entity.ActionSTC:
		actions = []string{
			fmt.Sprintf("Sell to close %s", symbol),
			"Confirm the protective leg is no longer needed",
		}
	case entity.ActionRoll:
		actions = []string{
			fmt.Sprintf("Roll %s to a later expiration", symbol),
			"Compare roll credit against closing outright",
		}
	case entity.ActionClose:
		actions = []string{
			fmt.Sprintf("Close %s", symbol),
			"Review the loss against the account's risk limits",
		}
	case entity.ActionWatch:
		actions = []string{fmt.Sprintf("Review %s at next market open", symbol)}
	default:
		actions = []string{"No action required"}
	}
	b, err := json.Marshal(actions)
	if err != nil {
		return []byte("[]")
	}
	return b
}
