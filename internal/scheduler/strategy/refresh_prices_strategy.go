package strategy

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/repository"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"
)

// RefreshPricesStrategy warms the last-price cache for every symbol that
// appears in a watchlist or an open position, so scans and templates read
// fresh prices without a provider round trip.
type RefreshPricesStrategy struct {
	logger        *logger.Logger
	positionRepo  repository.PositionRepository
	watchlistRepo repository.WatchlistRepository
	marketData    repository.MarketDataRepository
}

// NewRefreshPricesStrategy creates a new RefreshPricesStrategy.
func NewRefreshPricesStrategy(log *logger.Logger, positionRepo repository.PositionRepository, watchlistRepo repository.WatchlistRepository, marketData repository.MarketDataRepository) JobExecutionStrategy {
	return &RefreshPricesStrategy{
		logger:        log,
		positionRepo:  positionRepo,
		watchlistRepo: watchlistRepo,
		marketData:    marketData,
	}
}

// GetType returns the job type this strategy handles.
func (s *RefreshPricesStrategy) GetType() entity.JobType {
	return entity.JobTypeRefreshPrices
}

// Execute fetches a quote per distinct symbol. Symbols that fail are
// reported but don't fail the run.
func (s *RefreshPricesStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	positionSymbols, err := s.positionRepo.ActiveSymbols(ctx)
	if err != nil {
		return "", err
	}
	watchSymbols, err := s.watchlistRepo.ActiveSymbols(ctx)
	if err != nil {
		return "", err
	}

	seen := make(map[string]struct{})
	symbols := make([]string, 0, len(positionSymbols)+len(watchSymbols))
	for _, sym := range append(positionSymbols, watchSymbols...) {
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	refreshed := 0
	var failed []string
	for _, sym := range symbols {
		if _, err := s.marketData.GetQuote(ctx, sym); err != nil {
			s.logger.Warn("Failed to refresh price", logger.ErrorField(err), logger.StringField("symbol", sym))
			failed = append(failed, sym)
			continue
		}
		refreshed++
	}

	out, err := json.Marshal(map[string]interface{}{
		"symbols":   len(symbols),
		"refreshed": refreshed,
		"failed":    failed,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
