package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/alert"
	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/repository"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"
)

// OptionScannerAnalyzer is the generic pass over short-premium positions
// that don't belong to a dedicated strategy analyzer.
type OptionScannerAnalyzer struct {
	logger       *logger.Logger
	positionRepo repository.PositionRepository
	marketData   repository.MarketDataRepository
	now          func() time.Time
}

// NewOptionScannerAnalyzer creates the generic option analyzer.
func NewOptionScannerAnalyzer(log *logger.Logger, positionRepo repository.PositionRepository, marketData repository.MarketDataRepository) *OptionScannerAnalyzer {
	return &OptionScannerAnalyzer{
		logger:       log,
		positionRepo: positionRepo,
		marketData:   marketData,
		now:          time.Now,
	}
}

func (a *OptionScannerAnalyzer) Kind() entity.StrategyKind {
	return entity.StrategyOptionScanner
}

func (a *OptionScannerAnalyzer) Analyze(ctx context.Context, accountID string, thresholds alert.Thresholds) ([]entity.Recommendation, error) {
	positions, err := a.positionRepo.FindActive(ctx, accountID, entity.StrategyOptionScanner)
	if err != nil {
		return nil, fmt.Errorf("failed to load option positions: %w", err)
	}

	recs := make([]entity.Recommendation, 0, len(positions))
	for i := range positions {
		pos := &positions[i]
		quote, err := a.marketData.GetQuote(ctx, pos.Symbol)
		if err != nil {
			a.logger.Warn("Skipping option position, no quote",
				logger.ErrorField(err), logger.StringField("symbol", pos.Symbol))
			continue
		}
		recs = append(recs, a.evaluate(pos, quote, thresholds))
	}
	return recs, nil
}

func (a *OptionScannerAnalyzer) evaluate(pos *entity.OptionPosition, quote *repository.Quote, t alert.Thresholds) entity.Recommendation {
	dte := pos.DaysToExpiration(a.now())

	mark := (quote.Bid + quote.Ask) / 2
	if mark <= 0 {
		mark = quote.Last
	}
	profitPercent := 0.0
	if pos.EntryPremium > 0 {
		profitPercent = (pos.EntryPremium - mark) / pos.EntryPremium * 100
	}

	metrics := map[string]float64{
		"price":          quote.Last,
		"entry":          pos.EntryPremium,
		"mark":           mark,
		"profit_percent": profitPercent,
		"dte":            float64(dte),
		"delta":          quote.Delta,
		"iv":             quote.IV,
	}

	action := entity.ActionHold
	reason := "Within normal range"
	switch {
	case t.Profit > 0 && profitPercent >= t.Profit:
		action = entity.ActionBTC
		reason = fmt.Sprintf("Profit target reached: %.1f%% of premium captured", profitPercent)
	case t.Loss < 0 && profitPercent <= t.Loss:
		action = entity.ActionClose
		reason = fmt.Sprintf("Position down %.1f%%, past the loss threshold", profitPercent)
	case t.DTEWarning > 0 && dte <= t.DTEWarning:
		action = entity.ActionRoll
		reason = fmt.Sprintf("Expiration in %d day(s)", dte)
	}

	return entity.Recommendation{
		AccountID: pos.AccountID,
		Strategy:  entity.StrategyOptionScanner,
		Symbol:    pos.Symbol,
		Action:    action,
		Reason:    reason,
		Metrics:   entity.MetricsJSON(metrics),
	}
}
