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

// CoveredCallAnalyzer evaluates short calls written against held stock.
// Profit is measured as the share of the collected premium already earned:
// (entry premium - cost to buy back) / entry premium.
type CoveredCallAnalyzer struct {
	logger       *logger.Logger
	positionRepo repository.PositionRepository
	marketData   repository.MarketDataRepository
	now          func() time.Time
}

// NewCoveredCallAnalyzer creates a covered-call analyzer.
func NewCoveredCallAnalyzer(log *logger.Logger, positionRepo repository.PositionRepository, marketData repository.MarketDataRepository) *CoveredCallAnalyzer {
	return &CoveredCallAnalyzer{
		logger:       log,
		positionRepo: positionRepo,
		marketData:   marketData,
		now:          time.Now,
	}
}

func (a *CoveredCallAnalyzer) Kind() entity.StrategyKind {
	return entity.StrategyCoveredCall
}

func (a *CoveredCallAnalyzer) Analyze(ctx context.Context, accountID string, thresholds alert.Thresholds) ([]entity.Recommendation, error) {
	positions, err := a.positionRepo.FindActive(ctx, accountID, entity.StrategyCoveredCall)
	if err != nil {
		return nil, fmt.Errorf("failed to load covered call positions: %w", err)
	}

	recs := make([]entity.Recommendation, 0, len(positions))
	for i := range positions {
		pos := &positions[i]
		optionQuote, err := a.marketData.GetQuote(ctx, pos.Symbol)
		if err != nil {
			a.logger.Warn("Skipping covered call position, no option quote",
				logger.ErrorField(err), logger.StringField("symbol", pos.Symbol))
			continue
		}
		underlyingQuote, err := a.marketData.GetQuote(ctx, pos.Underlying)
		if err != nil {
			a.logger.Warn("Skipping covered call position, no underlying quote",
				logger.ErrorField(err), logger.StringField("symbol", pos.Underlying))
			continue
		}

		rec := a.evaluate(pos, optionQuote, underlyingQuote, thresholds)
		recs = append(recs, rec)
	}
	return recs, nil
}

func (a *CoveredCallAnalyzer) evaluate(pos *entity.OptionPosition, option, underlying *repository.Quote, t alert.Thresholds) entity.Recommendation {
	dte := pos.DaysToExpiration(a.now())

	// Buying back at the ask is the conservative cost estimate.
	buyback := option.Ask
	if buyback <= 0 {
		buyback = option.Last
	}
	profitPercent := 0.0
	if pos.EntryPremium > 0 {
		profitPercent = (pos.EntryPremium - buyback) / pos.EntryPremium * 100
	}

	metrics := map[string]float64{
		"price":          underlying.Last,
		"entry":          pos.EntryPremium,
		"buyback":        buyback,
		"profit_percent": profitPercent,
		"dte":            float64(dte),
		"strike":         pos.Strike,
	}

	action := entity.ActionHold
	reason := "No action needed"
	switch {
	case t.Profit > 0 && profitPercent >= t.Profit:
		action = entity.ActionBTC
		reason = fmt.Sprintf("Profit target reached: %.1f%% of premium captured", profitPercent)
	case pos.Strike > 0 && underlying.Last >= pos.Strike:
		action = entity.ActionRoll
		reason = fmt.Sprintf("Underlying %.2f is at or above the %.2f strike", underlying.Last, pos.Strike)
	case t.DTEWarning > 0 && dte <= t.DTEWarning:
		action = entity.ActionRoll
		reason = fmt.Sprintf("Expiration in %d day(s)", dte)
	case t.Loss < 0 && profitPercent <= t.Loss:
		action = entity.ActionClose
		reason = fmt.Sprintf("Position down %.1f%%, past the loss threshold", profitPercent)
	}

	return entity.Recommendation{
		AccountID: pos.AccountID,
		Strategy:  entity.StrategyCoveredCall,
		Symbol:    pos.Symbol,
		Action:    action,
		Reason:    reason,
		Metrics:   entity.MetricsJSON(metrics),
	}
}
