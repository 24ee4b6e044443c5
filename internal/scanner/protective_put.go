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

// ProtectivePutAnalyzer evaluates long puts held as insurance against a
// stock position. The put paying off (underlying at or below strike) is a
// sell signal for the put, not a loss.
type ProtectivePutAnalyzer struct {
	logger       *logger.Logger
	positionRepo repository.PositionRepository
	marketData   repository.MarketDataRepository
	now          func() time.Time
}

// NewProtectivePutAnalyzer creates a protective-put analyzer.
func NewProtectivePutAnalyzer(log *logger.Logger, positionRepo repository.PositionRepository, marketData repository.MarketDataRepository) *ProtectivePutAnalyzer {
	return &ProtectivePutAnalyzer{
		logger:       log,
		positionRepo: positionRepo,
		marketData:   marketData,
		now:          time.Now,
	}
}

func (a *ProtectivePutAnalyzer) Kind() entity.StrategyKind {
	return entity.StrategyProtectivePut
}

func (a *ProtectivePutAnalyzer) Analyze(ctx context.Context, accountID string, thresholds alert.Thresholds) ([]entity.Recommendation, error) {
	positions, err := a.positionRepo.FindActive(ctx, accountID, entity.StrategyProtectivePut)
	if err != nil {
		return nil, fmt.Errorf("failed to load protective put positions: %w", err)
	}

	recs := make([]entity.Recommendation, 0, len(positions))
	for i := range positions {
		pos := &positions[i]
		underlying, err := a.marketData.GetQuote(ctx, pos.Underlying)
		if err != nil {
			a.logger.Warn("Skipping protective put position, no underlying quote",
				logger.ErrorField(err), logger.StringField("symbol", pos.Underlying))
			continue
		}
		recs = append(recs, a.evaluate(pos, underlying, thresholds))
	}
	return recs, nil
}

func (a *ProtectivePutAnalyzer) evaluate(pos *entity.OptionPosition, underlying *repository.Quote, t alert.Thresholds) entity.Recommendation {
	dte := pos.DaysToExpiration(a.now())

	changePercent := 0.0
	if pos.UnderlyingEntry > 0 {
		changePercent = (underlying.Last - pos.UnderlyingEntry) / pos.UnderlyingEntry * 100
	}

	metrics := map[string]float64{
		"price":          underlying.Last,
		"entry":          pos.UnderlyingEntry,
		"change_percent": changePercent,
		"dte":            float64(dte),
		"strike":         pos.Strike,
	}

	action := entity.ActionHold
	reason := "Protection in place"
	switch {
	case pos.Strike > 0 && underlying.Last <= pos.Strike:
		action = entity.ActionSTC
		reason = fmt.Sprintf("Put is in the money: underlying %.2f at or below the %.2f strike", underlying.Last, pos.Strike)
	case t.DTEWarning > 0 && dte <= t.DTEWarning:
		action = entity.ActionRoll
		reason = fmt.Sprintf("Protection expires in %d day(s)", dte)
	case t.Loss < 0 && changePercent <= t.Loss:
		action = entity.ActionWatch
		reason = fmt.Sprintf("Underlying down %.1f%%, approaching the put strike", changePercent)
	}

	return entity.Recommendation{
		AccountID: pos.AccountID,
		Strategy:  entity.StrategyProtectivePut,
		Symbol:    pos.Symbol,
		Action:    action,
		Reason:    reason,
		Metrics:   entity.MetricsJSON(metrics),
	}
}
