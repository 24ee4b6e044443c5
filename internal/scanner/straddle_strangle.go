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

// straddleDTEClose is the point where theta decay dominates a long
// volatility position regardless of the account's DTE warning setting.
const straddleDTEClose = 21

// StraddleStrangleAnalyzer evaluates long straddles and strangles. A strike
// breach on either side means the move happened and the position should be
// rolled or taken off.
type StraddleStrangleAnalyzer struct {
	logger       *logger.Logger
	positionRepo repository.PositionRepository
	marketData   repository.MarketDataRepository
	now          func() time.Time
}

// NewStraddleStrangleAnalyzer creates a straddle/strangle analyzer.
func NewStraddleStrangleAnalyzer(log *logger.Logger, positionRepo repository.PositionRepository, marketData repository.MarketDataRepository) *StraddleStrangleAnalyzer {
	return &StraddleStrangleAnalyzer{
		logger:       log,
		positionRepo: positionRepo,
		marketData:   marketData,
		now:          time.Now,
	}
}

func (a *StraddleStrangleAnalyzer) Kind() entity.StrategyKind {
	return entity.StrategyStraddleStrangle
}

func (a *StraddleStrangleAnalyzer) Analyze(ctx context.Context, accountID string, thresholds alert.Thresholds) ([]entity.Recommendation, error) {
	positions, err := a.positionRepo.FindActive(ctx, accountID, entity.StrategyStraddleStrangle)
	if err != nil {
		return nil, fmt.Errorf("failed to load straddle/strangle positions: %w", err)
	}

	recs := make([]entity.Recommendation, 0, len(positions))
	for i := range positions {
		pos := &positions[i]
		optionQuote, err := a.marketData.GetQuote(ctx, pos.Symbol)
		if err != nil {
			a.logger.Warn("Skipping straddle/strangle position, no option quote",
				logger.ErrorField(err), logger.StringField("symbol", pos.Symbol))
			continue
		}
		underlying, err := a.marketData.GetQuote(ctx, pos.Underlying)
		if err != nil {
			a.logger.Warn("Skipping straddle/strangle position, no underlying quote",
				logger.ErrorField(err), logger.StringField("symbol", pos.Underlying))
			continue
		}
		recs = append(recs, a.evaluate(pos, optionQuote, underlying, thresholds))
	}
	return recs, nil
}

func (a *StraddleStrangleAnalyzer) evaluate(pos *entity.OptionPosition, option, underlying *repository.Quote, t alert.Thresholds) entity.Recommendation {
	dte := pos.DaysToExpiration(a.now())

	// Straddles carry one strike on both legs.
	putStrike := pos.PutStrike
	callStrike := pos.CallStrike
	if putStrike == 0 && callStrike == 0 {
		putStrike = pos.Strike
		callStrike = pos.Strike
	}

	mark := (option.Bid + option.Ask) / 2
	if mark <= 0 {
		mark = option.Last
	}
	profitPercent := 0.0
	if pos.EntryPremium > 0 {
		profitPercent = (mark - pos.EntryPremium) / pos.EntryPremium * 100
	}

	metrics := map[string]float64{
		"price":          underlying.Last,
		"entry":          pos.EntryPremium,
		"mark":           mark,
		"profit_percent": profitPercent,
		"dte":            float64(dte),
		"put_strike":     putStrike,
		"call_strike":    callStrike,
	}

	action := entity.ActionHold
	reason := "Waiting for a move"
	switch {
	case callStrike > 0 && underlying.Last >= callStrike:
		action = entity.ActionRoll
		reason = fmt.Sprintf("Underlying %.2f breached the %.2f call strike", underlying.Last, callStrike)
	case putStrike > 0 && underlying.Last <= putStrike:
		action = entity.ActionRoll
		reason = fmt.Sprintf("Underlying %.2f breached the %.2f put strike", underlying.Last, putStrike)
	case t.Profit > 0 && profitPercent >= t.Profit:
		action = entity.ActionBTC
		reason = fmt.Sprintf("Premium up %.1f%%, profit target reached", profitPercent)
	case dte <= straddleDTEClose:
		action = entity.ActionClose
		reason = fmt.Sprintf("%d day(s) to expiration, theta decay accelerating", dte)
	}

	return entity.Recommendation{
		AccountID: pos.AccountID,
		Strategy:  entity.StrategyStraddleStrangle,
		Symbol:    pos.Symbol,
		Action:    action,
		Reason:    reason,
		Metrics:   entity.MetricsJSON(metrics),
	}
}
