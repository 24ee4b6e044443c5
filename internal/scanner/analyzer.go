package scanner

import (
	"context"

	"github.com/sperezintexas/fintech-app-sub006/internal/alert"
	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
)

// Analyzer evaluates one strategy's open positions and produces
// recommendations. Implementations skip symbols whose market data is
// unavailable rather than failing the whole pass.
type Analyzer interface {
	Kind() entity.StrategyKind
	Analyze(ctx context.Context, accountID string, thresholds alert.Thresholds) ([]entity.Recommendation, error)
}
