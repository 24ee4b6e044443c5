package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/alert"
	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/repository"
)

type fakePositionRepo struct {
	positions []entity.OptionPosition
	err       error
}

func (f *fakePositionRepo) FindActive(_ context.Context, accountID string, strategy entity.StrategyKind) ([]entity.OptionPosition, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []entity.OptionPosition
	for _, p := range f.positions {
		if !p.IsActive {
			continue
		}
		if accountID != "" && p.AccountID != accountID {
			continue
		}
		if strategy != "" && p.Strategy != strategy {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePositionRepo) ActiveSymbols(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range f.positions {
		if !p.IsActive {
			continue
		}
		for _, s := range []string{p.Underlying, p.Symbol} {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out, nil
}

type fakeQuoteRepo struct {
	quotes map[string]*repository.Quote
}

func (f *fakeQuoteRepo) GetQuote(_ context.Context, symbol string) (*repository.Quote, error) {
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("quote request for %s failed with status 404", symbol)
	}
	return q, nil
}

type fakeRecRepo struct {
	stored []entity.Recommendation
	err    error
}

func (f *fakeRecRepo) CreateBatch(_ context.Context, recs []entity.Recommendation) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, recs...)
	return nil
}

func (f *fakeRecRepo) FindByAccount(_ context.Context, accountID string, since time.Time) ([]entity.Recommendation, error) {
	var out []entity.Recommendation
	for _, r := range f.stored {
		if r.AccountID == accountID && !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []entity.Recommendation
	var deleted int64
	for _, r := range f.stored {
		if r.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	f.stored = kept
	return deleted, nil
}

type fakePrefsRepo struct {
	prefs map[string]*entity.AlertPreferences
}

func (f *fakePrefsRepo) FindByAccount(_ context.Context, accountID string) (*entity.AlertPreferences, error) {
	if p, ok := f.prefs[accountID]; ok {
		return p, nil
	}
	return entity.DefaultPreferences(accountID), nil
}

func (f *fakePrefsRepo) FindAll(_ context.Context) ([]entity.AlertPreferences, error) {
	var out []entity.AlertPreferences
	for _, p := range f.prefs {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePrefsRepo) Upsert(_ context.Context, prefs *entity.AlertPreferences) error {
	if f.prefs == nil {
		f.prefs = map[string]*entity.AlertPreferences{}
	}
	f.prefs[prefs.AccountID] = prefs
	return nil
}

type fakeAlertCreator struct {
	calls [][]entity.Recommendation
	err   error
}

func (f *fakeAlertCreator) CreateFromRecommendations(_ context.Context, recs []entity.Recommendation, _ *entity.AlertPreferences) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.calls = append(f.calls, recs)
	return len(recs), nil
}

type fakeAnalyzer struct {
	kind     entity.StrategyKind
	recs     []entity.Recommendation
	err      error
	accounts []string
	seen     []alert.Thresholds
}

func (f *fakeAnalyzer) Kind() entity.StrategyKind { return f.kind }

func (f *fakeAnalyzer) Analyze(_ context.Context, accountID string, t alert.Thresholds) ([]entity.Recommendation, error) {
	f.accounts = append(f.accounts, accountID)
	f.seen = append(f.seen, t)
	if f.err != nil {
		return nil, f.err
	}
	return f.recs, nil
}
