package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/alert"
	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/repository"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// StrategyToggle enables or disables one analyzer. A nil Enabled means on,
// so job payloads only need to name the strategies they turn off.
type StrategyToggle struct {
	Enabled *bool `mapstructure:"enabled" json:"enabled,omitempty"`
}

func (t StrategyToggle) On() bool {
	return t.Enabled == nil || *t.Enabled
}

// Config controls one scan run. It arrives either from the service config
// or from a job payload.
type Config struct {
	OptionScanner    StrategyToggle `mapstructure:"option_scanner" json:"option_scanner,omitempty"`
	CoveredCall      StrategyToggle `mapstructure:"covered_call" json:"covered_call,omitempty"`
	ProtectivePut    StrategyToggle `mapstructure:"protective_put" json:"protective_put,omitempty"`
	StraddleStrangle StrategyToggle `mapstructure:"straddle_strangle" json:"straddle_strangle,omitempty"`
	Persist          *bool          `mapstructure:"persist" json:"persist,omitempty"`
	CreateAlerts     *bool          `mapstructure:"create_alerts" json:"create_alerts,omitempty"`
}

func (c Config) persist() bool {
	return c.Persist == nil || *c.Persist
}

func (c Config) createAlerts() bool {
	return c.CreateAlerts == nil || *c.CreateAlerts
}

func (c Config) enabled(kind entity.StrategyKind) bool {
	switch kind {
	case entity.StrategyOptionScanner:
		return c.OptionScanner.On()
	case entity.StrategyCoveredCall:
		return c.CoveredCall.On()
	case entity.StrategyProtectivePut:
		return c.ProtectivePut.On()
	case entity.StrategyStraddleStrangle:
		return c.StraddleStrangle.On()
	default:
		return false
	}
}

// AlertCreator promotes recommendations to alerts. Satisfied by
// alert.Generator.
type AlertCreator interface {
	CreateFromRecommendations(ctx context.Context, recs []entity.Recommendation, prefs *entity.AlertPreferences) (int, error)
}

// Summary is the structured result of one scan run.
type Summary struct {
	TotalScanned       int           `json:"total_scanned"`
	TotalStored        int           `json:"total_stored"`
	TotalAlertsCreated int           `json:"total_alerts_created"`
	Duration           time.Duration `json:"duration"`
	Errors             []string      `json:"errors,omitempty"`
}

// Scanner runs every enabled analyzer in one pass and fans the results out
// to storage and alert generation.
type Scanner struct {
	logger       *logger.Logger
	analyzers    []Analyzer
	recRepo      repository.RecommendationRepository
	prefsRepo    repository.AlertPreferencesRepository
	alertCreator AlertCreator
}

// NewScanner creates the unified scanner over the given analyzers.
func NewScanner(log *logger.Logger, analyzers []Analyzer, recRepo repository.RecommendationRepository, prefsRepo repository.AlertPreferencesRepository, alertCreator AlertCreator) *Scanner {
	return &Scanner{
		logger:       log,
		analyzers:    analyzers,
		recRepo:      recRepo,
		prefsRepo:    prefsRepo,
		alertCreator: alertCreator,
	}
}

// Run executes one scan. With an empty accountID every account's positions
// are scanned, each classified against its own thresholds. Analyzer failures
// land in Summary.Errors; the run itself only fails when nothing could run.
func (s *Scanner) Run(ctx context.Context, accountID string, cfg Config) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	thresholdsByAccount, err := s.loadThresholds(ctx, accountID)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	byStrategy := make(map[entity.StrategyKind][]entity.Recommendation)
	g, gctx := errgroup.WithContext(ctx)
	ran := 0
	for _, analyzer := range s.analyzers {
		if !cfg.enabled(analyzer.Kind()) {
			continue
		}
		ran++
		analyzer := analyzer
		g.Go(func() error {
			recs, err := s.runAnalyzer(gctx, analyzer, accountID, thresholdsByAccount)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", analyzer.Kind(), err))
				return nil
			}
			byStrategy[analyzer.Kind()] = recs
			summary.TotalScanned += len(recs)
			return nil
		})
	}
	if ran == 0 {
		return nil, fmt.Errorf("no analyzers enabled")
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(byStrategy) == 0 {
		summary.Duration = time.Since(start)
		return summary, fmt.Errorf("all analyzers failed: %v", summary.Errors)
	}

	all := make([]entity.Recommendation, 0, summary.TotalScanned)
	for _, recs := range byStrategy {
		all = append(all, recs...)
	}

	if cfg.persist() && len(all) > 0 {
		// Persist per strategy so one bad batch doesn't lose the rest.
		for kind, recs := range byStrategy {
			if len(recs) == 0 {
				continue
			}
			if err := s.recRepo.CreateBatch(ctx, recs); err != nil {
				s.logger.Error("Failed to store recommendations",
					logger.ErrorField(err), logger.StringField("strategy", string(kind)))
				summary.Errors = append(summary.Errors, fmt.Sprintf("store %s: %v", kind, err))
				continue
			}
			summary.TotalStored += len(recs)
		}
	}

	if cfg.createAlerts() && len(all) > 0 {
		created, err := s.generateAlerts(ctx, all)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("alerts: %v", err))
		}
		summary.TotalAlertsCreated = created
	}

	summary.Duration = time.Since(start)
	s.logger.Info("Scan complete",
		logger.IntField("scanned", summary.TotalScanned),
		logger.IntField("stored", summary.TotalStored),
		logger.IntField("alerts", summary.TotalAlertsCreated),
		logger.DurationField("duration", summary.Duration),
		logger.IntField("errors", len(summary.Errors)))
	return summary, nil
}

// runAnalyzer runs one analyzer per relevant account so each account's
// thresholds apply to its own positions.
func (s *Scanner) runAnalyzer(ctx context.Context, analyzer Analyzer, accountID string, thresholds map[string]alert.Thresholds) ([]entity.Recommendation, error) {
	if accountID != "" {
		return analyzer.Analyze(ctx, accountID, thresholds[accountID])
	}

	var all []entity.Recommendation
	for account, t := range thresholds {
		recs, err := analyzer.Analyze(ctx, account, t)
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}
	return all, nil
}

// loadThresholds maps each account to its classification thresholds.
// Accounts without stored preferences get the defaults.
func (s *Scanner) loadThresholds(ctx context.Context, accountID string) (map[string]alert.Thresholds, error) {
	out := make(map[string]alert.Thresholds)
	if accountID != "" {
		prefs, err := s.prefsRepo.FindByAccount(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to load preferences for %s: %w", accountID, err)
		}
		out[accountID] = alert.ThresholdsFromPreferences(prefs)
		return out, nil
	}

	allPrefs, err := s.prefsRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	for i := range allPrefs {
		out[allPrefs[i].AccountID] = alert.ThresholdsFromPreferences(&allPrefs[i])
	}
	if len(out) == 0 {
		defaults := entity.DefaultPreferences("")
		out[""] = alert.ThresholdsFromPreferences(defaults)
	}
	return out, nil
}

func (s *Scanner) generateAlerts(ctx context.Context, recs []entity.Recommendation) (int, error) {
	byAccount := make(map[string][]entity.Recommendation)
	for _, rec := range recs {
		byAccount[rec.AccountID] = append(byAccount[rec.AccountID], rec)
	}

	created := 0
	for account, accountRecs := range byAccount {
		prefs, err := s.prefsRepo.FindByAccount(ctx, account)
		if err != nil {
			s.logger.Error("Failed to load preferences for alert generation",
				logger.ErrorField(err), logger.StringField("account_id", account))
			continue
		}
		n, err := s.alertCreator.CreateFromRecommendations(ctx, accountRecs, prefs)
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}
