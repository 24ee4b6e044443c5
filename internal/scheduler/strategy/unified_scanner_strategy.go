package strategy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/scanner"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"
)

// UnifiedScannerStrategy runs the options scanner across every enabled
// strategy analyzer.
type UnifiedScannerStrategy struct {
	logger  *logger.Logger
	scanner *scanner.Scanner
}

// NewUnifiedScannerStrategy creates a new UnifiedScannerStrategy.
func NewUnifiedScannerStrategy(log *logger.Logger, sc *scanner.Scanner) JobExecutionStrategy {
	return &UnifiedScannerStrategy{logger: log, scanner: sc}
}

// GetType returns the job type this strategy handles.
func (s *UnifiedScannerStrategy) GetType() entity.JobType {
	return entity.JobTypeUnifiedScanner
}

// Execute runs one scan. The job payload, when present, is a scanner
// configuration toggling analyzers, persistence, and alert generation.
func (s *UnifiedScannerStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	var cfg scanner.Config
	if len(job.Payload) > 0 {
		if err := json.Unmarshal(job.Payload, &cfg); err != nil {
			return "", fmt.Errorf("failed to unmarshal scanner config: %w", err)
		}
	}

	summary, err := s.scanner.Run(ctx, accountIDOf(job), cfg)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
