package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/pkg/common"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"
	redisPkg "github.com/sperezintexas/fintech-app-sub006/pkg/redis"
	"github.com/sperezintexas/fintech-app-sub006/pkg/retry"
)

// Quote is a market snapshot for one symbol. The provider is a black box;
// only the fields below are relied on.
type Quote struct {
	Symbol    string  `json:"symbol"`
	Last      float64 `json:"last"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	PrevClose float64 `json:"prev_close"`
	Delta     float64 `json:"delta"`
	IV        float64 `json:"iv"`
	Timestamp int64   `json:"timestamp"`
}

// MarketDataRepository fetches quotes from the external market-data provider.
type MarketDataRepository interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
}

// MarketDataConfig holds provider settings.
type MarketDataConfig struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	CacheTTL    time.Duration
	MaxAttempts int
	Backoff     []time.Duration
}

// NewMarketDataRepository creates an HTTP market-data repository that caches
// the latest price per symbol in Redis.
func NewMarketDataRepository(cfg MarketDataConfig, redisClient *redisPkg.Client, log *logger.Logger) MarketDataRepository {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if len(cfg.Backoff) == 0 {
		cfg.Backoff = []time.Duration{time.Second, 3 * time.Second}
	}
	return &marketDataRepository{
		cfg:         cfg,
		client:      &http.Client{Timeout: cfg.Timeout},
		redisClient: redisClient,
		logger:      log,
	}
}

type marketDataRepository struct {
	cfg         MarketDataConfig
	client      *http.Client
	redisClient *redisPkg.Client
	logger      *logger.Logger
}

func (r *marketDataRepository) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	var quote Quote
	err := retry.Do(ctx, retry.Config{
		MaxAttempts: r.cfg.MaxAttempts,
		Backoff:     r.cfg.Backoff,
		JobName:     "market-data-quote",
	}, func(ctx context.Context) error {
		return r.fetchQuote(ctx, symbol, &quote)
	})
	if err != nil {
		return nil, err
	}

	r.cacheLastPrice(ctx, &quote)
	return &quote, nil
}

func (r *marketDataRepository) fetchQuote(ctx context.Context, symbol string, out *Quote) error {
	url := fmt.Sprintf("%s/v1/quotes/%s", r.cfg.BaseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if r.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("quote request for %s failed with status %d: %s", symbol, resp.StatusCode, truncate(string(body), 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode quote for %s: %w", symbol, err)
	}
	if out.Symbol == "" {
		out.Symbol = symbol
	}
	return nil
}

// cacheLastPrice is best effort; a cache miss only costs a provider call.
func (r *marketDataRepository) cacheLastPrice(ctx context.Context, quote *Quote) {
	if r.redisClient == nil || r.cfg.CacheTTL <= 0 {
		return
	}
	key := common.LastPriceKey(quote.Symbol)
	pipe := r.redisClient.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"price":     quote.Last,
		"timestamp": time.Now().Unix(),
	})
	pipe.Expire(ctx, key, r.cfg.CacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to cache last price", logger.ErrorField(err), logger.StringField("symbol", quote.Symbol))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
