package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"

	"golang.org/x/time/rate"
)

// maxPostLength is the character budget for a social post.
const maxPostLength = 280

// SocialConfig holds credentials and posting limits for the social channel.
type SocialConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	BearerToken string        `mapstructure:"bearer_token"`
	PostsPerMin int           `mapstructure:"posts_per_min"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SocialNotifier publishes alert text as a public social post. Messages are
// rendered without account details upstream; this adapter only enforces the
// platform length limit and a client-side rate limit.
type SocialNotifier struct {
	logger  *logger.Logger
	cfg     SocialConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewSocialNotifier creates a social channel adapter.
func NewSocialNotifier(log *logger.Logger, cfg SocialConfig) *SocialNotifier {
	if cfg.PostsPerMin <= 0 {
		cfg.PostsPerMin = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SocialNotifier{
		logger:  log,
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.PostsPerMin)), 1),
	}
}

func (n *SocialNotifier) Kind() entity.ChannelKind {
	return entity.ChannelSocial
}

func (n *SocialNotifier) Send(ctx context.Context, msg Message) (*Receipt, error) {
	if n.cfg.BaseURL == "" || n.cfg.BearerToken == "" {
		return nil, fmt.Errorf("social: %w", ErrNotConfigured)
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]string{"text": truncatePost(msg.Text, maxPostLength)})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.BaseURL+"/2/posts", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.cfg.BearerToken)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, webhookBodyCaptureLimit))
		return nil, fmt.Errorf("social post returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// The post went out; a malformed body only costs us the ID.
		n.logger.Warn("Failed to decode social post response", logger.ErrorField(err))
		return &Receipt{}, nil
	}
	return &Receipt{ExternalID: result.Data.ID}, nil
}

// truncatePost trims text to limit characters, rune-safe, reserving room
// for an ellipsis when it has to cut.
func truncatePost(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}
