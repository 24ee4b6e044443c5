package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocialSendPostsAndReturnsID(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/posts", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"12345"}}`))
	}))
	defer srv.Close()

	n := NewSocialNotifier(logger.Nop(), SocialConfig{BaseURL: srv.URL, BearerToken: "tok", PostsPerMin: 600})
	receipt, err := n.Send(context.Background(), Message{Text: "AAPL BTC (warning)"})
	require.NoError(t, err)
	assert.Equal(t, "12345", receipt.ExternalID)
	assert.Equal(t, "AAPL BTC (warning)", got["text"])
}

func TestSocialSendTruncatesLongPosts(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":{"id":"1"}}`))
	}))
	defer srv.Close()

	n := NewSocialNotifier(logger.Nop(), SocialConfig{BaseURL: srv.URL, BearerToken: "tok", PostsPerMin: 600})
	long := strings.Repeat("é", 400)
	_, err := n.Send(context.Background(), Message{Text: long})
	require.NoError(t, err)

	assert.LessOrEqual(t, utf8.RuneCountInString(got["text"]), maxPostLength)
	assert.True(t, strings.HasSuffix(got["text"], "..."))
	assert.True(t, utf8.ValidString(got["text"]))
}

func TestTruncatePostKeepsShortTextIntact(t *testing.T) {
	assert.Equal(t, "short", truncatePost("short", maxPostLength))
}

func TestSocialSendRequiresConfiguration(t *testing.T) {
	n := NewSocialNotifier(logger.Nop(), SocialConfig{})
	_, err := n.Send(context.Background(), Message{Text: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
