package channel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubsRepo struct {
	subs        []entity.PushSubscription
	deactivated []uint
}

func (f *fakeSubsRepo) Create(_ context.Context, sub *entity.PushSubscription) error {
	f.subs = append(f.subs, *sub)
	return nil
}

func (f *fakeSubsRepo) FindActiveByAccount(_ context.Context, accountID string) ([]entity.PushSubscription, error) {
	var out []entity.PushSubscription
	for _, s := range f.subs {
		if s.AccountID == accountID && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubsRepo) Deactivate(_ context.Context, id uint) error {
	f.deactivated = append(f.deactivated, id)
	return nil
}

func TestPushSendDeliversToActiveSubscriptions(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	repo := &fakeSubsRepo{subs: []entity.PushSubscription{
		{ID: 1, AccountID: "acct-1", Endpoint: srv.URL + "/a", IsActive: true},
		{ID: 2, AccountID: "acct-1", Endpoint: srv.URL + "/b", IsActive: true},
	}}
	n := NewPushNotifier(logger.Nop(), repo)
	receipt, err := n.Send(context.Background(), Message{AccountID: "acct-1", Text: "hello"})
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, 2, hits)
}

func TestPushSendDeactivatesGoneEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	repo := &fakeSubsRepo{subs: []entity.PushSubscription{
		{ID: 7, AccountID: "acct-1", Endpoint: srv.URL, IsActive: true},
	}}
	n := NewPushNotifier(logger.Nop(), repo)
	_, err := n.Send(context.Background(), Message{AccountID: "acct-1", Text: "hello"})
	require.Error(t, err)
	assert.Equal(t, []uint{7}, repo.deactivated)
}

func TestPushSendFailsWithoutSubscriptions(t *testing.T) {
	n := NewPushNotifier(logger.Nop(), &fakeSubsRepo{})
	_, err := n.Send(context.Background(), Message{AccountID: "acct-1", Text: "hello"})
	assert.Error(t, err)
}
