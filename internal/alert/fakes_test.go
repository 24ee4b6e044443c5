package alert

import (
	"context"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"

	"gorm.io/gorm"
)

type fakeAlertRepo struct {
	alerts  []entity.WatchlistAlert
	nextID  uint
	failure error
}

func (f *fakeAlertRepo) Create(_ context.Context, alert *entity.WatchlistAlert) error {
	if f.failure != nil {
		return f.failure
	}
	f.nextID++
	alert.ID = f.nextID
	f.alerts = append(f.alerts, *alert)
	return nil
}

func (f *fakeAlertRepo) FindByID(_ context.Context, id uint) (*entity.WatchlistAlert, error) {
	for i := range f.alerts {
		if f.alerts[i].ID == id {
			return &f.alerts[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAlertRepo) FindByAccount(_ context.Context, accountID string, includeAcknowledged bool) ([]entity.WatchlistAlert, error) {
	var out []entity.WatchlistAlert
	for _, a := range f.alerts {
		if a.AccountID != accountID {
			continue
		}
		if !includeAcknowledged && a.Acknowledged {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAlertRepo) FindPending(_ context.Context, accountID string) ([]entity.WatchlistAlert, error) {
	if f.failure != nil {
		return nil, f.failure
	}
	var out []entity.WatchlistAlert
	for _, a := range f.alerts {
		if a.Acknowledged || a.NotifiedAt.Valid {
			continue
		}
		if accountID != "" && a.AccountID != accountID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAlertRepo) FindUnacknowledged(_ context.Context, accountID string) ([]entity.WatchlistAlert, error) {
	var out []entity.WatchlistAlert
	for _, a := range f.alerts {
		if !a.Acknowledged && a.AccountID == accountID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlertRepo) ExistsUnacknowledged(_ context.Context, accountID string, watchlistItemID uint, recommendation entity.Action, reason string) (bool, error) {
	for _, a := range f.alerts {
		if !a.Acknowledged && a.AccountID == accountID && a.WatchlistItemID == watchlistItemID &&
			a.Recommendation == recommendation && a.Reason == reason {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAlertRepo) MarkNotified(_ context.Context, id uint, at time.Time) error {
	for i := range f.alerts {
		if f.alerts[i].ID == id {
			f.alerts[i].NotifiedAt.Time = at
			f.alerts[i].NotifiedAt.Valid = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeAlertRepo) Acknowledge(_ context.Context, id uint, at time.Time) error {
	for i := range f.alerts {
		if f.alerts[i].ID == id {
			f.alerts[i].Acknowledged = true
			f.alerts[i].AcknowledgedAt.Time = at
			f.alerts[i].AcknowledgedAt.Valid = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeAlertRepo) DeleteAcknowledgedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeWatchlistRepo struct {
	items []entity.WatchlistItem
}

func (f *fakeWatchlistRepo) FindActive(_ context.Context, accountID string) ([]entity.WatchlistItem, error) {
	var out []entity.WatchlistItem
	for _, it := range f.items {
		if it.AccountID == accountID && it.IsActive {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeWatchlistRepo) FindBySymbol(_ context.Context, accountID, symbol string) (*entity.WatchlistItem, error) {
	for i := range f.items {
		if f.items[i].AccountID == accountID && f.items[i].Symbol == symbol {
			return &f.items[i], nil
		}
	}
	return nil, nil
}

func (f *fakeWatchlistRepo) ActiveSymbols(_ context.Context) ([]string, error) {
	var out []string
	for _, it := range f.items {
		if it.IsActive {
			out = append(out, it.Symbol)
		}
	}
	return out, nil
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
		f.prefs = make(map[string]*entity.AlertPreferences)
	}
	f.prefs[prefs.AccountID] = prefs
	return nil
}
