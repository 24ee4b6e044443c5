package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/alert/channel"
	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/repository"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"
)

// ChannelFailure records one channel that failed for one alert.
type ChannelFailure struct {
	AlertID uint               `json:"alert_id"`
	Channel entity.ChannelKind `json:"channel"`
	Error   string             `json:"error"`
}

// DeliveryReport summarizes one delivery run.
type DeliveryReport struct {
	Processed      int              `json:"processed"`
	Delivered      int              `json:"delivered"`
	Failed         int              `json:"failed"`
	Skipped        int              `json:"skipped"`
	FailedChannels []ChannelFailure `json:"failed_channels,omitempty"`
}

// Deliverer routes pending alerts to each account's configured channels,
// honoring severity filters and quiet hours.
type Deliverer struct {
	logger    *logger.Logger
	prefsRepo repository.AlertPreferencesRepository
	alertRepo repository.AlertRepository
	channels  map[entity.ChannelKind]channel.Notifier
	templates *TemplateRegistry
	now       func() time.Time
}

// NewDeliverer creates the delivery engine. Notifiers are keyed by kind;
// a configured channel with no registered notifier counts as a failure.
func NewDeliverer(log *logger.Logger, prefsRepo repository.AlertPreferencesRepository, alertRepo repository.AlertRepository, notifiers []channel.Notifier, templates *TemplateRegistry) *Deliverer {
	channels := make(map[entity.ChannelKind]channel.Notifier, len(notifiers))
	for _, n := range notifiers {
		channels[n.Kind()] = n
	}
	return &Deliverer{
		logger:    log,
		prefsRepo: prefsRepo,
		alertRepo: alertRepo,
		channels:  channels,
		templates: templates,
		now:       time.Now,
	}
}

// ProcessAlertDelivery delivers pending alerts. With an empty accountID it
// covers every account that has immediate delivery configured; otherwise
// only the given account. An alert is marked notified when at least one
// channel accepts it.
func (d *Deliverer) ProcessAlertDelivery(ctx context.Context, accountID string) (*DeliveryReport, error) {
	alerts, err := d.alertRepo.FindPending(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending alerts: %w", err)
	}

	report := &DeliveryReport{}
	prefsCache := make(map[string]*entity.AlertPreferences)
	for i := range alerts {
		alert := &alerts[i]
		prefs, ok := prefsCache[alert.AccountID]
		if !ok {
			prefs, err = d.prefsRepo.FindByAccount(ctx, alert.AccountID)
			if err != nil {
				d.logger.Error("Failed to load alert preferences",
					logger.ErrorField(err),
					logger.StringField("account_id", alert.AccountID))
				report.Failed++
				continue
			}
			prefsCache[alert.AccountID] = prefs
		}

		// Digest accounts are handled by the daily digest job unless the
		// run targets them explicitly.
		if accountID == "" && prefs.Frequency == entity.FrequencyDaily {
			report.Skipped++
			continue
		}
		d.deliverOne(ctx, alert, prefs, report)
	}
	return report, nil
}

func (d *Deliverer) deliverOne(ctx context.Context, alert *entity.WatchlistAlert, prefs *entity.AlertPreferences, report *DeliveryReport) {
	report.Processed++

	if !alert.Severity.AtLeast(prefs.SeverityFloor()) {
		report.Skipped++
		return
	}

	// Quiet hours hold everything below critical until the window ends.
	if alert.Severity != entity.SeverityCritical {
		quiet, err := InQuietHours(d.now(), prefs.QuietHoursStart, prefs.QuietHoursEnd, prefs.QuietHoursTimezone)
		if err != nil {
			// A malformed window must not silence alerts.
			d.logger.Warn("Invalid quiet hours configuration, delivering anyway",
				logger.ErrorField(err), logger.StringField("account_id", alert.AccountID))
		} else if quiet {
			report.Skipped++
			return
		}
	}

	configs := prefs.ChannelList()
	if len(configs) == 0 {
		report.Skipped++
		return
	}

	templateID := prefs.TemplateID
	if templateID == "" {
		templateID = DefaultTemplateID
	}

	delivered := 0
	for _, cfg := range configs {
		notifier, ok := d.channels[cfg.Channel]
		if !ok {
			report.FailedChannels = append(report.FailedChannels, ChannelFailure{
				AlertID: alert.ID,
				Channel: cfg.Channel,
				Error:   "no notifier registered",
			})
			continue
		}

		// Public channels never carry account details.
		public := cfg.Channel == entity.ChannelSocial
		text := d.templates.Render(templateID, alert, prefs.AccountName, public)

		_, err := notifier.Send(ctx, channel.Message{
			AccountID: alert.AccountID,
			Target:    cfg.Target,
			Text:      text,
			Severity:  alert.Severity,
		})
		if err != nil {
			d.logger.Warn("Channel delivery failed",
				logger.ErrorField(err),
				logger.StringField("channel", string(cfg.Channel)),
				logger.StringField("account_id", alert.AccountID))
			report.FailedChannels = append(report.FailedChannels, ChannelFailure{
				AlertID: alert.ID,
				Channel: cfg.Channel,
				Error:   err.Error(),
			})
			continue
		}
		delivered++
	}

	if delivered == 0 {
		report.Failed++
		return
	}
	if err := d.alertRepo.MarkNotified(ctx, alert.ID, d.now()); err != nil {
		d.logger.Error("Failed to mark alert notified", logger.ErrorField(err), logger.Field("alert_id", alert.ID))
	}
	report.Delivered++
}

// ProcessDailyDigest batches each daily-frequency account's pending alerts
// into one message per channel.
func (d *Deliverer) ProcessDailyDigest(ctx context.Context) (*DeliveryReport, error) {
	allPrefs, err := d.prefsRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	report := &DeliveryReport{}
	for i := range allPrefs {
		prefs := &allPrefs[i]
		if prefs.Frequency != entity.FrequencyDaily {
			continue
		}

		alerts, err := d.alertRepo.FindPending(ctx, prefs.AccountID)
		if err != nil {
			d.logger.Error("Failed to load pending alerts for digest",
				logger.ErrorField(err),
				logger.StringField("account_id", prefs.AccountID))
			report.Failed++
			continue
		}
		if len(alerts) == 0 {
			continue
		}
		d.deliverDigest(ctx, prefs, alerts, report)
	}
	return report, nil
}

func (d *Deliverer) deliverDigest(ctx context.Context, prefs *entity.AlertPreferences, alerts []entity.WatchlistAlert, report *DeliveryReport) {
	floor := prefs.SeverityFloor()
	templateID := prefs.TemplateID
	if templateID == "" {
		templateID = DefaultTemplateID
	}

	kept := make([]*entity.WatchlistAlert, 0, len(alerts))
	for i := range alerts {
		if alerts[i].Severity.AtLeast(floor) {
			kept = append(kept, &alerts[i])
		}
	}
	report.Processed += len(kept)
	if len(kept) == 0 {
		return
	}

	// Quiet hours hold the whole batch unless it carries a critical alert.
	batchSeverity := highestSeverity(kept)
	if batchSeverity != entity.SeverityCritical {
		quiet, err := InQuietHours(d.now(), prefs.QuietHoursStart, prefs.QuietHoursEnd, prefs.QuietHoursTimezone)
		if err != nil {
			// A malformed window must not silence alerts.
			d.logger.Warn("Invalid quiet hours configuration, delivering anyway",
				logger.ErrorField(err), logger.StringField("account_id", prefs.AccountID))
		} else if quiet {
			report.Skipped += len(kept)
			return
		}
	}

	configs := prefs.ChannelList()
	if len(configs) == 0 {
		report.Skipped += len(kept)
		return
	}

	delivered := 0
	for _, cfg := range configs {
		notifier, ok := d.channels[cfg.Channel]
		if !ok {
			continue
		}
		public := cfg.Channel == entity.ChannelSocial

		lines := make([]string, 0, len(kept)+1)
		lines = append(lines, fmt.Sprintf("Daily digest: %d alert(s)", len(kept)))
		for _, alert := range kept {
			lines = append(lines, d.templates.Render(templateID, alert, prefs.AccountName, public))
		}

		_, err := notifier.Send(ctx, channel.Message{
			AccountID: prefs.AccountID,
			Target:    cfg.Target,
			Text:      strings.Join(lines, "\n"),
			Severity:  batchSeverity,
		})
		if err != nil {
			d.logger.Warn("Digest delivery failed",
				logger.ErrorField(err),
				logger.StringField("channel", string(cfg.Channel)),
				logger.StringField("account_id", prefs.AccountID))
			continue
		}
		delivered++
	}

	if delivered == 0 {
		report.Failed += len(kept)
		return
	}
	for _, alert := range kept {
		if err := d.alertRepo.MarkNotified(ctx, alert.ID, d.now()); err != nil {
			d.logger.Error("Failed to mark alert notified", logger.ErrorField(err), logger.Field("alert_id", alert.ID))
		}
	}
	report.Delivered += len(kept)
}

func highestSeverity(alerts []*entity.WatchlistAlert) entity.Severity {
	highest := entity.SeverityInfo
	for _, alert := range alerts {
		if alert.Severity.AtLeast(highest) {
			highest = alert.Severity
		}
	}
	return highest
}
