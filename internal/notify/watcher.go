package notify

import (
	"context"
	"time"

	"paytrack/internal/duedate"
	"paytrack/internal/logger"
	"paytrack/internal/models"
)

// Store lists users and their payments.
type Store interface {
	UserIDs(ctx context.Context) ([]string, error)
	LoadAll(ctx context.Context, userID string) ([]models.Payment, error)
}

// Config controls when the watcher fires.
type Config struct {
	ReminderHour int
	PollInterval time.Duration
	Location     *time.Location
}

// Watcher polls the store and notifies each user about payments due today.
// It fires once per clock hour from ReminderHour until midnight.
type Watcher struct {
	cfg      Config
	store    Store
	notifier Notifier
	now      func() time.Time
	lastSlot string
}

// NewWatcher creates a Watcher. An out-of-range hour falls back to 09:00, a
// zero interval to one minute and a nil zone to the local one.
func NewWatcher(cfg Config, store Store, notifier Notifier) *Watcher {
	if cfg.ReminderHour < 0 || cfg.ReminderHour > 23 {
		cfg.ReminderHour = 9
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Watcher{cfg: cfg, store: store, notifier: notifier, now: time.Now}
}

// Start runs the polling loop until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	log := logger.Named("reminders")
	log.Infow("Starting reminder watcher",
		"reminder_hour", w.cfg.ReminderHour,
		"poll_interval", w.cfg.PollInterval.String(),
		"timezone", w.cfg.Location.String(),
	)

	if _, err := w.Check(ctx); err != nil {
		log.Warnw("Reminder check failed on startup", "error", err)
	}

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Infow("Reminder watcher shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Check(ctx); err != nil {
				log.Errorw("Reminder check failed", "error", err)
			}
		}
	}
}

// Check sends the notifications for the current hour if they were not sent
// yet and returns how many users were notified.
func (w *Watcher) Check(ctx context.Context) (int, error) {
	now := w.now().In(w.cfg.Location)
	if now.Hour() < w.cfg.ReminderHour {
		return 0, nil
	}
	slot := hourSlot(now)
	if slot == w.lastSlot {
		return 0, nil
	}

	kind := KindStillUnpaid
	if now.Hour() == w.cfg.ReminderHour {
		kind = KindReminder
	}
	today := models.DateOf(now)

	userIDs, err := w.store.UserIDs(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, userID := range userIDs {
		payments, err := w.store.LoadAll(ctx, userID)
		if err != nil {
			logger.Named("reminders").Errorw("Failed to load payments for reminder", "user_id", userID, "error", err)
			continue
		}
		due := duedate.DueOn(payments, today)
		if len(due) == 0 {
			continue
		}
		n := Notification{UserID: userID, Kind: kind, Day: today, Payments: due}
		if err := w.notifier.Notify(ctx, n); err != nil {
			logger.Named("reminders").Errorw("Failed to deliver reminder", "user_id", userID, "kind", kind, "error", err)
			continue
		}
		sent++
	}

	w.lastSlot = slot
	return sent, nil
}
