// Package notify derives due-today reminders and hands them to a Notifier.
package notify

import (
	"context"
	"fmt"
	"time"

	"paytrack/internal/logger"
	"paytrack/internal/models"
)

// Kind distinguishes the first reminder of the day from later nudges.
type Kind string

const (
	KindReminder    Kind = "REMINDER"
	KindStillUnpaid Kind = "STILL_UNPAID"
)

// Notification is one user's reminder for a day.
type Notification struct {
	UserID   string
	Kind     Kind
	Day      models.Date
	Payments []models.Payment
}

// Title returns a short headline for the notification.
func (n Notification) Title() string {
	if n.Kind == KindReminder {
		return "Payment reminder"
	}
	return "Overdue warning"
}

// Body returns the message text for the notification.
func (n Notification) Body() string {
	if n.Kind == KindReminder {
		return fmt.Sprintf("You have %d payment(s) due today.", len(n.Payments))
	}
	return fmt.Sprintf("%d payment(s) due today are still unpaid.", len(n.Payments))
}

// Notifier delivers notifications. Delivery failures are logged by the
// watcher and do not stop the other users' notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the application log.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	names := make([]string, 0, len(n.Payments))
	for _, p := range n.Payments {
		names = append(names, p.Name)
	}
	logger.Named("reminders").Infow(n.Title(),
		"user_id", n.UserID,
		"kind", n.Kind,
		"day", n.Day.String(),
		"message", n.Body(),
		"payments", names,
	)
	return nil
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// hourSlot identifies one clock hour in the watcher's zone.
func hourSlot(t time.Time) string {
	return t.Format("2006-01-02T15")
}
