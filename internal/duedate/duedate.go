// Package duedate maps nominal due dates to the business day a payment is
// actually expected on. Adjusted dates are for display, sorting and
// reminders only; the stored date of a payment is never rewritten.
package duedate

import (
	"sort"
	"time"

	"paytrack/internal/models"
)

// Adjust returns d moved forward to Monday when it falls on a weekend.
func Adjust(d models.Date) models.Date {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDays(2)
	case time.Sunday:
		return d.AddDays(1)
	default:
		return d
	}
}

// WasAdjusted reports whether Adjust moves d.
func WasAdjusted(d models.Date) bool {
	return !Adjust(d).Equal(d)
}

// IsOverdue reports whether an unpaid payment's adjusted due date is already
// behind today.
func IsOverdue(p models.Payment, today models.Date) bool {
	return !p.IsPaid && Adjust(p.Date).Before(today)
}

// DueOn returns the unpaid payments whose adjusted due date is day, in
// adjusted-date order.
func DueOn(payments []models.Payment, day models.Date) []models.Payment {
	var due []models.Payment
	for _, p := range payments {
		if p.IsPaid {
			continue
		}
		if Adjust(p.Date).Equal(day) {
			due = append(due, p)
		}
	}
	SortByAdjustedDate(due)
	return due
}

// SortByAdjustedDate orders payments by adjusted due date, breaking ties on
// the nominal date and then the ID so the order is deterministic.
func SortByAdjustedDate(payments []models.Payment) {
	sort.SliceStable(payments, func(i, j int) bool {
		ai, aj := Adjust(payments[i].Date), Adjust(payments[j].Date)
		if c := ai.Compare(aj); c != 0 {
			return c < 0
		}
		if c := payments[i].Date.Compare(payments[j].Date); c != 0 {
			return c < 0
		}
		return payments[i].ID < payments[j].ID
	})
}
