// Package recurrence turns a confirmed payment into its paid record and, for
// recurring categories, the next pending occurrence.
package recurrence

import (
	"time"

	"paytrack/internal/models"
	"paytrack/internal/uuid"
)

// MaxInstallments caps how many occurrences ExpandInstallments will produce.
const MaxInstallments = 120

// Result holds the outcome of confirming a payment.
type Result struct {
	Updated models.Payment
	Next    *models.Payment
}

// Step returns the due date one period after d. Month and year steps clamp to
// the last day of the target month.
func Step(d models.Date, period models.PaymentPeriod) models.Date {
	switch period {
	case models.PeriodWeekly:
		return d.AddDays(7)
	case models.PeriodBiweekly:
		return d.AddDays(14)
	case models.PeriodAnnual:
		return d.AddYearsClamped(1)
	default:
		return d.AddMonthsClamped(1)
	}
}

// Confirm marks p paid with paidAmount and computes its successor. The caller
// must have validated that p is unpaid and that paidAmount is a finite,
// non-negative number.
func Confirm(p models.Payment, paidAmount float64, newID uuid.Generator) Result {
	updated := p
	updated.IsPaid = true
	updated.PaidAmount = paidAmount
	if updated.Amount == 0 {
		updated.Amount = paidAmount
	}

	if p.Category == models.CategoryLoan {
		return Result{Updated: updated}
	}

	nextDate := Step(p.Date, p.Period)
	if p.HasEndDate() && nextDate.After(*p.EndDate) {
		return Result{Updated: updated}
	}

	next := successor(updated, nextDate, newID)
	return Result{Updated: updated, Next: &next}
}

func successor(from models.Payment, date models.Date, newID uuid.Generator) models.Payment {
	next := from
	next.ID = newID()
	next.Date = date
	next.IsPaid = false
	next.PaidAmount = 0
	next.MinimumPaymentAmount = nil
	next.Source = models.SourceRecurrence
	next.CreatedAt = time.Time{}
	next.UpdatedAt = time.Time{}
	next.EndDate = copyDate(from.EndDate)
	next.CommitmentEndDate = copyDate(from.CommitmentEndDate)
	return next
}

func copyDate(d *models.Date) *models.Date {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

// ExpandInstallments produces the monthly occurrence series for a template
// row with an end date: the template's own date first, then one month apart
// up to and including the end date. Installment i is offset i months from the
// template date, so a series anchored on the 31st returns to the 31st in long
// months. Rows without an end date yield just the
// template. max <= 0 or above MaxInstallments is treated as MaxInstallments.
func ExpandInstallments(template models.Payment, newID uuid.Generator, max int) []models.Payment {
	if max <= 0 || max > MaxInstallments {
		max = MaxInstallments
	}

	first := template
	if first.ID == "" {
		first.ID = newID()
	}
	if !template.HasEndDate() {
		return []models.Payment{first}
	}

	series := []models.Payment{first}
	for i := 1; len(series) < max; i++ {
		date := template.Date.AddMonthsClamped(i)
		if date.After(*template.EndDate) {
			break
		}
		next := template
		next.ID = newID()
		next.Date = date
		next.EndDate = copyDate(template.EndDate)
		next.CommitmentEndDate = copyDate(template.CommitmentEndDate)
		series = append(series, next)
	}
	return series
}
