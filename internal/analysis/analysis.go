// Package analysis produces a short financial health report over a user's
// unpaid payments.
package analysis

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"paytrack/internal/duedate"
	"paytrack/internal/models"
)

// Status is the overall health verdict of an analysis.
type Status string

const (
	StatusGood    Status = "GOOD"
	StatusWarning Status = "WARNING"
	StatusDanger  Status = "DANGER"
)

// UrgentWindowDays is how far ahead a payment counts as urgent.
const UrgentWindowDays = 7

// Result is the analysis report returned to the client.
type Result struct {
	TotalDebt   float64  `json:"total_debt"`
	UrgentItems []string `json:"urgent_items"`
	Summary     string   `json:"summary"`
	Advice      string   `json:"advice"`
	Status      Status   `json:"status"`
}

// Analyzer evaluates a set of unpaid payments as of today.
type Analyzer interface {
	Analyze(ctx context.Context, unpaid []models.Payment, today models.Date) (*Result, error)
}

// RuleAnalyzer is a local Analyzer driven by fixed thresholds.
type RuleAnalyzer struct {
	// DangerOverdue is the overdue count at which the status becomes DANGER.
	DangerOverdue int
	// WarningShare and DangerShare are the fractions of total debt falling
	// due inside the urgent window that raise the status.
	WarningShare float64
	DangerShare  float64
}

// NewRuleAnalyzer returns a RuleAnalyzer with the default thresholds.
func NewRuleAnalyzer() *RuleAnalyzer {
	return &RuleAnalyzer{DangerOverdue: 2, WarningShare: 0.25, DangerShare: 0.5}
}

// Analyze implements Analyzer. Urgent items are those whose adjusted due date
// is at most UrgentWindowDays away, overdue ones included.
func (a *RuleAnalyzer) Analyze(ctx context.Context, unpaid []models.Payment, today models.Date) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	horizon := today.AddDays(UrgentWindowDays)
	total := decimal.Zero
	urgentTotal := decimal.Zero
	urgent := []string{}
	overdue := 0

	sorted := append([]models.Payment(nil), unpaid...)
	duedate.SortByAdjustedDate(sorted)
	for _, p := range sorted {
		if p.IsPaid {
			continue
		}
		amount := decimal.NewFromFloat(p.Amount)
		total = total.Add(amount)

		due := duedate.Adjust(p.Date)
		if due.After(horizon) {
			continue
		}
		urgent = append(urgent, p.Name)
		urgentTotal = urgentTotal.Add(amount)
		if due.Before(today) {
			overdue++
		}
	}

	share := 0.0
	if total.IsPositive() {
		share = urgentTotal.Div(total).InexactFloat64()
	}
	status := a.status(overdue, share)

	return &Result{
		TotalDebt:   total.Round(2).InexactFloat64(),
		UrgentItems: urgent,
		Summary:     summarize(len(urgent), overdue, total),
		Advice:      advise(status, overdue),
		Status:      status,
	}, nil
}

func (a *RuleAnalyzer) status(overdue int, share float64) Status {
	switch {
	case overdue >= a.DangerOverdue || share >= a.DangerShare:
		return StatusDanger
	case overdue > 0 || share >= a.WarningShare:
		return StatusWarning
	default:
		return StatusGood
	}
}

func summarize(urgent, overdue int, total decimal.Decimal) string {
	if total.IsZero() && urgent == 0 {
		return "You have no outstanding payments."
	}
	s := fmt.Sprintf("You owe %s in total, with %d payment(s) due within %d days.", total.StringFixed(2), urgent, UrgentWindowDays)
	if overdue > 0 {
		s += fmt.Sprintf(" %d of them are already overdue.", overdue)
	}
	return s
}

func advise(status Status, overdue int) string {
	switch status {
	case StatusDanger:
		if overdue > 0 {
			return "Settle the overdue payments first to avoid late fees."
		}
		return "Most of your debt falls due this week. Set the cash aside now."
	case StatusWarning:
		return "A few payments need attention soon. Check the coming week."
	default:
		return "Your payments are under control. Keep it up."
	}
}
