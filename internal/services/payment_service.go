package services

import (
	"context"
	"errors"
	"html"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"

	"paytrack/internal/duedate"
	apperrors "paytrack/internal/errors"
	"paytrack/internal/models"
	"paytrack/internal/pagination"
	"paytrack/internal/recurrence"
	"paytrack/internal/repository"
	"paytrack/internal/uuid"
)

const trendMonths = 6

// paymentService handles payment-related business logic.
type paymentService struct {
	store  PaymentStore
	loc    *time.Location
	now    func() time.Time
	newID  uuid.Generator
	policy *bluemonday.Policy
}

// NewPaymentService creates a new PaymentServicer. loc is the zone "today"
// is evaluated in.
func NewPaymentService(store PaymentStore, loc *time.Location) PaymentServicer {
	return newPaymentService(store, loc)
}

func newPaymentService(store PaymentStore, loc *time.Location) *paymentService {
	if loc == nil {
		loc = time.Local
	}
	return &paymentService{
		store:  store,
		loc:    loc,
		now:    time.Now,
		newID:  uuid.New,
		policy: bluemonday.StrictPolicy(),
	}
}

func (s *paymentService) today() models.Date {
	return models.DateOf(s.now().In(s.loc))
}

// CreatePayment validates and stores a new payment entry.
func (s *paymentService) CreatePayment(ctx context.Context, userID string, input PaymentInput) (*models.Payment, error) {
	input = s.sanitize(input)
	if err := validateEntry(input); err != nil {
		return nil, err
	}

	p := models.Payment{
		ID:     s.newID(),
		UserID: userID,
		Source: models.SourceManual,
	}
	applyInput(&p, input)
	if input.AlreadyPaid {
		p.IsPaid = true
		p.PaidAmount = p.Amount
	}

	saved, err := s.store.ApplyMutation(ctx, userID, repository.OriginLocal, func(current []models.Payment) ([]models.Payment, error) {
		return append(current, p), nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return findPayment(saved, p.ID)
}

// UpdatePayment applies a manual edit. Paid state is never changed here.
func (s *paymentService) UpdatePayment(ctx context.Context, userID, paymentID string, input PaymentInput) (*models.Payment, error) {
	input = s.sanitize(input)
	if err := validateEntry(input); err != nil {
		return nil, err
	}

	saved, err := s.store.ApplyMutation(ctx, userID, repository.OriginLocal, func(current []models.Payment) ([]models.Payment, error) {
		i := indexOf(current, paymentID)
		if i < 0 {
			return nil, apperrors.ErrPaymentNotFound
		}
		applyInput(&current[i], input)
		return current, nil
	})
	if err != nil {
		return nil, wrapStoreError(err)
	}
	return findPayment(saved, paymentID)
}

// DeletePayment removes a payment in either state.
func (s *paymentService) DeletePayment(ctx context.Context, userID, paymentID string) error {
	_, err := s.store.ApplyMutation(ctx, userID, repository.OriginLocal, func(current []models.Payment) ([]models.Payment, error) {
		i := indexOf(current, paymentID)
		if i < 0 {
			return nil, apperrors.ErrPaymentNotFound
		}
		return append(current[:i], current[i+1:]...), nil
	})
	return wrapStoreError(err)
}

// GetPayment retrieves a single payment with its due-date presentation.
func (s *paymentService) GetPayment(ctx context.Context, userID, paymentID string) (*PaymentView, error) {
	payments, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := findPayment(payments, paymentID)
	if err != nil {
		return nil, err
	}
	view := s.view(*p, s.today())
	return &view, nil
}

// ListPayments returns filtered payments sorted by adjusted due date.
func (s *paymentService) ListPayments(ctx context.Context, userID string, filter PaymentFilter, page pagination.PageRequest) (*pagination.PageResponse[PaymentView], error) {
	payments, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	var matched []models.Payment
	for _, p := range payments {
		if filter.Month != "" && p.Date.MonthKey() != filter.Month {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		switch filter.Status {
		case StatusPending:
			if p.IsPaid {
				continue
			}
		case StatusPaid:
			if !p.IsPaid {
				continue
			}
		}
		matched = append(matched, p)
	}
	duedate.SortByAdjustedDate(matched)

	resp := pagination.PageSlice(s.views(matched), page)
	return &resp, nil
}

// ConfirmPayment marks a pending payment paid and materializes its successor.
// A nil paidAmount pays the amount stored at confirmation time.
func (s *paymentService) ConfirmPayment(ctx context.Context, userID, paymentID string, paidAmount *float64) (*ConfirmResult, error) {
	if paidAmount != nil && (math.IsNaN(*paidAmount) || math.IsInf(*paidAmount, 0) || *paidAmount < 0) {
		return nil, apperrors.ErrInvalidPaidAmount
	}

	var result recurrence.Result
	_, err := s.store.ApplyMutation(ctx, userID, repository.OriginLocal, func(current []models.Payment) ([]models.Payment, error) {
		i := indexOf(current, paymentID)
		if i < 0 {
			return nil, apperrors.ErrPaymentNotFound
		}
		if current[i].IsPaid {
			return nil, apperrors.ErrPaymentAlreadyPaid
		}
		amount := current[i].Amount
		if paidAmount != nil {
			amount = *paidAmount
		}
		result = recurrence.Confirm(current[i], amount, s.newID)
		current[i] = result.Updated
		if result.Next != nil {
			current = append(current, *result.Next)
		}
		return current, nil
	})
	if err != nil {
		return nil, wrapStoreError(err)
	}

	return &ConfirmResult{Payment: result.Updated, NextOccurrence: result.Next}, nil
}

// MonthSummary totals expected and paid amounts for a month, for one
// category and across all categories.
func (s *paymentService) MonthSummary(ctx context.Context, userID, month string, category models.PaymentCategory) (*MonthSummary, error) {
	if month == "" {
		month = s.today().MonthKey()
	}
	payments, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	var expected, paid, totalExpected, totalPaid decimal.Decimal
	summary := &MonthSummary{Month: month, Category: category}
	for _, p := range payments {
		if p.Date.MonthKey() != month {
			continue
		}
		amount := decimal.NewFromFloat(p.Amount)
		paidAmount := decimal.NewFromFloat(p.PaidAmount)
		totalExpected = totalExpected.Add(amount)
		totalPaid = totalPaid.Add(paidAmount)

		if category != "" && p.Category != category {
			continue
		}
		expected = expected.Add(amount)
		paid = paid.Add(paidAmount)
		if p.IsPaid {
			summary.PaidCount++
		} else {
			summary.PendingCount++
		}
	}

	summary.Expected = money(expected)
	summary.Paid = money(paid)
	summary.Remaining = money(expected.Sub(paid))
	summary.TotalExpected = money(totalExpected)
	summary.TotalPaid = money(totalPaid)
	summary.TotalRemaining = money(totalExpected.Sub(totalPaid))
	return summary, nil
}

// Dashboard builds the six-month paid trend ending at the current month and
// the category and tag breakdowns of month.
func (s *paymentService) Dashboard(ctx context.Context, userID, month string) (*Dashboard, error) {
	today := s.today()
	if month == "" {
		month = today.MonthKey()
	}
	payments, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	firstOfMonth := models.NewDate(today.Year(), today.Month(), 1)
	paidByMonth := make(map[string]decimal.Decimal, trendMonths)
	trendKeys := make([]string, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		key := firstOfMonth.AddMonthsClamped(-i).MonthKey()
		trendKeys = append(trendKeys, key)
		paidByMonth[key] = decimal.Zero
	}

	byCategory := make(map[models.PaymentCategory]decimal.Decimal)
	categoryCount := make(map[models.PaymentCategory]int)
	byTag := make(map[string]decimal.Decimal)
	tagCount := make(map[string]int)

	for _, p := range payments {
		key := p.Date.MonthKey()
		if total, ok := paidByMonth[key]; ok && p.IsPaid {
			paidByMonth[key] = total.Add(decimal.NewFromFloat(p.PaidAmount))
		}
		if key != month {
			continue
		}
		amount := decimal.NewFromFloat(p.Amount)
		byCategory[p.Category] = byCategory[p.Category].Add(amount)
		categoryCount[p.Category]++
		if p.CustomTag != "" {
			byTag[p.CustomTag] = byTag[p.CustomTag].Add(amount)
			tagCount[p.CustomTag]++
		}
	}

	dash := &Dashboard{Month: month}
	for _, key := range trendKeys {
		dash.Trend = append(dash.Trend, MonthTotal{Month: key, Paid: money(paidByMonth[key])})
	}
	for _, c := range models.Categories {
		dash.ByCategory = append(dash.ByCategory, CategoryTotal{
			Category: c,
			Expected: money(byCategory[c]),
			Count:    categoryCount[c],
		})
	}
	for tag, total := range byTag {
		dash.ByTag = append(dash.ByTag, TagTotal{Tag: tag, Expected: money(total), Count: tagCount[tag]})
	}
	sort.Slice(dash.ByTag, func(i, j int) bool {
		if dash.ByTag[i].Expected != dash.ByTag[j].Expected {
			return dash.ByTag[i].Expected > dash.ByTag[j].Expected
		}
		return dash.ByTag[i].Tag < dash.ByTag[j].Tag
	})
	if dash.ByTag == nil {
		dash.ByTag = []TagTotal{}
	}
	return dash, nil
}

// DueToday returns the user's unpaid payments whose adjusted due date is today.
func (s *paymentService) DueToday(ctx context.Context, userID string) ([]PaymentView, error) {
	payments, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := s.today()
	due := duedate.DueOn(payments, today)
	views := make([]PaymentView, 0, len(due))
	for _, p := range due {
		views = append(views, s.view(p, today))
	}
	return views, nil
}

// Unpaid returns the user's pending payments in adjusted-date order.
func (s *paymentService) Unpaid(ctx context.Context, userID string) ([]models.Payment, error) {
	payments, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	unpaid := make([]models.Payment, 0, len(payments))
	for _, p := range payments {
		if !p.IsPaid {
			unpaid = append(unpaid, p)
		}
	}
	duedate.SortByAdjustedDate(unpaid)
	return unpaid, nil
}

func (s *paymentService) load(ctx context.Context, userID string) ([]models.Payment, error) {
	payments, err := s.store.LoadAll(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return payments, nil
}

func (s *paymentService) view(p models.Payment, today models.Date) PaymentView {
	return PaymentView{
		Payment:         p,
		AdjustedDate:    duedate.Adjust(p.Date),
		WeekendAdjusted: duedate.WasAdjusted(p.Date),
		IsOverdue:       duedate.IsOverdue(p, today),
	}
}

func (s *paymentService) views(payments []models.Payment) []PaymentView {
	today := s.today()
	out := make([]PaymentView, 0, len(payments))
	for _, p := range payments {
		out = append(out, s.view(p, today))
	}
	return out
}

// sanitize strips markup from the free-text fields.
func (s *paymentService) sanitize(in PaymentInput) PaymentInput {
	in.Name = s.clean(in.Name)
	in.CustomTag = s.clean(in.CustomTag)
	in.AutoPaymentBank = s.clean(in.AutoPaymentBank)
	in.Notes = s.clean(in.Notes)
	return in
}

func (s *paymentService) clean(v string) string {
	if v == "" {
		return v
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

// validateEntry enforces the required-field rules of a payment entry.
func validateEntry(in PaymentInput) error {
	if in.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidPaymentEntry, "name is required")
	}
	if !in.PaymentType.IsValid() {
		return apperrors.WithMessage(apperrors.ErrInvalidPaymentEntry, "payment type is required")
	}
	if in.Date.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidPaymentEntry, "date is required")
	}
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) || in.Amount < 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidPaymentEntry, "amount must be a non-negative number")
	}
	switch in.PaymentType {
	case models.PaymentTypeLoan:
		if in.EndDate == nil || in.EndDate.IsZero() {
			return apperrors.WithMessage(apperrors.ErrInvalidPaymentEntry, "end date is required for loans")
		}
	case models.PaymentTypeCreditCard:
		if in.MinimumPaymentAmount == nil {
			return apperrors.WithMessage(apperrors.ErrInvalidPaymentEntry, "minimum payment amount is required for credit cards")
		}
		if *in.MinimumPaymentAmount < 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidPaymentEntry, "minimum payment amount must be non-negative")
		}
	}
	// A card statement may be entered before its amount is known.
	if in.PaymentType != models.PaymentTypeCreditCard && in.Amount == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidPaymentEntry, "amount is required")
	}
	if in.Period != "" && !in.Period.IsValid() {
		return apperrors.WithMessage(apperrors.ErrInvalidPaymentEntry, "unknown period")
	}
	if in.EndDate != nil && !in.EndDate.IsZero() && in.EndDate.Before(in.Date) {
		return apperrors.WithMessage(apperrors.ErrInvalidPaymentEntry, "end date must not be before the due date")
	}
	return nil
}

func applyInput(p *models.Payment, in PaymentInput) {
	p.Name = in.Name
	p.PaymentType = in.PaymentType
	p.Category = in.PaymentType.Category()
	p.Amount = in.Amount
	p.MinimumPaymentAmount = in.MinimumPaymentAmount
	p.Date = in.Date
	p.EndDate = normalizeDate(in.EndDate)
	p.Period = in.Period.OrDefault()
	p.CustomTag = in.CustomTag
	p.CommitmentEndDate = normalizeDate(in.CommitmentEndDate)
	p.AutoPayment = in.AutoPayment
	p.AutoPaymentBank = in.AutoPaymentBank
	p.Notes = in.Notes
}

func normalizeDate(d *models.Date) *models.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	v := *d
	return &v
}

func indexOf(payments []models.Payment, id string) int {
	for i := range payments {
		if payments[i].ID == id {
			return i
		}
	}
	return -1
}

func findPayment(payments []models.Payment, id string) (*models.Payment, error) {
	i := indexOf(payments, id)
	if i < 0 {
		return nil, apperrors.ErrPaymentNotFound
	}
	p := payments[i]
	return &p, nil
}

// wrapStoreError passes AppErrors raised inside a mutation through unchanged.
func wrapStoreError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
