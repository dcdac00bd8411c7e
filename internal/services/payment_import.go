package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "paytrack/internal/errors"
	"paytrack/internal/models"
	"paytrack/internal/recurrence"
	"paytrack/internal/repository"
)

// spreadsheetEpoch is the serial number of 1970-01-01 in spreadsheet dates.
const spreadsheetEpoch = 25569

// maxSpreadsheetSerial is 9999-12-31, the last date a spreadsheet can hold.
const maxSpreadsheetSerial = 2958465

// Export status labels.
const (
	rowStatusPaid    = "PAID"
	rowStatusPending = "PENDING"
)

// FlexString accepts a JSON string, number or boolean. Spreadsheet tooling
// emits dates as serial numbers and flags as booleans.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(raw)
	return nil
}

// ImportRow is one row of an import or export file. Rows that carry Status
// are backups and are restored as-is.
type ImportRow struct {
	ID                   string     `json:"id,omitempty"`
	Name                 string     `json:"name"`
	Type                 string     `json:"type"`
	Amount               float64    `json:"amount"`
	MinimumPaymentAmount *float64   `json:"minimum_payment_amount,omitempty"`
	Date                 FlexString `json:"date"`
	EndDate              FlexString `json:"end_date,omitempty"`
	Period               string     `json:"period,omitempty"`
	CustomTag            string     `json:"custom_tag,omitempty"`
	CommitmentEndDate    FlexString `json:"commitment_end_date,omitempty"`
	AutoPayment          FlexString `json:"auto_payment,omitempty"`
	AutoPaymentBank      string     `json:"auto_payment_bank,omitempty"`
	Notes                string     `json:"notes,omitempty"`
	Status               string     `json:"status,omitempty"`
	PaidAmount           *float64   `json:"paid_amount,omitempty"`
}

var typeLabels = map[string]models.PaymentType{
	"loan":        models.PaymentTypeLoan,
	"kredi":       models.PaymentTypeLoan,
	"credit_card": models.PaymentTypeCreditCard,
	"kredi kartı": models.PaymentTypeCreditCard,
	"credit card": models.PaymentTypeCreditCard,
	"digital":     models.PaymentTypeDigital,
	"dijital":     models.PaymentTypeDigital,
	"bill":        models.PaymentTypeBill,
	"fatura":      models.PaymentTypeBill,
}

var periodLabels = map[string]models.PaymentPeriod{
	"weekly":        models.PeriodWeekly,
	"haftalık":      models.PeriodWeekly,
	"biweekly":      models.PeriodBiweekly,
	"2 haftada bir": models.PeriodBiweekly,
	"monthly":       models.PeriodMonthly,
	"aylık":         models.PeriodMonthly,
	"annual":        models.PeriodAnnual,
	"yearly":        models.PeriodAnnual,
	"yıllık":        models.PeriodAnnual,
}

var paidLabels = map[string]bool{"paid": true, "ödendi": true}

var truthyLabels = map[string]bool{"true": true, "yes": true, "evet": true, "var": true, "1": true}

// ParsePaymentType maps a type label to its enum. An empty label is a bill.
func ParsePaymentType(label string) (models.PaymentType, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	if key == "" {
		return models.PaymentTypeBill, true
	}
	t, ok := typeLabels[key]
	return t, ok
}

// ParsePeriod maps a period label to its enum. Unknown labels are monthly.
func ParsePeriod(label string) models.PaymentPeriod {
	if p, ok := periodLabels[strings.ToLower(strings.TrimSpace(label))]; ok {
		return p
	}
	return models.PeriodMonthly
}

// ParseImportDate accepts YYYY-MM-DD, DD.MM.YYYY, DD.MM.YY and spreadsheet
// serial numbers. An empty value yields the zero Date.
func ParseImportDate(v string) (models.Date, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return models.Date{}, nil
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		if math.IsNaN(serial) || serial < 1 || serial > maxSpreadsheetSerial {
			return models.Date{}, fmt.Errorf("invalid date serial %q", v)
		}
		return models.NewDate(1970, 1, 1).AddDays(int(serial) - spreadsheetEpoch), nil
	}
	if parts := strings.Split(v, "."); len(parts) == 3 {
		day, errD := strconv.Atoi(parts[0])
		month, errM := strconv.Atoi(parts[1])
		year, errY := strconv.Atoi(parts[2])
		if errD != nil || errM != nil || errY != nil {
			return models.Date{}, fmt.Errorf("invalid date %q", v)
		}
		if len(parts[2]) == 2 {
			year += 2000
		}
		return models.ParseDate(fmt.Sprintf("%04d-%02d-%02d", year, month, day))
	}
	return models.ParseDate(v)
}

func parseOptionalDate(v FlexString) (*models.Date, error) {
	d, err := ParseImportDate(string(v))
	if err != nil || d.IsZero() {
		return nil, err
	}
	return &d, nil
}

// Import converts rows into payments and appends them to, or replaces, the
// user's collection. Every imported row gets a fresh id.
func (s *paymentService) Import(ctx context.Context, userID string, rows []ImportRow, mode string) (*ImportResult, error) {
	if mode == "" {
		mode = ImportModeAppend
	}
	if mode != ImportModeAppend && mode != ImportModeReplace {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "mode must be APPEND or REPLACE")
	}

	today := s.today()
	result := &ImportResult{Mode: mode, Skipped: []ImportIssue{}}
	var imported []models.Payment
	for i, row := range rows {
		payments, err := s.convertRow(userID, row, today)
		if err != nil {
			result.Skipped = append(result.Skipped, ImportIssue{Row: i + 1, Name: row.Name, Reason: err.Error()})
			continue
		}
		imported = append(imported, payments...)
	}
	if len(imported) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "no importable rows")
	}

	saved, err := s.store.ApplyMutation(ctx, userID, repository.OriginLocal, func(current []models.Payment) ([]models.Payment, error) {
		if mode == ImportModeReplace {
			return imported, nil
		}
		return append(current, imported...), nil
	})
	if err != nil {
		return nil, wrapStoreError(err)
	}

	result.Imported = len(imported)
	result.Total = len(saved)
	return result, nil
}

func (s *paymentService) convertRow(userID string, row ImportRow, today models.Date) ([]models.Payment, error) {
	name := s.clean(row.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	paymentType, ok := ParsePaymentType(row.Type)
	if !ok {
		return nil, fmt.Errorf("unknown payment type %q", row.Type)
	}
	if math.IsNaN(row.Amount) || math.IsInf(row.Amount, 0) || row.Amount < 0 {
		return nil, fmt.Errorf("invalid amount")
	}

	date, err := ParseImportDate(string(row.Date))
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = today
	}
	endDate, err := parseOptionalDate(row.EndDate)
	if err != nil {
		return nil, err
	}
	commitmentEnd, err := parseOptionalDate(row.CommitmentEndDate)
	if err != nil {
		return nil, err
	}

	p := models.Payment{
		ID:                   s.newID(),
		UserID:               userID,
		Name:                 name,
		PaymentType:          paymentType,
		Category:             paymentType.Category(),
		Amount:               row.Amount,
		MinimumPaymentAmount: row.MinimumPaymentAmount,
		Date:                 date,
		EndDate:              endDate,
		Period:               ParsePeriod(row.Period),
		CustomTag:            s.clean(row.CustomTag),
		CommitmentEndDate:    commitmentEnd,
		AutoPayment:          truthyLabels[strings.ToLower(strings.TrimSpace(string(row.AutoPayment)))],
		AutoPaymentBank:      s.clean(row.AutoPaymentBank),
		Notes:                s.clean(row.Notes),
		Source:               models.SourceImport,
	}

	if status := strings.TrimSpace(row.Status); status != "" {
		p.IsPaid = paidLabels[strings.ToLower(status)]
		switch {
		case row.PaidAmount != nil:
			p.PaidAmount = *row.PaidAmount
		case p.IsPaid:
			p.PaidAmount = p.Amount
		}
		return []models.Payment{p}, nil
	}

	if (p.Category == models.CategoryLoan || p.Category == models.CategoryCard) && p.HasEndDate() {
		p.Period = models.PeriodMonthly
		p.CommitmentEndDate = nil
		return recurrence.ExpandInstallments(p, s.newID, recurrence.MaxInstallments), nil
	}
	return []models.Payment{p}, nil
}

// Export returns the user's collection as backup rows.
func (s *paymentService) Export(ctx context.Context, userID string) ([]ImportRow, error) {
	payments, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows := make([]ImportRow, 0, len(payments))
	for _, p := range payments {
		status := rowStatusPending
		if p.IsPaid {
			status = rowStatusPaid
		}
		paid := p.PaidAmount
		row := ImportRow{
			ID:                   p.ID,
			Name:                 p.Name,
			Type:                 string(p.PaymentType),
			Amount:               p.Amount,
			MinimumPaymentAmount: p.MinimumPaymentAmount,
			Date:                 FlexString(p.Date.String()),
			Period:               string(p.Period),
			CustomTag:            p.CustomTag,
			AutoPayment:          FlexString(strconv.FormatBool(p.AutoPayment)),
			AutoPaymentBank:      p.AutoPaymentBank,
			Notes:                p.Notes,
			Status:               status,
			PaidAmount:           &paid,
		}
		if p.HasEndDate() {
			row.EndDate = FlexString(p.EndDate.String())
		}
		if p.CommitmentEndDate != nil && !p.CommitmentEndDate.IsZero() {
			row.CommitmentEndDate = FlexString(p.CommitmentEndDate.String())
		}
		rows = append(rows, row)
	}
	return rows, nil
}
