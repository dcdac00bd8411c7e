package models

import (
	"time"

	"paytrack/internal/uuid"

	"gorm.io/gorm"
)

// PaymentCategory groups payments by how they recur.
type PaymentCategory string

const (
	CategoryLoan    PaymentCategory = "LOAN"
	CategoryCard    PaymentCategory = "CARD"
	CategoryBill    PaymentCategory = "BILL"
	CategoryDigital PaymentCategory = "DIGITAL"
)

// Categories lists every category in display order.
var Categories = []PaymentCategory{CategoryLoan, CategoryCard, CategoryBill, CategoryDigital}

// IsValid reports whether c is a known category.
func (c PaymentCategory) IsValid() bool {
	switch c {
	case CategoryLoan, CategoryCard, CategoryBill, CategoryDigital:
		return true
	}
	return false
}

// PaymentType is the kind of obligation chosen at entry time.
type PaymentType string

const (
	PaymentTypeLoan       PaymentType = "LOAN"
	PaymentTypeCreditCard PaymentType = "CREDIT_CARD"
	PaymentTypeDigital    PaymentType = "DIGITAL"
	PaymentTypeBill       PaymentType = "BILL"
)

// IsValid reports whether t is a known payment type.
func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentTypeLoan, PaymentTypeCreditCard, PaymentTypeDigital, PaymentTypeBill:
		return true
	}
	return false
}

// Category maps a payment type to its category. The mapping is closed: every
// valid type has exactly one category.
func (t PaymentType) Category() PaymentCategory {
	switch t {
	case PaymentTypeLoan:
		return CategoryLoan
	case PaymentTypeCreditCard:
		return CategoryCard
	case PaymentTypeDigital:
		return CategoryDigital
	default:
		return CategoryBill
	}
}

// PaymentPeriod governs the step between two occurrences.
type PaymentPeriod string

const (
	PeriodWeekly   PaymentPeriod = "WEEKLY"
	PeriodBiweekly PaymentPeriod = "BIWEEKLY"
	PeriodMonthly  PaymentPeriod = "MONTHLY"
	PeriodAnnual   PaymentPeriod = "ANNUAL"
)

// IsValid reports whether p is a known period.
func (p PaymentPeriod) IsValid() bool {
	switch p {
	case PeriodWeekly, PeriodBiweekly, PeriodMonthly, PeriodAnnual:
		return true
	}
	return false
}

// OrDefault returns p, or MONTHLY when p is empty or unknown.
func (p PaymentPeriod) OrDefault() PaymentPeriod {
	if p.IsValid() {
		return p
	}
	return PeriodMonthly
}

// PaymentSource records how a payment row came to exist.
type PaymentSource string

const (
	SourceManual     PaymentSource = "MANUAL"
	SourceImport     PaymentSource = "IMPORT"
	SourceRecurrence PaymentSource = "RECURRENCE"
)

// Payment is a single occurrence of a financial obligation.
type Payment struct {
	ID                   string          `gorm:"primaryKey;size:36" json:"id"`
	UserID               string          `gorm:"not null;index;size:36" json:"user_id"`
	Name                 string          `gorm:"not null" json:"name"`
	PaymentType          PaymentType     `gorm:"not null" json:"payment_type"`
	Category             PaymentCategory `gorm:"not null;index" json:"category"`
	Amount               float64         `gorm:"not null;default:0" json:"amount"`
	PaidAmount           float64         `gorm:"not null;default:0" json:"paid_amount"`
	MinimumPaymentAmount *float64        `json:"minimum_payment_amount,omitempty"`
	IsPaid               bool            `gorm:"not null;default:false" json:"is_paid"`
	Date                 Date            `gorm:"not null;index" json:"date"`
	EndDate              *Date           `json:"end_date,omitempty"`
	Period               PaymentPeriod   `gorm:"not null;default:MONTHLY" json:"period"`
	CustomTag            string          `json:"custom_tag,omitempty"`
	CommitmentEndDate    *Date           `json:"commitment_end_date,omitempty"`
	AutoPayment          bool            `gorm:"not null;default:false" json:"auto_payment"`
	AutoPaymentBank      string          `json:"auto_payment_bank,omitempty"`
	Notes                string          `json:"notes,omitempty"`
	Source               PaymentSource   `gorm:"not null;default:MANUAL" json:"source"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}

// HasEndDate reports whether the payment carries a hard end boundary.
func (p *Payment) HasEndDate() bool {
	return p.EndDate != nil && !p.EndDate.IsZero()
}
