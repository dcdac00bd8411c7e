package services

import (
	"context"

	"paytrack/internal/models"
	"paytrack/internal/pagination"
	"paytrack/internal/repository"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID string, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}

// PaymentStore is the persistence collaborator the payment service works
// through. *repository.PaymentRepository satisfies it.
type PaymentStore interface {
	LoadAll(ctx context.Context, userID string) ([]models.Payment, error)
	SaveAll(ctx context.Context, userID string, snapshot []models.Payment, origin repository.Origin) error
	ApplyMutation(ctx context.Context, userID string, origin repository.Origin, fn repository.Mutation) ([]models.Payment, error)
}

// PaymentInput carries the user-editable fields of a payment.
type PaymentInput struct {
	Name                 string
	PaymentType          models.PaymentType
	Amount               float64
	MinimumPaymentAmount *float64
	Date                 models.Date
	EndDate              *models.Date
	Period               models.PaymentPeriod
	CustomTag            string
	CommitmentEndDate    *models.Date
	AutoPayment          bool
	AutoPaymentBank      string
	Notes                string
	// AlreadyPaid records a past payment as confirmed with its full amount.
	AlreadyPaid bool
}

// Status filter values for listing payments.
const (
	StatusAll     = "ALL"
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
)

// PaymentFilter holds optional filter parameters for listing payments.
type PaymentFilter struct {
	Month    string // YYYY-MM on the nominal date
	Category models.PaymentCategory
	Status   string
}

// PaymentView is a payment plus its computed due-date presentation.
type PaymentView struct {
	models.Payment
	AdjustedDate    models.Date `json:"adjusted_date"`
	WeekendAdjusted bool        `json:"weekend_adjusted"`
	IsOverdue       bool        `json:"is_overdue"`
}

// ConfirmResult is the outcome of confirming a payment.
type ConfirmResult struct {
	Payment        models.Payment  `json:"payment"`
	NextOccurrence *models.Payment `json:"next_occurrence"`
}

// MonthSummary contains expected vs paid totals for a month.
type MonthSummary struct {
	Month          string                 `json:"month"`
	Category       models.PaymentCategory `json:"category,omitempty"`
	Expected       float64                `json:"expected"`
	Paid           float64                `json:"paid"`
	Remaining      float64                `json:"remaining"`
	PendingCount   int                    `json:"pending_count"`
	PaidCount      int                    `json:"paid_count"`
	TotalExpected  float64                `json:"total_expected"`
	TotalPaid      float64                `json:"total_paid"`
	TotalRemaining float64                `json:"total_remaining"`
}

// MonthTotal is one point of the paid trend.
type MonthTotal struct {
	Month string  `json:"month"`
	Paid  float64 `json:"paid"`
}

// CategoryTotal is the expected total of one category in a month.
type CategoryTotal struct {
	Category models.PaymentCategory `json:"category"`
	Expected float64                `json:"expected"`
	Count    int                    `json:"count"`
}

// TagTotal is the expected total of one custom tag in a month.
type TagTotal struct {
	Tag      string  `json:"tag"`
	Expected float64 `json:"expected"`
	Count    int     `json:"count"`
}

// Dashboard aggregates the statistics shown for a month.
type Dashboard struct {
	Month      string          `json:"month"`
	Trend      []MonthTotal    `json:"trend"`
	ByCategory []CategoryTotal `json:"by_category"`
	ByTag      []TagTotal      `json:"by_tag"`
}

// Import modes.
const (
	ImportModeAppend  = "APPEND"
	ImportModeReplace = "REPLACE"
)

// ImportIssue describes a row that was skipped during import.
type ImportIssue struct {
	Row    int    `json:"row"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// ImportResult summarizes an import.
type ImportResult struct {
	Mode     string        `json:"mode"`
	Imported int           `json:"imported"`
	Skipped  []ImportIssue `json:"skipped"`
	Total    int           `json:"total"`
}

// PaymentServicer defines the contract for payment-related business logic.
type PaymentServicer interface {
	CreatePayment(ctx context.Context, userID string, input PaymentInput) (*models.Payment, error)
	UpdatePayment(ctx context.Context, userID, paymentID string, input PaymentInput) (*models.Payment, error)
	DeletePayment(ctx context.Context, userID, paymentID string) error
	GetPayment(ctx context.Context, userID, paymentID string) (*PaymentView, error)
	ListPayments(ctx context.Context, userID string, filter PaymentFilter, page pagination.PageRequest) (*pagination.PageResponse[PaymentView], error)
	ConfirmPayment(ctx context.Context, userID, paymentID string, paidAmount *float64) (*ConfirmResult, error)
	MonthSummary(ctx context.Context, userID, month string, category models.PaymentCategory) (*MonthSummary, error)
	Dashboard(ctx context.Context, userID, month string) (*Dashboard, error)
	DueToday(ctx context.Context, userID string) ([]PaymentView, error)
	Unpaid(ctx context.Context, userID string) ([]models.Payment, error)
	Import(ctx context.Context, userID string, rows []ImportRow, mode string) (*ImportResult, error)
	Export(ctx context.Context, userID string) ([]ImportRow, error)
}
