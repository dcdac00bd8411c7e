package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"paytrack/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// PaymentOption customizes a fixture payment before it is stored.
type PaymentOption func(*models.Payment)

// WithDate sets the nominal due date (YYYY-MM-DD).
func WithDate(date string) PaymentOption {
	return func(p *models.Payment) { p.Date = models.MustParseDate(date) }
}

// WithEndDate sets the end date (YYYY-MM-DD).
func WithEndDate(date string) PaymentOption {
	return func(p *models.Payment) {
		d := models.MustParseDate(date)
		p.EndDate = &d
	}
}

// WithType sets the payment type and its derived category.
func WithType(typ models.PaymentType) PaymentOption {
	return func(p *models.Payment) {
		p.PaymentType = typ
		p.Category = typ.Category()
	}
}

// WithAmount sets the expected amount.
func WithAmount(amount float64) PaymentOption {
	return func(p *models.Payment) { p.Amount = amount }
}

// WithPeriod sets the recurrence period.
func WithPeriod(period models.PaymentPeriod) PaymentOption {
	return func(p *models.Payment) { p.Period = period }
}

// WithTag sets the custom tag.
func WithTag(tag string) PaymentOption {
	return func(p *models.Payment) { p.CustomTag = tag }
}

// Paid marks the payment as confirmed with its full amount.
func Paid() PaymentOption {
	return func(p *models.Payment) {
		p.IsPaid = true
		p.PaidAmount = p.Amount
	}
}

// CreateTestPayment stores a pending monthly bill for userID. Options are
// applied in order before insert.
func CreateTestPayment(t *testing.T, db *gorm.DB, userID string, opts ...PaymentOption) *models.Payment {
	t.Helper()

	p := &models.Payment{
		UserID:      userID,
		Name:        fmt.Sprintf("Test Payment %d", nextID()),
		PaymentType: models.PaymentTypeBill,
		Category:    models.CategoryBill,
		Amount:      100,
		Date:        models.MustParseDate("2024-06-10"),
		Period:      models.PeriodMonthly,
		Source:      models.SourceManual,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create test payment: %v", err)
	}
	return p
}
