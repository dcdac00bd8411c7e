// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"paytrack/internal/models"
)

var monthRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("payment_type", validatePaymentType)
		_ = v.RegisterValidation("payment_period", validatePaymentPeriod)
		_ = v.RegisterValidation("payment_category", validatePaymentCategory)
		_ = v.RegisterValidation("filter_status", validateFilterStatus)
		_ = v.RegisterValidation("import_mode", validateImportMode)
		_ = v.RegisterValidation("month", validateMonth)
	}
}

func validatePaymentType(fl validator.FieldLevel) bool {
	return models.PaymentType(fl.Field().String()).IsValid()
}

func validatePaymentPeriod(fl validator.FieldLevel) bool {
	return models.PaymentPeriod(fl.Field().String()).IsValid()
}

func validatePaymentCategory(fl validator.FieldLevel) bool {
	return models.PaymentCategory(fl.Field().String()).IsValid()
}

func validateFilterStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "ALL", "PENDING", "PAID":
		return true
	}
	return false
}

func validateImportMode(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "APPEND", "REPLACE":
		return true
	}
	return false
}

func validateMonth(fl validator.FieldLevel) bool {
	return monthRegex.MatchString(fl.Field().String())
}
