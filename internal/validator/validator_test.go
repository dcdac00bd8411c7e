package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type sample struct {
	Type     string `binding:"omitempty,payment_type"`
	Period   string `binding:"omitempty,payment_period"`
	Category string `binding:"omitempty,payment_category"`
	Status   string `binding:"omitempty,filter_status"`
	Mode     string `binding:"omitempty,import_mode"`
	Month    string `binding:"omitempty,month"`
}

func TestRegister(t *testing.T) {
	Register()
	if _, ok := binding.Validator.Engine().(*validator.Validate); !ok {
		t.Fatal("expected go-playground validator engine")
	}

	valid := []sample{
		{},
		{Type: "LOAN", Period: "BIWEEKLY", Category: "CARD", Status: "PAID", Mode: "REPLACE", Month: "2024-12"},
		{Type: "CREDIT_CARD", Period: "ANNUAL", Category: "DIGITAL", Status: "ALL", Mode: "APPEND", Month: "2024-01"},
	}
	for _, s := range valid {
		if err := binding.Validator.ValidateStruct(s); err != nil {
			t.Errorf("expected %+v to be valid, got %v", s, err)
		}
	}

	invalid := []sample{
		{Type: "loan"},
		{Period: "DAILY"},
		{Category: "CREDIT_CARD"},
		{Status: "OVERDUE"},
		{Mode: "MERGE"},
		{Month: "2024-13"},
		{Month: "2024-6"},
	}
	for _, s := range invalid {
		if err := binding.Validator.ValidateStruct(s); err == nil {
			t.Errorf("expected %+v to be invalid", s)
		}
	}
}
