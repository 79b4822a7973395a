package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type sample struct {
	Amount    decimal.Decimal `validate:"money"`
	Type      string          `validate:"transaction_type"`
	Method    string          `validate:"omitempty,payment_method"`
	Color     string          `validate:"omitempty,hex_color"`
	Threshold *int            `validate:"omitempty,threshold_percent"`
}

func newValidate() *validator.Validate {
	v := validator.New()
	RegisterOn(v)
	return v
}

func intPtr(n int) *int { return &n }

func TestCustomValidators(t *testing.T) {
	v := newValidate()

	valid := sample{
		Amount:    decimal.RequireFromString("12.50"),
		Type:      "expense",
		Method:    "credit_card",
		Color:     "#FF5733",
		Threshold: intPtr(80),
	}

	t.Run("valid_struct", func(t *testing.T) {
		if err := v.Struct(valid); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(s *sample)
		field  string
	}{
		{"zero_amount", func(s *sample) { s.Amount = decimal.Zero }, "Amount"},
		{"negative_amount", func(s *sample) { s.Amount = decimal.NewFromInt(-5) }, "Amount"},
		{"amount_below_a_cent", func(s *sample) { s.Amount = decimal.RequireFromString("0.001") }, "Amount"},
		{"amount_with_three_decimals", func(s *sample) { s.Amount = decimal.RequireFromString("10.005") }, "Amount"},
		{"amount_overflows_column", func(s *sample) { s.Amount = decimal.New(1, 10) }, "Amount"},
		{"unknown_type", func(s *sample) { s.Type = "transfer" }, "Type"},
		{"unknown_payment_method", func(s *sample) { s.Method = "cheque" }, "Method"},
		{"bad_color", func(s *sample) { s.Color = "red" }, "Color"},
		{"threshold_over_100", func(s *sample) { s.Threshold = intPtr(101) }, "Threshold"},
		{"threshold_negative", func(s *sample) { s.Threshold = intPtr(-1) }, "Threshold"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.mutate(&s)
			err := v.Struct(s)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			errs, ok := err.(validator.ValidationErrors)
			if !ok || len(errs) != 1 {
				t.Fatalf("expected one validation error, got %v", err)
			}
			if errs[0].Field() != tc.field {
				t.Errorf("expected error on %s, got %s", tc.field, errs[0].Field())
			}
		})
	}

	t.Run("threshold_boundaries_accepted", func(t *testing.T) {
		for _, n := range []int{0, 100} {
			s := valid
			s.Threshold = intPtr(n)
			if err := v.Struct(s); err != nil {
				t.Errorf("threshold %d: unexpected error %v", n, err)
			}
		}
	})
}

func TestFieldNames(t *testing.T) {
	type request struct {
		CategoryID string          `json:"category_id" validate:"required"`
		Limit      decimal.Decimal `json:"budget_limit,omitempty" validate:"money"`
		PageSize   int             `form:"page_size" validate:"max=100"`
		Internal   string          `json:"-" validate:"required"`
	}
	v := newValidate()

	err := v.Struct(request{Limit: decimal.RequireFromString("0.001"), PageSize: 101})
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		t.Fatalf("expected validation errors, got %v", err)
	}

	got := map[string]string{}
	for _, fe := range errs {
		got[fe.Field()] = fe.Tag()
	}
	want := map[string]string{
		"category_id":  "required",
		"budget_limit": "money",
		"page_size":    "max",
		"Internal":     "required",
	}
	for field, tag := range want {
		if got[field] != tag {
			t.Errorf("field %s: expected tag %q, got %q (all: %v)", field, tag, got[field], got)
		}
	}
}
