package models

import (
	"errors"
	"testing"
)

func TestValidatePurchaseInput(t *testing.T) {
	tests := []struct {
		name                   string
		date, qty, price, fees string
		wantErr                string
	}{
		{"missing date", "", "1", "", "", "Date is required"},
		{"bad date", "10/01/2023", "1", "", "", "Invalid date format: 10/01/2023 (expected YYYY-MM-DD)"},
		{"missing quantity", "2023-01-10", "", "", "", "Quantity is required"},
		{"bad quantity", "2023-01-10", "abc", "", "", "Invalid quantity format: abc"},
		{"zero quantity", "2023-01-10", "0", "", "", "Quantity must be positive, got 0"},
		{"bad price", "2023-01-10", "1", "x", "", "Invalid price format: x"},
		{"negative price", "2023-01-10", "1", "-2", "", "Price cannot be negative, got -2"},
		{"negative fees", "2023-01-10", "1", "2", "-1", "Fees cannot be negative, got -1"},
		{"NaN quantity", "2023-01-10", "NaN", "", "", "Invalid quantity format: NaN"},
		{"infinite quantity", "2023-01-10", "Inf", "", "", "Invalid quantity format: Inf"},
		{"infinite price", "2023-01-10", "1", "+Inf", "", "Invalid price format: +Inf"},
		{"NaN fees", "2023-01-10", "1", "2", "nan", "Invalid fees format: nan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidatePurchaseInput(tt.date, tt.qty, tt.price, tt.fees)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Error() != tt.wantErr {
				t.Errorf("error = %q, want %q", verr.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidatePurchaseInput_BlankPriceLeavesLotIncomplete(t *testing.T) {
	lot, err := ValidatePurchaseInput(" 2023-01-10 ", "2.5", "", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lot.HasPrice() {
		t.Error("blank price should leave the lot incomplete")
	}
	if lot.Quantity != 2.5 || lot.FeesOrZero() != 1 || lot.Date != "2023-01-10" {
		t.Errorf("lot = %+v", lot)
	}
}

func TestValidateAmountInput(t *testing.T) {
	if v, err := ValidateAmountInput("12.5"); err != nil || v != 12.5 {
		t.Errorf("ValidateAmountInput(12.5) = %v, %v", v, err)
	}
	for _, in := range []string{"", "abc", "-1", "NaN", "Inf", "-Inf", "1e400"} {
		if _, err := ValidateAmountInput(in); err == nil {
			t.Errorf("ValidateAmountInput(%q) should fail", in)
		}
	}
}
