package portfolio

import "testing"

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   float64
		currency string
		want     string
	}{
		{1234.5, "USD", "$1,234.50"},
		{0.005, "USD", "$0.01"},
		{-20, "USD", "-$20.00"},
		{99.999, "XXX-not-a-currency", "100.00"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.amount, tt.currency); got != tt.want {
			t.Errorf("FormatMoney(%v, %s) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestFormatOptionals(t *testing.T) {
	if got := FormatMoneyOpt(nil, "USD"); got != Placeholder {
		t.Errorf("FormatMoneyOpt(nil) = %q", got)
	}
	if got := FormatPercentOpt(nil); got != Placeholder {
		t.Errorf("FormatPercentOpt(nil) = %q", got)
	}
	if got := FormatPercentOpt(f(1.234)); got != "+1.23%" {
		t.Errorf("FormatPercentOpt(1.234) = %q", got)
	}
	if got := FormatPercentOpt(f(-0.5)); got != "-0.50%" {
		t.Errorf("FormatPercentOpt(-0.5) = %q", got)
	}
	if got := FormatQuantity(2.50); got != "2.5" {
		t.Errorf("FormatQuantity(2.5) = %q", got)
	}
}
