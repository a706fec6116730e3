package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValidationError rejects user-entered position data before it is written
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// parseNumber accepts finite decimal numbers only; NaN and Inf cannot be
// written back to JSON.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidatePurchaseInput parses the four text fields of a new purchase lot.
// Price and fees may be blank; a blank price leaves the lot incomplete so
// it is backfilled from historic quotes.
func ValidatePurchaseInput(date, quantity, price, fees string) (Purchase, error) {
	date = strings.TrimSpace(date)
	quantity = strings.TrimSpace(quantity)
	price = strings.TrimSpace(price)
	fees = strings.TrimSpace(fees)

	if date == "" {
		return Purchase{}, invalid("date", "Date is required")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return Purchase{}, invalid("date", "Invalid date format: %s (expected YYYY-MM-DD)", date)
	}

	if quantity == "" {
		return Purchase{}, invalid("quantity", "Quantity is required")
	}
	q, ok := parseNumber(quantity)
	if !ok {
		return Purchase{}, invalid("quantity", "Invalid quantity format: %s", quantity)
	}
	if q <= 0 {
		return Purchase{}, invalid("quantity", "Quantity must be positive, got %s", quantity)
	}

	lot := Purchase{Date: date, Quantity: q}

	if price != "" {
		p, ok := parseNumber(price)
		if !ok {
			return Purchase{}, invalid("price", "Invalid price format: %s", price)
		}
		if p < 0 {
			return Purchase{}, invalid("price", "Price cannot be negative, got %s", price)
		}
		lot.Price = Float(p)
	}

	if fees != "" {
		f, ok := parseNumber(fees)
		if !ok {
			return Purchase{}, invalid("fees", "Invalid fees format: %s", fees)
		}
		if f < 0 {
			return Purchase{}, invalid("fees", "Fees cannot be negative, got %s", fees)
		}
		lot.Fees = Float(f)
	}

	return lot, nil
}

// ValidateAmountInput parses a new amount for a position without lots
func ValidateAmountInput(amount string) (float64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, invalid("amount", "Amount is required")
	}
	v, ok := parseNumber(amount)
	if !ok {
		return 0, invalid("amount", "Invalid amount format: %s", amount)
	}
	if v < 0 {
		return 0, invalid("amount", "Amount cannot be negative, got %s", amount)
	}
	return v, nil
}
