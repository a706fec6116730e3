// Package balance holds the value codec shared by the balance log backends
// and an in-memory backend used by tests and ephemeral runs.
package balance

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout is the timestamp format used as the row key
const TimeLayout = time.RFC3339

// FormatValue renders a total as a two-decimal string
func FormatValue(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// ParseValue reads a stored value; anything unparseable reads as zero
func ParseValue(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// FormatTime renders the row key for at
func FormatTime(at time.Time) string {
	return at.UTC().Truncate(time.Second).Format(TimeLayout)
}
