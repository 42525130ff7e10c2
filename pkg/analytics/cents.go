package analytics

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// DecimalToCents converts a decimal amount string such as "12.3" into integer
// cents. Fractions beyond two digits are truncated toward zero and the sign is
// kept. An empty string is zero, which is what SUM over no rows yields.
func DecimalToCents(amount string) (int64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, nil
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal amount %q: %w", amount, err)
	}

	cents := d.Truncate(2).Shift(2)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, fmt.Errorf("decimal amount %q out of range", amount)
	}
	return cents.IntPart(), nil
}

// CentsToDecimal formats cents as a two-digit decimal string
func CentsToDecimal(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
