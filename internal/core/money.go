// Package core provides the domain types, error classes and the pure helpers
// (amount parsing, summary windows) shared by the dialog and storage layers.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var thousand = decimal.NewFromInt(1000)

// ParseAmount converts user input into a whole currency amount.
//
// Input is trimmed and case-folded. A trailing "k" multiplies the (possibly
// fractional) prefix by 1000 and truncates toward zero; anything else must be
// a plain base-10 integer. Signs are rejected.
//
// Examples:
//
//	ParseAmount("25k")  -> 25000, nil
//	ParseAmount("1.5k") -> 1500, nil
//	ParseAmount("500")  -> 500, nil
//	ParseAmount("1.5")  -> 0, ErrInvalidAmount
//	ParseAmount("-5")   -> 0, ErrInvalidAmount
func ParseAmount(text string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}

	if prefix, ok := strings.CutSuffix(s, "k"); ok {
		return parseThousands(prefix)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	return n, nil
}

func parseThousands(prefix string) (int64, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || strings.HasPrefix(prefix, "-") || strings.HasPrefix(prefix, "+") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, prefix+"k")
	}
	v := d.Mul(thousand).Truncate(0)
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, ErrInvalidAmount
	}
	return v.IntPart(), nil
}

// FormatAmount renders an amount with English digit grouping ("25,000").
func FormatAmount(n int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}
