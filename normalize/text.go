package normalize

import (
	"regexp"
	"strconv"
)

var (
	nonDigits    = regexp.MustCompile(`[^0-9]`)
	nonPriceRune = regexp.MustCompile(`[^0-9.,]`)
	thousandsSep = regexp.MustCompile(`,`)
)

// ParseInt extracts a non-negative integer from text that may carry
// thousands separators or surrounding words ("1,234 tickets left").
// Returns nil when no digits are present.
func ParseInt(text string) *int {
	digits := nonDigits.ReplaceAllString(text, "")
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

// ParsePrice extracts a decimal price from text that may carry a currency
// symbol and thousands separators ("£1,499.99"). Returns nil when no
// usable number remains.
func ParsePrice(text string) *float64 {
	cleaned := nonPriceRune.ReplaceAllString(text, "")
	cleaned = thousandsSep.ReplaceAllString(cleaned, "")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}
