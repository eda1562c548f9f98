package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Plausibility window for a voucher face value, applied before any
// denomination classification. Numbers outside it are phone fragments, dates
// or order totals, not voucher amounts.
const (
	minPlausibleAmount = 10
	maxPlausibleAmount = 500
)

// amountPatterns is the ordered strategy list for amount extraction: a
// currency-symbol-adjacent number beats a bare decimal beats a bare integer.
// The first match inside the plausibility window wins.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`₪\s*([\d,]+\.?\d*)`), // ₪100.00
	regexp.MustCompile(`([\d,]+\.?\d*)\s*₪`), // 100.00₪
	regexp.MustCompile(`(\d+\.\d+)`),         // 100.00
	regexp.MustCompile(`(\d+)`),              // 100
}

// ExtractAmount scans text for a voucher amount. It returns the first parsed
// number within [10, 500], trying each pattern in order, or false when no
// pattern yields a plausible amount.
func ExtractAmount(text string) (float64, bool) {
	for _, pattern := range amountPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			raw := strings.ReplaceAll(match[1], ",", "")
			amount, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			if amount >= minPlausibleAmount && amount <= maxPlausibleAmount {
				return amount, true
			}
		}
	}
	return 0, false
}
