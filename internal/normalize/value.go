package normalize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Placeholder tokens that mean "no amount" in the source sheets. "Por
// Consumo" marks consumption-billed lines with no fixed value.
var placeholderTokens = map[string]struct{}{
	"":            {},
	"-":           {},
	"n/a":         {},
	"por consumo": {},
}

var (
	parenthesesPattern = regexp.MustCompile(`\(\s*[^)]*\)`)
	nonNumericPattern  = regexp.MustCompile(`[^\d,.]`)
)

// ParseAmount converts raw cell text into a signed decimal amount under the
// Brazilian-biased policy the sheets use. It is a total function: empty
// text, placeholder tokens and anything unparseable after cleanup all come
// back as zero, never as an error. Callers depend on that contract.
//
// Separator policy, in order:
//   - comma and dot present: dot is a thousands separator, comma decimal
//   - comma only, with at most two trailing digits: decimal comma
//   - comma only, otherwise: commas stripped as artifacts
//   - dot only: kept as-is (preserved tie-break, see ParseAmount tests)
func ParseAmount(text string) decimal.Decimal {
	s := strings.TrimSpace(text)
	if _, ok := placeholderTokens[Fold(s)]; ok {
		return decimal.Zero
	}

	// Sign comes from enclosing parentheses or an edge minus, detected
	// before the cleanup strips both.
	negative := parenthesesPattern.MatchString(s) ||
		strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-")

	cleaned := nonNumericPattern.ReplaceAllString(strings.ReplaceAll(s, "-", ""), "")
	if cleaned == "" || cleaned == "." || cleaned == "," {
		return decimal.Zero
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")
	switch {
	case hasComma && hasDot:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case hasComma:
		parts := strings.Split(cleaned, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			cleaned = parts[0] + "." + parts[1]
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		amount = amount.Neg()
	}
	return amount
}
