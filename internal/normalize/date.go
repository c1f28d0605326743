package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"sheets-report-service/internal/models"
)

// monthNames maps Portuguese and English month names and abbreviations to
// their two-digit month number. Lookups go through Fold, so accents and
// case never matter.
var monthNames = map[string]string{
	// Portuguese abbreviations
	"jan": "01", "fev": "02", "mar": "03", "abr": "04", "mai": "05", "jun": "06",
	"jul": "07", "ago": "08", "set": "09", "out": "10", "nov": "11", "dez": "12",
	// Portuguese full names
	"janeiro": "01", "fevereiro": "02", "marco": "03", "abril": "04", "maio": "05",
	"junho": "06", "julho": "07", "agosto": "08", "setembro": "09", "outubro": "10",
	"novembro": "11", "dezembro": "12",
	// English abbreviations (those differing from Portuguese)
	"feb": "02", "apr": "04", "may": "05", "aug": "08", "sep": "09", "sept": "09",
	"oct": "10", "dec": "12",
	// English full names
	"january": "01", "february": "02", "march": "03", "april": "04", "june": "06",
	"july": "07", "august": "08", "september": "09", "october": "10",
	"november": "11", "december": "12",
}

var (
	nameThenYearPattern = regexp.MustCompile(`([a-z]{3,})[\-/\s]+(\d{4})`)
	yearThenNamePattern = regexp.MustCompile(`(\d{4})[\-/\s]+([a-z]{3,})`)

	dayFirstPattern  = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
	yearFirstPattern = regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)

	monthYearPattern = regexp.MustCompile(`^(\d{1,2})[/-](\d{4})$`)
	yearMonthPattern = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})$`)

	digitRunPattern = regexp.MustCompile(`\d+`)
)

// ParseMonthKey converts raw cell text into a canonical "YYYY-MM" key.
// Attempts, first match wins: month name plus year in either order, full
// numeric dates (day/month/year or year/month/day), month/year without a
// day in either order, and finally a bare digit-run extraction assuming
// day/month/year. Text matching none of these yields ok=false and the row
// is excluded from aggregation.
func ParseMonthKey(text string) (models.MonthKey, bool) {
	if text == "" {
		return "", false
	}
	folded := Fold(text)

	if m := nameThenYearPattern.FindStringSubmatch(folded); m != nil {
		if month, ok := lookupMonthName(m[1]); ok {
			return monthKey(m[2], month)
		}
	}
	if m := yearThenNamePattern.FindStringSubmatch(folded); m != nil {
		if month, ok := lookupMonthName(m[2]); ok {
			return monthKey(m[1], month)
		}
	}

	if m := dayFirstPattern.FindStringSubmatch(text); m != nil {
		return monthKey(m[3], m[2])
	}
	if m := yearFirstPattern.FindStringSubmatch(text); m != nil {
		return monthKey(m[1], m[2])
	}

	if m := monthYearPattern.FindStringSubmatch(folded); m != nil {
		return monthKey(m[2], m[1])
	}
	if m := yearMonthPattern.FindStringSubmatch(folded); m != nil {
		return monthKey(m[1], m[2])
	}

	// Last resort: at least three digit runs are assumed to be
	// day/month/year in that order.
	if runs := digitRunPattern.FindAllString(text, -1); len(runs) >= 3 {
		return monthKey(runs[2], runs[1])
	}

	return "", false
}

func lookupMonthName(name string) (string, bool) {
	if month, ok := monthNames[name]; ok {
		return month, true
	}
	// Full names not in the table still resolve by their first three
	// letters ("septiembre" -> "sep").
	if len(name) > 3 {
		if month, ok := monthNames[name[:3]]; ok {
			return month, true
		}
	}
	return "", false
}

func monthKey(year, month string) (models.MonthKey, bool) {
	if len(year) != 4 {
		return "", false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", false
	}
	return models.MonthKey(fmt.Sprintf("%s-%02d", year, m)), true
}

// contractDateFormats is the ladder the contract sheet has been observed to
// use, tried in order.
var contractDateFormats = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"01/02/2006",
}

// ParseContractDate parses a contract boundary date. Unlike ParseMonthKey
// it keeps the day, since projection eligibility compares full dates.
func ParseContractDate(text string) (time.Time, bool) {
	for _, format := range contractDateFormats {
		if t, err := time.Parse(format, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
