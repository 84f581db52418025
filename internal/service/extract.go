package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"spendscan/internal/models"
)

// Receipts are visually tabular but OCR output is linear text, so these
// heuristics trade precision for simplicity. They are best-effort: a field
// the patterns cannot find is reported as absent, never as an error.

var (
	amountPattern = regexp.MustCompile(`\d+[.,]\d{2}`)

	// Priority order matters: the first pattern that matches anywhere in the
	// transcript wins, even if a later pattern would match earlier text.
	totalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\btotal\b[\s:]*[$€£]?\s*\d+[.,]\d{2}`),
		regexp.MustCompile(`[$€£]\s*\d+[.,]\d{2}`),
		regexp.MustCompile(`(?i)\btotal\b.*?\d+[.,]\d{2}`),
	}

	dateSeparators = func(r rune) bool { return r == '-' || r == '/' }
)

type datePattern struct {
	re       *regexp.Regexp
	dayFirst bool
}

// Ambiguous D/M vs M/D orders are read day-first throughout; two-digit years
// are taken as 20xx.
var datePatterns = []datePattern{
	{regexp.MustCompile(`\d{2}[-/]\d{2}[-/]\d{4}`), true},
	{regexp.MustCompile(`\d{4}[-/]\d{2}[-/]\d{2}`), false},
	{regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`), true},
}

// extractDate scans the transcript against an ordered list of date shapes and
// returns the first calendar-valid match. A match that is not a real calendar
// date (month 13, day 32) is skipped in favor of the next pattern.
func extractDate(text string) (time.Time, bool) {
	for _, pattern := range datePatterns {
		for _, match := range pattern.re.FindAllString(text, -1) {
			if date, ok := parseDateMatch(match, pattern.dayFirst); ok {
				return date, true
			}
		}
	}
	return time.Time{}, false
}

func parseDateMatch(match string, dayFirst bool) (time.Time, bool) {
	parts := strings.FieldsFunc(match, dateSeparators)
	if len(parts) != 3 {
		return time.Time{}, false
	}

	numbers := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, false
		}
		numbers[i] = n
	}

	var year, month, day int
	if dayFirst {
		day, month, year = numbers[0], numbers[1], numbers[2]
		if year < 100 {
			year += 2000
		}
	} else {
		year, month, day = numbers[0], numbers[1], numbers[2]
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 becomes Mar 2); reject those.
	if date.Day() != day || date.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return date, true
}

// extractTotal returns the first amount matched by the total patterns, comma
// decimals normalized to dots. The value is not sanity-checked.
func extractTotal(text string) (float64, bool) {
	for _, pattern := range totalPatterns {
		match := pattern.FindString(text)
		if match == "" {
			continue
		}
		number := amountPattern.FindString(match)
		if number == "" {
			continue
		}
		total, err := strconv.ParseFloat(strings.Replace(number, ",", ".", 1), 64)
		if err != nil {
			continue
		}
		return total, true
	}
	return 0, false
}

// Lines shorter than this after trimming are treated as noise, not items.
const minItemLineLength = 5

// extractItems walks the transcript line by line, skipping total/subtotal
// rows, and treats the last currency-shaped number on a line as its price
// (receipts print the price column rightmost). The remaining text, prices
// stripped, becomes the item name. Order is preserved and nothing is deduped.
func extractItems(text string) []models.Item {
	var items []models.Item

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "total") ||
			strings.Contains(lower, "subtotal") ||
			len(strings.TrimSpace(line)) < minItemLineLength {
			continue
		}

		prices := amountPattern.FindAllString(line, -1)
		if len(prices) == 0 {
			continue
		}

		price, err := strconv.ParseFloat(strings.Replace(prices[len(prices)-1], ",", ".", 1), 64)
		if err != nil {
			continue
		}
		name := strings.TrimSpace(amountPattern.ReplaceAllString(line, ""))

		items = append(items, models.Item{Name: name, Price: price})
	}

	return items
}
