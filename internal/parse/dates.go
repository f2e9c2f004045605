package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
	"янв": time.January, "фев": time.February, "мар": time.March,
	"апр": time.April, "мая": time.May, "май": time.May,
	"июн": time.June, "июл": time.July, "авг": time.August,
	"сен": time.September, "окт": time.October, "ноя": time.November,
	"дек": time.December,
}

var (
	reNumericParts = regexp.MustCompile(`^(\d{1,4})[./-](\d{1,2})[./-](\d{1,4})$`)
	reNamedParts   = regexp.MustCompile(`(?i)^(\d{1,2})\s+([\p{L}]+)\.?\s+(\d{4})$`)
)

// NormalizeDate converts a raw detected date string to ISO YYYY-MM-DD.
// Numeric forms are read day-first unless only a month-first reading is
// valid; two-digit years are pivoted into 2000-2099.
func NormalizeDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02"), true
	}

	if m := reNumericParts.FindStringSubmatch(s); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		c, _ := strconv.Atoi(m[3])
		if len(m[1]) == 4 { // YYYY.MM.DD
			return isoIfValid(a, b, c)
		}
		year := c
		if year < 100 {
			year += 2000
		}
		// day-first default; fall back to month-first when day-first is impossible
		if iso, ok := isoIfValid(year, b, a); ok {
			return iso, true
		}
		return isoIfValid(year, a, b)
	}

	if m := reNamedParts.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		name := strings.ToLower(m[2])
		for prefix, month := range monthNames {
			if strings.HasPrefix(name, prefix) {
				return isoIfValid(year, int(month), day)
			}
		}
	}
	return "", false
}

func isoIfValid(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 || year > 2200 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month { // e.g. Feb 30 rolls over
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}
