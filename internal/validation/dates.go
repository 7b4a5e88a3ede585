package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Day-first layouts are tried before ISO ones so that "02/03/2020" is the
// second of March.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02-01-2006",
	"02.01.2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
}

// ParseDate reads a day-first or ISO date. Unparsable text yields false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var examDatePattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// ValidExamDate accepts dd/mm/yyyy naming a real calendar day, or NI.
func ValidExamDate(s string) bool {
	s = strings.TrimSpace(s)
	if isNotInformed(s) {
		return true
	}
	if !examDatePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse("02/01/2006", s)
	return err == nil
}

func formatDay(t time.Time) string {
	return t.Format("2006-01-02")
}

// parseNumber reads a numeric cell. NaN and infinities are rejected.
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseCount reads an integral count such as "3" or "3.0".
func parseCount(s string) (int, bool) {
	f, ok := parseNumber(s)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
