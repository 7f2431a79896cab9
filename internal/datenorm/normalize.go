package datenorm

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// millisThreshold separates millisecond epochs (13 digits) from second epochs (10 digits)
const millisThreshold = 1_000_000_000_000

// DateParseError is returned when an input cannot be turned into a timestamp
type DateParseError struct {
	Raw    string
	Reason string
}

// Error implements the error interface
func (e *DateParseError) Error() string {
	if e.Raw == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Raw)
}

var (
	digitsPattern = regexp.MustCompile(`^\d+$`)
	humanPattern  = regexp.MustCompile(`^(\d{1,2})[ \-/.]?([A-Za-z]{3,9})[ \-/.]?(\d{4})$`)
)

// standardLayouts are tried in order; layouts without a zone are read as UTC
var standardLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-1-2",
	"2006/01/02",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon Jan 2 2006",
	"Jan 2 2006",
	"January 2 2006",
	"01/02/2006",
	"1/2/2006",
}

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// Normalize converts a free-form date string into Unix seconds.
//
// Resolution order: digit strings (seconds, or milliseconds above 10^12),
// standard layouts, then "<day><sep><month-name><sep><year>" at UTC midnight.
func Normalize(input string) (int64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, &DateParseError{Raw: input, Reason: "empty date"}
	}

	if digitsPattern.MatchString(s) {
		return fromDigits(s)
	}

	if ts, ok := fromStandard(s); ok {
		if ts < 0 {
			return 0, &DateParseError{Raw: input, Reason: "date before 1970-01-01"}
		}
		return ts, nil
	}

	if m := humanPattern.FindStringSubmatch(s); m != nil {
		return fromHuman(input, m)
	}

	return 0, &DateParseError{Raw: input, Reason: "unrecognized date format"}
}

// NormalizeValue accepts the loosely-typed values that arrive in JSON bodies
func NormalizeValue(v any) (int64, error) {
	switch val := v.(type) {
	case nil:
		return 0, &DateParseError{Reason: "empty date"}
	case string:
		return Normalize(val)
	case json.Number:
		return Normalize(val.String())
	case float64:
		if val < 0 || val != math.Trunc(val) || val > math.MaxInt64 {
			return 0, &DateParseError{Raw: strconv.FormatFloat(val, 'f', -1, 64), Reason: "timestamp must be a non-negative integer"}
		}
		return Normalize(strconv.FormatFloat(val, 'f', 0, 64))
	case int:
		return Normalize(strconv.FormatInt(int64(val), 10))
	case int64:
		return Normalize(strconv.FormatInt(val, 10))
	case uint64:
		return Normalize(strconv.FormatUint(val, 10))
	default:
		return 0, &DateParseError{Raw: fmt.Sprint(v), Reason: "unsupported date value"}
	}
}

func fromDigits(s string) (int64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, &DateParseError{Raw: s, Reason: "timestamp out of range"}
	}
	if n > millisThreshold {
		n /= 1000
	}
	if n > math.MaxInt64 {
		return 0, &DateParseError{Raw: s, Reason: "timestamp out of range"}
	}
	return int64(n), nil
}

func fromStandard(s string) (int64, bool) {
	for _, layout := range standardLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return floorSeconds(t), true
		}
	}
	return 0, false
}

func fromHuman(raw string, m []string) (int64, error) {
	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])

	month, ok := monthNames[strings.ToLower(m[2])]
	if !ok {
		return 0, &DateParseError{Raw: raw, Reason: "unknown month " + m[2]}
	}

	if day < 1 || day > daysIn(month, year) {
		return 0, &DateParseError{Raw: raw, Reason: "day out of range"}
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Unix() < 0 {
		return 0, &DateParseError{Raw: raw, Reason: "date before 1970-01-01"}
	}
	return t.Unix(), nil
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// floorSeconds floors toward negative infinity like dividing a millisecond epoch
func floorSeconds(t time.Time) int64 {
	sec := t.Unix()
	if sec < 0 && t.Nanosecond() > 0 {
		sec--
	}
	return sec
}

// Format renders a timestamp the way verification results display it
func Format(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}
