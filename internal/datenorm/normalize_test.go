package datenorm

import (
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	sep28 := time.Date(2025, time.September, 28, 0, 0, 0, 0, time.UTC).Unix()

	tests := []struct {
		name     string
		input    string
		expected int64
	}{
		{
			name:     "seconds stay seconds",
			input:    "1759017600",
			expected: 1759017600,
		},
		{
			name:     "milliseconds are floored to seconds",
			input:    "1759017600999",
			expected: 1759017600,
		},
		{
			name:     "exactly 10^12 is treated as seconds",
			input:    "1000000000000",
			expected: 1000000000000,
		},
		{
			name:     "zero is a valid timestamp",
			input:    "0",
			expected: 0,
		},
		{
			name:     "surrounding whitespace is trimmed",
			input:    "  1759017600 ",
			expected: 1759017600,
		},
		{
			name:     "ISO date is UTC midnight",
			input:    "2025-09-28",
			expected: sep28,
		},
		{
			name:     "RFC3339 with zone",
			input:    "2025-09-28T02:00:00+02:00",
			expected: sep28,
		},
		{
			name:     "RFC3339 fractional seconds are floored",
			input:    "2025-09-28T00:00:00.900Z",
			expected: sep28,
		},
		{
			name:     "slash ISO date",
			input:    "2025/09/28",
			expected: sep28,
		},
		{
			name:     "long month first",
			input:    "September 28, 2025",
			expected: sep28,
		},
		{
			name:     "US locale month day year",
			input:    "9/28/2025",
			expected: sep28,
		},
		{
			name:     "short month day year without comma",
			input:    "Sep 28 2025",
			expected: sep28,
		},
		{
			name:     "long month day year without comma",
			input:    "September 28 2025",
			expected: sep28,
		},
		{
			name:     "unpadded ISO date",
			input:    "2025-9-28",
			expected: sep28,
		},
		{
			name:     "ISO date with minutes",
			input:    "2025-09-28 10:00",
			expected: sep28 + 10*3600,
		},
		{
			name:     "day month year with hyphens",
			input:    "28-Sep-2025",
			expected: sep28,
		},
		{
			name:     "day month year with spaces",
			input:    "28 Sep 2025",
			expected: sep28,
		},
		{
			name:     "sept alias",
			input:    "28-Sept-2025",
			expected: sep28,
		},
		{
			name:     "full month lower case with dots",
			input:    "28.september.2025",
			expected: sep28,
		},
		{
			name:     "no separators",
			input:    "28SEP2025",
			expected: sep28,
		},
		{
			name:     "single digit day with slash",
			input:    "1/Jan/2024",
			expected: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).Unix(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q) failed: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %d; want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalize_Failures(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"unknown month", "28-Zzz-2025"},
		{"prefix of a month is not a month", "28-Septem-2025"},
		{"day out of range", "31-Feb-2025"},
		{"day zero", "0-Jan-2025"},
		{"two digit year", "28-Sep-25"},
		{"garbage", "not a date"},
		{"negative number", "-5"},
		{"digits overflow", "99999999999999999999999"},
		{"before epoch", "1969-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.input)
			if err == nil {
				t.Fatalf("Normalize(%q) should fail", tt.input)
			}
			var parseErr *DateParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected *DateParseError, got %T", err)
			}
			if parseErr.Raw != tt.input {
				t.Errorf("expected Raw %q, got %q", tt.input, parseErr.Raw)
			}
		})
	}
}

func TestNormalize_EquivalentForms(t *testing.T) {
	iso, err := Normalize("2025-09-28")
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	for _, input := range []string{"28-Sep-2025", "28 Sep 2025", "28-Sept-2025", "28/SEPTEMBER/2025"} {
		got, err := Normalize(input)
		if err != nil {
			t.Fatalf("Normalize(%q) failed: %v", input, err)
		}
		if got != iso {
			t.Errorf("Normalize(%q) = %d; want %d", input, got, iso)
		}
	}
}

func TestNormalize_CanonicalRoundTrip(t *testing.T) {
	for _, ts := range []int64{0, 1, 86400, 1759017600, 999999999999} {
		got, err := Normalize(strconv.FormatInt(ts, 10))
		if err != nil {
			t.Fatalf("Normalize(%d) failed: %v", ts, err)
		}
		if got != ts {
			t.Errorf("Normalize(%d) = %d", ts, got)
		}
	}
}

func TestNormalizeValue(t *testing.T) {
	t.Run("nil fails", func(t *testing.T) {
		_, err := NormalizeValue(nil)
		var parseErr *DateParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected *DateParseError, got %v", err)
		}
	})

	t.Run("json number", func(t *testing.T) {
		got, err := NormalizeValue(json.Number("1759017600000"))
		if err != nil {
			t.Fatalf("NormalizeValue() failed: %v", err)
		}
		if got != 1759017600 {
			t.Errorf("expected 1759017600, got %d", got)
		}
	})

	t.Run("float from decoded JSON", func(t *testing.T) {
		got, err := NormalizeValue(float64(1759017600))
		if err != nil {
			t.Fatalf("NormalizeValue() failed: %v", err)
		}
		if got != 1759017600 {
			t.Errorf("expected 1759017600, got %d", got)
		}
	})

	t.Run("fractional float fails", func(t *testing.T) {
		if _, err := NormalizeValue(1.5); err == nil {
			t.Error("expected error for fractional timestamp")
		}
	})

	t.Run("string", func(t *testing.T) {
		got, err := NormalizeValue("28 Sep 2025")
		if err != nil {
			t.Fatalf("NormalizeValue() failed: %v", err)
		}
		if got != time.Date(2025, 9, 28, 0, 0, 0, 0, time.UTC).Unix() {
			t.Errorf("unexpected timestamp %d", got)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		if _, err := NormalizeValue(true); err == nil {
			t.Error("expected error for bool")
		}
	})
}

func TestFormat(t *testing.T) {
	if got := Format(0); got != "-" {
		t.Errorf("Format(0) = %q; want \"-\"", got)
	}
	if got := Format(1759017600); got != "2025-09-28" {
		t.Errorf("Format() = %q; want 2025-09-28", got)
	}
}
