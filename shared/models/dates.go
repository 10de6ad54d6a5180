package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// Day truncates t to its calendar date, expressed as midnight UTC.
// The calendar date is read in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ShortID is the first eight hex characters of id, upper-cased
func ShortID(id uuid.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	return strings.ToUpper(hex[:8])
}

// ReceiptPrefix is the tenant-and-day scope of a receipt sequence
func ReceiptPrefix(gymID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("REC-%s-%s", ShortID(gymID), Day(day).Format("20060102"))
}

// ReceiptNumber formats the receipt number for seq under prefix
func ReceiptNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s-%04d", prefix, seq)
}

// ReceiptSequence extracts the trailing sequence of a receipt number.
// Numbers that do not carry a numeric suffix report ok=false.
func ReceiptSequence(number string) (int, bool) {
	i := strings.LastIndex(number, "-")
	if i < 0 || i == len(number)-1 {
		return 0, false
	}
	seq, err := strconv.Atoi(number[i+1:])
	if err != nil || seq <= 0 {
		return 0, false
	}
	return seq, true
}
