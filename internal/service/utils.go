package service

import (
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the wire format for all date arguments (yyyy-mm-dd).
const DateLayout = "2006-01-02"

func StringToFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func StringToInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// ParseDate parses a yyyy-mm-dd date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want yyyy-mm-dd): %w", s, err)
	}
	return t, nil
}

// DayUTC truncates t to UTC midnight.
func DayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
