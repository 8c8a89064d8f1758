package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	// DateLayout is the fixed-width calendar date used on the wire (YYYYMMDD).
	DateLayout = "20060102"
	// StampLayout renders a UTC-labelled timestamp (YYYYMMDDTHHMMSSZ).
	StampLayout = "20060102T150405Z"
)

var (
	clockRe = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})$`)
	dateRe  = regexp.MustCompile(`^\d{8}$`)
)

// Clock is a time of day parsed from a 6-digit HHMMSS string.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ParseClock parses a 6-digit HHMMSS value. 240000 is accepted as end of day.
func ParseClock(raw string) (Clock, error) {
	m := clockRe.FindStringSubmatch(raw)
	if m == nil {
		return Clock{}, fmt.Errorf("invalid time of day %q: expected HHMMSS", raw)
	}
	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])

	if mi > 59 || s > 59 {
		return Clock{}, fmt.Errorf("invalid time of day %q: minutes and seconds must be below 60", raw)
	}
	if h > 24 || (h == 24 && (mi != 0 || s != 0)) {
		return Clock{}, fmt.Errorf("invalid time of day %q: hour out of range", raw)
	}
	return Clock{Hour: h, Minute: mi, Second: s}, nil
}

// ParseHour returns the whole hour of a HHMMSS value; minutes and seconds are ignored.
func ParseHour(raw string) (int, error) {
	c, err := ParseClock(raw)
	if err != nil {
		return 0, err
	}
	return c.Hour, nil
}

// FormatHour renders a whole hour as HHMMSS with zero minutes and seconds.
func FormatHour(hour int) string {
	return fmt.Sprintf("%02d0000", hour)
}

// FormatClock renders a HHMMSS value for display, e.g. "080000" -> "8:00 AM".
func FormatClock(raw string) string {
	c, err := ParseClock(raw)
	if err != nil {
		return raw
	}
	period := "AM"
	if c.Hour >= 12 && c.Hour < 24 {
		period = "PM"
	}
	h := c.Hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, c.Minute, period)
}

// ParseDate parses a YYYYMMDD calendar date at midnight in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if !dateRe.MatchString(raw) {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYYMMDD", raw)
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return t, nil
}

// FormatDate renders the calendar date of t as YYYYMMDD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Stamp joins a YYYYMMDD date and a HHMMSS time into "<date>T<time>Z".
// The values are concatenated as-is, so a closing time of 240000 stays on its date.
func Stamp(date, clock string) string {
	return date + "T" + clock + "Z"
}
