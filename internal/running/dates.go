package running

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const isoDateLayout = "2006-01-02"

var (
	ErrInvalidDate = errors.New("invalid date")

	isoDateRegex = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// DateRange is an inclusive calendar range in YYYY-MM-DD form.
// An empty bound means "unbounded" for the callers that allow it.
type DateRange struct {
	StartIso string `json:"startIso"`
	EndIso   string `json:"endIso"`
}

func (r DateRange) IsEmpty() bool {
	return r.StartIso == "" || r.EndIso == ""
}

func (r DateRange) Contains(dateIso string) bool {
	return dateIso >= r.StartIso && dateIso <= r.EndIso
}

// ParseLocalDate parses a strict YYYY-MM-DD calendar date.
// The result is midnight UTC, used purely as a calendar value, so adding days never drifts across DST.
func ParseLocalDate(iso string) (time.Time, error) {
	m := isoDateRegex.FindStringSubmatch(iso)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, iso)
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 2025-02-30 into March, reject that
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, iso)
	}

	return t, nil
}

// FormatLocalDate returns "" for the zero time.
func FormatLocalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(isoDateLayout)
}

// IsValidDate reports whether iso is a well-formed calendar date.
func IsValidDate(iso string) bool {
	_, err := ParseLocalDate(iso)
	return err == nil
}

// CalendarDate drops the clock part of t, keeping t's own year/month/day.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// StartOfISOWeek returns the Monday of the week containing t.
func StartOfISOWeek(t time.Time) time.Time {
	t = CalendarDate(t)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // sunday
	}
	return AddDays(t, -(weekday - 1))
}

// ISOWeekRange returns the Monday..Sunday range containing t.
func ISOWeekRange(t time.Time) DateRange {
	monday := StartOfISOWeek(t)
	return DateRange{
		StartIso: FormatLocalDate(monday),
		EndIso:   FormatLocalDate(AddDays(monday, 6)),
	}
}

// LastNDaysRange returns the n calendar days ending with now (inclusive).
func LastNDaysRange(now time.Time, n int) DateRange {
	if n < 1 {
		n = 1
	}
	end := CalendarDate(now)
	return DateRange{
		StartIso: FormatLocalDate(AddDays(end, -(n - 1))),
		EndIso:   FormatLocalDate(end),
	}
}

// DaysBetween counts calendar days from start to end, both inclusive.
func DaysBetween(start, end time.Time) int {
	return int(CalendarDate(end).Sub(CalendarDate(start)).Hours()/24) + 1
}
