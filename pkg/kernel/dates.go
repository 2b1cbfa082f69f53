package kernel

import (
	"fmt"
	"time"
)

const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
)

// Day truncates t to midnight in its own location
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey formats t as YYYY-MM-DD
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay parses YYYY-MM-DD in UTC
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Month is a calendar month, written YYYY-MM
type Month struct {
	Year  int
	Month time.Month
}

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// First is the first day of the month, UTC
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Last is the last day of the month, UTC
func (m Month) Last() time.Time {
	return m.First().AddDate(0, 1, -1)
}

func (m Month) Days() int {
	return m.Last().Day()
}

// Contains reports whether t falls in the month, comparing calendar dates
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// Overlaps reports whether [from, to] touches the month. A zero to means open ended.
func (m Month) Overlaps(from, to time.Time) bool {
	if !from.IsZero() && DayKey(from) > DayKey(m.Last()) {
		return false
	}
	if !to.IsZero() && DayKey(to) < DayKey(m.First()) {
		return false
	}
	return true
}
