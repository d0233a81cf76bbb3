package core

import "time"

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// DayRange returns the calendar day containing t in loc.
func DayRange(t time.Time, loc *time.Location) TimeRange {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return TimeRange{Start: start, End: start.AddDate(0, 0, 1)}
}

// LastDays returns n consecutive day ranges ending with the day containing t,
// oldest first.
func LastDays(t time.Time, n int, loc *time.Location) []TimeRange {
	if n <= 0 {
		return nil
	}
	last := DayRange(t, loc)
	days := make([]TimeRange, n)
	for i := 0; i < n; i++ {
		start := last.Start.AddDate(0, 0, -(n - 1 - i))
		days[i] = TimeRange{Start: start, End: start.AddDate(0, 0, 1)}
	}
	return days
}

// Span returns the range covering all of days.
func Span(days []TimeRange) TimeRange {
	if len(days) == 0 {
		return TimeRange{}
	}
	return TimeRange{Start: days[0].Start, End: days[len(days)-1].End}
}

// DayKey formats the day of t in loc as YYYY-MM-DD.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("2006-01-02")
}

// ParseDay parses a YYYY-MM-DD string in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation("2006-01-02", s, loc)
}

// Loc returns the user's location, falling back to local time.
func (u UserContext) Loc() *time.Location {
	if u.Location == nil {
		return time.Local
	}
	return u.Location
}
