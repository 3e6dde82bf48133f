// Package daterange resolves named date filters into concrete
// day-granularity intervals and supports stepping them through time.
package daterange

import (
	"errors"
	"fmt"
	"time"
)

const (
	Today     Filter = "today"
	ThisWeek  Filter = "thisWeek"
	ThisMonth Filter = "thisMonth"
	ThisYear  Filter = "thisYear"
	Custom    Filter = "custom"
)

type (
	// Filter names the rule that produced a Range. The name is kept
	// alongside the range because stepping and labelling depend on it.
	Filter string

	// Range is an inclusive interval at day granularity. From and To
	// are both start-of-day instants; To names the last day inside the
	// interval.
	Range struct {
		From time.Time
		To   time.Time
	}

	Direction int
)

const (
	Previous Direction = -1
	Next     Direction = 1
)

var ErrUnknownFilter = errors.New("unknown date range filter")

func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case Today, ThisWeek, ThisMonth, ThisYear, Custom:
		return Filter(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// weekStart returns the Monday of t's week.
func weekStart(t time.Time) time.Time {
	d := dayStart(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// Resolve maps a filter and a reference instant to a concrete range.
// Custom has no generation rule of its own; it resolves to the
// reference day and is replaced by the user's selection via NewCustom.
func Resolve(f Filter, now time.Time) Range {
	d := dayStart(now)
	switch f {
	case Today:
		return Range{From: d, To: d}
	case ThisWeek:
		ws := weekStart(now)
		return Range{From: ws, To: ws.AddDate(0, 0, 6)}
	case ThisMonth:
		first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
		return Range{From: first, To: first.AddDate(0, 1, -1)}
	case ThisYear:
		first := time.Date(d.Year(), 1, 1, 0, 0, 0, 0, d.Location())
		return Range{From: first, To: time.Date(d.Year(), 12, 31, 0, 0, 0, 0, d.Location())}
	}
	return Range{From: d, To: d}
}

// NewCustom builds a user-selected range. A zero to falls back to from.
func NewCustom(from, to time.Time) Range {
	f := dayStart(from)
	if to.IsZero() {
		return Range{From: f, To: f}
	}
	t := dayStart(to)
	if t.Before(f) {
		f, t = t, f
	}
	return Range{From: f, To: t}
}

// dateKey collapses an instant to its calendar day, ignoring location.
// Ranges are resolved in the server's zone while stored dates and query
// params parse as UTC; comparing instants across those locations shifts
// days at the boundaries, comparing calendar days does not.
func dateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// Contains reports whether the calendar day d falls inside the range.
func (r Range) Contains(d time.Time) bool {
	k := dateKey(d)
	return k >= dateKey(r.From) && k <= dateKey(r.To)
}

// Step shifts the range by one unit of the filter's granularity and
// recomputes it. Custom ranges are not steppable. Stepping forward past
// the unit containing today is refused, so the current period is the
// last reachable one; in both refusal cases the input range is returned
// with ok=false.
func Step(f Filter, r Range, dir Direction, today time.Time) (Range, bool) {
	if f == Custom {
		return r, false
	}

	var anchor time.Time
	switch f {
	case Today:
		anchor = r.From.AddDate(0, 0, int(dir))
	case ThisWeek:
		anchor = r.From.AddDate(0, 0, 7*int(dir))
	case ThisMonth:
		anchor = r.From.AddDate(0, int(dir), 0)
	case ThisYear:
		anchor = r.From.AddDate(int(dir), 0, 0)
	default:
		return r, false
	}

	stepped := Resolve(f, anchor)
	if dir == Next && dateKey(stepped.From) > dateKey(today) {
		return r, false
	}
	return stepped, true
}

// CanStepForward reports whether a Next step from r is available.
func CanStepForward(f Filter, r Range, today time.Time) bool {
	_, ok := Step(f, r, Next, today)
	return ok
}

// Label renders the range for display, formatted per filter.
func Label(f Filter, r Range) string {
	switch f {
	case Today:
		return r.From.Format("2 Jan 2006")
	case ThisWeek:
		return r.From.Format("2 Jan") + " – " + r.To.Format("2 Jan 2006")
	case ThisMonth:
		return r.From.Format("January 2006")
	case ThisYear:
		return r.From.Format("2006")
	case Custom:
		if r.From.Equal(r.To) {
			return r.From.Format("2 Jan 2006")
		}
		return r.From.Format("2 Jan 2006") + " – " + r.To.Format("2 Jan 2006")
	}
	return r.From.Format("2 Jan 2006")
}
