// Package anchor pins all wall-clock times to the single business timezone,
// regardless of where the caller or its browser sits. It is the only package
// allowed to touch timezone handling.
package anchor

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Anchor converts between storage instants (UTC) and business-zone wall
// clocks. The zone is an explicit constructor parameter, never ambient state.
type Anchor struct {
	loc *time.Location
}

// New loads the business timezone by IANA name, e.g. "Europe/Athens".
func New(zone string) (*Anchor, error) {
	if zone == "" {
		return nil, fmt.Errorf("business timezone is required")
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return &Anchor{loc: loc}, nil
}

// Location returns the business timezone location.
func (a *Anchor) Location() *time.Location {
	return a.loc
}

// At interprets the calendar date plus an "HH:MM" clock as business-zone wall
// time, discarding the location of the date argument.
//
// DST edges resolve deterministically: a wall clock that does not exist
// (spring-forward gap) rolls forward by the width of the gap; a wall clock
// that occurs twice (fall-back repeat) resolves to the earlier UTC instant.
func (a *Anchor) At(date time.Time, clock string) (time.Time, error) {
	hour, minute, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	t := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, a.loc)
	// If the same wall clock also exists one hour earlier, the time is
	// ambiguous and t may be the later repetition. Pick the earlier instant.
	if prev := t.Add(-time.Hour); prev.Hour() == t.Hour() && prev.Minute() == t.Minute() {
		t = prev
	}
	return t, nil
}

// Date constructs midnight of the given calendar day in the business zone.
func (a *Anchor) Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, a.loc)
}

// ToStorage converts a business instant to its UTC storage form.
func (a *Anchor) ToStorage(t time.Time) time.Time {
	return t.UTC()
}

// FromStorage converts a stored UTC instant back to the business zone.
// ToStorage and FromStorage are exact inverses for every instant.
func (a *Anchor) FromStorage(t time.Time) time.Time {
	return t.In(a.loc)
}

// DayStart returns midnight of the date's calendar day in the business zone.
// Like At, it reads the date's own calendar fields and discards its location.
func (a *Anchor) DayStart(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, a.loc)
}

// DayEnd returns the exclusive end of the date's calendar day, i.e. midnight
// of the following day in the business zone.
func (a *Anchor) DayEnd(date time.Time) time.Time {
	return a.DayStart(date).AddDate(0, 0, 1)
}

// SameDay reports whether two instants fall on the same business-zone date.
func (a *Anchor) SameDay(x, y time.Time) bool {
	bx, by := a.FromStorage(x), a.FromStorage(y)
	return bx.Year() == by.Year() && bx.Month() == by.Month() && bx.Day() == by.Day()
}

// ClockString formats an instant as its business-zone "HH:MM" wall clock.
func (a *Anchor) ClockString(t time.Time) string {
	return a.FromStorage(t).Format("15:04")
}

func parseClock(clock string) (hour, minute int, err error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time format: %s", clock)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour: %w", err)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minute: %w", err)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time out of range: %s", clock)
	}
	return hour, minute, nil
}
