// Package snapshot persists ranking snapshots and decides when they are
// stale.
package snapshot

import "time"

// Schedule implements the weekly refresh policy: a snapshot goes stale
// after seven days, and additionally on the refresh day (Monday) at or
// after the refresh hour (08:00) — at most once per such day.
type Schedule struct {
	Loc         *time.Location
	RefreshDay  time.Weekday
	RefreshHour int
	MaxAge      time.Duration
}

// DefaultSchedule returns the Monday-morning schedule in loc.
func DefaultSchedule(loc *time.Location) Schedule {
	if loc == nil {
		loc = time.Local
	}
	return Schedule{
		Loc:         loc,
		RefreshDay:  time.Monday,
		RefreshHour: 8,
		MaxAge:      7 * 24 * time.Hour,
	}
}

// IsStale reports whether a snapshot last updated at lastUpdate needs
// recomputing at now. A zero lastUpdate (no snapshot) is always stale.
// The check is advisory; callers poll it rather than being pushed to.
func (s Schedule) IsStale(lastUpdate, now time.Time) bool {
	if lastUpdate.IsZero() {
		return true
	}
	if now.Sub(lastUpdate) > s.MaxAge {
		return true
	}

	local := now.In(s.Loc)
	if local.Weekday() == s.RefreshDay && local.Hour() >= s.RefreshHour {
		// Refresh at most once per refresh day: stale only if the stored
		// snapshot is from an earlier calendar date.
		return !sameDate(lastUpdate.In(s.Loc), local)
	}
	return false
}

// NextRefresh returns the next scheduled refresh instant after now.
func (s Schedule) NextRefresh(now time.Time) time.Time {
	local := now.In(s.Loc)
	days := (int(s.RefreshDay) + 7 - int(local.Weekday())) % 7
	if days == 0 && local.Hour() >= s.RefreshHour {
		days = 7
	}
	next := local.AddDate(0, 0, days)
	return time.Date(next.Year(), next.Month(), next.Day(), s.RefreshHour, 0, 0, 0, s.Loc)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
