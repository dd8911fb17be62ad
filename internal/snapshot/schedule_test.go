package snapshot

import (
	"testing"
	"time"
)

// 2026-08-31 is a Monday.
var (
	monday    = time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	wednesday = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
)

func utcSchedule() Schedule {
	return DefaultSchedule(time.UTC)
}

func TestIsStaleNoSnapshot(t *testing.T) {
	if !utcSchedule().IsStale(time.Time{}, wednesday) {
		t.Error("a missing snapshot must always be stale")
	}
}

func TestIsStaleAfterMaxAge(t *testing.T) {
	lastUpdate := wednesday.Add(-8 * 24 * time.Hour)
	if !utcSchedule().IsStale(lastUpdate, wednesday) {
		t.Error("a snapshot older than a week must be stale")
	}
}

func TestIsStaleMondayMorning(t *testing.T) {
	s := utcSchedule()
	lastThursday := time.Date(2026, 8, 27, 15, 0, 0, 0, time.UTC)

	if !s.IsStale(lastThursday, monday) {
		t.Error("Monday 09:00 with a Thursday snapshot must be stale")
	}

	earlyMonday := time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC)
	if s.IsStale(lastThursday, earlyMonday) {
		t.Error("Monday before the refresh hour must not be stale")
	}
}

func TestIsStaleRefreshesOncePerMonday(t *testing.T) {
	s := utcSchedule()
	sameMorning := time.Date(2026, 8, 31, 8, 30, 0, 0, time.UTC)
	later := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	if s.IsStale(sameMorning, later) {
		t.Error("a snapshot refreshed earlier the same Monday must not be stale again")
	}
}

func TestIsStaleFreshMidweek(t *testing.T) {
	s := utcSchedule()
	tuesday := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	if s.IsStale(tuesday, wednesday) {
		t.Error("a day-old snapshot on a Wednesday must not be stale")
	}
}

func TestNextRefresh(t *testing.T) {
	s := utcSchedule()

	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"midweek",
			wednesday,
			time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC),
		},
		{
			"monday before the hour",
			time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC),
		},
		{
			"monday after the hour",
			monday,
			time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		if got := s.NextRefresh(tc.now); !got.Equal(tc.want) {
			t.Errorf("%s: NextRefresh(%v) = %v, want %v", tc.name, tc.now, got, tc.want)
		}
	}
}
