package deadline

import (
	"testing"
	"time"
)

func TestAddBusinessDaysThursdayPlusThreeLandsOnTuesday(t *testing.T) {
	start := time.Date(2025, time.December, 11, 10, 30, 0, 0, time.UTC)
	if start.Weekday() != time.Thursday {
		t.Fatalf("fixture must be a Thursday, got %s", start.Weekday())
	}

	got := AddBusinessDays(start, 3)

	want := time.Date(2025, time.December, 16, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("AddBusinessDays(thu, 3) = %s, want %s", got, want)
	}
	if got.Weekday() != time.Tuesday {
		t.Fatalf("expected Tuesday, got %s", got.Weekday())
	}
}

func TestAddBusinessDaysZeroReturnsStart(t *testing.T) {
	start := time.Date(2025, time.December, 13, 8, 0, 0, 0, time.UTC) // Saturday
	if got := AddBusinessDays(start, 0); !got.Equal(start) {
		t.Fatalf("AddBusinessDays(sat, 0) = %s, want %s", got, start)
	}
	if got := AddBusinessDays(start, -2); !got.Equal(start) {
		t.Fatalf("AddBusinessDays(sat, -2) = %s, want %s", got, start)
	}
}

func TestAddBusinessDaysFromWeekend(t *testing.T) {
	saturday := time.Date(2025, time.December, 13, 8, 0, 0, 0, time.UTC)
	got := AddBusinessDays(saturday, 1)
	if got.Weekday() != time.Monday || got.Day() != 15 {
		t.Fatalf("AddBusinessDays(sat, 1) = %s, want Monday 15th", got)
	}

	friday := time.Date(2025, time.December, 12, 8, 0, 0, 0, time.UTC)
	got = AddBusinessDays(friday, 1)
	if got.Weekday() != time.Monday || got.Day() != 15 {
		t.Fatalf("AddBusinessDays(fri, 1) = %s, want Monday 15th", got)
	}
}

func TestAddBusinessDaysProperties(t *testing.T) {
	base := time.Date(2024, time.February, 26, 12, 0, 0, 0, time.UTC)
	for offset := 0; offset < 14; offset++ {
		start := base.AddDate(0, 0, offset)
		for n := 1; n <= 25; n++ {
			got := AddBusinessDays(start, n)
			if !IsBusinessDay(got) {
				t.Fatalf("AddBusinessDays(%s, %d) = %s is not a weekday", start.Format("Mon 2006-01-02"), n, got.Format("Mon 2006-01-02"))
			}
			if counted := BusinessDaysBetween(start, got); counted != n {
				t.Fatalf("AddBusinessDays(%s, %d): %d weekdays in range, want %d", start.Format("Mon 2006-01-02"), n, counted, n)
			}
		}
	}
}

func TestAddBusinessDaysKeepsLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	start := time.Date(2025, time.March, 7, 23, 30, 0, 0, loc) // Friday late evening
	got := AddBusinessDays(start, 1)
	if got.Location() != loc {
		t.Fatalf("expected location preserved")
	}
	if got.Weekday() != time.Monday || got.Hour() != 23 {
		t.Fatalf("unexpected result %s", got)
	}
}

func TestIsLate(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name     string
		pending  bool
		deadline time.Time
		want     bool
	}{
		{name: "pending past deadline", pending: true, deadline: past, want: true},
		{name: "pending before deadline", pending: true, deadline: future, want: false},
		{name: "delivered past deadline", pending: false, deadline: past, want: false},
		{name: "pending without deadline", pending: true, deadline: time.Time{}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsLate(tc.pending, tc.deadline, now); got != tc.want {
				t.Fatalf("IsLate = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	if got := DaysUntil(now.Add(36*time.Hour), now); got != 2 {
		t.Fatalf("DaysUntil(+36h) = %d, want 2", got)
	}
	if got := DaysUntil(now.Add(-36*time.Hour), now); got != -1 {
		t.Fatalf("DaysUntil(-36h) = %d, want -1", got)
	}
}
