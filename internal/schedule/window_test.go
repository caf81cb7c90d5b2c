package schedule

import (
	"testing"
	"time"
)

func at(day time.Weekday, hour, min int) time.Time {
	// 2025-06-01 is a Sunday; offset to the requested weekday.
	base := time.Date(2025, time.June, 1, hour, min, 0, 0, time.UTC)
	return base.AddDate(0, 0, int(day-time.Sunday))
}

func TestIsEligible(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"thursday open edge", at(time.Thursday, 7, 0), true},
		{"thursday close edge", at(time.Thursday, 14, 0), true},
		{"thursday past close", at(time.Thursday, 14, 1), false},
		{"thursday before open", at(time.Thursday, 6, 59), false},
		{"friday midday", at(time.Friday, 10, 30), true},
		{"saturday midday", at(time.Saturday, 12, 0), true},
		{"sunday midday", at(time.Sunday, 9, 15), true},
		{"monday close edge", at(time.Monday, 14, 0), true},
		{"tuesday midday", at(time.Tuesday, 10, 0), false},
		{"tuesday open edge", at(time.Tuesday, 7, 0), false},
		{"wednesday midday", at(time.Wednesday, 11, 59), true},
		{"wednesday close edge", at(time.Wednesday, 12, 0), true},
		{"wednesday past close", at(time.Wednesday, 12, 1), false},
		{"wednesday thursday close", at(time.Wednesday, 14, 0), false},
		{"midnight", at(time.Friday, 0, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsEligible(tc.t); got != tc.want {
				t.Fatalf("IsEligible(%s %s) = %v, want %v",
					tc.t.Weekday(), tc.t.Format("15:04"), got, tc.want)
			}
		})
	}
}
