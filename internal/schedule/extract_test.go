package schedule

import (
	"testing"
	"time"
)

// Thursday.
var now = time.Date(2025, time.June, 5, 11, 22, 33, 0, time.UTC)

func day(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, time.UTC)
}

func TestExtract(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		text string
		want time.Time
	}{
		{"no cues", "want to play chess?", day(2025, time.June, 5, 7, 0)},
		{"weekday tomorrow", "chess on friday", day(2025, time.June, 6, 7, 0)},
		{"weekday today rolls a week", "Thursday works for me", day(2025, time.June, 12, 7, 0)},
		{"weekday earlier in week", "how about Monday", day(2025, time.June, 9, 7, 0)},
		{"slash month first", "game on 6/15/2025", day(2025, time.June, 15, 7, 0)},
		{"slash day first fallback", "game on 25/12/2025", day(2025, time.December, 25, 7, 0)},
		{"slash both invalid", "game on 13/13/2025", day(2025, time.June, 5, 7, 0)},
		{"dash date", "game on 12-25-2025", day(2025, time.December, 25, 7, 0)},
		{"iso date", "game on 2025-07-04", day(2025, time.July, 4, 7, 0)},
		{"clock 24h", "chess at 13:45", day(2025, time.June, 5, 13, 45)},
		{"clock am", "chess at 9:05 am", day(2025, time.June, 5, 9, 5)},
		{"clock pm", "chess at 1:30pm", day(2025, time.June, 5, 13, 30)},
		{"clock noon", "chess at 12:00 pm", day(2025, time.June, 5, 12, 0)},
		{"clock midnight", "chess at 12:15 am", day(2025, time.June, 5, 0, 15)},
		{"bare hour pm", "chess at 1pm", day(2025, time.June, 5, 13, 0)},
		{"bare hour am", "chess at 8 am", day(2025, time.June, 5, 8, 0)},
		{"bare hour no meridiem ignored", "chess at 9", day(2025, time.June, 5, 7, 0)},
		{"bad minutes fall back", "chess at 10:75", day(2025, time.June, 5, 7, 0)},
		{"date and time combined", "friday at 1:00 pm?", day(2025, time.June, 6, 13, 0)},
		{"weekday beats numeric date", "monday or 6/20/2025", day(2025, time.June, 9, 7, 0)},
		{"clock beats bare hour", "between 10:30 and 1pm", day(2025, time.June, 5, 10, 30)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Extract(tc.text, now); !got.Equal(tc.want) {
				t.Fatalf("Extract(%q) = %s, want %s", tc.text, got, tc.want)
			}
		})
	}
}

func TestExtractZeroesSeconds(t *testing.T) {
	t.Parallel()
	got := Extract("chess at 10:00", now)
	if got.Second() != 0 || got.Nanosecond() != 0 {
		t.Fatalf("Extract carried sub-minute precision: %s", got)
	}
}
