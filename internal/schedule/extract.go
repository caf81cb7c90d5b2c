package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Extraction defaults: no date cue means today, no time cue means 07:00.
const (
	defaultHour   = 7
	defaultMinute = 0
)

var weekdayIndex = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// dateRule matches one kind of date cue. resolve returns false when the
// matched text is structurally invalid (e.g. month 13); the cue then
// behaves as if it never matched and the default date applies.
type dateRule struct {
	name    string
	rx      *regexp.Regexp
	resolve func(m []string, now time.Time) (time.Time, bool)
}

type timeRule struct {
	name    string
	rx      *regexp.Regexp
	resolve func(m []string) (hour, minute int, ok bool)
}

// Rules are tried in order; the first rule whose pattern matches wins and
// the rest are not tried. The order is a contract (weekday names beat
// numeric dates, clock times beat bare hours) and is pinned by tests.
var dateRules = []dateRule{
	{
		name: "weekday",
		rx:   regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
		resolve: func(m []string, now time.Time) (time.Time, bool) {
			return nextWeekday(now, weekdayIndex[m[1]]), true
		},
	},
	{
		name: "slash",
		rx:   regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`),
		resolve: func(m []string, now time.Time) (time.Time, bool) {
			a, b, y := atoi(m[1]), atoi(m[2]), atoi(m[3])
			// Month/day first, then day/month.
			if d, ok := calendarDate(y, a, b, now.Location()); ok {
				return d, true
			}
			return calendarDate(y, b, a, now.Location())
		},
	},
	{
		name: "dash",
		rx:   regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4})\b`),
		resolve: func(m []string, now time.Time) (time.Time, bool) {
			a, b, y := atoi(m[1]), atoi(m[2]), atoi(m[3])
			if d, ok := calendarDate(y, a, b, now.Location()); ok {
				return d, true
			}
			return calendarDate(y, b, a, now.Location())
		},
	},
	{
		name: "iso",
		rx:   regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`),
		resolve: func(m []string, now time.Time) (time.Time, bool) {
			return calendarDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), now.Location())
		},
	},
}

var timeRules = []timeRule{
	{
		name: "clock",
		rx:   regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`),
		resolve: func(m []string) (int, int, bool) {
			h, min := atoi(m[1]), atoi(m[2])
			if min > 59 {
				return 0, 0, false
			}
			return applyMeridiem(h, min, m[3])
		},
	},
	{
		name: "hour",
		rx:   regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`),
		resolve: func(m []string) (int, int, bool) {
			return applyMeridiem(atoi(m[1]), 0, m[2])
		},
	},
}

// Extract parses free text into a concrete point in time. It never fails:
// missing or malformed cues fall back to today / 07:00. Seconds and
// sub-second precision are always zero.
func Extract(text string, now time.Time) time.Time {
	text = strings.ToLower(text)

	day := now
	for _, r := range dateRules {
		m := r.rx.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if d, ok := r.resolve(m, now); ok {
			day = d
		}
		break
	}

	hour, minute := defaultHour, defaultMinute
	for _, r := range timeRules {
		m := r.rx.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if h, min, ok := r.resolve(m); ok {
			hour, minute = h, min
		}
		break
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
}

// nextWeekday resolves a named day to its next occurrence strictly after
// today: naming today's weekday lands a full week out.
func nextWeekday(now time.Time, target time.Weekday) time.Time {
	diff := int(target) - int(now.Weekday())
	if diff <= 0 {
		diff += 7
	}
	return now.AddDate(0, 0, diff)
}

// calendarDate builds a date and rejects structurally invalid inputs
// (time.Date would silently normalize 13/45 into a different month).
func calendarDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func applyMeridiem(hour, minute int, meridiem string) (int, int, bool) {
	switch meridiem {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, false
		}
	}
	return hour, minute, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
