package schedule

import "time"

// Weekly availability windows, in minutes since midnight, local time.
// Inclusive on both ends.
const (
	openMinute     = 7 * 60  // 07:00
	closeMinute    = 14 * 60 // 14:00 (Thursday through Monday)
	closeWedMinute = 12 * 60 // 12:00 (Wednesday)
)

// IsEligible reports whether t falls inside an allowed game window:
//
//	Thursday–Monday: 07:00–14:00
//	Wednesday:       07:00–12:00
//	Tuesday:         never
//
// The asymmetry is intentional; do not "fix" it.
func IsEligible(t time.Time) bool {
	mins := t.Hour()*60 + t.Minute()
	switch t.Weekday() {
	case time.Tuesday:
		return false
	case time.Wednesday:
		return mins >= openMinute && mins <= closeWedMinute
	default:
		// Thursday, Friday, Saturday, Sunday, Monday.
		return mins >= openMinute && mins <= closeMinute
	}
}
