// Package schedule decides when a game may take place.
//
// It has two halves:
//   - a window validator: is a concrete point in time inside the fixed
//     weekly availability windows
//   - a free-text extractor: turn "play chess on friday at 10am" into a
//     concrete point in time, with deterministic defaults when the text
//     carries no usable date or time cue
//
// Both halves are pure; callers pass "now" explicitly.
package schedule
