// Package interval holds the buffered interval math every analyzer builds on.
package interval

import "time"

// Overlaps pads the [bStart, bEnd] interval symmetrically by bufferHours and
// tests strict overlap against [aStart, aEnd]. Strict inequality is
// deliberate: an interval ending exactly at the padded boundary is not a
// conflict, so back-to-back reservations may sit exactly bufferHours apart.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time, bufferHours float64) bool {
	pad := hours(bufferHours)
	paddedStart := bStart.Add(-pad)
	paddedEnd := bEnd.Add(pad)
	return aStart.Before(paddedEnd) && aEnd.After(paddedStart)
}

// OverlapHours returns the unpadded intersection length of the two intervals
// in hours, 0 if they do not intersect. Used for reporting only, never for
// the conflict decision itself.
func OverlapHours(aStart, aEnd, bStart, bEnd time.Time) float64 {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start).Hours()
}

// GapHours returns the raw hours between a return and the following pickup.
// Negative when the two actually overlap. Used in human-facing messages.
func GapHours(earlierEnd, laterStart time.Time) float64 {
	return laterStart.Sub(earlierEnd).Hours()
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
