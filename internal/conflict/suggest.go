package conflict

import (
	"fmt"
	"time"
)

// Suggest proposes concrete time adjustments that would resolve the blocking
// conflicts reported for the pickup day and the return day. For single-day
// reservations the caller passes the same report twice. Nothing is applied
// here; each suggestion just carries the proposed wall clocks and a reason.
//
// When a blocking conflict exists but no adjustment resolves it, a single
// disabled suggestion is returned instead of an empty list, so the caller
// always has something to show.
func (an *Analyzer) Suggest(pickupDay, returnDay DayReport, currentPickup, currentReturn time.Time) []Suggestion {
	pickupBlocked := pickupDay.HasBlockingConflict
	returnBlocked := returnDay.HasBlockingConflict
	if !pickupBlocked && !returnBlocked {
		return nil
	}

	minPickup := pickupDay.MinPickup
	maxReturn := returnDay.MaxReturn

	var out []Suggestion

	switch {
	case pickupBlocked && !returnBlocked:
		if s, ok := an.pickupFix(minPickup, currentReturn); ok {
			out = append(out, s)
		}

	case returnBlocked && !pickupBlocked:
		if s, ok := an.returnFix(maxReturn, currentPickup); ok {
			out = append(out, s)
		}

	default: // both days blocked
		switch {
		case minPickup != nil && maxReturn != nil:
			if minPickup.Before(*maxReturn) {
				pickupClock := an.anchor.ClockString(*minPickup)
				returnClock := an.anchor.ClockString(*maxReturn)
				out = append(out, Suggestion{
					Severity: SeveritySafe,
					Pickup:   pickupClock,
					Return:   returnClock,
					Reason:   fmt.Sprintf(suggestBothTemplate, pickupClock, returnClock),
				})
			}
		case minPickup != nil:
			if s, ok := an.pickupFix(minPickup, currentReturn); ok {
				out = append(out, s)
			}
		case maxReturn != nil:
			if s, ok := an.returnFix(maxReturn, currentPickup); ok {
				out = append(out, s)
			}
		}
	}

	if len(out) == 0 {
		out = append(out, Suggestion{
			Severity: SeverityBlock,
			Disabled: true,
			Reason:   suggestImpossibleReason,
		})
	}
	return out
}

func (an *Analyzer) pickupFix(minPickup *time.Time, currentReturn time.Time) (Suggestion, bool) {
	if minPickup == nil || !minPickup.Before(currentReturn) {
		return Suggestion{}, false
	}
	clock := an.anchor.ClockString(*minPickup)
	return Suggestion{
		Severity: SeveritySafe,
		Pickup:   clock,
		Reason:   fmt.Sprintf(suggestPickupTemplate, clock),
	}, true
}

func (an *Analyzer) returnFix(maxReturn *time.Time, currentPickup time.Time) (Suggestion, bool) {
	if maxReturn == nil || !maxReturn.After(currentPickup) {
		return Suggestion{}, false
	}
	clock := an.anchor.ClockString(*maxReturn)
	return Suggestion{
		Severity: SeveritySafe,
		Return:   clock,
		Reason:   fmt.Sprintf(suggestReturnTemplate, clock),
	}, true
}
