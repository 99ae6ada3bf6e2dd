package conflict

import (
	"fmt"
	"time"

	"fleetdesk/internal/classify"
	"fleetdesk/internal/interval"
	"fleetdesk/internal/models"
)

type peerDayKey struct {
	orderID int64
	day     string
}

// ValidateRange validates a brand-new candidate reservation against every
// peer across every calendar day the candidate spans. Peers may carry exact
// times or not; a same-day time sub-check runs only on shared boundary days
// where both sides provide exact pickup/return instants.
//
// A peer in the confirmed state blocks (and is override-eligible); a pending
// peer only warns. The result is built as a fold over (day, peer) pairs with
// set-based dedup, never a mutable accumulator shared across calls.
func (an *Analyzer) ValidateRange(candidate *models.Order, peers []models.Order, bufferHours float64) RangeReport {
	report := RangeReport{IsValid: true}
	if candidate == nil {
		return report
	}

	seen := make(map[peerDayKey]struct{})
	candidateTimed := hasExactTimes(candidate)

	for day := candidate.StartDate; !day.After(candidate.EndDate); day = day.AddDate(0, 0, 1) {
		label := day.Format("2006-01-02")

		for i := range peers {
			peer := &peers[i]
			if candidate.ID != 0 && peer.ID == candidate.ID {
				continue
			}
			profile := classify.Classify(peer)
			if !profile.IsActive() || !peer.ContainsDate(day) {
				continue
			}

			key := peerDayKey{orderID: peer.ID, day: label}
			if _, dup := seen[key]; dup {
				continue
			}

			record, keep := an.classifyDayConflict(candidate, peer, profile, day, label, bufferHours, candidateTimed)
			if !keep {
				continue
			}
			seen[key] = struct{}{}

			report.Conflicts = append(report.Conflicts, record)
			if record.IsBlocking {
				report.Blocking = append(report.Blocking, record)
			} else {
				report.Warnings = append(report.Warnings, record)
			}
			bumpBucket(&report.Counts, profile)
		}
	}

	report.IsValid = len(report.Blocking) == 0
	switch {
	case len(report.Blocking) > 0:
		report.Summary = fmt.Sprintf(rangeBlockedTemplate, len(report.Blocking))
	case len(report.Warnings) > 0:
		report.Summary = fmt.Sprintf(rangeWarningTemplate, len(report.Warnings))
	}
	return report
}

// classifyDayConflict builds the Conflict record for one (peer, day) pair.
// keep is false when a boundary-day time check proves the two reservations
// coexist on that day.
func (an *Analyzer) classifyDayConflict(candidate, peer *models.Order, profile classify.Profile, day time.Time, label string, bufferHours float64, candidateTimed bool) (Conflict, bool) {
	record := Conflict{
		Kind:            KindPending,
		Ownership:       profile.Ownership,
		Confirmation:    profile.Confirmation,
		OrderID:         peer.ID,
		Date:            day,
		IsBlocking:      profile.IsConfirmed(),
		CanBeOverridden: profile.IsConfirmed(),
	}
	if profile.IsConfirmed() {
		record.Kind = KindConfirmed
	}

	boundaryForBoth := (candidate.StartsOn(day) || candidate.EndsOn(day)) &&
		(peer.StartsOn(day) || peer.EndsOn(day))

	if boundaryForBoth && candidateTimed && hasExactTimes(peer) {
		cStart, cEnd := an.effectiveInterval(candidate, day)
		pStart, pEnd := an.effectiveInterval(peer, day)
		if !interval.Overlaps(cStart, cEnd, pStart, pEnd, bufferHours) {
			// Exact times prove the shared day is actually free.
			return Conflict{}, false
		}

		record.Kind = KindTime
		instant := peer.PickupAt
		if peer.EndsOn(day) && !peer.StartsOn(day) {
			instant = peer.ReturnAt
		}
		record.Instant = &instant

		if profile.IsConfirmed() {
			overlap := interval.OverlapHours(cStart, cEnd, pStart, pEnd)
			record.Message = message(KindTime, SeverityBlock, peer.ID, label, overlap, bufferHours)
			return record, true
		}
	}

	if profile.IsConfirmed() {
		record.Message = message(KindConfirmed, SeverityBlock, peer.ID, label)
	} else {
		record.Message = message(KindPending, SeverityWarning, peer.ID, label)
	}
	return record, true
}

func bumpBucket(counts *BucketCounts, profile classify.Profile) {
	business := profile.Ownership == classify.OwnershipBusiness
	if profile.IsConfirmed() {
		if business {
			counts.ConfirmedBusiness++
		} else {
			counts.ConfirmedInternal++
		}
		return
	}
	if business {
		counts.PendingBusiness++
	} else {
		counts.PendingInternal++
	}
}

func hasExactTimes(o *models.Order) bool {
	return !o.PickupAt.IsZero() && !o.ReturnAt.IsZero()
}
