package conflict

import (
	"fmt"
	"time"

	"fleetdesk/internal/anchor"
	"fleetdesk/internal/classify"
	"fleetdesk/internal/interval"
	"fleetdesk/internal/models"
)

// Analyzer runs the conflict checks. It carries only the business-timezone
// anchor; every method is a pure function of its arguments.
type Analyzer struct {
	anchor *anchor.Anchor
}

// NewAnalyzer creates an analyzer bound to the business timezone.
func NewAnalyzer(a *anchor.Anchor) *Analyzer {
	return &Analyzer{anchor: a}
}

// effectiveInterval computes the span an order occupies on the given date:
// pickup day and return day are clipped to the actual pickup/return instants,
// middle days cover the whole day.
func (an *Analyzer) effectiveInterval(o *models.Order, date time.Time) (start, end time.Time) {
	first := o.StartsOn(date)
	last := o.EndsOn(date)

	switch {
	case first && last:
		return o.PickupAt, o.ReturnAt
	case first:
		return o.PickupAt, an.anchor.DayEnd(date)
	case last:
		return an.anchor.DayStart(date), o.ReturnAt
	default:
		return an.anchor.DayStart(date), an.anchor.DayEnd(date)
	}
}

// AnalyzeDay checks the edited order against all same-vehicle peers for one
// calendar date and returns the single most severe verdict for that date.
//
// The precedence policy is asymmetric by design:
//
//	editing confirmed vs peer pending   -> warning (peer may later be blocked)
//	editing pending  vs peer confirmed  -> blocking, usable bounds derived
//	editing pending  vs peer pending    -> warning, both sides at risk
//	editing confirmed vs peer confirmed -> blocking, never allowed to overlap
func (an *Analyzer) AnalyzeDay(edited *models.Order, peers []models.Order, date time.Time, bufferHours float64) DayReport {
	report := DayReport{Date: date, Severity: SeveritySafe}

	if edited == nil || !edited.ContainsDate(date) {
		return report
	}
	editedProfile := classify.Classify(edited)
	if !editedProfile.IsActive() {
		return report
	}

	edStart, edEnd := an.effectiveInterval(edited, date)
	label := date.Format("2006-01-02")
	pad := hoursToDuration(bufferHours)

	bestRank := 0
	bestOverlap := -1.0

	for i := range peers {
		peer := &peers[i]
		if edited.ID != 0 && peer.ID == edited.ID {
			continue
		}
		peerProfile := classify.Classify(peer)
		if !peerProfile.IsActive() || !peer.ContainsDate(date) {
			continue
		}

		pStart, pEnd := an.effectiveInterval(peer, date)
		if !interval.Overlaps(edStart, edEnd, pStart, pEnd, bufferHours) {
			continue
		}
		overlap := interval.OverlapHours(edStart, edEnd, pStart, pEnd)

		var severity Severity
		var summary string

		switch {
		case editedProfile.IsConfirmed() && peerProfile.IsConfirmed():
			severity = SeverityBlock
			summary = message(KindConfirmed, SeverityBlock, peer.ID, label)

		case !editedProfile.IsConfirmed() && peerProfile.IsConfirmed():
			severity = SeverityBlock
			summary = message(KindTime, SeverityBlock, peer.ID, label, overlap, bufferHours)

			// Derive usable bounds from the confirmed peer, keeping the
			// tightest bound across all peers.
			if peer.EndsOn(date) {
				bound := peer.ReturnAt.Add(pad)
				if report.MinPickup == nil || bound.After(*report.MinPickup) {
					report.MinPickup = &bound
				}
			}
			if peer.StartsOn(date) {
				bound := peer.PickupAt.Add(-pad)
				if report.MaxReturn == nil || bound.Before(*report.MaxReturn) {
					report.MaxReturn = &bound
				}
			}

		case editedProfile.IsConfirmed():
			severity = SeverityWarning
			summary = message(KindPending, SeverityWarning, peer.ID, label)

		default:
			severity = SeverityWarning
			summary = fmt.Sprintf(pendingMutualTemplate, peer.ID, label)
		}

		// Blocking suppresses warning; within the same tier the peer with
		// the largest overlap carries the most informative message.
		rank := severityRank(severity)
		if rank > bestRank || (rank == bestRank && overlap > bestOverlap) {
			bestRank = rank
			bestOverlap = overlap
			report.Severity = severity
			report.Summary = summary
		}
	}

	report.HasBlockingConflict = report.Severity == SeverityBlock
	return report
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
