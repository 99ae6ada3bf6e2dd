package conflict

import (
	"fmt"

	"fleetdesk/internal/classify"
	"fleetdesk/internal/interval"
	"fleetdesk/internal/models"
)

// AnalyzeConfirmation decides whether a tentative order may be promoted to
// confirmed. Confirmation is checked against the order's entire pickup/return
// span, not day by day. A confirmed overlapping peer refuses the promotion; a
// pending overlapping peer lets it proceed but is reported as no longer
// confirmable without change.
func (an *Analyzer) AnalyzeConfirmation(order *models.Order, peers []models.Order, bufferHours float64) ConfirmationReport {
	report := ConfirmationReport{NeedsAnalysis: true, CanConfirm: true, Severity: SeveritySafe}

	profile := classify.Classify(order)
	if profile.IsConfirmed() {
		// Already confirmed: nothing to analyze.
		report.NeedsAnalysis = false
		return report
	}
	if order == nil || !profile.IsActive() {
		report.NeedsAnalysis = false
		report.CanConfirm = false
		return report
	}

	for i := range peers {
		peer := &peers[i]
		if order.ID != 0 && peer.ID == order.ID {
			continue
		}
		peerProfile := classify.Classify(peer)
		if !peerProfile.IsActive() {
			continue
		}
		if !interval.Overlaps(order.PickupAt, order.ReturnAt, peer.PickupAt, peer.ReturnAt, bufferHours) {
			continue
		}

		overlap := interval.OverlapHours(order.PickupAt, order.ReturnAt, peer.PickupAt, peer.ReturnAt)

		if peerProfile.IsConfirmed() {
			report.CanConfirm = false
			report.Blocking = append(report.Blocking, Conflict{
				Kind:            KindConfirmed,
				Ownership:       peerProfile.Ownership,
				Confirmation:    peerProfile.Confirmation,
				OrderID:         peer.ID,
				Date:            peer.StartDate,
				Message:         fmt.Sprintf(confirmBlockedTemplate, peer.ID, overlap),
				IsBlocking:      true,
				CanBeOverridden: true,
			})
			continue
		}

		report.AffectedPending = append(report.AffectedPending, peer.ID)
	}

	switch {
	case !report.CanConfirm:
		report.Severity = SeverityBlock
		report.Summary = report.Blocking[0].Message
	case len(report.AffectedPending) > 0:
		report.Severity = SeverityWarning
		report.Summary = fmt.Sprintf(confirmAffectsTemplate, len(report.AffectedPending))
	}

	return report
}

// CanBeConfirmed answers the yes/no confirmability question without computing
// the full affected-peer list. Used to enable or disable a confirm action.
func (an *Analyzer) CanBeConfirmed(order *models.Order, peers []models.Order, bufferHours float64) ConfirmQuery {
	profile := classify.Classify(order)
	if profile.IsConfirmed() {
		return ConfirmQuery{CanConfirm: true}
	}
	if order == nil || !profile.IsActive() {
		return ConfirmQuery{CanConfirm: false, Message: "order is cancelled"}
	}

	for i := range peers {
		peer := &peers[i]
		if order.ID != 0 && peer.ID == order.ID {
			continue
		}
		peerProfile := classify.Classify(peer)
		if !peerProfile.IsConfirmed() || !peerProfile.IsActive() {
			continue
		}
		if !interval.Overlaps(order.PickupAt, order.ReturnAt, peer.PickupAt, peer.ReturnAt, bufferHours) {
			continue
		}

		overlap := interval.OverlapHours(order.PickupAt, order.ReturnAt, peer.PickupAt, peer.ReturnAt)
		return ConfirmQuery{
			CanConfirm:      false,
			BlockingOrderID: peer.ID,
			Message:         fmt.Sprintf(confirmBlockedTemplate, peer.ID, overlap),
		}
	}

	return ConfirmQuery{CanConfirm: true}
}
