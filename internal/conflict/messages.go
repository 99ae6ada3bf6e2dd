package conflict

import "fmt"

// The decision code never builds presentation text inline; every human-facing
// string comes from this template table keyed by conflict kind and severity.
type messageKey struct {
	kind     Kind
	severity Severity
}

var templates = map[messageKey]string{
	{KindConfirmed, SeverityBlock}:   "confirmed order #%d occupies %s; two confirmed reservations may never overlap",
	{KindTime, SeverityBlock}:        "times collide with confirmed order #%d on %s: %.1fh overlap, gap of %.1fh required",
	{KindConfirmed, SeverityWarning}: "order #%d overlaps a confirmed reservation on %s and may be blocked",
	{KindPending, SeverityWarning}:   "pending order #%d overlaps on %s; it may be blocked once this order is confirmed",
	{KindPending, SeverityInfo}:      "pending order #%d touches %s",
}

// pending-vs-pending gets stronger wording: both sides are at risk.
const pendingMutualTemplate = "pending order #%d overlaps on %s; only one of the two can be confirmed without change"

const (
	confirmBlockedTemplate  = "cannot confirm: confirmed order #%d overlaps by %.1fh"
	confirmAffectsTemplate  = "confirmation is possible, but %d pending order(s) will no longer be confirmable"
	rangeBlockedTemplate    = "%d confirmed reservation(s) block this range"
	rangeWarningTemplate    = "%d pending reservation(s) overlap this range"
	suggestPickupTemplate   = "moving pickup to %s clears the required gap after the previous reservation"
	suggestReturnTemplate   = "moving return to %s clears the required gap before the next reservation"
	suggestBothTemplate     = "moving pickup to %s and return to %s fits between the surrounding reservations"
	suggestImpossibleReason = "no time adjustment can resolve this conflict automatically"
)

func message(kind Kind, severity Severity, args ...any) string {
	tmpl, ok := templates[messageKey{kind, severity}]
	if !ok {
		return ""
	}
	return fmt.Sprintf(tmpl, args...)
}
