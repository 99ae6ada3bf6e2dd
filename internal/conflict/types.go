// Package conflict implements the reservation conflict engine: pairwise
// time analysis, confirmation gating, full-range validation and auto-fix
// suggestions. Everything in here is a pure decision over the inputs; nothing
// is persisted and no call shares state with another.
package conflict

import (
	"time"

	"fleetdesk/internal/classify"
)

// Kind is the closed set of conflict categories.
type Kind string

const (
	// KindTime marks an exact pickup/return time collision on a shared day.
	KindTime Kind = "time"
	// KindConfirmed marks a collision with a confirmed peer.
	KindConfirmed Kind = "confirmed"
	// KindPending marks a collision with a tentative peer.
	KindPending Kind = "pending"
)

// Severity tiers: block prevents the action, warning allows it with a caveat,
// info is advisory, safe means nothing stands in the way.
type Severity string

const (
	SeverityBlock   Severity = "block"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySafe    Severity = "safe"
)

func severityRank(s Severity) int {
	switch s {
	case SeverityBlock:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Conflict is one detected collision with a specific peer on a specific day.
// Constructed fresh per analysis call and immutable once returned.
type Conflict struct {
	Kind            Kind                  `json:"kind"`
	Ownership       classify.Ownership    `json:"ownership"`
	Confirmation    classify.Confirmation `json:"confirmation"`
	OrderID         int64                 `json:"order_id"`
	Date            time.Time             `json:"date"`
	Instant         *time.Time            `json:"instant,omitempty"`
	Message         string                `json:"message"`
	IsBlocking      bool                  `json:"is_blocking"`
	CanBeOverridden bool                  `json:"can_be_overridden"`
}

// DayReport is the time analyzer's verdict for a single calendar date.
// Multiple peers are evaluated but a single most-severe summary is surfaced.
type DayReport struct {
	Date                time.Time  `json:"date"`
	Severity            Severity   `json:"severity"`
	HasBlockingConflict bool       `json:"has_blocking_conflict"`
	Summary             string     `json:"summary,omitempty"`
	// MinPickup and MaxReturn are usable bounds derived from blocking
	// confirmed peers, tightened across all of them.
	MinPickup *time.Time `json:"min_pickup,omitempty"`
	MaxReturn *time.Time `json:"max_return,omitempty"`
}

// ConfirmationReport is the result of analyzing a pending order's promotion
// to confirmed.
type ConfirmationReport struct {
	// NeedsAnalysis is false when the order is already confirmed.
	NeedsAnalysis bool       `json:"needs_analysis"`
	CanConfirm    bool       `json:"can_confirm"`
	Blocking      []Conflict `json:"blocking,omitempty"`
	// AffectedPending lists tentative peers that would no longer be
	// confirmable without change once this order is confirmed.
	AffectedPending []int64  `json:"affected_pending,omitempty"`
	Severity        Severity `json:"severity"`
	Summary         string   `json:"summary,omitempty"`
}

// ConfirmQuery answers the simple yes/no confirmability question used to
// drive UI affordances.
type ConfirmQuery struct {
	CanConfirm      bool   `json:"can_confirm"`
	BlockingOrderID int64  `json:"blocking_order_id,omitempty"`
	Message         string `json:"message,omitempty"`
}

// BucketCounts is the validator's numeric summary per classification bucket.
type BucketCounts struct {
	ConfirmedBusiness int `json:"confirmed_business"`
	ConfirmedInternal int `json:"confirmed_internal"`
	PendingBusiness   int `json:"pending_business"`
	PendingInternal   int `json:"pending_internal"`
}

// Total returns the number of conflicts across all buckets.
func (c BucketCounts) Total() int {
	return c.ConfirmedBusiness + c.ConfirmedInternal + c.PendingBusiness + c.PendingInternal
}

// RangeReport aggregates the full-range validator's findings for a candidate
// reservation.
type RangeReport struct {
	IsValid   bool         `json:"is_valid"`
	Conflicts []Conflict   `json:"conflicts,omitempty"`
	Blocking  []Conflict   `json:"blocking,omitempty"`
	Warnings  []Conflict   `json:"warnings,omitempty"`
	Counts    BucketCounts `json:"counts"`
	Summary   string       `json:"summary,omitempty"`
}

// Suggestion is one proposed time adjustment that would resolve a detected
// conflict. The generator never applies anything itself.
type Suggestion struct {
	Severity Severity `json:"severity"`
	// Pickup and Return carry proposed "HH:MM" wall clocks; empty means the
	// current value stays.
	Pickup   string `json:"pickup,omitempty"`
	Return   string `json:"return,omitempty"`
	Reason   string `json:"reason"`
	Disabled bool   `json:"disabled,omitempty"`
}
