// Package classify derives the ownership profile of an order from its raw
// flags. The profile is computed once and passed around as a value, replacing
// repeated ad-hoc boolean checks.
package classify

import "fleetdesk/internal/models"

// Ownership says which side of the business an order came from.
type Ownership string

const (
	// OwnershipBusiness marks orders originating from a customer-facing flow.
	OwnershipBusiness Ownership = "business"
	// OwnershipInternal marks orders created by internal or administrative actions.
	OwnershipInternal Ownership = "internal"
)

// Origin identifies the actor class that created an order.
type Origin string

const (
	OriginClient     Origin = "client"
	OriginAdmin      Origin = "admin"
	OriginSuperadmin Origin = "superadmin"
	OriginSystem     Origin = "system"
	OriginUnknown    Origin = "unknown"
)

// Confirmation is the order's lifecycle state as seen by the conflict engine.
type Confirmation string

const (
	ConfirmationConfirmed Confirmation = "confirmed"
	ConfirmationPending   Confirmation = "pending"
	ConfirmationCancelled Confirmation = "cancelled"
)

// Profile is the derived classification of a single order.
type Profile struct {
	Ownership    Ownership
	Origin       Origin
	Confirmation Confirmation
}

// IsConfirmed reports whether the order is in the binding state.
func (p Profile) IsConfirmed() bool {
	return p.Confirmation == ConfirmationConfirmed
}

// IsActive reports whether the order still participates in conflict checks.
func (p Profile) IsActive() bool {
	return p.Confirmation != ConfirmationCancelled
}

// Classify derives the profile from the order's own flags only. It is total:
// a nil order degrades to the safe default internal/unknown/pending.
func Classify(order *models.Order) Profile {
	if order == nil {
		return Profile{
			Ownership:    OwnershipInternal,
			Origin:       OriginUnknown,
			Confirmation: ConfirmationPending,
		}
	}

	p := Profile{
		Ownership:    OwnershipInternal,
		Origin:       OriginUnknown,
		Confirmation: ConfirmationPending,
	}

	if order.CustomerOriginated {
		p.Ownership = OwnershipBusiness
		p.Origin = OriginClient
	} else {
		switch order.CreatorRole {
		case "admin":
			p.Origin = OriginAdmin
		case "superadmin":
			p.Origin = OriginSuperadmin
		case "system":
			p.Origin = OriginSystem
		}
	}

	switch {
	case order.IsCancelled():
		p.Confirmation = ConfirmationCancelled
	case order.Confirmed:
		p.Confirmation = ConfirmationConfirmed
	}

	return p
}
