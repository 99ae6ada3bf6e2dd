// Package override gates and records high-privilege forced creations that
// bypass blocking conflicts. The engine only decides; persisting the audit
// entry and the reservation itself stays with the caller.
package override

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleetdesk/internal/conflict"
	"fleetdesk/internal/models"
)

// ErrMissingPrincipal is returned when an override request carries no acting
// principal. This is a caller defect and is rejected before any conflict
// logic runs.
var ErrMissingPrincipal = errors.New("override request requires an acting principal")

// Principal identifies the actor attempting the override.
type Principal struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// Request is the two-step override protocol input. Force must be explicitly
// true to commit; a false Force is the "are you sure" round trip.
type Request struct {
	Force     bool      `json:"force"`
	Principal Principal `json:"principal"`
	Reason    string    `json:"reason,omitempty"`
}

// Decision is the engine's verdict. Exactly one of the three shapes comes
// back: confirmation required, allowed with an audit entry, or refused.
type Decision struct {
	Allowed              bool        `json:"allowed"`
	RequiresConfirmation bool        `json:"requires_confirmation,omitempty"`
	Warning              string      `json:"warning,omitempty"`
	Entry                *AuditEntry `json:"entry,omitempty"`
}

// AuditEntry records one committed override. Append-only: once constructed
// it is handed to the audit sink and never mutated.
type AuditEntry struct {
	ID         string              `json:"id"`
	ActorID    int64               `json:"actor_id"`
	ActorName  string              `json:"actor_name,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	Order      models.Order        `json:"order"`
	Overridden []conflict.Conflict `json:"overridden"`
	Reason     string              `json:"reason,omitempty"`
	Severity   string              `json:"severity"`
}

// Sink accepts audit entries for durable storage. The engine never reads
// them back.
type Sink interface {
	SaveAuditEntry(ctx context.Context, entry *AuditEntry) error
}

// Engine implements the confirm/commit override protocol.
type Engine struct {
	logger zerolog.Logger
	now    func() time.Time
}

// NewEngine creates an override engine.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{
		logger: logger.With().Str("component", "override").Logger(),
		now:    time.Now,
	}
}

// Decide applies the override gate to a validator result.
//
// Force=false never has side effects: when blocking conflicts exist it asks
// for confirmation, otherwise the creation needs no override at all.
// Force=true commits only when every blocking conflict is override-eligible.
func (e *Engine) Decide(order *models.Order, report conflict.RangeReport, req Request) (Decision, error) {
	if req.Principal.ID == 0 {
		return Decision{}, ErrMissingPrincipal
	}

	if len(report.Blocking) == 0 {
		// Nothing to override.
		return Decision{Allowed: true}, nil
	}

	for _, c := range report.Blocking {
		if !c.CanBeOverridden {
			e.logger.Warn().
				Int64("actor_id", req.Principal.ID).
				Int64("peer_order_id", c.OrderID).
				Msg("override refused: conflict is not override-eligible")
			return Decision{Allowed: false}, nil
		}
	}

	if !req.Force {
		return Decision{
			Allowed:              false,
			RequiresConfirmation: true,
			Warning:              e.warningText(report),
		}, nil
	}

	entry := &AuditEntry{
		ID:         uuid.NewString(),
		ActorID:    req.Principal.ID,
		ActorName:  req.Principal.Name,
		CreatedAt:  e.now(),
		Overridden: append([]conflict.Conflict(nil), report.Blocking...),
		Reason:     req.Reason,
		Severity:   severityFor(len(report.Blocking)),
	}
	if order != nil {
		entry.Order = *order
	}

	e.logger.Info().
		Str("audit_id", entry.ID).
		Int64("actor_id", req.Principal.ID).
		Int("overridden", len(entry.Overridden)).
		Str("severity", entry.Severity).
		Msg("override committed")

	return Decision{Allowed: true, Entry: entry}, nil
}

func (e *Engine) warningText(report conflict.RangeReport) string {
	first := report.Blocking[0]
	if len(report.Blocking) == 1 {
		return fmt.Sprintf("forcing this reservation will override: %s", first.Message)
	}
	return fmt.Sprintf("forcing this reservation will override %d blocking conflicts, first: %s",
		len(report.Blocking), first.Message)
}

func severityFor(blocking int) string {
	if blocking > 1 {
		return "critical"
	}
	return "high"
}
