// Package service orchestrates the conflict engine over the order store:
// availability checks, creation with override gating, confirmation and
// re-timing.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"fleetdesk/internal/anchor"
	"fleetdesk/internal/conflict"
	"fleetdesk/internal/events"
	"fleetdesk/internal/metrics"
	"fleetdesk/internal/models"
	"fleetdesk/internal/override"
)

// Store is the persistence surface the service needs. *database.DB satisfies
// it; tests substitute mocks. The embedded override.Sink receives audit
// entries for committed overrides.
type Store interface {
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	CreateOrder(ctx context.Context, o *models.Order) error
	PeersForVehicle(ctx context.Context, vehicleID, excludeID int64) ([]models.Order, error)
	ConfirmOrderWithVersion(ctx context.Context, id, version int64) error
	UpdateOrderTimes(ctx context.Context, id, version int64, startDate, endDate, pickupAt, returnAt time.Time) error
	BufferHoursFor(ctx context.Context, companyID int64) (float64, error)
	override.Sink
}

// OrderService wires the store, the conflict analyzer and the override engine.
type OrderService struct {
	store    Store
	analyzer *conflict.Analyzer
	engine   *override.Engine
	anchor   *anchor.Anchor
	logger   zerolog.Logger
	bus      *events.Bus
}

// NewOrderService creates the order service.
func NewOrderService(store Store, a *anchor.Anchor, engine *override.Engine, logger zerolog.Logger) *OrderService {
	return &OrderService{
		store:    store,
		analyzer: conflict.NewAnalyzer(a),
		engine:   engine,
		anchor:   a,
		logger:   logger.With().Str("component", "order_service").Logger(),
	}
}

// WithEvents attaches a bus; lifecycle events publish after each committed
// state change.
func (s *OrderService) WithEvents(bus *events.Bus) *OrderService {
	s.bus = bus
	return s
}

func (s *OrderService) publish(eventType string, orderID, vehicleID, actorID int64) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{
		Type:      eventType,
		OrderID:   orderID,
		VehicleID: vehicleID,
		ActorID:   actorID,
	})
}

// Anchor exposes the business-zone converter for callers that parse wall
// clocks on the way in.
func (s *OrderService) Anchor() *anchor.Anchor {
	return s.anchor
}

// DayCheck is the result of a single-date availability probe.
type DayCheck struct {
	Report      conflict.DayReport    `json:"report"`
	Suggestions []conflict.Suggestion `json:"suggestions,omitempty"`
}

// CheckDay analyzes the candidate against its vehicle's live orders on one
// calendar date. The candidate needs no ID; drafts are checked before they
// exist.
func (s *OrderService) CheckDay(ctx context.Context, candidate *models.Order, date time.Time) (*DayCheck, error) {
	peers, buffer, err := s.peersAndBuffer(ctx, candidate)
	if err != nil {
		return nil, err
	}

	report := s.analyzer.AnalyzeDay(candidate, peers, date, buffer)
	check := &DayCheck{Report: report}
	if report.HasBlockingConflict {
		check.Suggestions = s.analyzer.Suggest(report, report, candidate.PickupAt, candidate.ReturnAt)
	}

	metrics.IncAnalysis(string(report.Severity))
	return check, nil
}

// Validate runs the full-range validator over the candidate's whole span.
func (s *OrderService) Validate(ctx context.Context, candidate *models.Order) (conflict.RangeReport, error) {
	peers, buffer, err := s.peersAndBuffer(ctx, candidate)
	if err != nil {
		return conflict.RangeReport{}, err
	}

	report := s.analyzer.ValidateRange(candidate, peers, buffer)
	if report.IsValid {
		metrics.IncAnalysis("valid")
	} else {
		metrics.IncAnalysis("conflict")
	}
	return report, nil
}

// CreateResult reports what happened to a creation attempt.
type CreateResult struct {
	Created     bool                  `json:"created"`
	Order       *models.Order         `json:"order,omitempty"`
	Report      conflict.RangeReport  `json:"report"`
	Decision    *override.Decision    `json:"decision,omitempty"`
	Suggestions []conflict.Suggestion `json:"suggestions,omitempty"`
}

// Create validates the order over its full range and persists it when the
// range is clean, or when the caller forces an override past blocking
// conflicts. A refused or confirmation-pending attempt persists nothing.
func (s *OrderService) Create(ctx context.Context, order *models.Order, req override.Request) (*CreateResult, error) {
	report, err := s.Validate(ctx, order)
	if err != nil {
		return nil, err
	}

	result := &CreateResult{Report: report}

	if len(report.Blocking) == 0 {
		if err := s.store.CreateOrder(ctx, order); err != nil {
			metrics.IncOrderCreated("error")
			return nil, err
		}
		result.Created = true
		result.Order = order
		metrics.IncOrderCreated("clean")
		s.publish(events.TypeOrderCreated, order.ID, order.VehicleID, req.Principal.ID)
		s.logger.Info().Int64("order_id", order.ID).Int64("vehicle_id", order.VehicleID).Msg("Order created")
		return result, nil
	}

	result.Suggestions = s.suggestForRange(ctx, order)

	decision, err := s.engine.Decide(order, report, req)
	if err != nil {
		metrics.IncOverride("rejected")
		return nil, err
	}
	result.Decision = &decision

	switch {
	case decision.Allowed && decision.Entry != nil:
		if err := s.store.CreateOrder(ctx, order); err != nil {
			metrics.IncOrderCreated("error")
			return nil, err
		}
		decision.Entry.Order = *order
		if err := s.store.SaveAuditEntry(ctx, decision.Entry); err != nil {
			// The order exists; a lost audit record must be loud.
			s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("Failed to save override audit entry")
			return nil, fmt.Errorf("order %d created but audit entry failed: %w", order.ID, err)
		}
		result.Created = true
		result.Order = order
		metrics.IncOrderCreated("overridden")
		metrics.IncOverride("committed")
		s.publish(events.TypeOrderCreated, order.ID, order.VehicleID, req.Principal.ID)
		s.publish(events.TypeOverrideCommitted, order.ID, order.VehicleID, req.Principal.ID)
	case decision.RequiresConfirmation:
		metrics.IncOverride("confirmation_required")
	default:
		metrics.IncOrderCreated("blocked")
		metrics.IncOverride("refused")
	}

	return result, nil
}

// Confirm promotes a pending order to confirmed after re-analysis against
// current peers. Blocking conflicts leave the order untouched.
func (s *OrderService) Confirm(ctx context.Context, orderID, version int64) (conflict.ConfirmationReport, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return conflict.ConfirmationReport{}, err
	}

	peers, buffer, err := s.peersAndBuffer(ctx, order)
	if err != nil {
		return conflict.ConfirmationReport{}, err
	}

	report := s.analyzer.AnalyzeConfirmation(order, peers, buffer)
	if !report.NeedsAnalysis {
		metrics.IncConfirmation("already_confirmed")
		return report, nil
	}
	if !report.CanConfirm {
		metrics.IncConfirmation("blocked")
		return report, nil
	}

	if err := s.store.ConfirmOrderWithVersion(ctx, orderID, version); err != nil {
		metrics.IncConfirmation("error")
		return conflict.ConfirmationReport{}, err
	}

	metrics.IncConfirmation("confirmed")
	s.publish(events.TypeOrderConfirmed, orderID, order.VehicleID, 0)
	s.logger.Info().Int64("order_id", orderID).Ints64("affected_pending", report.AffectedPending).Msg("Order confirmed")
	return report, nil
}

// CanConfirm answers the confirmability question without side effects.
func (s *OrderService) CanConfirm(ctx context.Context, orderID int64) (conflict.ConfirmQuery, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return conflict.ConfirmQuery{}, err
	}

	peers, buffer, err := s.peersAndBuffer(ctx, order)
	if err != nil {
		return conflict.ConfirmQuery{}, err
	}

	return s.analyzer.CanBeConfirmed(order, peers, buffer), nil
}

// Retime moves an existing order to new dates and wall clocks, re-validating
// the whole new range first.
func (s *OrderService) Retime(ctx context.Context, orderID, version int64, startDate, endDate time.Time, pickupClock, returnClock string) (*CreateResult, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	pickupAt, err := s.anchor.At(startDate, pickupClock)
	if err != nil {
		return nil, fmt.Errorf("pickup time: %w", err)
	}
	returnAt, err := s.anchor.At(endDate, returnClock)
	if err != nil {
		return nil, fmt.Errorf("return time: %w", err)
	}
	if !returnAt.After(pickupAt) {
		return nil, fmt.Errorf("return must be after pickup")
	}

	moved := *order
	moved.StartDate = startDate
	moved.EndDate = endDate
	moved.PickupAt = s.anchor.ToStorage(pickupAt)
	moved.ReturnAt = s.anchor.ToStorage(returnAt)

	report, err := s.Validate(ctx, &moved)
	if err != nil {
		return nil, err
	}

	result := &CreateResult{Report: report}
	if len(report.Blocking) > 0 {
		result.Suggestions = s.suggestForRange(ctx, &moved)
		return result, nil
	}

	if err := s.store.UpdateOrderTimes(ctx, orderID, version, startDate, endDate, moved.PickupAt, moved.ReturnAt); err != nil {
		return nil, err
	}

	moved.Version = version + 1
	result.Created = true
	result.Order = &moved
	s.publish(events.TypeOrderRetimed, orderID, moved.VehicleID, 0)
	s.logger.Info().Int64("order_id", orderID).Msg("Order re-timed")
	return result, nil
}

func (s *OrderService) peersAndBuffer(ctx context.Context, order *models.Order) ([]models.Order, float64, error) {
	peers, err := s.store.PeersForVehicle(ctx, order.VehicleID, order.ID)
	if err != nil {
		return nil, 0, err
	}
	buffer, err := s.store.BufferHoursFor(ctx, order.CompanyID)
	if err != nil {
		return nil, 0, err
	}
	return peers, buffer, nil
}

// suggestForRange derives time suggestions from the per-day analyses of the
// candidate's boundary days.
func (s *OrderService) suggestForRange(ctx context.Context, order *models.Order) []conflict.Suggestion {
	peers, buffer, err := s.peersAndBuffer(ctx, order)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Suggestion generation skipped")
		return nil
	}

	pickupDay := s.analyzer.AnalyzeDay(order, peers, order.StartDate, buffer)
	returnDay := pickupDay
	if order.SpansMultipleDays() {
		returnDay = s.analyzer.AnalyzeDay(order, peers, order.EndDate, buffer)
	}
	return s.analyzer.Suggest(pickupDay, returnDay, order.PickupAt, order.ReturnAt)
}
