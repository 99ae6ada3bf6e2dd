package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fleetdesk/internal/database"
	"fleetdesk/internal/models"
	"fleetdesk/internal/override"
)

// OrderPayload describes a reservation draft on the wire. Dates are
// YYYY-MM-DD, times are HH:MM wall clocks in the business timezone.
type OrderPayload struct {
	ID                 int64  `json:"id,omitempty"`
	VehicleID          int64  `json:"vehicle_id"`
	CompanyID          int64  `json:"company_id"`
	ClientName         string `json:"client_name"`
	ClientPhone        string `json:"client_phone,omitempty"`
	ClientEmail        string `json:"client_email,omitempty"`
	StartDate          string `json:"start_date"`
	EndDate            string `json:"end_date"`
	PickupTime         string `json:"pickup_time"`
	ReturnTime         string `json:"return_time"`
	Confirmed          bool   `json:"confirmed,omitempty"`
	CustomerOriginated bool   `json:"customer_originated"`
	CreatorRole        string `json:"creator_role,omitempty"`
	Comment            string `json:"comment,omitempty"`
}

// CheckDayRequest is the body for POST /api/v1/orders/check.
type CheckDayRequest struct {
	Order OrderPayload `json:"order"`
	Date  string       `json:"date"`
}

// CreateOrderRequest is the body for POST /api/v1/orders.
type CreateOrderRequest struct {
	Order     OrderPayload        `json:"order"`
	Force     bool                `json:"force,omitempty"`
	Principal *override.Principal `json:"principal,omitempty"`
	Reason    string              `json:"reason,omitempty"`
}

// ConfirmRequest is the body for POST /api/v1/orders/confirm.
type ConfirmRequest struct {
	OrderID int64 `json:"order_id"`
	Version int64 `json:"version"`
}

// RetimeRequest is the body for POST /api/v1/orders/retime.
type RetimeRequest struct {
	OrderID    int64  `json:"order_id"`
	Version    int64  `json:"version"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	PickupTime string `json:"pickup_time"`
	ReturnTime string `json:"return_time"`
}

func (s *HTTPServer) orderFromPayload(p *OrderPayload) (*models.Order, error) {
	if p.VehicleID == 0 {
		return nil, fmt.Errorf("vehicle_id is required")
	}
	if p.ClientName == "" {
		return nil, fmt.Errorf("client_name is required")
	}
	if p.StartDate == "" || p.EndDate == "" {
		return nil, fmt.Errorf("start_date and end_date are required")
	}

	startDate, err := s.parseDate(p.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date format; expected YYYY-MM-DD")
	}
	endDate, err := s.parseDate(p.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date format; expected YYYY-MM-DD")
	}
	if startDate.After(endDate) {
		return nil, fmt.Errorf("start_date must be before or equal to end_date")
	}

	a := s.svc.Anchor()
	pickupAt, err := a.At(startDate, p.PickupTime)
	if err != nil {
		return nil, fmt.Errorf("invalid pickup_time: %v", err)
	}
	returnAt, err := a.At(endDate, p.ReturnTime)
	if err != nil {
		return nil, fmt.Errorf("invalid return_time: %v", err)
	}
	if !returnAt.After(pickupAt) {
		return nil, fmt.Errorf("return must be after pickup")
	}

	return &models.Order{
		ID:                 p.ID,
		VehicleID:          p.VehicleID,
		CompanyID:          p.CompanyID,
		ClientName:         p.ClientName,
		ClientPhone:        p.ClientPhone,
		ClientEmail:        p.ClientEmail,
		StartDate:          startDate,
		EndDate:            endDate,
		PickupAt:           a.ToStorage(pickupAt),
		ReturnAt:           a.ToStorage(returnAt),
		Confirmed:          p.Confirmed,
		CustomerOriginated: p.CustomerOriginated,
		CreatorRole:        p.CreatorRole,
		Comment:            p.Comment,
	}, nil
}

func (s *HTTPServer) parseDate(value string) (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	return s.svc.Anchor().Date(parsed.Year(), parsed.Month(), parsed.Day()), nil
}

// handleCheckDay analyzes a draft against one calendar date.
// POST /api/v1/orders/check
func (s *HTTPServer) handleCheckDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CheckDayRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	order, err := s.orderFromPayload(&req.Order)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	date := order.StartDate
	if req.Date != "" {
		if date, err = s.parseDate(req.Date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
	}

	check, err := s.svc.CheckDay(r.Context(), order, date)
	if err != nil {
		s.logger.Error().Err(err).Msg("Day check failed")
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, check)
}

// handleValidate runs the full-range validator without persisting anything.
// POST /api/v1/orders/validate
func (s *HTTPServer) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CheckDayRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	order, err := s.orderFromPayload(&req.Order)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.svc.Validate(r.Context(), order)
	if err != nil {
		s.logger.Error().Err(err).Msg("Range validation failed")
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleCreateOrder validates and persists a reservation, honoring the
// force/override protocol.
// POST /api/v1/orders
func (s *HTTPServer) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CreateOrderRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	order, err := s.orderFromPayload(&req.Order)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	overrideReq := override.Request{Force: req.Force, Reason: req.Reason}
	if req.Principal != nil {
		overrideReq.Principal = *req.Principal
	}

	result, err := s.svc.Create(r.Context(), order, overrideReq)
	if err != nil {
		if errors.Is(err, override.ErrMissingPrincipal) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("Order creation failed")
		writeError(w, http.StatusInternalServerError, "order creation failed")
		return
	}

	status := http.StatusCreated
	if !result.Created {
		status = http.StatusConflict
	}
	writeJSON(w, status, result)
}

// handleConfirm promotes a pending order to confirmed.
// POST /api/v1/orders/confirm
func (s *HTTPServer) handleConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req ConfirmRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.OrderID == 0 {
		writeError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	report, err := s.svc.Confirm(r.Context(), req.OrderID, req.Version)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, database.ErrConcurrentModification):
			writeError(w, http.StatusConflict, "order was modified concurrently; reload and retry")
		default:
			s.logger.Error().Err(err).Int64("order_id", req.OrderID).Msg("Confirmation failed")
			writeError(w, http.StatusInternalServerError, "confirmation failed")
		}
		return
	}

	status := http.StatusOK
	if report.NeedsAnalysis && !report.CanConfirm {
		status = http.StatusConflict
	}
	writeJSON(w, status, report)
}

// handleCanConfirm answers the confirmability question.
// GET /api/v1/orders/can-confirm?id=N
func (s *HTTPServer) handleCanConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id query parameter is required")
		return
	}

	query, err := s.svc.CanConfirm(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		s.logger.Error().Err(err).Int64("order_id", id).Msg("Can-confirm query failed")
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	writeJSON(w, http.StatusOK, query)
}

// handleRetime moves an order to new dates and times.
// POST /api/v1/orders/retime
func (s *HTTPServer) handleRetime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req RetimeRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.OrderID == 0 {
		writeError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	startDate, err := s.parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date format; expected YYYY-MM-DD")
		return
	}
	endDate, err := s.parseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date format; expected YYYY-MM-DD")
		return
	}

	result, err := s.svc.Retime(r.Context(), req.OrderID, req.Version,
		startDate, endDate, req.PickupTime, req.ReturnTime)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, database.ErrConcurrentModification):
			writeError(w, http.StatusConflict, "order was modified concurrently; reload and retry")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	status := http.StatusOK
	if !result.Created {
		status = http.StatusConflict
	}
	writeJSON(w, status, result)
}

// handleVehicles lists a company's fleet.
// GET /api/v1/vehicles?company_id=N&active=true
func (s *HTTPServer) handleVehicles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	companyID, err := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if err != nil || companyID <= 0 {
		writeError(w, http.StatusBadRequest, "company_id query parameter is required")
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"

	vehicles, err := s.directory.ListVehicles(r.Context(), companyID, activeOnly)
	if err != nil {
		s.logger.Error().Err(err).Int64("company_id", companyID).Msg("Vehicle listing failed")
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"vehicles": vehicles})
}

// handleAuditEntries lists recent committed overrides.
// GET /api/v1/audit?limit=N
func (s *HTTPServer) handleAuditEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := s.directory.GetAuditEntries(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Audit listing failed")
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
