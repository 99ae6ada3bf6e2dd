package models

import "time"

// Order represents a vehicle reservation record.
type Order struct {
	ID                 int64      `json:"id"`
	VehicleID          int64      `json:"vehicle_id"`
	VehicleName        string     `json:"vehicle_name"`
	CompanyID          int64      `json:"company_id"`
	ClientName         string     `json:"client_name"`
	ClientPhone        string     `json:"client_phone"`
	ClientEmail        string     `json:"client_email,omitempty"`
	StartDate          time.Time  `json:"start_date"` // calendar date of pickup day
	EndDate            time.Time  `json:"end_date"`   // calendar date of return day
	PickupAt           time.Time  `json:"pickup_at"`  // instant, persisted as UTC
	ReturnAt           time.Time  `json:"return_at"`  // instant, persisted as UTC
	Confirmed          bool       `json:"confirmed"`
	CustomerOriginated bool       `json:"customer_originated"` // false for internal/administrative orders
	CreatorRole        string     `json:"creator_role,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	Comment            string     `json:"comment"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	Version            int64      `json:"version"`
}

// IsCancelled reports whether the order carries a cancellation marker.
func (o *Order) IsCancelled() bool {
	return o.CancelledAt != nil
}

// SpansMultipleDays returns true if the order covers more than one calendar day.
func (o *Order) SpansMultipleDays() bool {
	return !sameDate(o.StartDate, o.EndDate)
}

// ContainsDate checks if the order's date range covers a specific date.
// Boundaries are inclusive; only the calendar date matters, so values
// carried in different locations compare correctly.
func (o *Order) ContainsDate(date time.Time) bool {
	d := dateKey(date)
	return d >= dateKey(o.StartDate) && d <= dateKey(o.EndDate)
}

// StartsOn reports whether the order's range starts on the given date.
func (o *Order) StartsOn(date time.Time) bool {
	return sameDate(o.StartDate, date)
}

// EndsOn reports whether the order's range ends on the given date.
func (o *Order) EndsOn(date time.Time) bool {
	return sameDate(o.EndDate, date)
}

func dateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// Vehicle represents a unit of the bookable fleet.
type Vehicle struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Name      string    `json:"name"`
	Plate     string    `json:"plate,omitempty"`
	IsActive  bool      `json:"is_active"`
	SortOrder int64     `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Company represents a vehicle-owning entity. BufferHours is the minimum gap
// required between two reservations on the same vehicle; nil means the
// system-wide fallback applies.
type Company struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	BufferHours *float64 `json:"buffer_hours,omitempty"`
}
