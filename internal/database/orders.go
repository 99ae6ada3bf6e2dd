package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fleetdesk/internal/models"
)

const dateLayout = "2006-01-02"

const orderColumns = `id, vehicle_id, company_id, client_name, client_phone, client_email,
	start_date, end_date, pickup_at, return_at, confirmed, customer_originated,
	creator_role, cancelled_at, comment, created_at, updated_at, version`

// CreateOrder inserts a new order and fills in its ID and version.
func (db *DB) CreateOrder(ctx context.Context, o *models.Order) error {
	now := time.Now().UTC()
	res, err := db.ExecContext(ctx, `
		INSERT INTO orders (vehicle_id, company_id, client_name, client_phone, client_email,
			start_date, end_date, pickup_at, return_at, confirmed, customer_originated,
			creator_role, cancelled_at, comment, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		o.VehicleID, o.CompanyID, o.ClientName, o.ClientPhone, o.ClientEmail,
		o.StartDate.Format(dateLayout), o.EndDate.Format(dateLayout),
		o.PickupAt.UTC(), o.ReturnAt.UTC(), o.Confirmed, o.CustomerOriginated,
		o.CreatorRole, nullTime(o.CancelledAt), o.Comment, now, now)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create order id: %w", err)
	}
	o.ID = id
	o.Version = 1
	o.CreatedAt = now
	o.UpdatedAt = now
	return nil
}

// GetOrder fetches a single order by ID.
func (db *DB) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	return o, nil
}

// PeersForVehicle returns all non-cancelled orders on a vehicle, excluding
// the order under edit when excludeID is non-zero.
func (db *DB) PeersForVehicle(ctx context.Context, vehicleID, excludeID int64) ([]models.Order, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE vehicle_id = ? AND id != ? AND cancelled_at IS NULL
		ORDER BY pickup_at`, vehicleID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("peers for vehicle %d: %w", vehicleID, err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan peer order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// ConfirmOrderWithVersion promotes an order to confirmed, guarded by
// optimistic locking.
func (db *DB) ConfirmOrderWithVersion(ctx context.Context, id, version int64) error {
	res, err := db.ExecContext(ctx, `
		UPDATE orders SET confirmed = 1, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ? AND cancelled_at IS NULL`,
		time.Now().UTC(), id, version)
	if err != nil {
		return fmt.Errorf("confirm order %d: %w", id, err)
	}
	return db.checkAffected(res, id)
}

// UpdateOrderTimes rewrites the order's dates and instants, guarded by
// optimistic locking.
func (db *DB) UpdateOrderTimes(ctx context.Context, id, version int64, startDate, endDate, pickupAt, returnAt time.Time) error {
	res, err := db.ExecContext(ctx, `
		UPDATE orders SET start_date = ?, end_date = ?, pickup_at = ?, return_at = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ? AND cancelled_at IS NULL`,
		startDate.Format(dateLayout), endDate.Format(dateLayout),
		pickupAt.UTC(), returnAt.UTC(), time.Now().UTC(), id, version)
	if err != nil {
		return fmt.Errorf("update order times %d: %w", id, err)
	}
	return db.checkAffected(res, id)
}

// CancelOrder marks the order cancelled.
func (db *DB) CancelOrder(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	res, err := db.ExecContext(ctx, `
		UPDATE orders SET cancelled_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND cancelled_at IS NULL`, now, now, id)
	if err != nil {
		return fmt.Errorf("cancel order %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) checkAffected(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the row is gone or someone got there first.
		var exists int
		if err := db.QueryRow(`SELECT COUNT(1) FROM orders WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrConcurrentModification
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var startDate, endDate string
	var cancelledAt sql.NullTime
	var phone, email, role, comment sql.NullString

	err := row.Scan(&o.ID, &o.VehicleID, &o.CompanyID, &o.ClientName, &phone, &email,
		&startDate, &endDate, &o.PickupAt, &o.ReturnAt, &o.Confirmed, &o.CustomerOriginated,
		&role, &cancelledAt, &comment, &o.CreatedAt, &o.UpdatedAt, &o.Version)
	if err != nil {
		return nil, err
	}

	o.ClientPhone = phone.String
	o.ClientEmail = email.String
	o.CreatorRole = role.String
	o.Comment = comment.String
	if cancelledAt.Valid {
		t := cancelledAt.Time
		o.CancelledAt = &t
	}

	if o.StartDate, err = time.Parse(dateLayout, startDate); err != nil {
		return nil, fmt.Errorf("parse start_date %q: %w", startDate, err)
	}
	if o.EndDate, err = time.Parse(dateLayout, endDate); err != nil {
		return nil, fmt.Errorf("parse end_date %q: %w", endDate, err)
	}
	o.PickupAt = o.PickupAt.UTC()
	o.ReturnAt = o.ReturnAt.UTC()
	return &o, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
