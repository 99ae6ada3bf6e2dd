package database

import (
	"context"
	"database/sql"
	"fmt"

	"fleetdesk/internal/models"
)

// CreateVehicle inserts a vehicle and fills in its ID.
func (db *DB) CreateVehicle(ctx context.Context, v *models.Vehicle) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO vehicles (company_id, name, plate, is_active, sort_order)
		VALUES (?, ?, ?, ?, ?)`,
		v.CompanyID, v.Name, v.Plate, v.IsActive, v.SortOrder)
	if err != nil {
		return fmt.Errorf("create vehicle: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create vehicle id: %w", err)
	}
	v.ID = id
	return nil
}

// GetVehicle fetches a vehicle by ID.
func (db *DB) GetVehicle(ctx context.Context, id int64) (*models.Vehicle, error) {
	var v models.Vehicle
	var plate sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, company_id, name, plate, is_active, sort_order, created_at, updated_at
		FROM vehicles WHERE id = ?`, id).
		Scan(&v.ID, &v.CompanyID, &v.Name, &plate, &v.IsActive, &v.SortOrder, &v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle %d: %w", id, err)
	}
	v.Plate = plate.String
	return &v, nil
}

// ListVehicles returns a company's fleet ordered for display.
func (db *DB) ListVehicles(ctx context.Context, companyID int64, activeOnly bool) ([]models.Vehicle, error) {
	query := `
		SELECT id, company_id, name, plate, is_active, sort_order, created_at, updated_at
		FROM vehicles WHERE company_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY sort_order, name`

	rows, err := db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list vehicles for company %d: %w", companyID, err)
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		var plate sql.NullString
		if err := rows.Scan(&v.ID, &v.CompanyID, &v.Name, &plate, &v.IsActive, &v.SortOrder, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		v.Plate = plate.String
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}
