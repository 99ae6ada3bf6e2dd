package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"fleetdesk/internal/models"
)

// CreateCompany inserts a company and fills in its ID.
func (db *DB) CreateCompany(ctx context.Context, c *models.Company) error {
	res, err := db.ExecContext(ctx,
		`INSERT INTO companies (name, buffer_hours) VALUES (?, ?)`,
		c.Name, c.BufferHours)
	if err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create company id: %w", err)
	}
	c.ID = id
	db.invalidateBuffer(ctx, id)
	return nil
}

// GetCompany fetches a company by ID.
func (db *DB) GetCompany(ctx context.Context, id int64) (*models.Company, error) {
	var c models.Company
	var buffer sql.NullFloat64
	err := db.QueryRowContext(ctx,
		`SELECT id, name, buffer_hours FROM companies WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &buffer)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get company %d: %w", id, err)
	}
	if buffer.Valid {
		c.BufferHours = &buffer.Float64
	}
	return &c, nil
}

// SetCompanyBuffer updates a company's buffer configuration. A nil value
// reverts the company to the system-wide fallback.
func (db *DB) SetCompanyBuffer(ctx context.Context, companyID int64, hours *float64) error {
	res, err := db.ExecContext(ctx,
		`UPDATE companies SET buffer_hours = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		hours, companyID)
	if err != nil {
		return fmt.Errorf("set company buffer %d: %w", companyID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	db.invalidateBuffer(ctx, companyID)
	return nil
}

// BufferHoursFor resolves the buffer that applies to a company's vehicles.
// An unknown company or an unset buffer falls back to the configured default,
// so callers always get a usable value.
func (db *DB) BufferHoursFor(ctx context.Context, companyID int64) (float64, error) {
	cacheKey := bufferCacheKey(companyID)
	var cached float64
	if db.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	company, err := db.GetCompany(ctx, companyID)
	if err == ErrNotFound {
		return db.bufferFallback, nil
	}
	if err != nil {
		return 0, err
	}

	hours := db.bufferFallback
	if company.BufferHours != nil && *company.BufferHours >= 0 {
		hours = *company.BufferHours
	}

	db.writeCache(ctx, cacheKey, hours)
	return hours, nil
}

func bufferCacheKey(companyID int64) string {
	return fmt.Sprintf("buffer:%d", companyID)
}

func (db *DB) invalidateBuffer(ctx context.Context, companyID int64) {
	if db.redis == nil {
		return
	}
	if err := db.redis.Del(ctx, bufferCacheKey(companyID)).Err(); err != nil {
		db.logger.Warn().Err(err).Int64("company_id", companyID).Msg("Failed to invalidate buffer cache")
	}
}

func (db *DB) readCache(ctx context.Context, key string, out any) bool {
	if db.redis == nil || db.cacheTTL <= 0 {
		return false
	}
	val, err := db.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (db *DB) writeCache(ctx context.Context, key string, val any) {
	if db.redis == nil || db.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = db.redis.Set(ctx, key, data, db.cacheTTL).Err()
}
