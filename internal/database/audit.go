package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fleetdesk/internal/override"
)

// AuditTableNames lists the tables included in audit exports.
var AuditTableNames = []string{
	"companies",
	"vehicles",
	"orders",
	"override_audit",
}

// SaveAuditEntry persists one committed override. The order snapshot and the
// overridden conflicts are stored as JSON so the record survives schema
// changes to the live tables.
func (db *DB) SaveAuditEntry(ctx context.Context, entry *override.AuditEntry) error {
	snapshot, err := json.Marshal(entry.Order)
	if err != nil {
		return fmt.Errorf("marshal order snapshot: %w", err)
	}
	overridden, err := json.Marshal(entry.Overridden)
	if err != nil {
		return fmt.Errorf("marshal overridden conflicts: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO override_audit (id, actor_id, actor_name, created_at, order_id,
			order_snapshot, overridden, reason, severity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ActorID, entry.ActorName, entry.CreatedAt.UTC(), entry.Order.ID,
		string(snapshot), string(overridden), entry.Reason, entry.Severity)
	if err != nil {
		return fmt.Errorf("save audit entry %s: %w", entry.ID, err)
	}
	return nil
}

// GetAuditEntries returns committed overrides newest first, up to limit.
func (db *DB) GetAuditEntries(ctx context.Context, limit int) ([]override.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, actor_id, actor_name, created_at, order_snapshot, overridden, reason, severity
		FROM override_audit ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get audit entries: %w", err)
	}
	defer rows.Close()

	var entries []override.AuditEntry
	for rows.Next() {
		var e override.AuditEntry
		var name, reason sql.NullString
		var snapshot, overridden string
		if err := rows.Scan(&e.ID, &e.ActorID, &name, &e.CreatedAt, &snapshot, &overridden, &reason, &e.Severity); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ActorName = name.String
		e.Reason = reason.String
		if err := json.Unmarshal([]byte(snapshot), &e.Order); err != nil {
			return nil, fmt.Errorf("unmarshal order snapshot: %w", err)
		}
		if err := json.Unmarshal([]byte(overridden), &e.Overridden); err != nil {
			return nil, fmt.Errorf("unmarshal overridden conflicts: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteOldAuditEntries removes override records older than the cutoff and
// returns how many were deleted.
func (db *DB) DeleteOldAuditEntries(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM override_audit WHERE created_at < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old audit entries: %w", err)
	}
	return res.RowsAffected()
}

// GetTableNames returns the list of table names to export.
func (db *DB) GetTableNames(ctx context.Context) ([]string, error) {
	return AuditTableNames, nil
}

// GetTableData returns all rows from a table as maps.
func (db *DB) GetTableData(ctx context.Context, tableName string) (data []map[string]interface{}, columns []string, err error) {
	// Validate table name to prevent SQL injection
	validTable := false
	for _, t := range AuditTableNames {
		if t == tableName {
			validTable = true
			break
		}
	}
	if !validTable {
		return nil, nil, fmt.Errorf("invalid table name: %s", tableName)
	}

	var rows *sql.Rows
	rows, err = db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return nil, nil, err
	}

	for rows.Next() {
		var cid int
		var name, typeName string
		var notNull, pk int
		var dfltValue sql.NullString
		if err = rows.Scan(&cid, &name, &typeName, &notNull, &dfltValue, &pk); err != nil {
			rows.Close()
			return nil, nil, err
		}
		columns = append(columns, name)
	}
	rows.Close()

	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("table %s has no columns", tableName)
	}

	var dataRows *sql.Rows
	dataRows, err = db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", tableName))
	if err != nil {
		return nil, nil, err
	}
	defer dataRows.Close()

	for dataRows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err = dataRows.Scan(valuePtrs...); err != nil {
			return nil, nil, err
		}

		row := make(map[string]interface{})
		for i, col := range columns {
			row[col] = values[i]
		}
		data = append(data, row)
	}

	return data, columns, dataRows.Err()
}

var _ override.Sink = (*DB)(nil)
