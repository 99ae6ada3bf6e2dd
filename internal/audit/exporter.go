// Package audit produces periodic Excel snapshots of the reservation tables
// and prunes old override records.
package audit

import (
	"context"
	"fmt"
	"io"
	"time"
)

// TableExporter provides access to database tables for export.
type TableExporter interface {
	// GetTableNames returns list of table names to export.
	GetTableNames(ctx context.Context) ([]string, error)

	// GetTableData returns rows for a table as maps.
	GetTableData(ctx context.Context, tableName string) ([]map[string]interface{}, []string, error)
}

// ExcelWriter writes data to Excel format.
type ExcelWriter interface {
	// AddSheet adds a new sheet with the given name.
	AddSheet(name string) error

	// WriteHeader writes column headers to current sheet.
	WriteHeader(columns []string) error

	// WriteRow writes a data row to current sheet.
	WriteRow(row []interface{}) error

	// Save writes the Excel file to the writer.
	Save(w io.Writer) error

	// SaveToFile writes the Excel file to disk.
	SaveToFile(path string) error
}

// RecordCleaner prunes audit records past their retention window.
type RecordCleaner interface {
	DeleteOldAuditEntries(ctx context.Context, olderThan time.Time) (int64, error)
}

// GenerateFilename creates a filename like "fleet_audit_2026-01.xlsx".
func GenerateFilename(t time.Time) string {
	return fmt.Sprintf("fleet_audit_%s.xlsx", t.Format("2006-01"))
}

// GenerateFilenameForPreviousMonth creates the filename for the month just
// ended, which is what the scheduled export covers.
func GenerateFilenameForPreviousMonth(now time.Time) string {
	return GenerateFilename(now.AddDate(0, -1, 0))
}
