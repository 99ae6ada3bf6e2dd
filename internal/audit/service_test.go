package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExporter struct {
	tables map[string][]map[string]interface{}
	cols   map[string][]string
}

func (f *fakeExporter) GetTableNames(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(f.tables))
	for name := range f.tables {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeExporter) GetTableData(ctx context.Context, tableName string) ([]map[string]interface{}, []string, error) {
	return f.tables[tableName], f.cols[tableName], nil
}

type fakeCleaner struct {
	cutoff  time.Time
	deleted int64
}

func (f *fakeCleaner) DeleteOldAuditEntries(ctx context.Context, olderThan time.Time) (int64, error) {
	f.cutoff = olderThan
	return f.deleted, nil
}

func TestGenerateFilename(t *testing.T) {
	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "fleet_audit_2026-01.xlsx", GenerateFilename(jan))
	// February's scheduled run covers January.
	feb := time.Date(2026, 2, 1, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, "fleet_audit_2026-01.xlsx", GenerateFilenameForPreviousMonth(feb))
}

func TestExportNowWritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	exporter := &fakeExporter{
		tables: map[string][]map[string]interface{}{
			"orders": {{"id": int64(1), "client_name": "Maria K"}},
		},
		cols: map[string][]string{
			"orders": {"id", "client_name"},
		},
	}

	svc := NewService(&Config{RetentionDays: 30, ExportDir: dir},
		exporter, NewExcelizeWriter, nil, zerolog.Nop())

	require.NoError(t, svc.ExportNow())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, GenerateFilenameForPreviousMonth(time.Now()), entries[0].Name())

	info, err := os.Stat(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestCleanupNowHonorsRetention(t *testing.T) {
	cleaner := &fakeCleaner{deleted: 3}
	svc := NewService(&Config{RetentionDays: 90, ExportDir: t.TempDir()},
		nil, nil, cleaner, zerolog.Nop())

	require.NoError(t, svc.CleanupNow())

	wantCutoff := time.Now().AddDate(0, 0, -90)
	assert.WithinDuration(t, wantCutoff, cleaner.cutoff, time.Minute)
}

func TestStartStopIdempotent(t *testing.T) {
	svc := NewService(DefaultConfig(), &fakeExporter{}, NewExcelizeWriter, nil, zerolog.Nop())
	svc.Start()
	svc.Start()
	svc.Stop()
	svc.Stop()
}
