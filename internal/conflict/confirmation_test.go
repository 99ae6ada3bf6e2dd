package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetdesk/internal/models"
)

func TestAnalyzeConfirmation(t *testing.T) {
	an, a := testAnalyzer(t)

	t.Run("already confirmed short-circuits", func(t *testing.T) {
		order := mkOrder(t, a, orderSpec{id: 1, confirmed: true, start: "2026-03-01", pickup: "10:00", ret: "18:00"})

		report := an.AnalyzeConfirmation(&order, nil, 2)
		assert.False(t, report.NeedsAnalysis)
		assert.True(t, report.CanConfirm)
	})

	t.Run("pending peers overlapping become affected", func(t *testing.T) {
		// Two pending reservations overlapping by 3 hours with buffer 1h.
		first := mkOrder(t, a, orderSpec{id: 1, start: "2026-03-01", pickup: "10:00", ret: "15:00"})
		second := mkOrder(t, a, orderSpec{id: 2, start: "2026-03-01", pickup: "12:00", ret: "20:00"})

		report := an.AnalyzeConfirmation(&first, []models.Order{second}, 1)
		assert.True(t, report.NeedsAnalysis)
		assert.True(t, report.CanConfirm)
		assert.Equal(t, []int64{2}, report.AffectedPending)
		assert.Equal(t, SeverityWarning, report.Severity)
		assert.NotEmpty(t, report.Summary)
	})

	t.Run("confirmed peer blocks the promotion", func(t *testing.T) {
		order := mkOrder(t, a, orderSpec{id: 1, start: "2026-03-01", pickup: "10:00", ret: "15:00"})
		peer := mkOrder(t, a, orderSpec{id: 2, confirmed: true, start: "2026-03-01", pickup: "14:00", ret: "20:00"})

		report := an.AnalyzeConfirmation(&order, []models.Order{peer}, 1)
		assert.False(t, report.CanConfirm)
		require.Len(t, report.Blocking, 1)
		assert.Equal(t, int64(2), report.Blocking[0].OrderID)
		assert.True(t, report.Blocking[0].IsBlocking)
		assert.True(t, report.Blocking[0].CanBeOverridden)
		assert.Equal(t, SeverityBlock, report.Severity)
		assert.Contains(t, report.Summary, "#2")
	})

	t.Run("checks the whole span not single days", func(t *testing.T) {
		// The orders touch on disjoint days but their full spans are closer
		// than the buffer allows.
		order := mkOrder(t, a, orderSpec{id: 1, start: "2026-03-01", end: "2026-03-03", pickup: "10:00", ret: "22:00"})
		peer := mkOrder(t, a, orderSpec{id: 2, confirmed: true, start: "2026-03-04", end: "2026-03-05", pickup: "00:30", ret: "18:00"})

		report := an.AnalyzeConfirmation(&order, []models.Order{peer}, 4)
		assert.False(t, report.CanConfirm)
	})

	t.Run("exact buffer separation confirms cleanly", func(t *testing.T) {
		order := mkOrder(t, a, orderSpec{id: 1, start: "2026-03-01", pickup: "08:00", ret: "12:00"})
		peer := mkOrder(t, a, orderSpec{id: 2, confirmed: true, start: "2026-03-01", pickup: "14:00", ret: "20:00"})

		report := an.AnalyzeConfirmation(&order, []models.Order{peer}, 2)
		assert.True(t, report.CanConfirm)
		assert.Empty(t, report.AffectedPending)
		assert.Equal(t, SeveritySafe, report.Severity)
	})

	t.Run("ignores self and cancelled peers", func(t *testing.T) {
		order := mkOrder(t, a, orderSpec{id: 5, start: "2026-03-01", pickup: "10:00", ret: "18:00"})
		self := mkOrder(t, a, orderSpec{id: 5, confirmed: true, start: "2026-03-01", pickup: "10:00", ret: "18:00"})
		gone := mkOrder(t, a, orderSpec{id: 6, confirmed: true, cancelled: true, start: "2026-03-01", pickup: "10:00", ret: "18:00"})

		report := an.AnalyzeConfirmation(&order, []models.Order{self, gone}, 2)
		assert.True(t, report.CanConfirm)
		assert.Empty(t, report.Blocking)
	})
}

func TestCanBeConfirmed(t *testing.T) {
	an, a := testAnalyzer(t)

	t.Run("blocked by confirmed peer", func(t *testing.T) {
		order := mkOrder(t, a, orderSpec{id: 1, start: "2026-04-01", pickup: "10:00", ret: "15:00"})
		peer := mkOrder(t, a, orderSpec{id: 2, confirmed: true, start: "2026-04-01", pickup: "14:00", ret: "20:00"})

		q := an.CanBeConfirmed(&order, []models.Order{peer}, 1)
		assert.False(t, q.CanConfirm)
		assert.Equal(t, int64(2), q.BlockingOrderID)
		assert.NotEmpty(t, q.Message)
	})

	t.Run("pending peers do not block the query", func(t *testing.T) {
		order := mkOrder(t, a, orderSpec{id: 1, start: "2026-04-01", pickup: "10:00", ret: "15:00"})
		peer := mkOrder(t, a, orderSpec{id: 2, start: "2026-04-01", pickup: "14:00", ret: "20:00"})

		q := an.CanBeConfirmed(&order, []models.Order{peer}, 1)
		assert.True(t, q.CanConfirm)
		assert.Zero(t, q.BlockingOrderID)
	})

	t.Run("already confirmed answers yes", func(t *testing.T) {
		order := mkOrder(t, a, orderSpec{id: 1, confirmed: true, start: "2026-04-01"})
		q := an.CanBeConfirmed(&order, nil, 1)
		assert.True(t, q.CanConfirm)
	})

	t.Run("cancelled order answers no", func(t *testing.T) {
		order := mkOrder(t, a, orderSpec{id: 1, cancelled: true, start: "2026-04-01"})
		q := an.CanBeConfirmed(&order, nil, 1)
		assert.False(t, q.CanConfirm)
	})
}
