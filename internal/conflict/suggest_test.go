package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetdesk/internal/models"
)

func TestSuggest(t *testing.T) {
	an, a := testAnalyzer(t)

	pickupAt := func(date, clock string) time.Time {
		t.Helper()
		instant, err := a.At(dayOf(t, a, date), clock)
		require.NoError(t, err)
		return instant
	}

	t.Run("no blocking conflict yields no suggestions", func(t *testing.T) {
		clean := DayReport{Severity: SeveritySafe}
		out := an.Suggest(clean, clean, pickupAt("2026-01-12", "10:00"), pickupAt("2026-01-12", "18:00"))
		assert.Nil(t, out)
	})

	t.Run("pickup bound alone resolves", func(t *testing.T) {
		bound := pickupAt("2026-01-12", "14:00")
		blocked := DayReport{Severity: SeverityBlock, HasBlockingConflict: true, MinPickup: &bound}
		clean := DayReport{Severity: SeveritySafe}

		out := an.Suggest(blocked, clean, pickupAt("2026-01-12", "13:30"), pickupAt("2026-01-12", "20:00"))
		require.Len(t, out, 1)
		assert.Equal(t, SeveritySafe, out[0].Severity)
		assert.Equal(t, "14:00", out[0].Pickup)
		assert.Empty(t, out[0].Return)
		assert.False(t, out[0].Disabled)
	})

	t.Run("return bound alone resolves", func(t *testing.T) {
		bound := pickupAt("2026-01-14", "12:00")
		clean := DayReport{Severity: SeveritySafe}
		blocked := DayReport{Severity: SeverityBlock, HasBlockingConflict: true, MaxReturn: &bound}

		out := an.Suggest(clean, blocked, pickupAt("2026-01-12", "10:00"), pickupAt("2026-01-14", "15:00"))
		require.Len(t, out, 1)
		assert.Equal(t, "12:00", out[0].Return)
		assert.Empty(t, out[0].Pickup)
	})

	t.Run("both bounds needed and compatible", func(t *testing.T) {
		minPickup := pickupAt("2026-01-12", "11:00")
		maxReturn := pickupAt("2026-01-12", "16:00")
		pickupBlocked := DayReport{Severity: SeverityBlock, HasBlockingConflict: true, MinPickup: &minPickup}
		returnBlocked := DayReport{Severity: SeverityBlock, HasBlockingConflict: true, MaxReturn: &maxReturn}

		out := an.Suggest(pickupBlocked, returnBlocked, pickupAt("2026-01-12", "09:00"), pickupAt("2026-01-12", "18:00"))
		require.Len(t, out, 1)
		assert.Equal(t, "11:00", out[0].Pickup)
		assert.Equal(t, "16:00", out[0].Return)
		assert.Equal(t, SeveritySafe, out[0].Severity)
	})

	t.Run("incompatible bounds cannot be resolved", func(t *testing.T) {
		minPickup := pickupAt("2026-01-12", "16:00")
		maxReturn := pickupAt("2026-01-12", "11:00")
		pickupBlocked := DayReport{Severity: SeverityBlock, HasBlockingConflict: true, MinPickup: &minPickup}
		returnBlocked := DayReport{Severity: SeverityBlock, HasBlockingConflict: true, MaxReturn: &maxReturn}

		out := an.Suggest(pickupBlocked, returnBlocked, pickupAt("2026-01-12", "09:00"), pickupAt("2026-01-12", "18:00"))
		require.Len(t, out, 1)
		assert.True(t, out[0].Disabled)
		assert.Equal(t, SeverityBlock, out[0].Severity)
		assert.Equal(t, suggestImpossibleReason, out[0].Reason)
	})

	t.Run("blocking without bounds cannot be resolved", func(t *testing.T) {
		blocked := DayReport{Severity: SeverityBlock, HasBlockingConflict: true}
		clean := DayReport{Severity: SeveritySafe}

		out := an.Suggest(blocked, clean, pickupAt("2026-01-12", "10:00"), pickupAt("2026-01-12", "18:00"))
		require.Len(t, out, 1)
		assert.True(t, out[0].Disabled)
	})

	t.Run("pickup bound past the return time is no fix", func(t *testing.T) {
		bound := pickupAt("2026-01-12", "19:00")
		blocked := DayReport{Severity: SeverityBlock, HasBlockingConflict: true, MinPickup: &bound}
		clean := DayReport{Severity: SeveritySafe}

		out := an.Suggest(blocked, clean, pickupAt("2026-01-12", "10:00"), pickupAt("2026-01-12", "18:00"))
		require.Len(t, out, 1)
		assert.True(t, out[0].Disabled)
	})
}

func TestSuggest_FromAnalyzerOutput(t *testing.T) {
	an, a := testAnalyzer(t)

	// End-to-end: the analyzer's own bounds feed the generator.
	peer := mkOrder(t, a, orderSpec{id: 7, confirmed: true, start: "2026-01-10", end: "2026-01-12", pickup: "14:00", ret: "12:00"})
	edited := mkOrder(t, a, orderSpec{id: 9, start: "2026-01-12", pickup: "13:30", ret: "20:00"})

	report := an.AnalyzeDay(&edited, []models.Order{peer}, dayOf(t, a, "2026-01-12"), 2)
	require.True(t, report.HasBlockingConflict)

	out := an.Suggest(report, DayReport{Severity: SeveritySafe}, edited.PickupAt, edited.ReturnAt)
	require.Len(t, out, 1)
	assert.Equal(t, "14:00", out[0].Pickup)
	assert.False(t, out[0].Disabled)
}
