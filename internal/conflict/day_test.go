package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetdesk/internal/anchor"
	"fleetdesk/internal/models"
)

type orderSpec struct {
	id        int64
	confirmed bool
	customer  bool
	cancelled bool
	start     string // YYYY-MM-DD
	end       string
	pickup    string // HH:MM, defaults to 10:00
	ret       string // HH:MM, defaults to 18:00
}

func testAnalyzer(t *testing.T) (*Analyzer, *anchor.Anchor) {
	t.Helper()
	a, err := anchor.New("Europe/Athens")
	require.NoError(t, err)
	return NewAnalyzer(a), a
}

func mkOrder(t *testing.T, a *anchor.Anchor, spec orderSpec) models.Order {
	t.Helper()

	start, err := time.ParseInLocation("2006-01-02", spec.start, a.Location())
	require.NoError(t, err)
	end := start
	if spec.end != "" {
		end, err = time.ParseInLocation("2006-01-02", spec.end, a.Location())
		require.NoError(t, err)
	}

	pickup := spec.pickup
	if pickup == "" {
		pickup = "10:00"
	}
	ret := spec.ret
	if ret == "" {
		ret = "18:00"
	}

	pickupAt, err := a.At(start, pickup)
	require.NoError(t, err)
	returnAt, err := a.At(end, ret)
	require.NoError(t, err)

	o := models.Order{
		ID:                 spec.id,
		VehicleID:          1,
		StartDate:          start,
		EndDate:            end,
		PickupAt:           pickupAt,
		ReturnAt:           returnAt,
		Confirmed:          spec.confirmed,
		CustomerOriginated: spec.customer,
	}
	if spec.cancelled {
		now := time.Now()
		o.CancelledAt = &now
	}
	return o
}

func dayOf(t *testing.T, a *anchor.Anchor, date string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", date, a.Location())
	require.NoError(t, err)
	return d
}

func TestAnalyzeDay_PrecedenceTable(t *testing.T) {
	an, a := testAnalyzer(t)
	date := dayOf(t, a, "2026-03-10")

	// A fixed pair of overlapping same-day intervals, 10:00-14:00 vs 12:00-18:00.
	tests := []struct {
		name            string
		editedConfirmed bool
		peerConfirmed   bool
		expected        Severity
	}{
		{"confirmed vs pending warns", true, false, SeverityWarning},
		{"pending vs confirmed blocks", false, true, SeverityBlock},
		{"pending vs pending warns", false, false, SeverityWarning},
		{"confirmed vs confirmed blocks", true, true, SeverityBlock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edited := mkOrder(t, a, orderSpec{id: 1, confirmed: tt.editedConfirmed, start: "2026-03-10", pickup: "10:00", ret: "14:00"})
			peer := mkOrder(t, a, orderSpec{id: 2, confirmed: tt.peerConfirmed, start: "2026-03-10", pickup: "12:00", ret: "18:00"})

			report := an.AnalyzeDay(&edited, []models.Order{peer}, date, 0)
			assert.Equal(t, tt.expected, report.Severity)
			assert.Equal(t, tt.expected == SeverityBlock, report.HasBlockingConflict)
			assert.NotEmpty(t, report.Summary)
		})
	}
}

func TestAnalyzeDay_MinPickupBound(t *testing.T) {
	an, a := testAnalyzer(t)

	// Confirmed reservation 2026-01-10 14:00 -> 2026-01-12 12:00, buffer 2h.
	peer := mkOrder(t, a, orderSpec{id: 7, confirmed: true, start: "2026-01-10", end: "2026-01-12", pickup: "14:00", ret: "12:00"})
	date := dayOf(t, a, "2026-01-12")

	t.Run("pickup 13:30 blocks with bound 14:00", func(t *testing.T) {
		edited := mkOrder(t, a, orderSpec{id: 9, start: "2026-01-12", pickup: "13:30", ret: "20:00"})

		report := an.AnalyzeDay(&edited, []models.Order{peer}, date, 2)
		assert.True(t, report.HasBlockingConflict)
		require.NotNil(t, report.MinPickup)
		assert.Equal(t, "14:00", a.ClockString(*report.MinPickup))
		assert.Nil(t, report.MaxReturn)
	})

	t.Run("pickup moved to 14:00 is clean", func(t *testing.T) {
		edited := mkOrder(t, a, orderSpec{id: 9, start: "2026-01-12", pickup: "14:00", ret: "20:00"})

		report := an.AnalyzeDay(&edited, []models.Order{peer}, date, 2)
		assert.False(t, report.HasBlockingConflict)
		assert.Equal(t, SeveritySafe, report.Severity)
		assert.Empty(t, report.Summary)
	})
}

func TestAnalyzeDay_MaxReturnBound(t *testing.T) {
	an, a := testAnalyzer(t)

	// Confirmed peer starts on the target date at 16:00; editing order must
	// return by 14:00 given a 2h buffer.
	peer := mkOrder(t, a, orderSpec{id: 3, confirmed: true, start: "2026-02-05", end: "2026-02-07", pickup: "16:00", ret: "12:00"})
	edited := mkOrder(t, a, orderSpec{id: 4, start: "2026-02-05", pickup: "08:00", ret: "15:00"})

	report := an.AnalyzeDay(&edited, []models.Order{peer}, dayOf(t, a, "2026-02-05"), 2)
	assert.True(t, report.HasBlockingConflict)
	require.NotNil(t, report.MaxReturn)
	assert.Equal(t, "14:00", a.ClockString(*report.MaxReturn))
}

func TestAnalyzeDay_TightestBoundsAcrossPeers(t *testing.T) {
	an, a := testAnalyzer(t)
	date := dayOf(t, a, "2026-04-10")

	// Two confirmed peers end on the target date; the later return wins.
	early := mkOrder(t, a, orderSpec{id: 1, confirmed: true, start: "2026-04-08", end: "2026-04-10", pickup: "10:00", ret: "09:00"})
	late := mkOrder(t, a, orderSpec{id: 2, confirmed: true, start: "2026-04-09", end: "2026-04-10", pickup: "10:00", ret: "11:00"})
	edited := mkOrder(t, a, orderSpec{id: 3, start: "2026-04-10", pickup: "09:30", ret: "22:00"})

	report := an.AnalyzeDay(&edited, []models.Order{early, late}, date, 1)
	assert.True(t, report.HasBlockingConflict)
	require.NotNil(t, report.MinPickup)
	assert.Equal(t, "12:00", a.ClockString(*report.MinPickup))
}

func TestAnalyzeDay_MiddleDayOccupiesFullDay(t *testing.T) {
	an, a := testAnalyzer(t)

	// The peer's middle day blocks the whole day even though its pickup and
	// return clocks look harmless.
	peer := mkOrder(t, a, orderSpec{id: 5, confirmed: true, start: "2026-05-01", end: "2026-05-03", pickup: "23:00", ret: "01:00"})
	edited := mkOrder(t, a, orderSpec{id: 6, start: "2026-05-02", pickup: "10:00", ret: "12:00"})

	report := an.AnalyzeDay(&edited, []models.Order{peer}, dayOf(t, a, "2026-05-02"), 0)
	assert.True(t, report.HasBlockingConflict)
}

func TestAnalyzeDay_IgnoresSelfAndCancelled(t *testing.T) {
	an, a := testAnalyzer(t)
	date := dayOf(t, a, "2026-06-01")

	edited := mkOrder(t, a, orderSpec{id: 11, start: "2026-06-01", pickup: "10:00", ret: "18:00"})
	self := mkOrder(t, a, orderSpec{id: 11, confirmed: true, start: "2026-06-01", pickup: "10:00", ret: "18:00"})
	gone := mkOrder(t, a, orderSpec{id: 12, confirmed: true, cancelled: true, start: "2026-06-01", pickup: "10:00", ret: "18:00"})

	report := an.AnalyzeDay(&edited, []models.Order{self, gone}, date, 2)
	assert.False(t, report.HasBlockingConflict)
	assert.Equal(t, SeveritySafe, report.Severity)
}

func TestAnalyzeDay_BlockingSuppressesWarning(t *testing.T) {
	an, a := testAnalyzer(t)
	date := dayOf(t, a, "2026-07-01")

	pendingPeer := mkOrder(t, a, orderSpec{id: 21, start: "2026-07-01", pickup: "09:00", ret: "11:00"})
	confirmedPeer := mkOrder(t, a, orderSpec{id: 22, confirmed: true, start: "2026-07-01", pickup: "12:00", ret: "15:00"})
	edited := mkOrder(t, a, orderSpec{id: 23, start: "2026-07-01", pickup: "10:00", ret: "13:00"})

	report := an.AnalyzeDay(&edited, []models.Order{pendingPeer, confirmedPeer}, date, 0)
	assert.True(t, report.HasBlockingConflict)
	assert.Equal(t, SeverityBlock, report.Severity)
	assert.Contains(t, report.Summary, "#22")
}

func TestAnalyzeDay_DateOutsideRange(t *testing.T) {
	an, a := testAnalyzer(t)

	edited := mkOrder(t, a, orderSpec{id: 1, start: "2026-08-01", pickup: "10:00", ret: "18:00"})
	peer := mkOrder(t, a, orderSpec{id: 2, confirmed: true, start: "2026-08-02", pickup: "10:00", ret: "18:00"})

	report := an.AnalyzeDay(&edited, []models.Order{peer}, dayOf(t, a, "2026-08-02"), 0)
	assert.Equal(t, SeveritySafe, report.Severity)
	assert.False(t, report.HasBlockingConflict)
}
