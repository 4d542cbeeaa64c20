package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicgrid/hospital-booking/internal/availability"
)

func TestReconcileFreesOrphanSlots(t *testing.T) {
	svc, repo, slots := newTestService(t)

	appt, err := svc.Book(context.Background(), validBooking())
	require.NoError(t, err)

	// Orphan the slot: drop the row without going through Cancel, as a
	// crash between the flip and the durable write would.
	delete(repo.rows, appt.ID)

	freed, err := svc.ReconcileSlots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, freed)

	grid, err := slots.Grid("avail-001")
	require.NoError(t, err)
	assert.Equal(t, availability.StatusAvailable, grid["Monday"][0].Status)
}

func TestReconcileKeepsBackedSlots(t *testing.T) {
	svc, _, slots := newTestService(t)

	_, err := svc.Book(context.Background(), validBooking())
	require.NoError(t, err)

	freed, err := svc.ReconcileSlots(context.Background())
	require.NoError(t, err)
	assert.Zero(t, freed)

	grid, err := slots.Grid("avail-001")
	require.NoError(t, err)
	assert.Equal(t, availability.StatusBooked, grid["Monday"][0].Status)
}

func TestReconcileUsesRecomputedDay(t *testing.T) {
	svc, repo, slots := newTestService(t)

	appt, err := svc.Book(context.Background(), validBooking())
	require.NoError(t, err)

	// Drift the cached day; the stored date still resolves to Monday, so
	// the booked slot stays accounted for.
	row := repo.rows[appt.ID]
	row.Day = "Friday"
	repo.rows[appt.ID] = row

	freed, err := svc.ReconcileSlots(context.Background())
	require.NoError(t, err)
	assert.Zero(t, freed)

	grid, err := slots.Grid("avail-001")
	require.NoError(t, err)
	assert.Equal(t, availability.StatusBooked, grid["Monday"][0].Status)
}
