package availability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `{
  "avail-1": {
    "Monday": [
      {"startTime": "09:00", "endTime": "10:00", "status": "available"},
      {"startTime": "10:00", "endTime": "11:00", "status": "available"}
    ],
    "Tuesday": [
      {"startTime": "09:00", "endTime": "10:00", "status": "booked"}
    ]
  }
}`

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "availability.json")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	store, err := NewFileStore(path)
	require.NoError(t, err)
	return store, path
}

func TestGridReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)

	grid, err := store.Grid("avail-1")
	require.NoError(t, err)

	grid["Monday"][0].Status = StatusBooked

	again, err := store.Grid("avail-1")
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, again["Monday"][0].Status)
}

func TestGridUnknownTemplate(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Grid("avail-99")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTryBookFlipsAndPersists(t *testing.T) {
	store, path := newTestStore(t)

	require.NoError(t, store.TryBook("avail-1", "Monday", "09:00", "10:00"))

	grid, err := store.Grid("avail-1")
	require.NoError(t, err)
	assert.Equal(t, StatusBooked, grid["Monday"][0].Status)

	// The whole file is rewritten, so a fresh store sees the change.
	reloaded, err := NewFileStore(path)
	require.NoError(t, err)
	grid, err = reloaded.Grid("avail-1")
	require.NoError(t, err)
	assert.Equal(t, StatusBooked, grid["Monday"][0].Status)
}

func TestTryBookConflict(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.TryBook("avail-1", "Tuesday", "09:00", "10:00")
	assert.ErrorIs(t, err, ErrSlotBooked)
}

func TestTryBookMissingSlot(t *testing.T) {
	store, _ := newTestStore(t)

	assert.ErrorIs(t, store.TryBook("avail-1", "Monday", "13:00", "14:00"), ErrSlotNotFound)
	assert.ErrorIs(t, store.TryBook("avail-1", "Sunday", "09:00", "10:00"), ErrSlotNotFound)
	assert.ErrorIs(t, store.TryBook("avail-99", "Monday", "09:00", "10:00"), ErrTemplateNotFound)
}

func TestReleaseFreesSlot(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Release("avail-1", "Tuesday", "09:00", "10:00"))

	grid, err := store.Grid("avail-1")
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, grid["Tuesday"][0].Status)

	// Releasing an already free slot is a no-op.
	require.NoError(t, store.Release("avail-1", "Tuesday", "09:00", "10:00"))
}

func TestLoadRejectsDuplicateSlots(t *testing.T) {
	dup := `{
  "avail-1": {
    "Monday": [
      {"startTime": "09:00", "endTime": "10:00", "status": "available"},
      {"startTime": "09:00", "endTime": "10:00", "status": "available"}
    ]
  }
}`
	path := filepath.Join(t.TempDir(), "availability.json")
	require.NoError(t, os.WriteFile(path, []byte(dup), 0o644))

	_, err := NewFileStore(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate slot")
}
