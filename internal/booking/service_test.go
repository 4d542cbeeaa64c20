package booking

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicgrid/hospital-booking/internal/availability"
	"github.com/clinicgrid/hospital-booking/internal/directory"
)

// fakeRepo is an in-memory Repository with injectable failures.
type fakeRepo struct {
	nextID    int64
	rows      map[int64]Appointment
	insertErr error
	updateErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[int64]Appointment)}
}

func (r *fakeRepo) Insert(_ context.Context, a Appointment) (*Appointment, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	r.nextID++
	a.ID = r.nextID
	r.rows[a.ID] = a
	return &a, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*Appointment, error) {
	a, ok := r.rows[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*Appointment, error) {
	for _, a := range r.rows {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (r *fakeRepo) List(_ context.Context) ([]Appointment, error) {
	out := make([]Appointment, 0, len(r.rows))
	for id := int64(1); id <= r.nextID; id++ {
		if a, ok := r.rows[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepo) Update(_ context.Context, id int64, date, day, startTime, endTime, purpose string) (*Appointment, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	a, ok := r.rows[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Date = date
	a.Day = day
	a.StartTime = startTime
	a.EndTime = endTime
	a.PurposeOfMeet = purpose
	r.rows[id] = a
	return &a, nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.rows[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.rows, id)
	return nil
}

type noopLocker struct{}

func (noopLocker) WithTemplateLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

const slotFixture = `{
  "avail-001": {
    "Monday": [
      {"startTime": "09:00", "endTime": "10:00", "status": "available"},
      {"startTime": "10:00", "endTime": "11:00", "status": "available"}
    ],
    "Tuesday": [
      {"startTime": "09:00", "endTime": "10:00", "status": "available"}
    ]
  }
}`

func testDirectory() *directory.Store {
	return directory.New(
		[]directory.Hospital{{
			ID:   "hosp-01",
			Name: "Saint-Louis",
			City: "Paris",
			Branches: []directory.Branch{
				{ID: "branch-01", Name: "Centre", SpecializationIDs: []string{"spec-01"}},
			},
		}},
		[]directory.Specialization{{ID: "spec-01", Name: "Cardiology"}},
		[]directory.Doctor{{
			ID:               "doc-001",
			Name:             "Dr. Mercier",
			SpecializationID: "spec-01",
			BranchID:         "branch-01",
			AvailabilityID:   "avail-001",
		}},
	)
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *availability.FileStore) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "availability.json")
	require.NoError(t, os.WriteFile(path, []byte(slotFixture), 0o644))
	slots, err := availability.NewFileStore(path)
	require.NoError(t, err)

	repo := newFakeRepo()
	svc := NewService(repo, testDirectory(), slots, noopLocker{}, nil)
	return svc, repo, slots
}

// 2024-03-11 is a Monday.
func validBooking() BookRequest {
	return BookRequest{
		PatientName:   "Alice Martin",
		PhoneNo:       "0611223344",
		Age:           34,
		PurposeOfMeet: "checkup",
		DoctorID:      "doc-001",
		Date:          "2024-03-11",
		StartTime:     "09:00",
		EndTime:       "10:00",
		Email:         "alice@example.com",
	}
}

func TestDayOfWeek(t *testing.T) {
	day, err := DayOfWeek("2024-03-11")
	require.NoError(t, err)
	assert.Equal(t, "Monday", day)

	day, err = DayOfWeek("2024-03-17")
	require.NoError(t, err)
	assert.Equal(t, "Sunday", day)

	_, err = DayOfWeek("11-03-2024")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBookMarksSlotBooked(t *testing.T) {
	svc, repo, slots := newTestService(t)

	appt, err := svc.Book(context.Background(), validBooking())
	require.NoError(t, err)

	assert.Equal(t, int64(1), appt.ID)
	assert.Equal(t, "Monday", appt.Day)
	assert.Len(t, repo.rows, 1)

	grid, err := slots.Grid("avail-001")
	require.NoError(t, err)
	assert.Equal(t, availability.StatusBooked, grid["Monday"][0].Status)
	assert.Equal(t, availability.StatusAvailable, grid["Monday"][1].Status)
}

func TestBookSameSlotTwiceConflicts(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.Book(context.Background(), validBooking())
	require.NoError(t, err)

	second := validBooking()
	second.PatientName = "Bob Durand"
	second.Email = "bob@example.com"
	_, err = svc.Book(context.Background(), second)
	assert.ErrorIs(t, err, availability.ErrSlotBooked)

	assert.Len(t, repo.rows, 1, "conflict must not add a second row")
}

func TestBookValidationFailsBeforeAnyMutation(t *testing.T) {
	svc, repo, slots := newTestService(t)

	cases := map[string]func(*BookRequest){
		"malformed date": func(r *BookRequest) { r.Date = "11-03-2024" },
		"bad email":      func(r *BookRequest) { r.Email = "not-an-email" },
		"no patient":     func(r *BookRequest) { r.PatientName = "" },
		"no purpose":     func(r *BookRequest) { r.PurposeOfMeet = "" },
		"no start":       func(r *BookRequest) { r.StartTime = "" },
	}

	for name, mutate := range cases {
		req := validBooking()
		mutate(&req)
		_, err := svc.Book(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}

	assert.Empty(t, repo.rows)
	grid, err := slots.Grid("avail-001")
	require.NoError(t, err)
	assert.Equal(t, availability.StatusAvailable, grid["Monday"][0].Status)
}

func TestBookUnknownDoctor(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := validBooking()
	req.DoctorID = "doc-404"
	_, err := svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, directory.ErrDoctorNotFound)
}

func TestBookMissingWeeklySlot(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := validBooking()
	req.StartTime = "13:00"
	req.EndTime = "14:00"
	_, err := svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, availability.ErrSlotNotFound)

	// 2024-03-17 is a Sunday; the template has no Sunday slots.
	req = validBooking()
	req.Date = "2024-03-17"
	_, err = svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, availability.ErrSlotNotFound)
}

func TestBookRevertsSlotWhenInsertFails(t *testing.T) {
	svc, repo, slots := newTestService(t)
	repo.insertErr = errors.New("connection reset")

	_, err := svc.Book(context.Background(), validBooking())
	require.Error(t, err)

	grid, err := slots.Grid("avail-001")
	require.NoError(t, err)
	assert.Equal(t, availability.StatusAvailable, grid["Monday"][0].Status,
		"failed insert must not leave the slot booked")
}

func bookedCount(t *testing.T, slots *availability.FileStore, id string) int {
	t.Helper()
	grid, err := slots.Grid(id)
	require.NoError(t, err)
	n := 0
	for _, day := range grid {
		for _, s := range day {
			if s.Status == availability.StatusBooked {
				n++
			}
		}
	}
	return n
}

func TestRescheduleMovesBooking(t *testing.T) {
	svc, _, slots := newTestService(t)

	appt, err := svc.Book(context.Background(), validBooking())
	require.NoError(t, err)

	// 2024-03-12 is a Tuesday.
	updated, err := svc.Reschedule(context.Background(), appt.ID, RescheduleRequest{
		Date:          "2024-03-12",
		StartTime:     "09:00",
		EndTime:       "10:00",
		PurposeOfMeet: "follow-up",
	})
	require.NoError(t, err)

	assert.Equal(t, "Tuesday", updated.Day)
	assert.Equal(t, "2024-03-12", updated.Date)
	assert.Equal(t, "follow-up", updated.PurposeOfMeet)

	grid, err := slots.Grid("avail-001")
	require.NoError(t, err)
	assert.Equal(t, availability.StatusAvailable, grid["Monday"][0].Status, "old slot freed")
	assert.Equal(t, availability.StatusBooked, grid["Tuesday"][0].Status, "new slot booked")
	assert.Equal(t, 1, bookedCount(t, slots, "avail-001"), "total booked count unchanged")
}

func TestRescheduleToBookedSlotConflicts(t *testing.T) {
	svc, _, slots := newTestService(t)

	first, err := svc.Book(context.Background(), validBooking())
	require.NoError(t, err)

	second := validBooking()
	second.StartTime = "10:00"
	second.EndTime = "11:00"
	second.Email = "bob@example.com"
	_, err = svc.Book(context.Background(), second)
	require.NoError(t, err)

	_, err = svc.Reschedule(context.Background(), first.ID, RescheduleRequest{
		Date:          "2024-03-11",
		StartTime:     "10:00",
		EndTime:       "11:00",
		PurposeOfMeet: "checkup",
	})
	assert.ErrorIs(t, err, availability.ErrSlotBooked)

	// Nothing moved.
	grid, err := slots.Grid("avail-001")
	require.NoError(t, err)
	assert.Equal(t, availability.StatusBooked, grid["Monday"][0].Status)
	assert.Equal(t, availability.StatusBooked, grid["Monday"][1].Status)
}

func TestRescheduleRevertsNewSlotWhenUpdateFails(t *testing.T) {
	svc, repo, slots := newTestService(t)

	appt, err := svc.Book(context.Background(), validBooking())
	require.NoError(t, err)

	repo.updateErr = errors.New("connection reset")
	_, err = svc.Reschedule(context.Background(), appt.ID, RescheduleRequest{
		Date:          "2024-03-12",
		StartTime:     "09:00",
		EndTime:       "10:00",
		PurposeOfMeet: "follow-up",
	})
	require.Error(t, err)

	grid, err := slots.Grid("avail-001")
	require.NoError(t, err)
	assert.Equal(t, availability.StatusBooked, grid["Monday"][0].Status, "old slot stays booked")
	assert.Equal(t, availability.StatusAvailable, grid["Tuesday"][0].Status, "new slot reverted")
}

func TestRescheduleUnknownAppointment(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Reschedule(context.Background(), 42, RescheduleRequest{
		Date:          "2024-03-12",
		StartTime:     "09:00",
		EndTime:       "10:00",
		PurposeOfMeet: "follow-up",
	})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestCancelRemovesRowAndFreesSlot(t *testing.T) {
	svc, _, slots := newTestService(t)

	appt, err := svc.Book(context.Background(), validBooking())
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), appt.ID))

	_, err = svc.AppointmentByID(context.Background(), appt.ID)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	grid, err := slots.Grid("avail-001")
	require.NoError(t, err)
	assert.Equal(t, availability.StatusAvailable, grid["Monday"][0].Status)
}

func TestCancelUnknownAppointment(t *testing.T) {
	svc, _, _ := newTestService(t)
	assert.ErrorIs(t, svc.Cancel(context.Background(), 42), ErrAppointmentNotFound)
}

func TestCancelFreesSlotByRecomputedDay(t *testing.T) {
	svc, repo, slots := newTestService(t)

	appt, err := svc.Book(context.Background(), validBooking())
	require.NoError(t, err)

	// Simulate a drifted cached day on the row; the date still says Monday.
	row := repo.rows[appt.ID]
	row.Day = "Friday"
	repo.rows[appt.ID] = row

	require.NoError(t, svc.Cancel(context.Background(), appt.ID))

	grid, err := slots.Grid("avail-001")
	require.NoError(t, err)
	assert.Equal(t, availability.StatusAvailable, grid["Monday"][0].Status)
}

func TestAppointmentByEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AppointmentByEmail(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AppointmentByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	appt, err := svc.Book(context.Background(), validBooking())
	require.NoError(t, err)

	detail, err := svc.AppointmentByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, appt.ID, detail.ID)
	assert.Equal(t, "Dr. Mercier", detail.DoctorName)
	assert.Equal(t, "Cardiology", detail.Specialization)
	assert.Equal(t, "Centre", detail.Branch)
}

func TestAppointmentsEnriched(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Book(context.Background(), validBooking())
	require.NoError(t, err)

	details, err := svc.Appointments(context.Background())
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Dr. Mercier", details[0].DoctorName)
}

func TestDoctorAvailability(t *testing.T) {
	svc, _, _ := newTestService(t)

	grid, err := svc.DoctorAvailability("doc-001")
	require.NoError(t, err)
	assert.Len(t, grid["Monday"], 2)

	_, err = svc.DoctorAvailability("doc-404")
	assert.ErrorIs(t, err, directory.ErrDoctorNotFound)

	grid, err = svc.TemplateAvailability("avail-001")
	require.NoError(t, err)
	assert.Len(t, grid["Monday"], 2)
}
