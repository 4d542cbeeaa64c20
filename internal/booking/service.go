package booking

import (
	"context"
	"fmt"
	"log"
	"regexp"

	"github.com/clinicgrid/hospital-booking/internal/availability"
	"github.com/clinicgrid/hospital-booking/internal/directory"
	"github.com/clinicgrid/hospital-booking/internal/notify"
	redisclient "github.com/clinicgrid/hospital-booking/internal/redis"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Service struct {
	repo   Repository
	dir    *directory.Store
	slots  availability.Store
	locker redisclient.Locker
	email  notify.Sender
}

// NewService wires the booking service. email may be nil to disable
// confirmation messages.
func NewService(repo Repository, dir *directory.Store, slots availability.Store, locker redisclient.Locker, email notify.Sender) *Service {
	return &Service{
		repo:   repo,
		dir:    dir,
		slots:  slots,
		locker: locker,
		email:  email,
	}
}

type BookRequest struct {
	PatientName   string
	PhoneNo       string
	Age           int
	PurposeOfMeet string
	DoctorID      string
	Date          string
	StartTime     string
	EndTime       string
	Email         string
}

type RescheduleRequest struct {
	Date          string
	StartTime     string
	EndTime       string
	PurposeOfMeet string
}

// Book reserves the weekly slot matching the request and records the dated
// appointment. The slot flip and the durable insert run inside the
// per-template lock; if the insert fails the flip is reverted, so a failed
// write cannot leave a slot booked with no row behind it.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	if err := validateBooking(req); err != nil {
		return nil, err
	}

	day, err := DayOfWeek(req.Date)
	if err != nil {
		return nil, err
	}

	doctor, err := s.dir.DoctorByID(req.DoctorID)
	if err != nil {
		return nil, err
	}

	var created *Appointment

	err = s.locker.WithTemplateLock(ctx, doctor.AvailabilityID, func(lockCtx context.Context) error {
		if err := s.slots.TryBook(doctor.AvailabilityID, day, req.StartTime, req.EndTime); err != nil {
			return err
		}

		appt, err := s.repo.Insert(lockCtx, Appointment{
			PatientName:   req.PatientName,
			PhoneNo:       req.PhoneNo,
			Age:           req.Age,
			PurposeOfMeet: req.PurposeOfMeet,
			DoctorID:      doctor.ID,
			Date:          req.Date,
			Day:           day,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			Email:         req.Email,
		})
		if err != nil {
			if relErr := s.slots.Release(doctor.AvailabilityID, day, req.StartTime, req.EndTime); relErr != nil {
				log.Printf("revert slot after failed insert: %v", relErr)
			}
			return fmt.Errorf("insert booking: %w", err)
		}

		created = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendConfirmation(ctx, created, doctor.Name)

	return created, nil
}

// Reschedule moves an appointment to a new slot. The new slot is taken
// before the old one is freed, so a conflict leaves everything untouched.
// A missing old slot (the weekly template may have changed since booking)
// is logged and skipped rather than failing the operation.
func (s *Service) Reschedule(ctx context.Context, id int64, req RescheduleRequest) (*Appointment, error) {
	if err := validateReschedule(req); err != nil {
		return nil, err
	}

	newDay, err := DayOfWeek(req.Date)
	if err != nil {
		return nil, err
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	doctor, err := s.dir.DoctorByID(appt.DoctorID)
	if err != nil {
		return nil, err
	}

	// The stored day is a cache; recompute it from the stored date so a
	// drifted row still frees the right slot.
	oldDay := appt.Day
	if derived, err := DayOfWeek(appt.Date); err == nil {
		oldDay = derived
	}

	var updated *Appointment

	err = s.locker.WithTemplateLock(ctx, doctor.AvailabilityID, func(lockCtx context.Context) error {
		if err := s.slots.TryBook(doctor.AvailabilityID, newDay, req.StartTime, req.EndTime); err != nil {
			return err
		}

		row, err := s.repo.Update(lockCtx, id, req.Date, newDay, req.StartTime, req.EndTime, req.PurposeOfMeet)
		if err != nil {
			if relErr := s.slots.Release(doctor.AvailabilityID, newDay, req.StartTime, req.EndTime); relErr != nil {
				log.Printf("revert new slot after failed update: %v", relErr)
			}
			return fmt.Errorf("update booking: %w", err)
		}

		if err := s.slots.Release(doctor.AvailabilityID, oldDay, appt.StartTime, appt.EndTime); err != nil {
			log.Printf("free old slot %s %s-%s for appointment %d: %v", oldDay, appt.StartTime, appt.EndTime, id, err)
		}

		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Cancel deletes the booking row, then frees its slot. The row deletion
// stands even when the slot can no longer be resolved.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	doctor, err := s.dir.DoctorByID(appt.DoctorID)
	if err != nil {
		log.Printf("cancel appointment %d: doctor %s no longer in directory, slot left as is", id, appt.DoctorID)
		return nil
	}

	day := appt.Day
	if derived, err := DayOfWeek(appt.Date); err == nil {
		day = derived
	}

	err = s.locker.WithTemplateLock(ctx, doctor.AvailabilityID, func(context.Context) error {
		return s.slots.Release(doctor.AvailabilityID, day, appt.StartTime, appt.EndTime)
	})
	if err != nil {
		log.Printf("free slot for cancelled appointment %d: %v", id, err)
	}

	return nil
}

// DoctorAvailability fetches a doctor's full weekly grid.
func (s *Service) DoctorAvailability(doctorID string) (availability.WeekGrid, error) {
	doctor, err := s.dir.DoctorByID(doctorID)
	if err != nil {
		return nil, err
	}
	return s.slots.Grid(doctor.AvailabilityID)
}

// TemplateAvailability fetches a weekly grid directly by availability id.
func (s *Service) TemplateAvailability(availabilityID string) (availability.WeekGrid, error) {
	return s.slots.Grid(availabilityID)
}

func (s *Service) Appointments(ctx context.Context) ([]AppointmentDetail, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	details := make([]AppointmentDetail, 0, len(rows))
	for _, a := range rows {
		details = append(details, s.detail(a))
	}
	return details, nil
}

func (s *Service) AppointmentByID(ctx context.Context, id int64) (*AppointmentDetail, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := s.detail(*a)
	return &d, nil
}

func (s *Service) AppointmentByEmail(ctx context.Context, email string) (*AppointmentDetail, error) {
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: email must look like local@domain.tld", ErrInvalidInput)
	}

	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	d := s.detail(*a)
	return &d, nil
}

// detail joins doctor reference data in at read time rather than storing
// it redundantly on the row.
func (s *Service) detail(a Appointment) AppointmentDetail {
	d := AppointmentDetail{Appointment: a}
	doctor, err := s.dir.DoctorByID(a.DoctorID)
	if err != nil {
		return d
	}
	d.DoctorName = doctor.Name
	d.Specialization = s.dir.SpecializationName(doctor.SpecializationID)
	d.Branch = s.dir.BranchName(doctor.BranchID)
	return d
}

func (s *Service) sendConfirmation(ctx context.Context, appt *Appointment, doctorName string) {
	if s.email == nil {
		return
	}

	msg := notify.EmailMessage{
		To:      appt.Email,
		ToName:  appt.PatientName,
		Subject: "Your appointment is confirmed",
		Body: fmt.Sprintf("Your appointment with %s on %s (%s) from %s to %s is confirmed. Booking reference: %d.",
			doctorName, appt.Date, appt.Day, appt.StartTime, appt.EndTime, appt.ID),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		log.Printf("send confirmation for appointment %d: %v", appt.ID, err)
	}
}

func validateBooking(req BookRequest) error {
	switch {
	case req.PatientName == "":
		return fmt.Errorf("%w: patientName is required", ErrInvalidInput)
	case req.DoctorID == "":
		return fmt.Errorf("%w: doctorId is required", ErrInvalidInput)
	case req.Date == "":
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	case req.StartTime == "":
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	case req.EndTime == "":
		return fmt.Errorf("%w: endTime is required", ErrInvalidInput)
	case req.PurposeOfMeet == "":
		return fmt.Errorf("%w: purposeOfMeet is required", ErrInvalidInput)
	case req.Email == "":
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	if !emailPattern.MatchString(req.Email) {
		return fmt.Errorf("%w: email must look like local@domain.tld", ErrInvalidInput)
	}
	return nil
}

func validateReschedule(req RescheduleRequest) error {
	switch {
	case req.Date == "":
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	case req.StartTime == "":
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	case req.EndTime == "":
		return fmt.Errorf("%w: endTime is required", ErrInvalidInput)
	case req.PurposeOfMeet == "":
		return fmt.Errorf("%w: purposeOfMeet is required", ErrInvalidInput)
	}
	return nil
}
