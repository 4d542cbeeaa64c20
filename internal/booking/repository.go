package booking

import (
	"context"
	"errors"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	Insert(ctx context.Context, a Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	GetByEmail(ctx context.Context, email string) (*Appointment, error)
	List(ctx context.Context) ([]Appointment, error)

	// Update rewrites the reschedulable fields of one row.
	Update(ctx context.Context, id int64, date, day, startTime, endTime, purpose string) (*Appointment, error)

	Delete(ctx context.Context, id int64) error
}
