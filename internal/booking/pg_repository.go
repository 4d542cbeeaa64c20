package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pool querier
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func newPgRepositoryWithQuerier(q querier) *PgRepository {
	return &PgRepository{pool: q}
}

const bookingColumns = `id, patient_name, phone_no, age, purpose_of_meet, doctor_id, date, day, start_time, end_time, email`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientName,
		&a.PhoneNo,
		&a.Age,
		&a.PurposeOfMeet,
		&a.DoctorID,
		&a.Date,
		&a.Day,
		&a.StartTime,
		&a.EndTime,
		&a.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func (r *PgRepository) Insert(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (patient_name, phone_no, age, purpose_of_meet, doctor_id, date, day, start_time, end_time, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+bookingColumns+`
	`, a.PatientName, a.PhoneNo, a.Age, a.PurposeOfMeet, a.DoctorID, a.Date, a.Day, a.StartTime, a.EndTime, a.Email)

	return scanAppointment(row)
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetByEmail(ctx context.Context, email string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE email = $1
		ORDER BY id DESC
		LIMIT 1
	`, email)
	return scanAppointment(row)
}

func (r *PgRepository) List(ctx context.Context) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) Update(ctx context.Context, id int64, date, day, startTime, endTime, purpose string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET date = $2,
		    day = $3,
		    start_time = $4,
		    end_time = $5,
		    purpose_of_meet = $6
		WHERE id = $1
		RETURNING `+bookingColumns+`
	`, id, date, day, startTime, endTime, purpose)

	return scanAppointment(row)
}

func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM bookings
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}
