package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clinicgrid/hospital-booking/internal/availability"
	"github.com/clinicgrid/hospital-booking/internal/booking"
	"github.com/clinicgrid/hospital-booking/internal/directory"
	redisclient "github.com/clinicgrid/hospital-booking/internal/redis"
)

func listHospitalsHandler(dir *directory.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		city := r.URL.Query().Get("city")
		specialization := r.URL.Query().Get("specialization")
		writeJSON(w, http.StatusOK, dir.Hospitals(city, specialization))
	}
}

func listSpecializationsHandler(dir *directory.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dir.Specializations())
	}
}

func listDoctorsHandler(dir *directory.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branchID := r.URL.Query().Get("branchId")
		specialization := r.URL.Query().Get("specialization")
		writeJSON(w, http.StatusOK, dir.Doctors(branchID, specialization))
	}
}

func doctorAvailabilityHandler(svc *booking.Service, dir *directory.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		doctor, err := dir.DoctorByID(id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		grid, err := svc.DoctorAvailability(id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			AvailabilityID: doctor.AvailabilityID,
			Week:           grid,
		})
	}
}

func templateAvailabilityHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		grid, err := svc.TemplateAvailability(id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			AvailabilityID: id,
			Week:           grid,
		})
	}
}

func createBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Book(r.Context(), booking.BookRequest{
			PatientName:   req.PatientName,
			PhoneNo:       req.PhoneNo,
			Age:           req.Age,
			PurposeOfMeet: req.PurposeOfMeet,
			DoctorID:      req.DoctorID,
			Date:          req.Date,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			Email:         req.Email,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, appt)
	}
}

func listAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		details, err := svc.Appointments(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, details)
	}
}

func getAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		detail, err := svc.AppointmentByID(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func getAppointmentByEmailHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")

		detail, err := svc.AppointmentByEmail(r.Context(), email)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func rescheduleHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Reschedule(r.Context(), id, booking.RescheduleRequest{
			Date:          req.Date,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			PurposeOfMeet: req.PurposeOfMeet,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appt)
	}
}

func cancelHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		if err := svc.Cancel(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, CancelResponse{Message: "appointment cancelled"})
	}
}

func appointmentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be an integer")
		return 0, false
	}
	return id, true
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, directory.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, availability.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, "availability_not_found", err.Error())
	case errors.Is(err, availability.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, availability.ErrSlotBooked):
		writeError(w, http.StatusConflict, "slot_already_booked", err.Error())
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
