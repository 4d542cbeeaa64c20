package api

import "github.com/clinicgrid/hospital-booking/internal/availability"

type CreateBookingRequest struct {
	PatientName   string `json:"patientName"`
	PhoneNo       string `json:"phoneNo"`
	Age           int    `json:"age"`
	PurposeOfMeet string `json:"purposeOfMeet"`
	DoctorID      string `json:"doctorId"`
	Date          string `json:"date"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	Email         string `json:"email"`
}

// RescheduleRequest still accepts a day field for older clients, but the
// server always re-derives the weekday from the date.
type RescheduleRequest struct {
	Date          string `json:"date"`
	Day           string `json:"day,omitempty"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	PurposeOfMeet string `json:"purposeOfMeet"`
}

type AvailabilityResponse struct {
	AvailabilityID string                `json:"availabilityId"`
	Week           availability.WeekGrid `json:"week"`
}

type CancelResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
