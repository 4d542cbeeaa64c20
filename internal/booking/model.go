package booking

// Appointment is one durable booking row. Day is derived from Date on the
// server and cached on the row for slot lookups; it is never trusted from
// the caller.
type Appointment struct {
	ID            int64  `json:"id"`
	PatientName   string `json:"patientName"`
	PhoneNo       string `json:"phoneNo"`
	Age           int    `json:"age"`
	PurposeOfMeet string `json:"purposeOfMeet"`
	DoctorID      string `json:"doctorId"`
	Date          string `json:"date"` // YYYY-MM-DD
	Day           string `json:"day"`  // Monday..Sunday
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	Email         string `json:"email"`
}

// AppointmentDetail is an appointment joined with doctor reference data at
// read time.
type AppointmentDetail struct {
	Appointment
	DoctorName     string `json:"doctorName"`
	Specialization string `json:"specialization"`
	Branch         string `json:"branch"`
}
