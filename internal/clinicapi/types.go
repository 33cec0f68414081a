package clinicapi

// DoctorListResponse is the paginated doctor listing envelope. The backend
// nests the page inside a second "data" object.
type DoctorListResponse struct {
	Data DoctorPage `json:"data"`
}

// DoctorPage holds one page of doctor records plus the total match count.
type DoctorPage struct {
	Data  []DoctorRecord `json:"data"`
	Total int            `json:"total"`
}

// DoctorRecord is a doctor profile as returned by the listing endpoint.
// ID is left untyped: depending on the backend code path it arrives as a hex
// string or as a serialized byte-buffer object.
type DoctorRecord struct {
	ID                any      `json:"_id"`
	Doctor            Account  `json:"doctor"`
	Specialties       []string `json:"specialties"`
	YearsOfExperience int      `json:"yearsOfExperience"`
	ConsultationFee   float64  `json:"consultationFee"`
}

// Account wraps the user account a doctor profile belongs to.
type Account struct {
	Profile PersonProfile `json:"profile"`
}

// PersonProfile carries display-name fields.
type PersonProfile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// SpecialtyListResponse lists the available medical specialties.
type SpecialtyListResponse struct {
	Data []string `json:"data"`
}

// DoctorProfileResponse is a single doctor profile.
type DoctorProfileResponse struct {
	Data DoctorDetails `json:"data"`
}

// DoctorDetails is the subset of a full profile the chatbot needs.
type DoctorDetails struct {
	Specialties       []string `json:"specialties"`
	YearsOfExperience int      `json:"yearsOfExperience"`
	ConsultationFee   float64  `json:"consultationFee"`
	Biography         string   `json:"biography"`
}

// AvailabilityResponse is a doctor's schedule window.
type AvailabilityResponse struct {
	Data []DayAvailability `json:"data"`
}

// DayAvailability is one day of a doctor's working schedule.
type DayAvailability struct {
	Date                        string            `json:"date"`
	AvailableSessions           AvailableSessions `json:"availableSessions"`
	BookedSlots                 []BookedSlot      `json:"bookedSlots"`
	DefaultConsultationDuration int               `json:"defaultConsultationDuration"`
}

// AvailableSessions names the day's working blocks. Absent sessions are nil.
type AvailableSessions struct {
	Morning   *SessionWindow `json:"morning,omitempty"`
	Afternoon *SessionWindow `json:"afternoon,omitempty"`
	Evening   *SessionWindow `json:"evening,omitempty"`
}

// SessionWindow is a working block's bounds, "HH:MM".
type SessionWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BookedSlot is an interval already taken on a given day.
type BookedSlot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// AppointmentRequest is the payload for appointment creation.
type AppointmentRequest struct {
	DoctorID        string      `json:"doctorId"`
	AppointmentDate string      `json:"appointmentDate"`
	StartTime       string      `json:"startTime"`
	EndTime         string      `json:"endTime"`
	AppointmentFee  float64     `json:"appointmentFee"`
	Type            string      `json:"type"`
	MedicalInfo     MedicalInfo `json:"medicalInfo"`
}

// MedicalInfo carries the patient-supplied context for an appointment.
type MedicalInfo struct {
	Symptoms string `json:"symptoms"`
	Reason   string `json:"reason"`
}

// AppointmentResponse is the backend's reply to appointment creation. ID is
// empty when the booking was rejected; Message then carries the reason.
type AppointmentResponse struct {
	ID      string             `json:"_id"`
	Message string             `json:"message"`
	Doctor  *AppointmentDoctor `json:"doctor,omitempty"`
}

// AppointmentDoctor is the booked doctor's display info.
type AppointmentDoctor struct {
	Profile PersonProfile `json:"profile"`
}
