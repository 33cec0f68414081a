package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vietclinic/chatbot-service/internal/clinicapi"
	"github.com/vietclinic/chatbot-service/internal/ident"
	"github.com/vietclinic/chatbot-service/internal/schedule"
	"github.com/vietclinic/chatbot-service/pkg/logging"
)

// Tool names the model may invoke. The set is closed; dispatch is a fixed
// table rather than open-ended handler registration.
const (
	FuncGetDoctorList         = "get_doctor_list"
	FuncGetDoctorAvailability = "get_doctor_availability"
	FuncCreateAppointment     = "create_appointment"
)

const (
	availabilityWindowDays = 6
	appointmentType        = "IN_PERSON"
	defaultBookingReason   = "Đặt lịch qua chatbot"
	dateLayout             = "2006-01-02"
)

// DoctorSummary is one doctor entry in a listing result.
type DoctorSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Specialty  string  `json:"specialty"`
	Experience string  `json:"experience"`
	Fee        float64 `json:"fee"`
}

// DoctorListResult is the routed outcome of get_doctor_list.
type DoctorListResult struct {
	Success bool            `json:"success"`
	Doctors []DoctorSummary `json:"doctors"`
	Total   int             `json:"total"`
	Message string          `json:"message"`
	Error   string          `json:"error,omitempty"`
}

// AvailabilityResult is the routed outcome of get_doctor_availability.
// Zero available slots is a success with an explicit count message.
type AvailabilityResult struct {
	Success        bool            `json:"success"`
	DoctorID       string          `json:"doctor_id,omitempty"`
	Date           string          `json:"date,omitempty"`
	AvailableSlots []schedule.Slot `json:"available_slots"`
	Message        string          `json:"message"`
	Error          string          `json:"error,omitempty"`
}

// AppointmentResult is the routed outcome of create_appointment.
type AppointmentResult struct {
	Success       bool    `json:"success"`
	AppointmentID string  `json:"appointment_id,omitempty"`
	DoctorID      string  `json:"doctor_id,omitempty"`
	DoctorName    string  `json:"doctor_name,omitempty"`
	Date          string  `json:"date,omitempty"`
	Time          string  `json:"time,omitempty"`
	EndTime       string  `json:"end_time,omitempty"`
	Symptoms      string  `json:"symptoms,omitempty"`
	Reason        string  `json:"reason,omitempty"`
	Fee           float64 `json:"fee,omitempty"`
	Status        string  `json:"status,omitempty"`
	Message       string  `json:"message"`
	Error         string  `json:"error,omitempty"`
}

// ErrorResult is returned for unroutable invocations.
type ErrorResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Router maps tool invocations to domain operations. Every failure surfaces
// as a success:false result rather than an error, so routing outcomes always
// flow back through the model for user-facing phrasing.
type Router struct {
	api    *clinicapi.Client
	logger *logging.Logger
	now    func() time.Time
}

// RouterOption customizes Router behavior.
type RouterOption func(*Router)

// WithClock overrides the router's time source.
func WithClock(now func() time.Time) RouterOption {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRouter creates a function router over the clinic backend client.
func NewRouter(api *clinicapi.Client, logger *logging.Logger, opts ...RouterOption) *Router {
	if api == nil {
		panic("conversation: clinic api client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	r := &Router{
		api:    api,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route dispatches a tool invocation and returns the domain result.
func (r *Router) Route(ctx context.Context, name string, args map[string]any, userToken string) any {
	switch name {
	case FuncGetDoctorList:
		return r.doctorList(ctx, argString(args, "specialty"))
	case FuncGetDoctorAvailability:
		return r.doctorAvailability(ctx, args["doctor_id"], argString(args, "date"))
	case FuncCreateAppointment:
		return r.createAppointment(ctx, args, userToken)
	default:
		r.logger.Warn("unknown function requested by model", "function", name)
		return ErrorResult{
			Success: false,
			Error:   fmt.Sprintf("unknown function: %s", name),
			Message: unprocessableText,
		}
	}
}

func (r *Router) doctorList(ctx context.Context, specialty string) DoctorListResult {
	resp, err := r.api.ListDoctors(ctx, specialty)
	if err != nil {
		r.logger.Error("doctor listing failed", "error", err, "specialty", specialty)
		return DoctorListResult{
			Success: false,
			Doctors: []DoctorSummary{},
			Error:   err.Error(),
			Message: "Không thể lấy danh sách bác sĩ. Vui lòng thử lại sau.",
		}
	}

	doctors := make([]DoctorSummary, 0, len(resp.Data.Data))
	for _, record := range resp.Data.Data {
		profile := record.Doctor.Profile
		doctors = append(doctors, DoctorSummary{
			ID:         ident.Normalize(record.ID),
			Name:       fmt.Sprintf("Dr. %s %s", profile.FirstName, profile.LastName),
			Specialty:  strings.Join(record.Specialties, ", "),
			Experience: fmt.Sprintf("%d năm", record.YearsOfExperience),
			Fee:        record.ConsultationFee,
		})
	}

	return DoctorListResult{
		Success: true,
		Doctors: doctors,
		Total:   resp.Data.Total,
		Message: fmt.Sprintf("Tìm thấy %d bác sĩ phù hợp.", len(doctors)),
	}
}

func (r *Router) doctorAvailability(ctx context.Context, doctorID any, date string) AvailabilityResult {
	if date == "" {
		date = r.now().Format(dateLayout)
	}
	endDate := ""
	if parsed, err := time.Parse(dateLayout, date); err == nil {
		endDate = parsed.AddDate(0, 0, availabilityWindowDays).Format(dateLayout)
	}

	id := ident.Normalize(doctorID)
	resp, err := r.api.GetAvailability(ctx, id, date, endDate)
	if err != nil {
		r.logger.Error("availability lookup failed", "error", err, "doctor_id", id, "date", date)
		return AvailabilityResult{
			Success:        false,
			AvailableSlots: []schedule.Slot{},
			Error:          err.Error(),
			Message:        "Không thể lấy thông tin lịch trống của bác sĩ.",
		}
	}

	slots := make([]schedule.Slot, 0)
	for _, day := range resp.Data {
		if day.Date != date {
			continue
		}
		slots = append(slots, schedule.ComputeSlots(schedule.DaySchedule{
			Date:        day.Date,
			Morning:     toWindow(day.AvailableSessions.Morning),
			Afternoon:   toWindow(day.AvailableSessions.Afternoon),
			Evening:     toWindow(day.AvailableSessions.Evening),
			Booked:      toRanges(day.BookedSlots),
			SlotMinutes: day.DefaultConsultationDuration,
		})...)
	}

	return AvailabilityResult{
		Success:        true,
		DoctorID:       id,
		Date:           date,
		AvailableSlots: slots,
		Message:        fmt.Sprintf("Tìm thấy %d khung giờ trống.", len(slots)),
	}
}

func (r *Router) createAppointment(ctx context.Context, args map[string]any, userToken string) AppointmentResult {
	doctorID := args["doctor_id"]
	date := argString(args, "date")
	startTime := argString(args, "time")
	symptoms := argString(args, "symptoms")
	reason := argString(args, "reason")

	if doctorID == nil || date == "" || startTime == "" {
		return AppointmentResult{
			Success: false,
			Error:   "Thiếu thông tin bắt buộc",
			Message: "Cần có ID bác sĩ, ngày và giờ khám",
		}
	}

	endTime, err := addMinutes(startTime, schedule.DefaultSlotMinutes)
	if err != nil {
		return AppointmentResult{
			Success: false,
			Error:   err.Error(),
			Message: "Giờ khám không hợp lệ. Vui lòng nhập giờ theo định dạng HH:MM",
		}
	}
	if reason == "" {
		reason = defaultBookingReason
	}

	id := ident.Normalize(doctorID)

	profile, err := r.api.GetDoctorProfile(ctx, id)
	if err != nil {
		r.logger.Error("doctor profile lookup failed", "error", err, "doctor_id", id)
		return AppointmentResult{
			Success: false,
			Error:   err.Error(),
			Message: "Đã xảy ra lỗi khi đặt lịch khám.",
		}
	}
	fee := profile.Data.ConsultationFee

	resp, err := r.api.CreateAppointment(ctx, clinicapi.AppointmentRequest{
		DoctorID:        id,
		AppointmentDate: date,
		StartTime:       startTime,
		EndTime:         endTime,
		AppointmentFee:  fee,
		Type:            appointmentType,
		MedicalInfo: clinicapi.MedicalInfo{
			Symptoms: symptoms,
			Reason:   reason,
		},
	}, userToken)
	if err != nil {
		r.logger.Error("appointment creation failed", "error", err, "doctor_id", id, "date", date)
		return AppointmentResult{
			Success: false,
			Error:   err.Error(),
			Message: "Đã xảy ra lỗi khi đặt lịch khám.",
		}
	}

	if resp.ID == "" {
		detail := resp.Message
		if detail == "" {
			detail = "unknown error"
		}
		return AppointmentResult{
			Success: false,
			Error:   detail,
			Message: "Không thể đặt lịch khám. Vui lòng thử lại sau.",
		}
	}

	doctorName := "Bác sĩ"
	if resp.Doctor != nil {
		doctorName = fmt.Sprintf("Bác sĩ %s %s", resp.Doctor.Profile.FirstName, resp.Doctor.Profile.LastName)
	}

	return AppointmentResult{
		Success:       true,
		AppointmentID: resp.ID,
		DoctorID:      id,
		DoctorName:    doctorName,
		Date:          date,
		Time:          startTime,
		EndTime:       endTime,
		Symptoms:      symptoms,
		Reason:        reason,
		Fee:           fee,
		Status:        "confirmed",
		Message:       "Đặt lịch khám thành công!",
	}
}

func toWindow(w *clinicapi.SessionWindow) *schedule.Window {
	if w == nil {
		return nil
	}
	return &schedule.Window{Start: w.Start, End: w.End}
}

func toRanges(booked []clinicapi.BookedSlot) []schedule.Range {
	ranges := make([]schedule.Range, 0, len(booked))
	for _, b := range booked {
		ranges = append(ranges, schedule.Range{Start: b.StartTime, End: b.EndTime})
	}
	return ranges
}

func addMinutes(clock string, minutes int) (string, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return "", fmt.Errorf("conversation: invalid time %q", clock)
	}
	return parsed.Add(time.Duration(minutes) * time.Minute).Format("15:04"), nil
}

func argString(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	value, ok := args[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
