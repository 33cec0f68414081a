package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vietclinic/chatbot-service/internal/clinicapi"
	"github.com/vietclinic/chatbot-service/pkg/logging"
)

func fixedClock(value string) func() time.Time {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return parsed }
}

func newTestRouter(t *testing.T, handler http.Handler) *Router {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	api := clinicapi.NewClient(server.URL, "service-token")
	return NewRouter(api, logging.Default(), WithClock(fixedClock("2026-03-02")))
}

func TestRouter_DoctorList(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/doctor-profile/all" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("specialties"); got != "Da liễu" {
			t.Errorf("expected specialty filter, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data": []map[string]any{
					{
						"_id":               "66a1b2c3",
						"doctor":            map[string]any{"profile": map[string]any{"firstName": "Minh", "lastName": "Nguyen"}},
						"specialties":       []string{"Da liễu"},
						"yearsOfExperience": 10,
						"consultationFee":   150000,
					},
					{
						"_id":               map[string]any{"buffer": map[string]any{"data": []int{1, 2, 255}}},
						"doctor":            map[string]any{"profile": map[string]any{"firstName": "Lan", "lastName": "Tran"}},
						"specialties":       []string{"Da liễu", "Nhi khoa"},
						"yearsOfExperience": 5,
						"consultationFee":   120000,
					},
				},
				"total": 2,
			},
		})
	})

	router := newTestRouter(t, handler)
	result, ok := router.Route(context.Background(), FuncGetDoctorList, map[string]any{"specialty": "Da liễu"}, "").(DoctorListResult)
	if !ok {
		t.Fatal("expected DoctorListResult")
	}
	if !result.Success || result.Total != 2 {
		t.Fatalf("unexpected result: %#v", result)
	}
	if result.Doctors[0].Name != "Dr. Minh Nguyen" || result.Doctors[0].ID != "66a1b2c3" {
		t.Fatalf("unexpected first doctor: %#v", result.Doctors[0])
	}
	if result.Doctors[0].Experience != "10 năm" {
		t.Fatalf("unexpected experience: %s", result.Doctors[0].Experience)
	}
	// Byte-buffer ids are canonicalized to lowercase hex.
	if result.Doctors[1].ID != "0102ff" {
		t.Fatalf("expected normalized buffer id, got %s", result.Doctors[1].ID)
	}
	if result.Message != "Tìm thấy 2 bác sĩ phù hợp." {
		t.Fatalf("unexpected message: %s", result.Message)
	}
}

func TestRouter_DoctorList_BackendFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	router := newTestRouter(t, handler)
	result := router.Route(context.Background(), FuncGetDoctorList, nil, "").(DoctorListResult)
	if result.Success {
		t.Fatal("expected failure result")
	}
	if result.Error == "" || result.Doctors == nil {
		t.Fatalf("expected error detail and empty doctor list, got %#v", result)
	}
}

func TestRouter_DoctorAvailability(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/work-schedule/doctor/availability" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("startDate") != "2026-03-05" || q.Get("id") != "66a1b2c3" {
			t.Errorf("unexpected query: %v", q)
		}
		if q.Get("endDate") != "2026-03-11" {
			t.Errorf("expected six-day window end, got %q", q.Get("endDate"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{
					"date":              "2026-03-05",
					"availableSessions": map[string]any{"morning": map[string]string{"start": "09:00", "end": "10:00"}},
					"bookedSlots":       []map[string]string{{"startTime": "09:00", "endTime": "09:30"}},
				},
				{
					// Outside the requested day, must not contribute slots.
					"date":              "2026-03-06",
					"availableSessions": map[string]any{"morning": map[string]string{"start": "09:00", "end": "12:00"}},
				},
			},
		})
	})

	router := newTestRouter(t, handler)
	result := router.Route(context.Background(), FuncGetDoctorAvailability,
		map[string]any{"doctor_id": "66a1b2c3", "date": "2026-03-05"}, "").(AvailabilityResult)

	if !result.Success {
		t.Fatalf("expected success, got %#v", result)
	}
	if len(result.AvailableSlots) != 1 {
		t.Fatalf("expected one free slot, got %d", len(result.AvailableSlots))
	}
	if result.AvailableSlots[0].Start != "09:30" || result.AvailableSlots[0].End != "10:00" {
		t.Fatalf("unexpected slot: %#v", result.AvailableSlots[0])
	}
	if result.Message != "Tìm thấy 1 khung giờ trống." {
		t.Fatalf("unexpected message: %s", result.Message)
	}
}

func TestRouter_DoctorAvailability_DefaultsToToday(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("startDate"); got != "2026-03-02" {
			t.Errorf("expected clock date, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})

	router := newTestRouter(t, handler)
	result := router.Route(context.Background(), FuncGetDoctorAvailability,
		map[string]any{"doctor_id": "66a1b2c3"}, "").(AvailabilityResult)

	if !result.Success || len(result.AvailableSlots) != 0 {
		t.Fatalf("expected empty success result, got %#v", result)
	}
	if result.Message != "Tìm thấy 0 khung giờ trống." {
		t.Fatalf("unexpected message: %s", result.Message)
	}
}

func TestRouter_CreateAppointment(t *testing.T) {
	var bookingBody clinicapi.AppointmentRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/doctor-profile/66a1b2c3":
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"consultationFee": 150000},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/appointment/create":
			if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
				t.Errorf("expected user token forwarded, got %q", got)
			}
			if err := json.NewDecoder(r.Body).Decode(&bookingBody); err != nil {
				t.Fatalf("failed to decode booking: %v", err)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"_id":     "apt-1",
				"message": "ok",
				"doctor":  map[string]any{"profile": map[string]any{"firstName": "Minh", "lastName": "Nguyen"}},
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	})

	router := newTestRouter(t, handler)
	result := router.Route(context.Background(), FuncCreateAppointment, map[string]any{
		"doctor_id": "66a1b2c3",
		"date":      "2026-03-05",
		"time":      "09:00",
		"symptoms":  "đau đầu",
	}, "user-token").(AppointmentResult)

	if !result.Success {
		t.Fatalf("expected success, got %#v", result)
	}
	if result.AppointmentID != "apt-1" || result.Status != "confirmed" {
		t.Fatalf("unexpected result: %#v", result)
	}
	if result.DoctorName != "Bác sĩ Minh Nguyen" {
		t.Fatalf("unexpected doctor name: %s", result.DoctorName)
	}
	if result.EndTime != "09:30" {
		t.Fatalf("expected computed end time, got %s", result.EndTime)
	}

	if bookingBody.EndTime != "09:30" || bookingBody.AppointmentFee != 150000 {
		t.Fatalf("unexpected booking payload: %#v", bookingBody)
	}
	if bookingBody.Type != appointmentType || bookingBody.MedicalInfo.Reason != defaultBookingReason {
		t.Fatalf("expected defaults applied, got %#v", bookingBody)
	}
	if bookingBody.MedicalInfo.Symptoms != "đau đầu" {
		t.Fatalf("expected symptoms forwarded, got %#v", bookingBody.MedicalInfo)
	}
}

func TestRouter_CreateAppointment_MissingArgs(t *testing.T) {
	router := newTestRouter(t, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		t.Errorf("no backend call expected, got %s", r.URL.Path)
	}))

	result := router.Route(context.Background(), FuncCreateAppointment,
		map[string]any{"doctor_id": "66a1b2c3", "date": "2026-03-05"}, "").(AppointmentResult)
	if result.Success || result.Error != "Thiếu thông tin bắt buộc" {
		t.Fatalf("expected missing-args failure, got %#v", result)
	}
}

func TestRouter_CreateAppointment_InvalidTime(t *testing.T) {
	router := newTestRouter(t, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		t.Errorf("no backend call expected, got %s", r.URL.Path)
	}))

	result := router.Route(context.Background(), FuncCreateAppointment,
		map[string]any{"doctor_id": "66a1b2c3", "date": "2026-03-05", "time": "chín giờ"}, "").(AppointmentResult)
	if result.Success || !strings.Contains(result.Message, "HH:MM") {
		t.Fatalf("expected invalid-time failure, got %#v", result)
	}
}

func TestRouter_CreateAppointment_RejectedWithoutID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"consultationFee": 100000}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"message": "khung giờ đã được đặt"})
	})

	router := newTestRouter(t, handler)
	result := router.Route(context.Background(), FuncCreateAppointment, map[string]any{
		"doctor_id": "66a1b2c3",
		"date":      "2026-03-05",
		"time":      "09:00",
	}, "").(AppointmentResult)

	if result.Success || result.Error != "khung giờ đã được đặt" {
		t.Fatalf("expected rejection surfaced, got %#v", result)
	}
}

func TestRouter_UnknownFunction(t *testing.T) {
	router := newTestRouter(t, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		t.Errorf("no backend call expected, got %s", r.URL.Path)
	}))

	result := router.Route(context.Background(), "get_weather", nil, "").(ErrorResult)
	if result.Success {
		t.Fatal("expected failure result")
	}
	if result.Error != "unknown function: get_weather" || result.Message != unprocessableText {
		t.Fatalf("unexpected result: %#v", result)
	}
}
