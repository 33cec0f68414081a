package clinicapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDoctors(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(DoctorListResponse{
			Data: DoctorPage{
				Data: []DoctorRecord{{
					ID:                "65f0c1d2e3",
					Doctor:            Account{Profile: PersonProfile{FirstName: "An", LastName: "Nguyen"}},
					Specialties:       []string{"Thần kinh"},
					YearsOfExperience: 12,
					ConsultationFee:   200000,
				}},
				Total: 1,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "default-token")
	resp, err := client.ListDoctors(context.Background(), "Thần kinh")
	require.NoError(t, err)

	assert.Equal(t, "/doctor-profile/all", gotPath)
	assert.Contains(t, gotQuery, "limit=10")
	assert.Contains(t, gotQuery, "specialties=")
	assert.Equal(t, "Bearer default-token", gotAuth)
	require.Len(t, resp.Data.Data, 1)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "An", resp.Data.Data[0].Doctor.Profile.FirstName)
}

func TestListDoctorsNoSpecialtyOmitsFilter(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(DoctorListResponse{})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.ListDoctors(context.Background(), "")
	require.NoError(t, err)
	assert.NotContains(t, gotQuery, "specialties")
}

func TestGetAvailability(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/work-schedule/doctor/availability", r.URL.Path)
		assert.Equal(t, "abc123", r.URL.Query().Get("id"))
		assert.Equal(t, "2026-09-01", r.URL.Query().Get("startDate"))
		assert.Equal(t, "2026-09-08", r.URL.Query().Get("endDate"))
		json.NewEncoder(w).Encode(AvailabilityResponse{
			Data: []DayAvailability{{
				Date: "2026-09-01",
				AvailableSessions: AvailableSessions{
					Morning: &SessionWindow{Start: "09:00", End: "11:00"},
				},
				BookedSlots:                 []BookedSlot{{StartTime: "09:00", EndTime: "09:30"}},
				DefaultConsultationDuration: 30,
			}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	resp, err := client.GetAvailability(context.Background(), "abc123", "2026-09-01", "2026-09-08")
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	require.NotNil(t, resp.Data[0].AvailableSessions.Morning)
	assert.Equal(t, "09:00", resp.Data[0].AvailableSessions.Morning.Start)
	assert.Nil(t, resp.Data[0].AvailableSessions.Evening)
}

func TestCreateAppointmentTokenOverride(t *testing.T) {
	var gotAuth string
	var gotBody AppointmentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/appointment/create", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(AppointmentResponse{
			ID: "apt-1",
			Doctor: &AppointmentDoctor{
				Profile: PersonProfile{FirstName: "An", LastName: "Nguyen"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "default-token")
	resp, err := client.CreateAppointment(context.Background(), AppointmentRequest{
		DoctorID:        "abc123",
		AppointmentDate: "2026-09-01",
		StartTime:       "09:30",
		EndTime:         "10:00",
		AppointmentFee:  200000,
		Type:            "IN_PERSON",
		MedicalInfo:     MedicalInfo{Symptoms: "đau đầu", Reason: "Đặt lịch qua chatbot"},
	}, "user-token")
	require.NoError(t, err)

	assert.Equal(t, "Bearer user-token", gotAuth)
	assert.Equal(t, "abc123", gotBody.DoctorID)
	assert.Equal(t, "apt-1", resp.ID)
}

func TestGetPropagatesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.GetDoctorProfile(context.Background(), "abc123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestGetPropagatesDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.ListSpecialties(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
